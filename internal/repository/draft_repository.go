package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"newsbrief/internal/domain"
)

// PostgresDraftRepository implements DraftRepository using PostgreSQL.
type PostgresDraftRepository struct {
	db DB
}

// NewPostgresDraftRepository creates a new PostgresDraftRepository.
func NewPostgresDraftRepository(db DB) *PostgresDraftRepository {
	return &PostgresDraftRepository{db: db}
}

// Insert stores one generated section draft. Regeneration inserts a new row;
// drafts are never updated in place.
func (r *PostgresDraftRepository) Insert(ctx context.Context, draft *domain.SectionDraft) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO section_drafts (id, edition_id, section_name, content,
			word_count, model_used, generation_failed, pass2_state, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, draft.ID, draft.EditionID, draft.Section, draft.Content,
		draft.WordCount, draft.ModelUsed, draft.GenerationFailed, draft.Pass2State, draft.GeneratedAt)

	if err != nil {
		return fmt.Errorf("insert section draft: %w", err)
	}
	return nil
}

// Get retrieves a draft by ID.
func (r *PostgresDraftRepository) Get(ctx context.Context, id string) (*domain.SectionDraft, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, edition_id, section_name, content, word_count, model_used,
			generation_failed, pass2_state, generated_at
		FROM section_drafts
		WHERE id = $1
	`, id)

	var d domain.SectionDraft
	err := row.Scan(&d.ID, &d.EditionID, &d.Section, &d.Content, &d.WordCount,
		&d.ModelUsed, &d.GenerationFailed, &d.Pass2State, &d.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get section draft: %w", err)
	}
	return &d, nil
}

// ListByEdition returns drafts in section publication order, newest attempt last.
func (r *PostgresDraftRepository) ListByEdition(ctx context.Context, editionID string) ([]domain.SectionDraft, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, edition_id, section_name, content, word_count, model_used,
			generation_failed, pass2_state, generated_at
		FROM section_drafts
		WHERE edition_id = $1
		ORDER BY generated_at ASC, id ASC
	`, editionID)
	if err != nil {
		return nil, fmt.Errorf("list section drafts: %w", err)
	}
	defer rows.Close()

	var drafts []domain.SectionDraft
	for rows.Next() {
		var d domain.SectionDraft
		err := rows.Scan(&d.ID, &d.EditionID, &d.Section, &d.Content, &d.WordCount,
			&d.ModelUsed, &d.GenerationFailed, &d.Pass2State, &d.GeneratedAt)
		if err != nil {
			return nil, fmt.Errorf("scan section draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return drafts, nil
}

// SetPass2State records holistic-review coverage for a draft.
func (r *PostgresDraftRepository) SetPass2State(ctx context.Context, draftID string, state domain.Pass2State) error {
	_, err := r.db.Exec(ctx, `
		UPDATE section_drafts SET pass2_state = $2 WHERE id = $1
	`, draftID, state)

	if err != nil {
		return fmt.Errorf("set pass2 state: %w", err)
	}
	return nil
}
