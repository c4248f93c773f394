package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"newsbrief/internal/domain"
)

// PostgresEditionRepository implements EditionRepository using PostgreSQL.
type PostgresEditionRepository struct {
	db DB
}

// NewPostgresEditionRepository creates a new PostgresEditionRepository.
func NewPostgresEditionRepository(db DB) *PostgresEditionRepository {
	return &PostgresEditionRepository{db: db}
}

const editionColumns = `id, status, pipeline_stage, pipeline_progress, generation_mode,
	editorial_brief, retrieval_note, failure_reason, approved_by, approved_at,
	created_at, updated_at`

// Create inserts a new edition.
func (r *PostgresEditionRepository) Create(ctx context.Context, edition *domain.Edition) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO editions (id, status, pipeline_stage, pipeline_progress,
			generation_mode, editorial_brief, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, edition.ID, edition.Status, edition.Stage, edition.Progress,
		edition.GenerationMode, edition.EditorialBrief, edition.CreatedAt, edition.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert edition: %w", err)
	}
	return nil
}

// Get retrieves an edition by ID.
func (r *PostgresEditionRepository) Get(ctx context.Context, id string) (*domain.Edition, error) {
	row := r.db.QueryRow(ctx, `SELECT `+editionColumns+` FROM editions WHERE id = $1`, id)

	edition, err := scanEdition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get edition: %w", err)
	}
	return edition, nil
}

// List returns all editions, newest first.
func (r *PostgresEditionRepository) List(ctx context.Context) ([]domain.Edition, error) {
	rows, err := r.db.Query(ctx, `SELECT `+editionColumns+` FROM editions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}
	defer rows.Close()

	var editions []domain.Edition
	for rows.Next() {
		edition, err := scanEdition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edition: %w", err)
		}
		editions = append(editions, *edition)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return editions, nil
}

// UpdateStage advances the stage. GREATEST keeps progress monotonic even if
// a caller supplies a stale value.
func (r *PostgresEditionRepository) UpdateStage(ctx context.Context, id string, stage domain.Stage, progress int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE editions
		SET pipeline_stage = $2,
			pipeline_progress = GREATEST(pipeline_progress, $3),
			updated_at = $4
		WHERE id = $1
	`, id, stage, progress, time.Now())

	if err != nil {
		return fmt.Errorf("update edition stage: %w", err)
	}
	return nil
}

// SetStatus transitions the lifecycle status and stage together.
func (r *PostgresEditionRepository) SetStatus(ctx context.Context, id string, status domain.EditionStatus, stage domain.Stage, failureReason *string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE editions
		SET status = $2, pipeline_stage = $3, failure_reason = $4, updated_at = $5
		WHERE id = $1
	`, id, status, stage, failureReason, time.Now())

	if err != nil {
		return fmt.Errorf("set edition status: %w", err)
	}
	return nil
}

// SetRetrievalNote records why the retrieval stage is incomplete.
func (r *PostgresEditionRepository) SetRetrievalNote(ctx context.Context, id string, note string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE editions SET retrieval_note = $2, updated_at = $3 WHERE id = $1
	`, id, note, time.Now())

	if err != nil {
		return fmt.Errorf("set retrieval note: %w", err)
	}
	return nil
}

// Approve marks the edition approved. The WHERE clause refuses to touch an
// already-approved edition so the transition stays one-shot.
func (r *PostgresEditionRepository) Approve(ctx context.Context, id, approver string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE editions
		SET status = $2, pipeline_stage = $3, approved_by = $4, approved_at = $5, updated_at = $5
		WHERE id = $1 AND status <> $2
	`, id, domain.EditionApproved, domain.StageApproved, approver, time.Now())

	if err != nil {
		return fmt.Errorf("approve edition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEditionImmutable
	}
	return nil
}

func scanEdition(row pgx.Row) (*domain.Edition, error) {
	var edition domain.Edition
	err := row.Scan(&edition.ID, &edition.Status, &edition.Stage, &edition.Progress,
		&edition.GenerationMode, &edition.EditorialBrief, &edition.RetrievalNote,
		&edition.FailureReason, &edition.ApprovedBy, &edition.ApprovedAt,
		&edition.CreatedAt, &edition.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &edition, nil
}
