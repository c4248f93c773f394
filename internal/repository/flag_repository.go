package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"newsbrief/internal/domain"
)

// PostgresFlagRepository implements FlagRepository using PostgreSQL.
type PostgresFlagRepository struct {
	db DB
}

// NewPostgresFlagRepository creates a new PostgresFlagRepository.
func NewPostgresFlagRepository(db DB) *PostgresFlagRepository {
	return &PostgresFlagRepository{db: db}
}

const flagColumns = `id, section_draft_id, severity, flag_type, matched_text,
	rule_reference, explanation, recommended_action, pass_number,
	is_resolved, resolved_by, resolved_at, resolution_note, created_at`

// BulkInsert stores flags produced by a compliance pass.
func (r *PostgresFlagRepository) BulkInsert(ctx context.Context, flags []domain.ComplianceFlag) error {
	for i := range flags {
		f := &flags[i]
		_, err := r.db.Exec(ctx, `
			INSERT INTO compliance_flags (id, section_draft_id, severity, flag_type,
				matched_text, rule_reference, explanation, recommended_action,
				pass_number, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, f.ID, f.SectionDraftID, f.Severity, f.FlagType,
			f.MatchedText, f.RuleReference, f.Explanation, f.RecommendedAction,
			f.PassNumber, f.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert compliance flag %s: %w", f.ID, err)
		}
	}
	return nil
}

// Get retrieves a flag by ID.
func (r *PostgresFlagRepository) Get(ctx context.Context, id string) (*domain.ComplianceFlag, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flagColumns+` FROM compliance_flags WHERE id = $1`, id)

	flag, err := scanFlag(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get compliance flag: %w", err)
	}
	return flag, nil
}

// ListByEdition returns every flag attached to the edition's drafts,
// most severe first.
func (r *PostgresFlagRepository) ListByEdition(ctx context.Context, editionID string) ([]domain.ComplianceFlag, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+flagColumns+`
		FROM compliance_flags
		WHERE section_draft_id IN (SELECT id FROM section_drafts WHERE edition_id = $1)
		ORDER BY CASE severity
			WHEN 'BLOCK' THEN 0
			WHEN 'MANDATORY_REVIEW' THEN 1
			WHEN 'WARNING' THEN 2
			ELSE 3
		END, created_at ASC
	`, editionID)
	if err != nil {
		return nil, fmt.Errorf("list compliance flags: %w", err)
	}
	defer rows.Close()

	var flags []domain.ComplianceFlag
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan compliance flag: %w", err)
		}
		flags = append(flags, *flag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return flags, nil
}

// Resolve marks a flag resolved with resolver identity and optional note.
// The guarded UPDATE only touches unresolved rows, so re-resolving is a
// no-op rather than an overwrite of the original resolution.
func (r *PostgresFlagRepository) Resolve(ctx context.Context, id, resolver, note string) (*domain.ComplianceFlag, error) {
	_, err := r.db.Exec(ctx, `
		UPDATE compliance_flags
		SET is_resolved = TRUE, resolved_by = $2, resolved_at = $3,
			resolution_note = NULLIF($4, '')
		WHERE id = $1 AND is_resolved = FALSE
	`, id, resolver, time.Now(), note)
	if err != nil {
		return nil, fmt.Errorf("resolve compliance flag: %w", err)
	}

	return r.Get(ctx, id)
}

// UnresolvedBlocking returns ids of unresolved flags that prevent approval.
func (r *PostgresFlagRepository) UnresolvedBlocking(ctx context.Context, editionID string, anySeverity bool) ([]string, error) {
	query := `
		SELECT cf.id
		FROM compliance_flags cf
		JOIN section_drafts sd ON cf.section_draft_id = sd.id
		WHERE sd.edition_id = $1 AND cf.is_resolved = FALSE`
	if !anySeverity {
		query += ` AND cf.severity = 'BLOCK'`
	}
	query += ` ORDER BY cf.created_at ASC`

	rows, err := r.db.Query(ctx, query, editionID)
	if err != nil {
		return nil, fmt.Errorf("query unresolved flags: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan flag id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return ids, nil
}

func scanFlag(row pgx.Row) (*domain.ComplianceFlag, error) {
	var f domain.ComplianceFlag
	err := row.Scan(&f.ID, &f.SectionDraftID, &f.Severity, &f.FlagType, &f.MatchedText,
		&f.RuleReference, &f.Explanation, &f.RecommendedAction, &f.PassNumber,
		&f.Resolved, &f.ResolvedBy, &f.ResolvedAt, &f.ResolutionNote, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
