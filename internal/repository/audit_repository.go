package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"newsbrief/internal/domain"
)

// PostgresAuditRepository implements AuditRepository using PostgreSQL.
// The audit log is append-only: no update or delete statements exist here.
type PostgresAuditRepository struct {
	db DB
}

// NewPostgresAuditRepository creates a new PostgresAuditRepository.
func NewPostgresAuditRepository(db DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

// Append inserts one audit entry. The id is assigned by the database
// sequence so ordering is monotonic.
func (r *PostgresAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO audit_log (edition_id, actor, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, entry.EditionID, entry.Actor, entry.Action, details, entry.CreatedAt).Scan(&entry.ID)

	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByEdition returns the edition's audit trail in insertion order.
func (r *PostgresAuditRepository) ListByEdition(ctx context.Context, editionID string) ([]domain.AuditEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, edition_id, actor, action, details, created_at
		FROM audit_log
		WHERE edition_id = $1
		ORDER BY id ASC
	`, editionID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		var details []byte
		if err := rows.Scan(&entry.ID, &entry.EditionID, &entry.Actor, &entry.Action, &details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if details != nil {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return entries, nil
}
