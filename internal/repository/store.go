package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx. Repositories
// are written against it so a stage's writes can run inside one transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles all repositories over one database handle.
type Store struct {
	Editions EditionRepository
	Articles ArticleRepository
	Drafts   DraftRepository
	Flags    FlagRepository
	Audit    AuditRepository

	pool *pgxpool.Pool
}

// NewStore creates a Store bound to a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Editions: NewPostgresEditionRepository(pool),
		Articles: NewPostgresArticleRepository(pool),
		Drafts:   NewPostgresDraftRepository(pool),
		Flags:    NewPostgresFlagRepository(pool),
		Audit:    NewPostgresAuditRepository(pool),
		pool:     pool,
	}
}

// WithTx runs fn against a transaction-bound Store. All writes made through
// that Store commit atomically; any error rolls the whole unit back.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	if s.pool == nil {
		return fmt.Errorf("store is not transactional")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := &Store{
		Editions: NewPostgresEditionRepository(tx),
		Articles: NewPostgresArticleRepository(tx),
		Drafts:   NewPostgresDraftRepository(tx),
		Flags:    NewPostgresFlagRepository(tx),
		Audit:    NewPostgresAuditRepository(tx),
	}

	if err := fn(ctx, txStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
