package repository

import (
	"context"
	"fmt"

	"newsbrief/internal/domain"
)

// PostgresArticleRepository implements ArticleRepository using PostgreSQL.
type PostgresArticleRepository struct {
	db DB
}

// NewPostgresArticleRepository creates a new PostgresArticleRepository.
func NewPostgresArticleRepository(db DB) *PostgresArticleRepository {
	return &PostgresArticleRepository{db: db}
}

// BulkInsert inserts retrieved articles for an edition.
func (r *PostgresArticleRepository) BulkInsert(ctx context.Context, articles []domain.Article) error {
	for i := range articles {
		a := &articles[i]
		_, err := r.db.Exec(ctx, `
			INSERT INTO articles (id, edition_id, title, url, provider, tier,
				tier_weight, recency_score, relevance_score, accessibility,
				quality_score, category, is_paywalled, is_duplicate, link_valid,
				raw_snippet, retrieved_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14, $15, $16, $17)
		`, a.ID, a.EditionID, a.Title, a.URL, a.Provider, a.Tier,
			a.TierWeight, a.Recency, a.Relevance, a.Access,
			a.Quality, string(a.Category), a.Paywalled, a.Duplicate, a.LinkValid,
			a.RawSnippet, a.RetrievedAt)
		if err != nil {
			return fmt.Errorf("insert article %s: %w", a.ID, err)
		}
	}
	return nil
}

// ListByEdition returns the edition's articles, ranked by quality score
// descending with trust tier ascending as secondary key.
func (r *PostgresArticleRepository) ListByEdition(ctx context.Context, editionID string) ([]domain.Article, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, edition_id, title, COALESCE(url, ''), provider, tier,
			tier_weight, recency_score, relevance_score, accessibility,
			quality_score, COALESCE(category, ''), is_paywalled, is_duplicate,
			link_valid, COALESCE(raw_snippet, ''), retrieved_at
		FROM articles
		WHERE edition_id = $1
		ORDER BY quality_score DESC, tier ASC, retrieved_at ASC
	`, editionID)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var a domain.Article
		var category string
		err := rows.Scan(&a.ID, &a.EditionID, &a.Title, &a.URL, &a.Provider, &a.Tier,
			&a.TierWeight, &a.Recency, &a.Relevance, &a.Access,
			&a.Quality, &category, &a.Paywalled, &a.Duplicate,
			&a.LinkValid, &a.RawSnippet, &a.RetrievedAt)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.Category = domain.Category(category)
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

// UpdateVerification writes back tiering, scoring, dedup, and bucketing
// results after the verification stage.
func (r *PostgresArticleRepository) UpdateVerification(ctx context.Context, articles []domain.Article) error {
	for i := range articles {
		a := &articles[i]
		_, err := r.db.Exec(ctx, `
			UPDATE articles
			SET tier = $2, tier_weight = $3, recency_score = $4,
				relevance_score = $5, accessibility = $6, quality_score = $7,
				category = NULLIF($8, ''), is_paywalled = $9, is_duplicate = $10,
				link_valid = $11
			WHERE id = $1
		`, a.ID, a.Tier, a.TierWeight, a.Recency,
			a.Relevance, a.Access, a.Quality,
			string(a.Category), a.Paywalled, a.Duplicate,
			a.LinkValid)
		if err != nil {
			return fmt.Errorf("update article %s: %w", a.ID, err)
		}
	}
	return nil
}
