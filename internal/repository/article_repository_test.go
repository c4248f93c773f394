package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/domain"
	"newsbrief/internal/repository"
)

func newTestArticle(editionID, title string, quality float64, tier int) domain.Article {
	return domain.Article{
		ID:          uuid.New().String(),
		EditionID:   editionID,
		Title:       title,
		URL:         "https://example.com/" + uuid.New().String(),
		Provider:    "serp_news",
		Tier:        tier,
		TierWeight:  1.0,
		Quality:     quality,
		LinkValid:   true,
		RetrievedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestPostgresArticleRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	repo := repository.NewPostgresArticleRepository(testDB.Pool)
	editions := repository.NewPostgresEditionRepository(testDB.Pool)
	ctx := context.Background()

	t.Run("bulk insert and ranked listing", func(t *testing.T) {
		testDB.TruncateTables(t, "articles", "editions")

		edition := newTestEdition()
		require.NoError(t, editions.Create(ctx, edition))

		low := newTestArticle(edition.ID, "Regional bank earnings", 0.42, 2)
		highT2 := newTestArticle(edition.ID, "Fed holds rates", 0.87, 2)
		highT1 := newTestArticle(edition.ID, "Fed rate decision", 0.87, 1)
		require.NoError(t, repo.BulkInsert(ctx, []domain.Article{low, highT2, highT1}))

		articles, err := repo.ListByEdition(ctx, edition.ID)
		require.NoError(t, err)
		require.Len(t, articles, 3)
		// Quality descending, trust tier breaks the tie.
		assert.Equal(t, highT1.ID, articles[0].ID)
		assert.Equal(t, highT2.ID, articles[1].ID)
		assert.Equal(t, low.ID, articles[2].ID)
	})

	t.Run("empty category stored as null and read back empty", func(t *testing.T) {
		testDB.TruncateTables(t, "articles", "editions")

		edition := newTestEdition()
		require.NoError(t, editions.Create(ctx, edition))

		article := newTestArticle(edition.ID, "Uncategorized wire item", 0.1, 3)
		require.NoError(t, repo.BulkInsert(ctx, []domain.Article{article}))

		articles, err := repo.ListByEdition(ctx, edition.ID)
		require.NoError(t, err)
		require.Len(t, articles, 1)
		assert.Empty(t, articles[0].Category)
	})

	t.Run("update verification writes scores back", func(t *testing.T) {
		testDB.TruncateTables(t, "articles", "editions")

		edition := newTestEdition()
		require.NoError(t, editions.Create(ctx, edition))

		article := newTestArticle(edition.ID, "ECB policy statement", 0, 3)
		require.NoError(t, repo.BulkInsert(ctx, []domain.Article{article}))

		article.Tier = 1
		article.TierWeight = 1.0
		article.Recency = 0.9
		article.Relevance = 0.75
		article.Access = 1.0
		article.Quality = 0.88
		article.Category = domain.CategoryMacro
		article.Duplicate = true
		require.NoError(t, repo.UpdateVerification(ctx, []domain.Article{article}))

		articles, err := repo.ListByEdition(ctx, edition.ID)
		require.NoError(t, err)
		require.Len(t, articles, 1)
		got := articles[0]
		assert.Equal(t, 1, got.Tier)
		assert.InDelta(t, 0.88, got.Quality, 0.0001)
		assert.Equal(t, domain.CategoryMacro, got.Category)
		assert.True(t, got.Duplicate)
	})
}
