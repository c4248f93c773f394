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

func newTestEdition() *domain.Edition {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Edition{
		ID:             uuid.New().String(),
		Status:         domain.EditionDraft,
		Stage:          domain.StageIdle,
		Progress:       0,
		GenerationMode: domain.ModeAuto,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestPostgresEditionRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	repo := repository.NewPostgresEditionRepository(testDB.Pool)
	ctx := context.Background()

	t.Run("create and get roundtrip", func(t *testing.T) {
		testDB.TruncateTables(t, "editions")

		edition := newTestEdition()
		brief := "Lead with the Fed decision"
		edition.GenerationMode = domain.ModeGuided
		edition.EditorialBrief = &brief

		require.NoError(t, repo.Create(ctx, edition))

		got, err := repo.Get(ctx, edition.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, edition.ID, got.ID)
		assert.Equal(t, domain.EditionDraft, got.Status)
		assert.Equal(t, domain.StageIdle, got.Stage)
		assert.Equal(t, domain.ModeGuided, got.GenerationMode)
		require.NotNil(t, got.EditorialBrief)
		assert.Equal(t, brief, *got.EditorialBrief)
		assert.Nil(t, got.ApprovedAt)
	})

	t.Run("get unknown edition returns nil", func(t *testing.T) {
		got, err := repo.Get(ctx, uuid.New().String())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list returns newest first", func(t *testing.T) {
		testDB.TruncateTables(t, "editions")

		older := newTestEdition()
		older.CreatedAt = time.Now().UTC().Add(-time.Hour)
		newer := newTestEdition()
		require.NoError(t, repo.Create(ctx, older))
		require.NoError(t, repo.Create(ctx, newer))

		editions, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, editions, 2)
		assert.Equal(t, newer.ID, editions[0].ID)
		assert.Equal(t, older.ID, editions[1].ID)
	})

	t.Run("progress never decreases", func(t *testing.T) {
		testDB.TruncateTables(t, "editions")

		edition := newTestEdition()
		require.NoError(t, repo.Create(ctx, edition))

		require.NoError(t, repo.UpdateStage(ctx, edition.ID, domain.StageDrafting, 70))

		// A stale writer supplying a lower value must not roll progress back.
		require.NoError(t, repo.UpdateStage(ctx, edition.ID, domain.StageScanningCompliance, 35))

		got, err := repo.Get(ctx, edition.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StageScanningCompliance, got.Stage)
		assert.Equal(t, 70, got.Progress)
	})

	t.Run("set status records failure reason", func(t *testing.T) {
		testDB.TruncateTables(t, "editions")

		edition := newTestEdition()
		require.NoError(t, repo.Create(ctx, edition))

		reason := "persist drafts: connection reset"
		require.NoError(t, repo.SetStatus(ctx, edition.ID, domain.EditionFailed, domain.StageFailed, &reason))

		got, err := repo.Get(ctx, edition.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.EditionFailed, got.Status)
		assert.Equal(t, domain.StageFailed, got.Stage)
		require.NotNil(t, got.FailureReason)
		assert.Equal(t, reason, *got.FailureReason)
	})

	t.Run("set retrieval note", func(t *testing.T) {
		testDB.TruncateTables(t, "editions")

		edition := newTestEdition()
		require.NoError(t, repo.Create(ctx, edition))

		require.NoError(t, repo.SetRetrievalNote(ctx, edition.ID, "partial retrieval; failed providers: edgar"))

		got, err := repo.Get(ctx, edition.ID)
		require.NoError(t, err)
		require.NotNil(t, got.RetrievalNote)
		assert.Contains(t, *got.RetrievalNote, "edgar")
	})

	t.Run("approve is one-shot", func(t *testing.T) {
		testDB.TruncateTables(t, "editions")

		edition := newTestEdition()
		edition.Status = domain.EditionReviewing
		edition.Stage = domain.StageReadyForReview
		require.NoError(t, repo.Create(ctx, edition))
		require.NoError(t, repo.SetStatus(ctx, edition.ID, domain.EditionReviewing, domain.StageReadyForReview, nil))

		require.NoError(t, repo.Approve(ctx, edition.ID, "mwhitfield"))

		got, err := repo.Get(ctx, edition.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.EditionApproved, got.Status)
		assert.Equal(t, domain.StageApproved, got.Stage)
		require.NotNil(t, got.ApprovedBy)
		assert.Equal(t, "mwhitfield", *got.ApprovedBy)
		assert.NotNil(t, got.ApprovedAt)

		// Second approval must not overwrite the first.
		err = repo.Approve(ctx, edition.ID, "someone-else")
		assert.ErrorIs(t, err, domain.ErrEditionImmutable)

		got, err = repo.Get(ctx, edition.ID)
		require.NoError(t, err)
		assert.Equal(t, "mwhitfield", *got.ApprovedBy)
	})
}
