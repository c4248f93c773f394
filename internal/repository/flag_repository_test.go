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

// seedDraft inserts an edition and one section draft so flags have a parent.
func seedDraft(t *testing.T, db *TestDB) *domain.SectionDraft {
	t.Helper()
	ctx := context.Background()

	edition := newTestEdition()
	require.NoError(t, repository.NewPostgresEditionRepository(db.Pool).Create(ctx, edition))

	draft := &domain.SectionDraft{
		ID:          uuid.New().String(),
		EditionID:   edition.ID,
		Section:     domain.SectionMarketPulse,
		Content:     "Equity markets held their range this week.",
		WordCount:   280,
		ModelUsed:   "claude-sonnet-4",
		Pass2State:  domain.Pass2Pending,
		GeneratedAt: time.Now().UTC(),
	}
	require.NoError(t, repository.NewPostgresDraftRepository(db.Pool).Insert(ctx, draft))
	return draft
}

func newTestFlag(draftID string, severity domain.Severity) domain.ComplianceFlag {
	return domain.ComplianceFlag{
		ID:                uuid.New().String(),
		SectionDraftID:    draftID,
		Severity:          severity,
		FlagType:          "performance_promise",
		MatchedText:       "guaranteed returns",
		RuleReference:     "FINRA 2210(d)(1)",
		Explanation:       "Promissory language about investment performance.",
		RecommendedAction: "Remove or rephrase the performance claim.",
		PassNumber:        1,
		CreatedAt:         time.Now().UTC(),
	}
}

func TestPostgresFlagRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	repo := repository.NewPostgresFlagRepository(testDB.Pool)
	ctx := context.Background()

	t.Run("bulk insert and list ordered by severity", func(t *testing.T) {
		testDB.TruncateTables(t, "compliance_flags", "section_drafts", "editions")
		draft := seedDraft(t, testDB)

		warning := newTestFlag(draft.ID, domain.SeverityWarning)
		block := newTestFlag(draft.ID, domain.SeverityBlock)
		review := newTestFlag(draft.ID, domain.SeverityMandatoryReview)
		require.NoError(t, repo.BulkInsert(ctx, []domain.ComplianceFlag{warning, block, review}))

		flags, err := repo.ListByEdition(ctx, draft.EditionID)
		require.NoError(t, err)
		require.Len(t, flags, 3)
		assert.Equal(t, domain.SeverityBlock, flags[0].Severity)
		assert.Equal(t, domain.SeverityMandatoryReview, flags[1].Severity)
		assert.Equal(t, domain.SeverityWarning, flags[2].Severity)
	})

	t.Run("get unknown flag returns nil", func(t *testing.T) {
		got, err := repo.Get(ctx, uuid.New().String())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("resolve preserves first resolution", func(t *testing.T) {
		testDB.TruncateTables(t, "compliance_flags", "section_drafts", "editions")
		draft := seedDraft(t, testDB)

		flag := newTestFlag(draft.ID, domain.SeverityBlock)
		require.NoError(t, repo.BulkInsert(ctx, []domain.ComplianceFlag{flag}))

		resolved, err := repo.Resolve(ctx, flag.ID, "jchen", "Rewrote the sentence")
		require.NoError(t, err)
		require.NotNil(t, resolved)
		assert.True(t, resolved.Resolved)
		require.NotNil(t, resolved.ResolvedBy)
		assert.Equal(t, "jchen", *resolved.ResolvedBy)
		require.NotNil(t, resolved.ResolutionNote)
		assert.Equal(t, "Rewrote the sentence", *resolved.ResolutionNote)

		again, err := repo.Resolve(ctx, flag.ID, "someone-else", "")
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, "jchen", *again.ResolvedBy)
	})

	t.Run("empty resolution note stored as null", func(t *testing.T) {
		testDB.TruncateTables(t, "compliance_flags", "section_drafts", "editions")
		draft := seedDraft(t, testDB)

		flag := newTestFlag(draft.ID, domain.SeverityWarning)
		require.NoError(t, repo.BulkInsert(ctx, []domain.ComplianceFlag{flag}))

		resolved, err := repo.Resolve(ctx, flag.ID, "jchen", "")
		require.NoError(t, err)
		assert.Nil(t, resolved.ResolutionNote)
	})

	t.Run("unresolved blocking filters by severity", func(t *testing.T) {
		testDB.TruncateTables(t, "compliance_flags", "section_drafts", "editions")
		draft := seedDraft(t, testDB)

		block := newTestFlag(draft.ID, domain.SeverityBlock)
		warning := newTestFlag(draft.ID, domain.SeverityWarning)
		resolvedBlock := newTestFlag(draft.ID, domain.SeverityBlock)
		require.NoError(t, repo.BulkInsert(ctx, []domain.ComplianceFlag{block, warning, resolvedBlock}))
		_, err := repo.Resolve(ctx, resolvedBlock.ID, "jchen", "handled")
		require.NoError(t, err)

		ids, err := repo.UnresolvedBlocking(ctx, draft.EditionID, false)
		require.NoError(t, err)
		assert.Equal(t, []string{block.ID}, ids)

		ids, err = repo.UnresolvedBlocking(ctx, draft.EditionID, true)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{block.ID, warning.ID}, ids)
	})
}
