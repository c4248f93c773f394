package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"newsbrief/internal/compliance"
	"newsbrief/internal/domain"
	"newsbrief/internal/mocks"
	"newsbrief/internal/service"
)

func newEditionService(
	editions *mocks.MockEditionRepository,
	articles *mocks.MockArticleRepository,
	drafts *mocks.MockDraftRepository,
	flags *mocks.MockFlagRepository,
	audit *mocks.MockAuditRepository,
	runner *mocks.MockPipelineRunner,
) *service.EditionService {
	return service.NewEditionService(editions, articles, drafts, flags, audit, runner)
}

func TestEditionService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates draft edition with defaults", func(t *testing.T) {
		editions := new(mocks.MockEditionRepository)
		editions.On("Create", mock.Anything, mock.AnythingOfType("*domain.Edition")).Return(nil)

		svc := newEditionService(editions, new(mocks.MockArticleRepository),
			new(mocks.MockDraftRepository), new(mocks.MockFlagRepository),
			new(mocks.MockAuditRepository), new(mocks.MockPipelineRunner))

		edition, err := svc.Create(ctx, service.CreateEditionInput{})
		require.NoError(t, err)

		assert.NotEmpty(t, edition.ID)
		assert.Equal(t, domain.EditionDraft, edition.Status)
		assert.Equal(t, domain.StageIdle, edition.Stage)
		assert.Equal(t, 0, edition.Progress)
		assert.Equal(t, domain.ModeAuto, edition.GenerationMode)
		assert.Nil(t, edition.EditorialBrief)
		editions.AssertExpectations(t)
	})

	t.Run("stores editorial brief for guided mode", func(t *testing.T) {
		editions := new(mocks.MockEditionRepository)
		editions.On("Create", mock.Anything, mock.AnythingOfType("*domain.Edition")).Return(nil)

		svc := newEditionService(editions, new(mocks.MockArticleRepository),
			new(mocks.MockDraftRepository), new(mocks.MockFlagRepository),
			new(mocks.MockAuditRepository), new(mocks.MockPipelineRunner))

		edition, err := svc.Create(ctx, service.CreateEditionInput{
			GenerationMode: domain.ModeGuided,
			EditorialBrief: "Focus on Gulf capital in US logistics",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.ModeGuided, edition.GenerationMode)
		require.NotNil(t, edition.EditorialBrief)
		assert.Equal(t, "Focus on Gulf capital in US logistics", *edition.EditorialBrief)
	})

	t.Run("propagates repository error", func(t *testing.T) {
		editions := new(mocks.MockEditionRepository)
		editions.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

		svc := newEditionService(editions, new(mocks.MockArticleRepository),
			new(mocks.MockDraftRepository), new(mocks.MockFlagRepository),
			new(mocks.MockAuditRepository), new(mocks.MockPipelineRunner))

		_, err := svc.Create(ctx, service.CreateEditionInput{})
		assert.Error(t, err)
	})
}

func TestEditionService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns not found for unknown edition", func(t *testing.T) {
		editions := new(mocks.MockEditionRepository)
		editions.On("Get", mock.Anything, "missing").Return(nil, nil)

		svc := newEditionService(editions, new(mocks.MockArticleRepository),
			new(mocks.MockDraftRepository), new(mocks.MockFlagRepository),
			new(mocks.MockAuditRepository), new(mocks.MockPipelineRunner))

		_, err := svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrEditionNotFound)
	})

	t.Run("assembles detail with disclaimers and ordered drafts", func(t *testing.T) {
		edition := &domain.Edition{
			ID:     "ed-1",
			Status: domain.EditionReviewing,
			Stage:  domain.StageReadyForReview,
		}
		articles := []domain.Article{
			{ID: "a1", Quality: 0.8, Category: domain.CategoryDeals},
			{ID: "a2", Quality: 0.5, Category: domain.CategoryMacro},
		}
		drafts := []domain.SectionDraft{
			{ID: "d-persp", Section: domain.SectionPerspective, GeneratedAt: time.Now()},
			{ID: "d-pulse", Section: domain.SectionMarketPulse, GeneratedAt: time.Now()},
		}
		flags := []domain.ComplianceFlag{
			{ID: "f1", Severity: domain.SeverityAddDisclaimer, FlagType: "forward_looking"},
		}
		trail := []domain.AuditEntry{{EditionID: "ed-1", Action: domain.AuditPipelineStarted}}

		editionRepo := new(mocks.MockEditionRepository)
		editionRepo.On("Get", mock.Anything, "ed-1").Return(edition, nil)
		articleRepo := new(mocks.MockArticleRepository)
		articleRepo.On("ListByEdition", mock.Anything, "ed-1").Return(articles, nil)
		draftRepo := new(mocks.MockDraftRepository)
		draftRepo.On("ListByEdition", mock.Anything, "ed-1").Return(drafts, nil)
		flagRepo := new(mocks.MockFlagRepository)
		flagRepo.On("ListByEdition", mock.Anything, "ed-1").Return(flags, nil)
		auditRepo := new(mocks.MockAuditRepository)
		auditRepo.On("ListByEdition", mock.Anything, "ed-1").Return(trail, nil)

		svc := newEditionService(editionRepo, articleRepo, draftRepo, flagRepo,
			auditRepo, new(mocks.MockPipelineRunner))

		detail, err := svc.Get(ctx, "ed-1")
		require.NoError(t, err)

		assert.Equal(t, "ed-1", detail.Edition.ID)
		assert.Len(t, detail.Articles, 2)
		require.Len(t, detail.Drafts, 2)
		assert.Equal(t, domain.SectionMarketPulse, detail.Drafts[0].Section,
			"drafts should follow publication order")
		assert.Equal(t, domain.SectionPerspective, detail.Drafts[1].Section)

		keys := make([]string, 0, len(detail.Disclaimers))
		for _, d := range detail.Disclaimers {
			keys = append(keys, d.Key)
			assert.NotEmpty(t, d.Text)
		}
		assert.Contains(t, keys, compliance.DisclaimerGeneral)
		assert.Contains(t, keys, compliance.DisclaimerForwardLooking,
			"ADD_DISCLAIMER forward-looking flag should add the disclaimer")
		assert.Contains(t, keys, compliance.DisclaimerPrivatePlacement,
			"deals coverage should add the private placement disclaimer")
		assert.Len(t, detail.AuditTrail, 1)
	})
}

func TestEditionService_StartDelegatesToPipeline(t *testing.T) {
	runner := new(mocks.MockPipelineRunner)
	runner.On("Start", mock.Anything, "ed-1").Return(domain.ErrPipelineAlreadyRunning)

	svc := newEditionService(new(mocks.MockEditionRepository), new(mocks.MockArticleRepository),
		new(mocks.MockDraftRepository), new(mocks.MockFlagRepository),
		new(mocks.MockAuditRepository), runner)

	err := svc.Start(context.Background(), "ed-1")
	assert.ErrorIs(t, err, domain.ErrPipelineAlreadyRunning)
	runner.AssertExpectations(t)
}

func TestEditionService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels running edition", func(t *testing.T) {
		editions := new(mocks.MockEditionRepository)
		editions.On("Get", mock.Anything, "ed-1").Return(&domain.Edition{ID: "ed-1"}, nil)
		runner := new(mocks.MockPipelineRunner)
		runner.On("Cancel", "ed-1").Return(nil)

		svc := newEditionService(editions, new(mocks.MockArticleRepository),
			new(mocks.MockDraftRepository), new(mocks.MockFlagRepository),
			new(mocks.MockAuditRepository), runner)

		assert.NoError(t, svc.Cancel(ctx, "ed-1"))
		runner.AssertExpectations(t)
	})

	t.Run("unknown edition", func(t *testing.T) {
		editions := new(mocks.MockEditionRepository)
		editions.On("Get", mock.Anything, "missing").Return(nil, nil)

		svc := newEditionService(editions, new(mocks.MockArticleRepository),
			new(mocks.MockDraftRepository), new(mocks.MockFlagRepository),
			new(mocks.MockAuditRepository), new(mocks.MockPipelineRunner))

		err := svc.Cancel(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrEditionNotFound)
	})
}
