// Package mocks provides hand-written testify mocks for the repository and
// service interfaces used in tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"newsbrief/internal/domain"
)

// MockEditionRepository mocks repository.EditionRepository.
type MockEditionRepository struct {
	mock.Mock
}

func (m *MockEditionRepository) Create(ctx context.Context, edition *domain.Edition) error {
	args := m.Called(ctx, edition)
	return args.Error(0)
}

func (m *MockEditionRepository) Get(ctx context.Context, id string) (*domain.Edition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Edition), args.Error(1)
}

func (m *MockEditionRepository) List(ctx context.Context) ([]domain.Edition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Edition), args.Error(1)
}

func (m *MockEditionRepository) UpdateStage(ctx context.Context, id string, stage domain.Stage, progress int) error {
	args := m.Called(ctx, id, stage, progress)
	return args.Error(0)
}

func (m *MockEditionRepository) SetStatus(ctx context.Context, id string, status domain.EditionStatus, stage domain.Stage, failureReason *string) error {
	args := m.Called(ctx, id, status, stage, failureReason)
	return args.Error(0)
}

func (m *MockEditionRepository) SetRetrievalNote(ctx context.Context, id string, note string) error {
	args := m.Called(ctx, id, note)
	return args.Error(0)
}

func (m *MockEditionRepository) Approve(ctx context.Context, id, approver string) error {
	args := m.Called(ctx, id, approver)
	return args.Error(0)
}

// MockArticleRepository mocks repository.ArticleRepository.
type MockArticleRepository struct {
	mock.Mock
}

func (m *MockArticleRepository) BulkInsert(ctx context.Context, articles []domain.Article) error {
	args := m.Called(ctx, articles)
	return args.Error(0)
}

func (m *MockArticleRepository) ListByEdition(ctx context.Context, editionID string) ([]domain.Article, error) {
	args := m.Called(ctx, editionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Article), args.Error(1)
}

func (m *MockArticleRepository) UpdateVerification(ctx context.Context, articles []domain.Article) error {
	args := m.Called(ctx, articles)
	return args.Error(0)
}

// MockDraftRepository mocks repository.DraftRepository.
type MockDraftRepository struct {
	mock.Mock
}

func (m *MockDraftRepository) Insert(ctx context.Context, draft *domain.SectionDraft) error {
	args := m.Called(ctx, draft)
	return args.Error(0)
}

func (m *MockDraftRepository) Get(ctx context.Context, id string) (*domain.SectionDraft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SectionDraft), args.Error(1)
}

func (m *MockDraftRepository) ListByEdition(ctx context.Context, editionID string) ([]domain.SectionDraft, error) {
	args := m.Called(ctx, editionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SectionDraft), args.Error(1)
}

func (m *MockDraftRepository) SetPass2State(ctx context.Context, draftID string, state domain.Pass2State) error {
	args := m.Called(ctx, draftID, state)
	return args.Error(0)
}

// MockFlagRepository mocks repository.FlagRepository.
type MockFlagRepository struct {
	mock.Mock
}

func (m *MockFlagRepository) BulkInsert(ctx context.Context, flags []domain.ComplianceFlag) error {
	args := m.Called(ctx, flags)
	return args.Error(0)
}

func (m *MockFlagRepository) Get(ctx context.Context, id string) (*domain.ComplianceFlag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ComplianceFlag), args.Error(1)
}

func (m *MockFlagRepository) ListByEdition(ctx context.Context, editionID string) ([]domain.ComplianceFlag, error) {
	args := m.Called(ctx, editionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ComplianceFlag), args.Error(1)
}

func (m *MockFlagRepository) Resolve(ctx context.Context, id, resolver, note string) (*domain.ComplianceFlag, error) {
	args := m.Called(ctx, id, resolver, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ComplianceFlag), args.Error(1)
}

func (m *MockFlagRepository) UnresolvedBlocking(ctx context.Context, editionID string, anySeverity bool) ([]string, error) {
	args := m.Called(ctx, editionID, anySeverity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockAuditRepository mocks repository.AuditRepository.
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByEdition(ctx context.Context, editionID string) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, editionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

// MockPipelineRunner mocks service.PipelineRunner.
type MockPipelineRunner struct {
	mock.Mock
}

func (m *MockPipelineRunner) Start(ctx context.Context, editionID string) error {
	args := m.Called(ctx, editionID)
	return args.Error(0)
}

func (m *MockPipelineRunner) Cancel(editionID string) error {
	args := m.Called(editionID)
	return args.Error(0)
}

func (m *MockPipelineRunner) Running(editionID string) bool {
	args := m.Called(editionID)
	return args.Bool(0)
}
