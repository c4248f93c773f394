package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"newsbrief/internal/domain"
	"newsbrief/internal/service"
)

// MockEditionService mocks service.EditionServiceInterface.
type MockEditionService struct {
	mock.Mock
}

func (m *MockEditionService) Create(ctx context.Context, input service.CreateEditionInput) (*domain.Edition, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Edition), args.Error(1)
}

func (m *MockEditionService) List(ctx context.Context) ([]domain.Edition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Edition), args.Error(1)
}

func (m *MockEditionService) Get(ctx context.Context, id string) (*service.EditionDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EditionDetail), args.Error(1)
}

func (m *MockEditionService) Start(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEditionService) Cancel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReviewService mocks service.ReviewServiceInterface.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) ResolveFlag(ctx context.Context, flagID, resolver, note string) (*domain.ComplianceFlag, error) {
	args := m.Called(ctx, flagID, resolver, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ComplianceFlag), args.Error(1)
}

func (m *MockReviewService) Approve(ctx context.Context, editionID, approver string) error {
	args := m.Called(ctx, editionID, approver)
	return args.Error(0)
}
