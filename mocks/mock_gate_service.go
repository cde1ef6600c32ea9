package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"doctrack/internal/domain"
	"doctrack/internal/service"
)

// MockGateService is a mock implementation of service.GateService.
type MockGateService struct {
	mock.Mock
}

func (m *MockGateService) Submit(ctx context.Context, actor domain.Actor, input *service.SubmitGateInput) (*domain.GateDocument, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GateDocument), args.Error(1)
}

func (m *MockGateService) Decide(ctx context.Context, documentID uuid.UUID, cmd domain.Command, actor domain.Actor, remarks string) (*domain.GateDocument, error) {
	args := m.Called(ctx, documentID, cmd, actor, remarks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GateDocument), args.Error(1)
}

func (m *MockGateService) Sign(ctx context.Context, documentID uuid.UUID, actor domain.Actor) (*domain.Signature, error) {
	args := m.Called(ctx, documentID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Signature), args.Error(1)
}

func (m *MockGateService) Update(ctx context.Context, documentID uuid.UUID, actor domain.Actor, input *service.UpdateGateInput) (*domain.GateDocument, error) {
	args := m.Called(ctx, documentID, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GateDocument), args.Error(1)
}

func (m *MockGateService) Delete(ctx context.Context, documentID uuid.UUID, actor domain.Actor) error {
	args := m.Called(ctx, documentID, actor)
	return args.Error(0)
}

func (m *MockGateService) Get(ctx context.Context, documentID uuid.UUID) (*domain.GateDocument, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GateDocument), args.Error(1)
}

func (m *MockGateService) ListMine(ctx context.Context, actor domain.Actor, kind *domain.DocumentKind, offset, limit int) ([]domain.GateDocument, int, error) {
	args := m.Called(ctx, actor, kind, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.GateDocument), args.Int(1), args.Error(2)
}

func (m *MockGateService) ListAwaiting(ctx context.Context, actor domain.Actor, kind *domain.DocumentKind, offset, limit int) ([]domain.GateDocument, int, error) {
	args := m.Called(ctx, actor, kind, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.GateDocument), args.Int(1), args.Error(2)
}
