package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"doctrack/internal/domain"
	"doctrack/internal/service"
)

// MockWorkflowService is a mock implementation of service.WorkflowService.
type MockWorkflowService struct {
	mock.Mock
}

func (m *MockWorkflowService) CreateDocument(ctx context.Context, actor domain.Actor, input *service.CreateRequestInput) (*domain.Request, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}

func (m *MockWorkflowService) ApplyCommand(ctx context.Context, documentID uuid.UUID, cmd domain.Command, actor domain.Actor, params service.CommandParams) (*domain.Request, error) {
	args := m.Called(ctx, documentID, cmd, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}

func (m *MockWorkflowService) Sign(ctx context.Context, documentID uuid.UUID, actor domain.Actor) (*domain.Signature, error) {
	args := m.Called(ctx, documentID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Signature), args.Error(1)
}

func (m *MockWorkflowService) GetRequest(ctx context.Context, documentID uuid.UUID) (*domain.Request, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}

func (m *MockWorkflowService) ListByRequester(ctx context.Context, actor domain.Actor, offset, limit int) ([]domain.Request, int, error) {
	args := m.Called(ctx, actor, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Request), args.Int(1), args.Error(2)
}

func (m *MockWorkflowService) ListByDepartment(ctx context.Context, actor domain.Actor, status *domain.RequestStatus, offset, limit int) ([]domain.Request, int, error) {
	args := m.Called(ctx, actor, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Request), args.Int(1), args.Error(2)
}

func (m *MockWorkflowService) Delete(ctx context.Context, documentID uuid.UUID, actor domain.Actor) error {
	args := m.Called(ctx, documentID, actor)
	return args.Error(0)
}
