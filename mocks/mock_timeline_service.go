package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"doctrack/internal/domain"
	"doctrack/internal/service"
)

// MockTimelineService is a mock implementation of service.TimelineService.
type MockTimelineService struct {
	mock.Mock
}

func (m *MockTimelineService) Timeline(documentID uuid.UUID) *service.Timeline {
	args := m.Called(documentID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*service.Timeline)
}

func (m *MockTimelineService) GetTimeline(ctx context.Context, documentID uuid.UUID) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

func (m *MockTimelineService) TimelineAcrossDocuments(ctx context.Context, documentIDs []uuid.UUID) ([]domain.TimelineEntry, error) {
	args := m.Called(ctx, documentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TimelineEntry), args.Error(1)
}

func (m *MockTimelineService) GetTimelineForActor(ctx context.Context, actorID int64) ([]domain.TimelineEntry, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TimelineEntry), args.Error(1)
}
