package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doctrack/internal/domain"
)

// MockNotificationSink is a mock implementation of port.NotificationSink.
type MockNotificationSink struct {
	mock.Mock
}

func (m *MockNotificationSink) Name() string {
	return m.Called().String(0)
}

func (m *MockNotificationSink) Deliver(ctx context.Context, n domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
