package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doctrack/internal/domain"
	"doctrack/internal/service"
)

// MockAttachmentService is a mock implementation of service.AttachmentService.
type MockAttachmentService struct {
	mock.Mock
}

func (m *MockAttachmentService) Upload(ctx context.Context, actor domain.Actor, input service.AttachmentUploadInput) (*service.Attachment, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Attachment), args.Error(1)
}

func (m *MockAttachmentService) DownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockAttachmentService) Remove(ctx context.Context, actor domain.Actor, key string) error {
	args := m.Called(ctx, actor, key)
	return args.Error(0)
}
