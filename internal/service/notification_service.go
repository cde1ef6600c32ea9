package service

import (
	"context"

	"github.com/google/uuid"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

// NotificationService is the read side of the in-app inbox.
type NotificationService interface {
	List(ctx context.Context, actor domain.Actor, unreadOnly bool, offset, limit int) ([]domain.Notification, int, error)
	MarkRead(ctx context.Context, actor domain.Actor, id uuid.UUID) error
}

type notificationService struct {
	repo port.NotificationRepository
}

// NewNotificationService creates a new NotificationService implementation.
func NewNotificationService(repo port.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, actor domain.Actor, unreadOnly bool, offset, limit int) ([]domain.Notification, int, error) {
	items, total, err := s.repo.ListByUser(ctx, actor.UserID, unreadOnly, offset, limit)
	if err != nil {
		return nil, 0, storeErr("notificationService.List", err)
	}
	return items, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	return storeErr("notificationService.MarkRead", s.repo.MarkRead(ctx, actor.UserID, id))
}
