package service

import (
	"context"

	"gaman_backend/internal/model"
	"gaman_backend/internal/repository"
)

// NotificationService serves the in-app notification list. Rows are written
// by the worker, never here.
type NotificationService struct {
	notifications repository.NotificationRepository
}

func NewNotificationService(notifications repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

func (s *NotificationService) List(ctx context.Context, recipientID int64, limit int) (*model.NotificationListResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	items, unread, err := s.notifications.ListByRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Notification{}
	}
	return &model.NotificationListResponse{Notifications: items, UnreadCount: unread}, nil
}

// MarkRead marks the given notifications as read, or all of them when ids is empty.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID int64, ids []int64) error {
	if len(ids) == 0 {
		return s.notifications.MarkAllAsRead(ctx, recipientID)
	}
	return s.notifications.MarkAsRead(ctx, recipientID, ids)
}
