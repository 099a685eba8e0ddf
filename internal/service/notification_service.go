package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"docboard/internal/dto"
	"docboard/internal/model"
	"docboard/internal/repository"
)

// NotificationService in-app inbox.
type NotificationService interface {
	// Notify stores an inbox entry; failures are logged, never returned.
	Notify(ctx context.Context, userID, kind, title, content, appointmentID string)
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, userID string) (*dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) Notify(ctx context.Context, userID, kind, title, content, appointmentID string) {
	if userID == "" {
		return
	}
	n := &model.Notification{
		UserID:  userID,
		Kind:    kind,
		Title:   title,
		Content: content,
	}
	if appointmentID != "" {
		n.AppointmentID = &appointmentID
	}
	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Warn("create notification failed",
			zap.String("user_id", userID),
			zap.String("type", kind),
			zap.Error(err),
		)
	}
}

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	items, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list notifications failed", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	list := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		list = append(list, toNotificationResponse(&items[i]))
	}
	return list, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (*dto.UnreadCountResponse, error) {
	n, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountResponse{Count: n}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.Notification.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.Notification.MarkAllRead(ctx, userID)
}
