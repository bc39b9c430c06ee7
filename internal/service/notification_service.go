package service

import (
	"context"
	"strings"
	"time"

	"github.com/shelfwise/bookstore/internal/constants"
	"github.com/shelfwise/bookstore/internal/i18n"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/notify"
	"github.com/shelfwise/bookstore/internal/queue"
	"github.com/shelfwise/bookstore/internal/repository"
)

// NotificationList 通知列表结果
type NotificationList struct {
	Items  []models.Notification `json:"items"`
	Total  int64                 `json:"total"`
	Unread int64                 `json:"unread"`
}

// NotificationService 站内通知服务：落库并推送订单事件
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	publisher        notify.Publisher
}

// NewNotificationService 创建通知服务
func NewNotificationService(notificationRepo repository.NotificationRepository, publisher notify.Publisher) *NotificationService {
	if publisher == nil {
		publisher = notify.NoopPublisher{}
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		publisher:        publisher,
	}
}

// Record 处理订单通知任务：写入站内通知后推送事件，推送失败不影响落库结果
func (s *NotificationService) Record(ctx context.Context, payload queue.OrderNotifyPayload) (*models.Notification, error) {
	notifyType := strings.ToLower(strings.TrimSpace(payload.Type))
	if payload.UserID == 0 || !isNotificationTypeSupported(notifyType) {
		return nil, ErrNotificationNotFound
	}
	locale := payload.Locale
	if locale == "" {
		locale = i18n.DefaultLocale
	}
	notification := &models.Notification{
		UserID:  payload.UserID,
		OrderID: payload.OrderID,
		Type:    notifyType,
		Title:   i18n.T(locale, "notification."+notifyType+".title"),
		Content: i18n.Sprintf(locale, "notification."+notifyType+".content", payload.OrderNo),
		Payload: models.JSON(payload.Data),
	}
	if err := s.notificationRepo.WithContext(ctx).Create(notification); err != nil {
		return nil, wrapStorage(err)
	}

	event := notify.OrderEvent{
		NotificationID: notification.ID,
		UserID:         notification.UserID,
		OrderID:        notification.OrderID,
		OrderNo:        payload.OrderNo,
		Type:           notification.Type,
		Title:          notification.Title,
		Content:        notification.Content,
		Data:           payload.Data,
		OccurredAt:     time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warnw("order_event_publish_failed",
			"notification_id", notification.ID,
			"order_id", notification.OrderID,
			"error", err,
		)
	}
	return notification, nil
}

// List 用户通知列表
func (s *NotificationService) List(ctx context.Context, filter repository.NotificationListFilter) (*NotificationList, error) {
	repo := s.notificationRepo.WithContext(ctx)
	items, total, err := repo.ListByUser(filter)
	if err != nil {
		return nil, wrapStorage(err)
	}
	unread, err := repo.CountUnread(filter.UserID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	return &NotificationList{Items: items, Total: total, Unread: unread}, nil
}

// MarkRead 标记已读
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	affected, err := s.notificationRepo.WithContext(ctx).MarkRead(id, userID)
	if err != nil {
		return wrapStorage(err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func isNotificationTypeSupported(notifyType string) bool {
	switch notifyType {
	case constants.NotificationOrderCreated,
		constants.NotificationOrderPaid,
		constants.NotificationOrderCancelled,
		constants.NotificationShippingUpdated:
		return true
	default:
		return false
	}
}
