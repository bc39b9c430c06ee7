package worker

import (
	"context"
	"errors"

	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/provider"
	"github.com/shelfwise/bookstore/internal/queue"
	"github.com/shelfwise/bookstore/internal/service"

	"github.com/hibiken/asynq"
)

// NotificationRecorder 订单通知落库
type NotificationRecorder interface {
	Record(ctx context.Context, payload queue.OrderNotifyPayload) (*models.Notification, error)
}

// CheckoutResumer 未完成结算补全
type CheckoutResumer interface {
	ResumeOrder(ctx context.Context, orderID uint, locale string) (*models.Order, error)
	ResumeStale(ctx context.Context, limit int) (int, error)
}

// Consumer 异步任务消费者
type Consumer struct {
	Notifications NotificationRecorder
	Resumer       CheckoutResumer
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil {
		return &Consumer{}
	}
	return &Consumer{
		Notifications: c.NotificationService,
		Resumer:       c.CheckoutService,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderNotify, c.handleOrderNotify)
	mux.HandleFunc(queue.TaskCheckoutResume, c.handleCheckoutResume)
}

func (c *Consumer) handleOrderNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.DecodePayload[queue.OrderNotifyPayload](task)
	if err != nil {
		logger.Warnw("worker_order_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 || payload.OrderID == 0 {
		logger.Debugw("worker_order_notify_skip_invalid_payload", "user_id", payload.UserID, "order_id", payload.OrderID)
		return nil
	}
	if c.Notifications == nil {
		logger.Warnw("worker_order_notify_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if _, err := c.Notifications.Record(ctx, payload); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			logger.Debugw("worker_order_notify_skip_unsupported", "order_id", payload.OrderID, "type", payload.Type)
			return nil
		}
		logger.Warnw("worker_order_notify_failed", "order_id", payload.OrderID, "type", payload.Type, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleCheckoutResume(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_checkout_resume_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.DecodePayload[queue.CheckoutResumePayload](task)
	if err != nil {
		logger.Warnw("worker_checkout_resume_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_checkout_resume_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.Resumer == nil {
		logger.Warnw("worker_checkout_resume_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.Resumer.ResumeOrder(ctx, payload.OrderID, "")
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_checkout_resume_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrInvalidStatusTransition):
			logger.Debugw("worker_checkout_resume_skip_closed_order", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_checkout_resume_failed", "order_id", payload.OrderID, "user_id", payload.UserID, "error", err)
			return err
		}
	}
	logger.Infow("worker_checkout_resumed", "order_id", order.ID, "order_no", order.OrderNo, "status", order.Status)
	return nil
}
