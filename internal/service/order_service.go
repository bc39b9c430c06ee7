package service

import (
	"context"
	"time"

	"github.com/shelfwise/bookstore/internal/constants"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务：支付确认、取消、物流状态与查询
type OrderService struct {
	orderRepo         repository.OrderRepository
	shippingRepo      repository.ShippingRepository
	paymentRepo       repository.PaymentRepository
	ledger            *InventoryLedger
	notifier          NotificationSink
	contentionRetries int
	now               func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, shippingRepo repository.ShippingRepository, paymentRepo repository.PaymentRepository, ledger *InventoryLedger, notifier NotificationSink, contentionRetries int) *OrderService {
	return &OrderService{
		orderRepo:         orderRepo,
		shippingRepo:      shippingRepo,
		paymentRepo:       paymentRepo,
		ledger:            ledger,
		notifier:          notifier,
		contentionRetries: contentionRetries,
		now:               time.Now,
	}
}

// ConfirmPayment 确认支付：支付记录置为已支付，订单置为已支付，物流置为已发货，库存 reserved -> sold。
// 订单不存在未支付记录时返回 ErrPaymentNotFound，重复确认不会改变任何状态。
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID uint) (*models.Order, error) {
	err := runWithContentionRetry(ctx, s.contentionRetries, "order_confirm_payment", func() error {
		return models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			paymentRepo := s.paymentRepo.WithTx(tx)
			payment, err := paymentRepo.GetUnpaidByOrderID(orderID)
			if err != nil {
				return err
			}
			if payment == nil {
				return ErrPaymentNotFound
			}
			orderRepo := s.orderRepo.WithTx(tx)
			order, err := orderRepo.GetByID(orderID)
			if err != nil {
				return err
			}
			if order == nil {
				return ErrOrderNotFound
			}
			if !canTransitionOrder(order.Status, constants.OrderStatusPaid) {
				return ErrInvalidStatusTransition
			}

			now := s.now()
			affected, err := paymentRepo.MarkPaid(payment.ID, now)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrPaymentNotFound
			}
			affected, err = orderRepo.TransitionStatus(order.ID,
				orderSourcesFor(constants.OrderStatusPaid),
				constants.OrderStatusPaid,
				map[string]interface{}{"paid_at": now},
			)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrInvalidStatusTransition
			}

			shippingRepo := s.shippingRepo.WithTx(tx)
			shipping, err := shippingRepo.GetByOrderID(order.ID)
			if err != nil {
				return err
			}
			if shipping != nil {
				affected, err := shippingRepo.TransitionStatus(shipping.ID,
					shippingSourcesFor(constants.ShippingStatusShipped),
					constants.ShippingStatusShipped,
					map[string]interface{}{"shipped_at": now},
				)
				if err != nil {
					return err
				}
				if affected == 0 {
					logger.Warnw("order_confirm_shipping_skipped",
						"order_id", order.ID,
						"shipping_status", shipping.Status,
					)
				}
			}
			return s.ledger.WithTx(tx).Commit(ctx, ledgerLinesFromOrderItems(order.Items))
		})
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	logger.Infow("order_payment_confirmed", "order_id", order.ID, "order_no", order.OrderNo)
	enqueueOrderNotify(s.notifier, order, constants.NotificationOrderPaid, "", map[string]interface{}{
		"total_payment": order.TotalPayment.String(),
	})
	return order, nil
}

// CancelOrder 管理端取消订单，并释放订单占用的库存
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.cancel(ctx, orderID, 0)
}

// CancelUserOrder 用户取消自己的订单
func (s *OrderService) CancelUserOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	if userID == 0 {
		return nil, ErrOrderNotFound
	}
	return s.cancel(ctx, orderID, userID)
}

func (s *OrderService) cancel(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	err := runWithContentionRetry(ctx, s.contentionRetries, "order_cancel", func() error {
		return models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			orderRepo := s.orderRepo.WithTx(tx)
			var (
				order *models.Order
				err   error
			)
			if userID != 0 {
				order, err = orderRepo.GetByIDAndUser(orderID, userID)
			} else {
				order, err = orderRepo.GetByID(orderID)
			}
			if err != nil {
				return err
			}
			if order == nil {
				return ErrOrderNotFound
			}
			if !canTransitionOrder(order.Status, constants.OrderStatusCancelled) {
				return ErrInvalidStatusTransition
			}
			affected, err := orderRepo.TransitionStatus(order.ID,
				orderSourcesFor(constants.OrderStatusCancelled),
				constants.OrderStatusCancelled,
				map[string]interface{}{"cancelled_at": s.now()},
			)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrInvalidStatusTransition
			}
			return s.ledger.WithTx(tx).ReleaseLines(ctx, ledgerLinesFromOrderItems(order.Items))
		})
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	logger.Infow("order_cancelled", "order_id", order.ID, "order_no", order.OrderNo, "by_user", userID != 0)
	enqueueOrderNotify(s.notifier, order, constants.NotificationOrderCancelled, "", nil)
	return order, nil
}

// UpdateShippingStatus 按物流状态流转表更新物流状态。
// 已取消订单的物流不可再变更，发货要求订单已支付。
func (s *OrderService) UpdateShippingStatus(ctx context.Context, orderID uint, status string) (*models.Shipping, error) {
	status = normalizeStatus(status)
	if !isValidShippingStatus(status) {
		return nil, ErrInvalidStatusTransition
	}
	var shippingID uint
	err := runWithContentionRetry(ctx, s.contentionRetries, "order_update_shipping", func() error {
		return models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			order, err := s.orderRepo.WithTx(tx).WithContext(ctx).GetByIDForUpdate(orderID)
			if err != nil {
				return err
			}
			if order == nil {
				return ErrOrderNotFound
			}
			if !shippingAllowedForOrder(order.Status, status) {
				return ErrInvalidStatusTransition
			}
			shippingRepo := s.shippingRepo.WithTx(tx).WithContext(ctx)
			shipping, err := shippingRepo.GetByOrderID(orderID)
			if err != nil {
				return err
			}
			if shipping == nil {
				return ErrShippingNotFound
			}
			if !canTransitionShipping(shipping.Status, status) {
				return ErrInvalidStatusTransition
			}
			now := s.now()
			updates := map[string]interface{}{}
			switch status {
			case constants.ShippingStatusShipped:
				updates["shipped_at"] = now
			case constants.ShippingStatusDelivered:
				updates["delivered_at"] = now
			}
			affected, err := shippingRepo.TransitionStatus(shipping.ID, shippingSourcesFor(status), status, updates)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrInvalidStatusTransition
			}
			shippingID = shipping.ID
			return nil
		})
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	updated, err := s.shippingRepo.WithContext(ctx).GetByID(shippingID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if updated == nil {
		return nil, ErrShippingNotFound
	}

	order, err := s.orderRepo.WithContext(ctx).GetByID(orderID)
	if err != nil {
		logger.Warnw("shipping_notify_order_load_failed", "order_id", orderID, "error", err)
	}
	enqueueOrderNotify(s.notifier, order, constants.NotificationShippingUpdated, "", map[string]interface{}{
		"status":          status,
		"tracking_number": updated.TrackingNumber,
	})
	return updated, nil
}

// GetByID 获取订单详情
func (s *OrderService) GetByID(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.WithContext(ctx).GetByID(orderID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetForUser 获取用户自己的订单，草稿订单不可见
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.WithContext(ctx).GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if order == nil || order.Status == constants.OrderStatusDraft {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListByUser 用户订单列表
func (s *OrderService) ListByUser(ctx context.Context, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.WithContext(ctx).ListByUser(filter)
	if err != nil {
		return nil, 0, wrapStorage(err)
	}
	return orders, total, nil
}

// ListAdmin 管理端订单列表
func (s *OrderService) ListAdmin(ctx context.Context, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.WithContext(ctx).ListAdmin(filter)
	if err != nil {
		return nil, 0, wrapStorage(err)
	}
	return orders, total, nil
}
