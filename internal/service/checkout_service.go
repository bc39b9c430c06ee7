package service

import (
	"context"
	"strings"
	"time"

	"github.com/shelfwise/bookstore/internal/cache"
	"github.com/shelfwise/bookstore/internal/constants"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/queue"
	"github.com/shelfwise/bookstore/internal/repository"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

const (
	defaultTrackingNumberLength      = 8
	defaultTrackingNumberMaxAttempts = 5
	defaultCheckoutResumeDelay       = 30 * time.Second
	defaultCheckoutStaleAfter        = 2 * time.Minute
)

// NotificationSink 订单通知投递（由异步队列实现）
type NotificationSink interface {
	EnqueueOrderNotify(payload queue.OrderNotifyPayload, opts ...asynq.Option) error
}

// CheckoutResumeScheduler 未完成结算的补偿调度
type CheckoutResumeScheduler interface {
	EnqueueCheckoutResume(payload queue.CheckoutResumePayload, delay time.Duration) error
}

// CheckoutInput 结算输入
type CheckoutInput struct {
	UserID        uint
	DiscountCode  string
	PaymentMethod string
	Locale        string
}

// CheckoutServiceOptions 结算服务参数
type CheckoutServiceOptions struct {
	TrackingNumberLength      int
	TrackingNumberMaxAttempts int
	ContentionMaxRetries      int
	ResumeDelay               time.Duration
	StaleAfter                time.Duration // 草稿创建超过该时长才进入后台补全扫描
}

// CheckoutService 结算编排：购物车 -> 草稿订单 -> 物流/支付 -> 待支付
type CheckoutService struct {
	cartRepo        repository.CartRepository
	addressRepo     repository.AddressRepository
	orderRepo       repository.OrderRepository
	shippingRepo    repository.ShippingRepository
	paymentRepo     repository.PaymentRepository
	cartService     *CartService
	discountService *DiscountService
	shippingCalc    *ShippingCalculator
	notifier        NotificationSink
	resumer         CheckoutResumeScheduler
	opts            CheckoutServiceOptions
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(
	cartRepo repository.CartRepository,
	addressRepo repository.AddressRepository,
	orderRepo repository.OrderRepository,
	shippingRepo repository.ShippingRepository,
	paymentRepo repository.PaymentRepository,
	cartService *CartService,
	discountService *DiscountService,
	shippingCalc *ShippingCalculator,
	notifier NotificationSink,
	resumer CheckoutResumeScheduler,
	opts CheckoutServiceOptions,
) *CheckoutService {
	if opts.TrackingNumberLength <= 0 {
		opts.TrackingNumberLength = defaultTrackingNumberLength
	}
	if opts.TrackingNumberMaxAttempts <= 0 {
		opts.TrackingNumberMaxAttempts = defaultTrackingNumberMaxAttempts
	}
	if opts.ResumeDelay <= 0 {
		opts.ResumeDelay = defaultCheckoutResumeDelay
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = defaultCheckoutStaleAfter
	}
	return &CheckoutService{
		cartRepo:        cartRepo,
		addressRepo:     addressRepo,
		orderRepo:       orderRepo,
		shippingRepo:    shippingRepo,
		paymentRepo:     paymentRepo,
		cartService:     cartService,
		discountService: discountService,
		shippingCalc:    shippingCalc,
		notifier:        notifier,
		resumer:         resumer,
		opts:            opts,
	}
}

// Checkout 将已勾选的购物车行转为订单。
// 第一阶段在同一事务内创建草稿订单、核销优惠码并清理已勾选行；
// 第二阶段在同一事务内创建物流与支付记录并将订单置为待支付。
// 第二阶段失败时返回 *PartialCheckoutError 并投递补偿任务。
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	method, err := normalizePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	existing, err := s.orderRepo.WithContext(ctx).FindResumable(input.UserID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if existing != nil {
		logger.Infow("checkout_resume_existing_order",
			"user_id", input.UserID,
			"order_id", existing.ID,
			"order_no", existing.OrderNo,
		)
		return s.finish(ctx, existing.ID, input.UserID, input.Locale)
	}

	var draft *models.Order
	err = runWithContentionRetry(ctx, s.opts.ContentionMaxRetries, "checkout_create_draft", func() error {
		return models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			order, err := s.createDraft(ctx, tx, input, method)
			if err != nil {
				return err
			}
			draft = order
			return nil
		})
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	logger.Infow("checkout_draft_created",
		"user_id", input.UserID,
		"order_id", draft.ID,
		"order_no", draft.OrderNo,
		"total_payment", draft.TotalPayment.String(),
	)
	s.invalidateCart(ctx, input.UserID)
	return s.finish(ctx, draft.ID, input.UserID, input.Locale)
}

// ResumeOrder 补全未完成结算的订单，已完成的订单直接返回
func (s *CheckoutService) ResumeOrder(ctx context.Context, orderID uint, locale string) (*models.Order, error) {
	order, created, err := s.completeOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if created {
		s.notifyCreated(order, locale)
	}
	return order, nil
}

// ResumeStale 扫描并补全创建超过 StaleAfter 仍未完成结算的订单，返回成功补全的数量
func (s *CheckoutService) ResumeStale(ctx context.Context, limit int) (int, error) {
	cutoff := time.Now().Add(-s.opts.StaleAfter)
	orders, err := s.orderRepo.WithContext(ctx).ListResumable(limit, cutoff)
	if err != nil {
		return 0, wrapStorage(err)
	}
	resumed := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			return resumed, ctx.Err()
		}
		if _, err := s.ResumeOrder(ctx, order.ID, ""); err != nil {
			logger.Warnw("checkout_resume_stale_failed", "order_id", order.ID, "error", err)
			continue
		}
		resumed++
	}
	return resumed, nil
}

// finish 执行第二阶段，失败时转为部分失败并投递补偿任务
func (s *CheckoutService) finish(ctx context.Context, orderID, userID uint, locale string) (*models.Order, error) {
	order, created, err := s.completeOrder(ctx, orderID)
	if err != nil {
		logger.Errorw("checkout_complete_failed", "user_id", userID, "order_id", orderID, "error", err)
		s.scheduleResume(orderID, userID)
		return nil, &PartialCheckoutError{OrderID: orderID, Cause: err}
	}
	if created {
		s.notifyCreated(order, locale)
	}
	return order, nil
}

// createDraft 第一阶段：读取勾选行、计算金额、核销优惠码、写入草稿订单并清理购物车
func (s *CheckoutService) createDraft(ctx context.Context, tx *gorm.DB, input CheckoutInput, method string) (*models.Order, error) {
	cartRepo := s.cartRepo.WithTx(tx).WithContext(ctx)
	cart, err := cartRepo.GetByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrEmptyCart
	}
	items, err := cartRepo.ListCheckedItems(cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	subtotal := models.ZeroMoney()
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		lineTotal := item.LineTotal()
		subtotal = subtotal.Add(lineTotal)
		orderItems = append(orderItems, models.OrderItem{
			BookID:        item.BookID,
			Name:          item.Name,
			UnitPrice:     item.UnitPrice,
			PriceDiscount: item.PriceDiscount,
			Quantity:      item.Quantity,
			LineTotal:     lineTotal,
		})
	}

	address, err := s.addressRepo.WithTx(tx).WithContext(ctx).GetDefault(input.UserID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrNoDefaultAddress
	}

	discountService := s.discountService.WithTx(tx)
	quote, err := discountService.Resolve(ctx, input.DiscountCode, subtotal)
	if err != nil {
		return nil, err
	}
	if quote != nil {
		applied, err := discountService.Consume(ctx, quote.Discount.ID)
		if err != nil {
			return nil, err
		}
		if !applied {
			logger.Infow("checkout_discount_race_lost",
				"user_id", input.UserID,
				"discount_id", quote.Discount.ID,
			)
			quote = nil
		}
	}

	discountAmount := models.ZeroMoney()
	var discountID *uint
	if quote != nil {
		discountAmount = quote.Amount
		id := quote.Discount.ID
		discountID = &id
	}
	shippingCost := s.shippingCalc.Cost(address.DistanceKm)
	total := subtotal.Sub(discountAmount).Add(shippingCost).FloorZero()

	order := &models.Order{
		OrderNo:        generateOrderNo(),
		UserID:         input.UserID,
		Status:         constants.OrderStatusDraft,
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		ShippingCost:   shippingCost,
		TotalPayment:   total,
		PaymentMethod:  method,
		AddressID:      address.ID,
		DiscountID:     discountID,
	}
	if err := s.orderRepo.WithTx(tx).WithContext(ctx).Create(order, orderItems); err != nil {
		return nil, err
	}
	if _, err := s.cartService.ClearCheckedAfterCheckout(tx.WithContext(ctx), cart.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// completeOrder 第二阶段：缺失的物流、支付记录逐个补齐后置为待支付，可重复执行
func (s *CheckoutService) completeOrder(ctx context.Context, orderID uint) (*models.Order, bool, error) {
	created := false
	err := runWithContentionRetry(ctx, s.opts.ContentionMaxRetries, "checkout_complete_order", func() error {
		created = false
		return models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			orderRepo := s.orderRepo.WithTx(tx).WithContext(ctx)
			order, err := orderRepo.GetByIDForUpdate(orderID)
			if err != nil {
				return err
			}
			if order == nil {
				return ErrOrderNotFound
			}
			if order.Settled() {
				return nil
			}
			if order.Status != constants.OrderStatusDraft && order.Status != constants.OrderStatusPending {
				return ErrInvalidStatusTransition
			}

			shipping, err := s.ensureShipping(ctx, tx, order)
			if err != nil {
				return err
			}
			payment, err := s.ensurePayment(ctx, tx, order)
			if err != nil {
				return err
			}
			affected, err := orderRepo.TransitionStatus(order.ID,
				[]string{constants.OrderStatusDraft, constants.OrderStatusPending},
				constants.OrderStatusPending,
				map[string]interface{}{
					"shipping_id": shipping.ID,
					"payment_id":  payment.ID,
				},
			)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrInvalidStatusTransition
			}
			created = true
			return nil
		})
	})
	if err != nil {
		return nil, false, wrapStorage(err)
	}
	order, err := s.orderRepo.WithContext(ctx).GetByID(orderID)
	if err != nil {
		return nil, false, wrapStorage(err)
	}
	if order == nil {
		return nil, false, ErrOrderNotFound
	}
	return order, created, nil
}

func (s *CheckoutService) ensureShipping(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Shipping, error) {
	shippingRepo := s.shippingRepo.WithTx(tx).WithContext(ctx)
	shipping, err := shippingRepo.GetByOrderID(order.ID)
	if err != nil || shipping != nil {
		return shipping, err
	}
	address, err := s.addressRepo.WithTx(tx).WithContext(ctx).GetByID(order.AddressID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrNoDefaultAddress
	}
	shipping = &models.Shipping{
		OrderID:        order.ID,
		RecipientName:  address.Name,
		Phone:          address.Phone,
		Description:    address.Description,
		CityName:       address.CityName,
		ProvinceName:   address.ProvinceName,
		Cost:           order.ShippingCost,
		Status:         constants.ShippingStatusPending,
	}
	if err := s.allocateTrackingNumber(ctx, tx, shipping); err != nil {
		return nil, err
	}
	return shipping, nil
}

func (s *CheckoutService) ensurePayment(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Payment, error) {
	paymentRepo := s.paymentRepo.WithTx(tx).WithContext(ctx)
	payment, err := paymentRepo.GetByOrderID(order.ID)
	if err != nil || payment != nil {
		return payment, err
	}
	payment = &models.Payment{
		OrderID:    order.ID,
		Reference:  generatePaymentReference(),
		Amount:     order.TotalPayment,
		Method:     order.PaymentMethod,
		DiscountID: order.DiscountID,
	}
	if err := paymentRepo.Create(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// allocateTrackingNumber 以随机单号写入物流记录，唯一索引冲突视为碰撞重试，
// 超过尝试次数返回 ErrTrackingNumberExhausted
func (s *CheckoutService) allocateTrackingNumber(ctx context.Context, tx *gorm.DB, shipping *models.Shipping) error {
	for attempt := 0; attempt < s.opts.TrackingNumberMaxAttempts; attempt++ {
		shipping.ID = 0
		shipping.TrackingNumber = generateTrackingNumber(s.opts.TrackingNumberLength)
		// 保存点内写入，冲突回滚后外层事务仍可继续
		err := tx.Transaction(func(sp *gorm.DB) error {
			return s.shippingRepo.WithTx(sp).WithContext(ctx).Create(shipping)
		})
		if err == nil {
			return nil
		}
		if !repository.IsUniqueViolation(err, "tracking_number") {
			return err
		}
		logger.Debugw("tracking_number_collision", "order_id", shipping.OrderID, "attempt", attempt+1)
	}
	shipping.ID = 0
	return ErrTrackingNumberExhausted
}

func (s *CheckoutService) scheduleResume(orderID, userID uint) {
	if s.resumer == nil {
		return
	}
	payload := queue.CheckoutResumePayload{OrderID: orderID, UserID: userID}
	if err := s.resumer.EnqueueCheckoutResume(payload, s.opts.ResumeDelay); err != nil {
		logger.Errorw("checkout_resume_enqueue_failed", "order_id", orderID, "error", err)
	}
}

func (s *CheckoutService) notifyCreated(order *models.Order, locale string) {
	enqueueOrderNotify(s.notifier, order, constants.NotificationOrderCreated, locale, map[string]interface{}{
		"total_payment": order.TotalPayment.String(),
	})
}

func (s *CheckoutService) invalidateCart(ctx context.Context, userID uint) {
	if err := cache.DelCartView(ctx, userID); err != nil {
		logger.Warnw("cart_cache_invalidate_failed", "user_id", userID, "error", err)
	}
}

// enqueueOrderNotify 投递订单通知，失败只记录日志
func enqueueOrderNotify(sink NotificationSink, order *models.Order, notifyType, locale string, data map[string]interface{}) {
	if sink == nil || order == nil {
		return
	}
	payload := queue.OrderNotifyPayload{
		UserID:  order.UserID,
		OrderID: order.ID,
		OrderNo: order.OrderNo,
		Type:    notifyType,
		Locale:  locale,
		Data:    data,
	}
	if err := sink.EnqueueOrderNotify(payload); err != nil {
		logger.Warnw("order_notify_enqueue_failed",
			"order_id", order.ID,
			"type", notifyType,
			"error", err,
		)
	}
}

// normalizePaymentMethod 校验支付方式，未填写时默认货到付款
func normalizePaymentMethod(method string) (string, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	switch method {
	case "":
		return constants.PaymentMethodCOD, nil
	case constants.PaymentMethodCOD,
		constants.PaymentMethodBankTransfer,
		constants.PaymentMethodCard,
		constants.PaymentMethodEWallet:
		return method, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}
