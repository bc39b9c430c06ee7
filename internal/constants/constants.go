package constants

// 订单状态常量
const (
	OrderStatusDraft     = "draft"
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// 物流状态常量
const (
	ShippingStatusPending   = "pending"
	ShippingStatusShipped   = "shipped"
	ShippingStatusDelivered = "delivered"
	ShippingStatusReturned  = "returned"
)

// 优惠类型常量
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// 支付方式常量
const (
	PaymentMethodCOD          = "cod"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCard         = "card"
	PaymentMethodEWallet      = "e_wallet"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 通知类型常量
const (
	NotificationOrderCreated    = "order_created"
	NotificationOrderPaid       = "order_paid"
	NotificationOrderCancelled  = "order_cancelled"
	NotificationShippingUpdated = "shipping_updated"
)

// 异步队列常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskOrderNotify    = "order:notify"
	TaskCheckoutResume = "checkout:resume"
)

// 订单号前缀
const OrderNoPrefix = "BK"
