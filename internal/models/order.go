package models

import (
	"time"

	"github.com/shelfwise/bookstore/internal/constants"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	UserID         uint           `gorm:"index;not null" json:"user_id"`                                // 用户ID
	Status         string         `gorm:"index;not null" json:"status"`                                 // 订单状态
	Subtotal       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 商品小计
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	ShippingCost   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_cost"`   // 运费
	TotalPayment   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_payment"`   // 应付金额
	PaymentMethod  string         `gorm:"type:varchar(32);not null" json:"payment_method"`              // 支付方式
	AddressID      uint           `gorm:"index;not null" json:"address_id"`                             // 收货地址ID
	DiscountID     *uint          `gorm:"index" json:"discount_id,omitempty"`                           // 优惠码ID
	ShippingID     *uint          `gorm:"index" json:"shipping_id,omitempty"`                           // 物流记录ID
	PaymentID      *uint          `gorm:"index" json:"payment_id,omitempty"`                            // 支付记录ID
	PaidAt         *time.Time     `gorm:"index" json:"paid_at"`                                         // 支付时间
	CancelledAt    *time.Time     `gorm:"index" json:"cancelled_at"`                                    // 取消时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
	Shipping *Shipping   `gorm:"-" json:"shipping,omitempty"`               // 物流记录（按 ShippingID 加载）
	Payment  *Payment    `gorm:"-" json:"payment,omitempty"`                // 支付记录（按 PaymentID 加载）
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// Settled 订单已完成结算：非草稿且物流、支付记录均已关联
func (o Order) Settled() bool {
	return o.Status != constants.OrderStatusDraft && o.ShippingID != nil && o.PaymentID != nil
}
