package models

import (
	"time"
)

// Payment 支付记录（订单独占）
type Payment struct {
	ID         uint       `gorm:"primarykey" json:"id"`                                   // 主键
	OrderID    uint       `gorm:"uniqueIndex;not null" json:"order_id"`                   // 订单ID
	Reference  string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"` // 支付流水号
	Amount     Money      `gorm:"type:decimal(20,2);not null" json:"amount"`              // 支付金额
	Method     string     `gorm:"type:varchar(32);not null" json:"method"`                // 支付方式
	DiscountID *uint      `gorm:"index" json:"discount_id,omitempty"`                     // 优惠码ID
	IsPaid     bool       `gorm:"not null;default:false;index" json:"is_paid"`            // 是否已支付
	PaidAt     *time.Time `gorm:"index" json:"paid_at"`                                   // 支付时间
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt  time.Time  `gorm:"index" json:"updated_at"`                                // 更新时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
