package models

import (
	"time"

	"gorm.io/gorm"
)

// Discount 优惠码
type Discount struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                            // 主键
	Code             string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`               // 优惠码
	Name             string         `gorm:"type:varchar(255);not null;default:''" json:"name"`               // 名称
	Type             string         `gorm:"type:varchar(20);not null" json:"type"`                           // 类型（percentage/fixed）
	Value            Money          `gorm:"type:decimal(20,2);not null;default:0" json:"value"`              // 百分比或固定金额
	MinRequiredValue Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_required_value"` // 最低订单金额
	MaxDiscountValue Money          `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount_value"` // 最高优惠金额（0 表示不限）
	Quantity         int            `gorm:"not null;default:0" json:"quantity"`                              // 剩余可用次数
	StartDate        *time.Time     `gorm:"index" json:"start_date"`                                         // 生效时间
	EndDate          *time.Time     `gorm:"index" json:"end_date"`                                           // 失效时间
	IsActive         bool           `gorm:"not null;index" json:"is_active"`                                 // 是否启用
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间
}

// TableName 指定表名
func (Discount) TableName() string {
	return "discounts"
}

// AvailableAt 启用、在有效期内且仍有剩余次数
func (d Discount) AvailableAt(now time.Time) bool {
	if !d.IsActive || d.Quantity <= 0 {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}
