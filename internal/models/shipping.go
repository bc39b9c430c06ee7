package models

import (
	"time"
)

// Shipping 物流记录（订单独占）
type Shipping struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                         // 主键
	OrderID        uint       `gorm:"uniqueIndex;not null" json:"order_id"`                         // 订单ID
	RecipientName  string     `gorm:"type:varchar(100);not null" json:"recipient_name"`             // 收件人
	Phone          string     `gorm:"type:varchar(32);not null" json:"phone"`                       // 联系电话
	Description    string     `gorm:"type:varchar(500);not null" json:"description"`                // 详细地址
	CityName       string     `gorm:"type:varchar(100)" json:"city_name"`                           // 城市
	ProvinceName   string     `gorm:"type:varchar(100)" json:"province_name"`                       // 省份
	Cost           Money      `gorm:"type:decimal(20,2);not null;default:0" json:"cost"`            // 运费
	TrackingNumber string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"tracking_number"` // 物流单号
	Status         string     `gorm:"type:varchar(20);index;not null" json:"status"`                // 物流状态
	ShippedAt      *time.Time `json:"shipped_at"`                                                   // 发货时间
	DeliveredAt    *time.Time `json:"delivered_at"`                                                 // 签收时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time  `gorm:"index" json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (Shipping) TableName() string {
	return "shippings"
}
