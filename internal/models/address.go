package models

import (
	"time"

	"gorm.io/gorm"
)

// Address 收货地址
type Address struct {
	ID           uint           `gorm:"primarykey" json:"id"`                           // 主键
	UserID       uint           `gorm:"index;not null" json:"user_id"`                  // 用户ID
	Name         string         `gorm:"type:varchar(100);not null" json:"name"`         // 收件人
	Phone        string         `gorm:"type:varchar(32);not null" json:"phone"`         // 联系电话
	Description  string         `gorm:"type:varchar(500);not null" json:"description"`  // 详细地址
	CityName     string         `gorm:"type:varchar(100)" json:"city_name"`             // 城市
	ProvinceName string         `gorm:"type:varchar(100)" json:"province_name"`         // 省份
	DistanceKm   float64        `gorm:"not null;default:0" json:"distance_km"`          // 到仓库的距离（公里）
	IsDefault    bool           `gorm:"not null;default:false;index" json:"is_default"` // 是否默认地址
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间
}

// TableName 指定表名
func (Address) TableName() string {
	return "addresses"
}
