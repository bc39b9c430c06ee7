package models

import (
	"time"

	"gorm.io/gorm"
)

// Book 图书表
type Book struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                        // 主键
	Title             string         `gorm:"type:varchar(255);not null;index" json:"title"`               // 书名
	Author            string         `gorm:"type:varchar(255);not null;default:''" json:"author"`         // 作者
	Price             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`          // 售价
	PriceDiscount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_discount"` // 促销价（0 表示无）
	ImageCover        string         `gorm:"type:varchar(500)" json:"image_cover"`                        // 封面存储 key
	AvailableQuantity int            `gorm:"not null;default:0" json:"available_quantity"`                // 可售库存
	ReservedQuantity  int            `gorm:"not null;default:0" json:"reserved_quantity"`                 // 已占用库存（购物车与未支付订单）
	SoldQuantity      int            `gorm:"not null;default:0" json:"sold_quantity"`                     // 已售数量
	IsActive          bool           `gorm:"not null;index" json:"is_active"`                             // 是否上架
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间
}

// TableName 指定表名
func (Book) TableName() string {
	return "books"
}
