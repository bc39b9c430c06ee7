package models

import "time"

// Cart 用户购物车（每个用户一条，惰性创建）
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`                // 主键
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"` // 用户ID
	CreatedAt time.Time `gorm:"index" json:"created_at"`             // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`             // 更新时间

	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"` // 购物车项
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// CartItem 购物车项
type CartItem struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                        // 主键
	CartID        uint      `gorm:"not null;uniqueIndex:idx_cart_item_book" json:"cart_id"`      // 购物车ID
	BookID        uint      `gorm:"not null;uniqueIndex:idx_cart_item_book" json:"book_id"`      // 图书ID
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`                      // 书名快照
	UnitPrice     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`     // 单价快照
	PriceDiscount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price_discount"` // 促销价快照
	Quantity      int       `gorm:"not null" json:"quantity"`                                    // 数量
	IsChecked     bool      `gorm:"not null;index" json:"is_checked"`                            // 是否勾选结算
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`                                     // 更新时间

	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"` // 关联图书
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// LineTotal 行小计，按单价快照计算；促销价仅用于展示
func (i CartItem) LineTotal() Money {
	return i.UnitPrice.Times(i.Quantity)
}
