package models

import (
	"time"
)

// Notification 站内通知
type Notification struct {
	ID        uint      `gorm:"primarykey" json:"id"`                        // 主键
	UserID    uint      `gorm:"index;not null" json:"user_id"`               // 用户ID
	OrderID   uint      `gorm:"index" json:"order_id"`                       // 订单ID
	Type      string    `gorm:"type:varchar(32);index;not null" json:"type"` // 通知类型
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`     // 标题
	Content   string    `gorm:"type:text" json:"content"`                    // 内容
	Payload   JSON      `gorm:"type:json" json:"payload,omitempty"`          // 附加数据
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"` // 是否已读
	CreatedAt time.Time `gorm:"index" json:"created_at"`                     // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
