package repository

import "time"

// BookListFilter 查询图书列表的过滤条件
type BookListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// DiscountListFilter 查询优惠码列表的过滤条件
type DiscountListFilter struct {
	Page     int
	PageSize int
	Code     string
	IsActive *bool
}

// NotificationListFilter 查询通知列表的过滤条件
type NotificationListFilter struct {
	Page       int
	PageSize   int
	UserID     uint
	UnreadOnly bool
}
