package repository

import "time"

// GiftListFilter 查询礼品列表的过滤条件
type GiftListFilter struct {
	Page           int
	PageSize       int
	SenderUserID   uint
	ReceiverEmail  string
	ReceiverUserID uint
	Status         string
	DeliveryMode   string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// GiftOrderListFilter 查询礼品购买单列表的过滤条件
type GiftOrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// OrderListFilter 查询履约订单列表的过滤条件
type OrderListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
	Source   string
	OrderNo  string
}

// NotificationListFilter 查询通知列表的过滤条件
type NotificationListFilter struct {
	Page       int
	PageSize   int
	UserID     uint
	Event      string
	UnreadOnly bool
}
