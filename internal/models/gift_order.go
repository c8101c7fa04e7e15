package models

import (
	"time"

	"gorm.io/gorm"
)

// GiftOrder 礼品购买单表（买家侧购买意向，固定单商品）
type GiftOrder struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo       string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 购买单编号
	BuyerUserID   uint           `gorm:"index;not null" json:"buyer_user_id"`                       // 买家用户ID
	BuyerEmail    string         `gorm:"type:varchar(200);index" json:"buyer_email"`                // 买家邮箱快照
	BuyerName     string         `gorm:"type:varchar(120)" json:"buyer_name"`                       // 买家姓名快照
	Status        string         `gorm:"type:varchar(32);index;not null" json:"status"`             // 购买单状态
	Currency      string         `gorm:"type:varchar(16);not null;default:'CNY'" json:"currency"`   // 币种
	Subtotal      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`     // 小计
	Discount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`     // 优惠金额
	TotalAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额
	PaymentMethod string         `gorm:"type:varchar(32)" json:"payment_method,omitempty"`          // 支付方式
	PaymentID     string         `gorm:"type:varchar(80);index" json:"payment_id,omitempty"`        // 支付凭据号
	ExpiresAt     *time.Time     `gorm:"index" json:"expires_at"`                                   // 支付过期时间
	PaidAt        *time.Time     `gorm:"index" json:"paid_at"`                                      // 支付时间
	CancelledAt   *time.Time     `gorm:"index" json:"cancelled_at"`                                 // 取消时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []GiftOrderItem `gorm:"foreignKey:GiftOrderID" json:"items,omitempty"` // 购买单项（恒为一条）
	Gifts []Gift          `gorm:"foreignKey:GiftOrderID" json:"gifts,omitempty"` // 派生礼品记录
}

// TableName 指定表名
func (GiftOrder) TableName() string {
	return "gift_orders"
}

// GiftTransactionIDs 返回派生礼品 ID 列表
func (o *GiftOrder) GiftTransactionIDs() []uint {
	if o == nil || len(o.Gifts) == 0 {
		return []uint{}
	}
	ids := make([]uint, 0, len(o.Gifts))
	for _, gift := range o.Gifts {
		ids = append(ids, gift.ID)
	}
	return ids
}

// GiftOrderItem 礼品购买单项表
type GiftOrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                     // 主键
	GiftOrderID uint           `gorm:"index;not null" json:"gift_order_id"`                      // 购买单ID
	ProductID   uint           `gorm:"index;not null" json:"product_id"`                         // 商品ID
	ProductType string         `gorm:"type:varchar(32)" json:"product_type"`                     // 商品类型
	NameJSON    JSON           `gorm:"type:json;not null" json:"name"`                           // 商品名称快照
	Image       string         `gorm:"type:varchar(500)" json:"image"`                           // 商品图片快照
	UnitPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 单价
	Quantity    int            `gorm:"not null;default:1" json:"quantity"`                       // 数量（恒为 1）
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                  // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (GiftOrderItem) TableName() string {
	return "gift_order_items"
}
