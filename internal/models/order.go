package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 履约订单表（由已兑换礼品派生的可发货订单）
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID          uint           `gorm:"index;not null" json:"user_id"`                             // 收货用户ID（礼品接收人）
	GiftID          uint           `gorm:"index;not null" json:"gift_id"`                             // 来源礼品ID
	Status          string         `gorm:"type:varchar(32);index;not null" json:"status"`             // 订单状态
	PaymentStatus   string         `gorm:"type:varchar(32);not null" json:"payment_status"`           // 支付状态（礼品订单恒为已预付）
	Currency        string         `gorm:"type:varchar(16);not null;default:'CNY'" json:"currency"`   // 币种
	Subtotal        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`     // 小计
	ShippingFee     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"` // 运费（恒为 0）
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 订单金额
	ShippingPhone   string         `gorm:"type:varchar(40)" json:"shipping_phone"`                    // 收货电话
	ShippingAddress string         `gorm:"type:varchar(500)" json:"shipping_address"`                 // 收货地址
	Note            string         `gorm:"type:varchar(600)" json:"note,omitempty"`                   // 面向收件人的备注
	InternalNote    string         `gorm:"type:varchar(300)" json:"-"`                                // 内部备注（交叉引用来源礼品）
	DeliveredAt     *time.Time     `gorm:"index" json:"delivered_at"`                                 // 交付时间
	CancelledAt     *time.Time     `gorm:"index" json:"cancelled_at"`                                 // 取消时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
