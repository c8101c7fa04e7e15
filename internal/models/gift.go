package models

import (
	"time"

	"gorm.io/gorm"
)

// Gift 礼品流转记录表
type Gift struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                    // 主键
	GiftOrderID           uint           `gorm:"index;not null" json:"gift_order_id"`                     // 购买单ID
	SenderUserID          uint           `gorm:"index;not null" json:"sender_user_id"`                    // 赠送人用户ID
	SenderName            string         `gorm:"type:varchar(120)" json:"sender_name"`                    // 赠送人姓名快照
	SenderEmail           string         `gorm:"type:varchar(200);index" json:"sender_email"`             // 赠送人邮箱快照
	ReceiverUserID        *uint          `gorm:"index" json:"receiver_user_id,omitempty"`                 // 接收人用户ID（可在兑换时绑定）
	ReceiverName          string         `gorm:"type:varchar(120)" json:"receiver_name"`                  // 接收人姓名
	ReceiverEmail         string         `gorm:"type:varchar(200);index;not null" json:"receiver_email"`  // 接收人邮箱
	ConnectionID          *uint          `gorm:"index" json:"connection_id,omitempty"`                    // 关系/人脉ID
	ItemID                uint           `gorm:"index;not null" json:"item_id"`                           // 商品ID快照
	ItemType              string         `gorm:"type:varchar(32)" json:"item_type"`                       // 商品类型快照
	ItemName              string         `gorm:"type:varchar(200);not null" json:"item_name"`             // 商品名称快照
	ItemImage             string         `gorm:"type:varchar(500)" json:"item_image"`                     // 商品图片快照
	ItemValue             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"item_value"` // 商品价值快照
	Message               string         `gorm:"type:varchar(500)" json:"message,omitempty"`              // 赠言
	Occasion              string         `gorm:"type:varchar(64)" json:"occasion,omitempty"`              // 场合标签
	GiftContext           string         `gorm:"type:varchar(64)" json:"gift_context,omitempty"`          // 赠礼场景
	Status                string         `gorm:"type:varchar(32);index;not null" json:"status"`           // 礼品状态
	DeliveryMode          string         `gorm:"type:varchar(24);index;not null" json:"delivery_mode"`    // 投递模式
	ScheduledDeliveryDate *time.Time     `gorm:"index" json:"scheduled_delivery_date,omitempty"`          // 计划投递日期
	RedemptionCode        string         `gorm:"type:varchar(80);uniqueIndex;not null" json:"redemption_code"` // 兑换码
	CanSwap               bool           `gorm:"not null;default:false" json:"can_swap"`                  // 是否允许换购
	SwappedFromGiftID     *uint          `gorm:"index" json:"swapped_from_gift_id,omitempty"`             // 换购来源礼品ID
	FulfillmentOrderID    *uint          `gorm:"index" json:"fulfillment_order_id,omitempty"`             // 履约订单ID（兑换后回链）
	SentDate              *time.Time     `gorm:"index" json:"sent_date"`                                  // 送出时间
	ExpiresAt             *time.Time     `gorm:"index" json:"expires_at"`                                 // 过期时间（送出时固定，不再重算）
	ReceiverPhone         string         `gorm:"type:varchar(40)" json:"receiver_phone,omitempty"`        // 收货电话（兑换时填写）
	ReceiverShippingAddr  string         `gorm:"type:varchar(500);column:receiver_shipping_address" json:"receiver_shipping_address,omitempty"` // 收货地址（兑换时填写）
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt             time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间

	GiftOrder        *GiftOrder `gorm:"foreignKey:GiftOrderID" json:"gift_order,omitempty"`           // 购买单信息
	FulfillmentOrder *Order     `gorm:"foreignKey:FulfillmentOrderID" json:"fulfillment_order,omitempty"` // 履约订单
}

// TableName 指定表名
func (Gift) TableName() string {
	return "gifts"
}
