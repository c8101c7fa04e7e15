package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification 站内通知表
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`                          // 主键
	UserID    uint           `gorm:"index;not null" json:"user_id"`                 // 接收用户ID
	Event     string         `gorm:"type:varchar(48);index;not null" json:"event"`  // 事件类型
	BizType   string         `gorm:"type:varchar(32);index;not null" json:"biz_type"` // 业务类型
	BizID     uint           `gorm:"index;not null" json:"biz_id"`                  // 业务主键
	Payload   JSON           `gorm:"type:json" json:"payload,omitempty"`            // 事件负载
	ReadAt    *time.Time     `gorm:"index" json:"read_at"`                          // 已读时间
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
