package queue

import (
	"encoding/json"

	"github.com/giftloop/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskGiftScheduledRelease 定时礼品放行任务
	TaskGiftScheduledRelease = constants.TaskGiftScheduledRelease
	// TaskGiftExpireSweep 礼品过期清扫任务
	TaskGiftExpireSweep = constants.TaskGiftExpireSweep
	// TaskGiftOrderTimeoutCancel 购买单超时取消任务
	TaskGiftOrderTimeoutCancel = constants.TaskGiftOrderTimeoutCancel
	// TaskNotificationDispatch 通知分发任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
)

// GiftScheduledReleasePayload 定时礼品放行任务载荷
type GiftScheduledReleasePayload struct {
	GiftID uint `json:"gift_id"`
}

// GiftExpireSweepPayload 礼品过期清扫任务载荷
type GiftExpireSweepPayload struct {
	Limit int `json:"limit"`
}

// GiftOrderTimeoutCancelPayload 购买单超时取消任务载荷
type GiftOrderTimeoutCancelPayload struct {
	GiftOrderID uint `json:"gift_order_id"`
}

// NotificationDispatchPayload 通知分发任务载荷
type NotificationDispatchPayload struct {
	UserID  uint              `json:"user_id"`
	Event   string            `json:"event"`
	BizType string            `json:"biz_type"`
	BizID   uint              `json:"biz_id"`
	Title   string            `json:"title,omitempty"`
	Message string            `json:"message,omitempty"`
	Link    string            `json:"link,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// NewGiftScheduledReleaseTask 创建定时礼品放行任务
func NewGiftScheduledReleaseTask(payload GiftScheduledReleasePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGiftScheduledRelease, body), nil
}

// NewGiftExpireSweepTask 创建礼品过期清扫任务
func NewGiftExpireSweepTask(payload GiftExpireSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGiftExpireSweep, body), nil
}

// NewGiftOrderTimeoutCancelTask 创建购买单超时取消任务
func NewGiftOrderTimeoutCancelTask(payload GiftOrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGiftOrderTimeoutCancel, body), nil
}

// NewNotificationDispatchTask 创建通知分发任务
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}
