package service

import (
	"time"

	"github.com/giftloop/internal/constants"
	"github.com/giftloop/internal/models"
)

// DeliveryPolicy 投递模式策略
type DeliveryPolicy struct {
	RequiresScheduledDate bool // 是否必须携带计划投递日期
	AutoRedeemableOnSend  bool // 送出后是否立即可兑换
}

// deliveryPolicies 三种投递模式的策略表
var deliveryPolicies = map[string]DeliveryPolicy{
	constants.DeliveryModeInstant:        {RequiresScheduledDate: false, AutoRedeemableOnSend: true},
	constants.DeliveryModeScheduled:      {RequiresScheduledDate: true, AutoRedeemableOnSend: false},
	constants.DeliveryModeRedeemRequired: {RequiresScheduledDate: false, AutoRedeemableOnSend: true},
}

// ResolveDeliveryPolicy 解析投递模式策略
func ResolveDeliveryPolicy(mode string) (DeliveryPolicy, bool) {
	policy, ok := deliveryPolicies[mode]
	return policy, ok
}

// IsGiftExpired 判断礼品是否已过有效期（到期时刻当下不算过期）
func IsGiftExpired(gift *models.Gift, now time.Time) bool {
	if gift == nil || gift.ExpiresAt == nil || gift.ExpiresAt.IsZero() {
		return false
	}
	return now.After(*gift.ExpiresAt)
}

// ShouldBeRedeemableNow 判断 sent 状态的礼品此刻是否应放行为可兑换
// 只做只读判定，状态落库由编排方负责。
func ShouldBeRedeemableNow(gift *models.Gift, now time.Time) bool {
	if gift == nil || gift.Status != constants.GiftStatusSent {
		return false
	}
	policy, ok := deliveryPolicies[gift.DeliveryMode]
	if !ok {
		return false
	}
	if policy.AutoRedeemableOnSend {
		return true
	}
	if gift.ScheduledDeliveryDate == nil {
		return false
	}
	return !now.Before(*gift.ScheduledDeliveryDate)
}

// CanRedeemGift 判断礼品是否可兑换
func CanRedeemGift(gift *models.Gift, now time.Time) bool {
	if gift == nil {
		return false
	}
	return gift.Status == constants.GiftStatusRedeemable && !IsGiftExpired(gift, now)
}

// CanSwapGift 判断礼品是否可换购
func CanSwapGift(gift *models.Gift, now time.Time) bool {
	return CanRedeemGift(gift, now) && gift.CanSwap
}
