package service

import "github.com/giftloop/internal/constants"

// allowedGiftTransitions 礼品状态机迁移表（唯一事实来源）
var allowedGiftTransitions = map[string]map[string]bool{
	constants.GiftStatusPendingPayment: {
		constants.GiftStatusPaid:      true,
		constants.GiftStatusCancelled: true,
	},
	constants.GiftStatusPaid: {
		constants.GiftStatusSent:      true,
		constants.GiftStatusCancelled: true,
	},
	constants.GiftStatusSent: {
		constants.GiftStatusRedeemable: true,
		constants.GiftStatusExpired:    true,
		constants.GiftStatusCancelled:  true,
	},
	constants.GiftStatusRedeemable: {
		constants.GiftStatusRedeemed:  true,
		constants.GiftStatusSwapped:   true,
		constants.GiftStatusExpired:   true,
		constants.GiftStatusCancelled: true,
	},
	constants.GiftStatusRedeemed: {
		constants.GiftStatusFulfillmentCreated: true,
	},
	constants.GiftStatusFulfillmentCreated: {
		constants.GiftStatusDelivered: true,
	},
	// delivered / swapped / cancelled / expired 为终态，没有出边
	constants.GiftStatusDelivered: {},
	constants.GiftStatusSwapped:   {},
	constants.GiftStatusCancelled: {},
	constants.GiftStatusExpired:   {},
}

// allowedGiftOrderTransitions 购买单状态机迁移表
var allowedGiftOrderTransitions = map[string]map[string]bool{
	constants.GiftOrderStatusDraft: {
		constants.GiftOrderStatusPendingPayment: true,
		constants.GiftOrderStatusCancelled:      true,
	},
	constants.GiftOrderStatusPendingPayment: {
		constants.GiftOrderStatusPaid:      true,
		constants.GiftOrderStatusCancelled: true,
	},
	constants.GiftOrderStatusPaid: {
		constants.GiftOrderStatusRefunded: true,
	},
	constants.GiftOrderStatusCancelled: {},
	constants.GiftOrderStatusRefunded:  {},
}

// CanTransitionGift 判断礼品状态迁移是否合法（纯函数，不读时钟）
func CanTransitionGift(from, to string) bool {
	nexts, ok := allowedGiftTransitions[from]
	if !ok {
		return false
	}
	return nexts[to]
}

// IsTerminalGiftStatus 判断礼品状态是否为终态（无出边）
func IsTerminalGiftStatus(status string) bool {
	nexts, ok := allowedGiftTransitions[status]
	if !ok {
		return false
	}
	return len(nexts) == 0
}

// CanTransitionGiftOrder 判断购买单状态迁移是否合法
func CanTransitionGiftOrder(from, to string) bool {
	nexts, ok := allowedGiftOrderTransitions[from]
	if !ok {
		return false
	}
	return nexts[to]
}

// IsTerminalGiftOrderStatus 判断购买单状态是否为终态
func IsTerminalGiftOrderStatus(status string) bool {
	nexts, ok := allowedGiftOrderTransitions[status]
	if !ok {
		return false
	}
	return len(nexts) == 0
}
