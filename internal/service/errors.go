package service

import (
	"errors"

	"github.com/giftloop/internal/constants"
)

// 礼品校验类错误
var (
	ErrGiftInvalid               = errors.New("gift invalid")
	ErrGiftSelfSend              = errors.New("gift self send not allowed")
	ErrGiftSenderUnverified      = errors.New("gift sender identity unverified")
	ErrGiftReceiverInvalid       = errors.New("gift receiver invalid")
	ErrGiftDeliveryModeInvalid   = errors.New("gift delivery mode invalid")
	ErrGiftScheduledDateRequired = errors.New("gift scheduled date required")
	ErrGiftScheduledDateInvalid  = errors.New("gift scheduled date invalid")
	ErrGiftOrderItemInvalid      = errors.New("gift order item invalid")
	ErrGiftCodeFormatInvalid     = errors.New("gift redemption code format invalid")
	ErrGiftNotRedeemable         = errors.New("gift not redeemable")
	ErrGiftNotSwappable          = errors.New("gift not swappable")
	ErrGiftSwapPriceExceeded     = errors.New("gift swap candidate price exceeds item value")
	ErrGiftExpired               = errors.New("gift expired")
	ErrGiftShippingInvalid       = errors.New("gift shipping info invalid")
	ErrGiftRedeemInProgress      = errors.New("gift redeem already in progress")
)

// 状态机类错误
var (
	ErrGiftTransitionInvalid      = errors.New("gift status transition not allowed")
	ErrGiftOrderTransitionInvalid = errors.New("gift order status transition not allowed")
	ErrGiftStateConflict          = errors.New("gift state changed concurrently")
)

// 查找类错误
var (
	ErrGiftNotFound         = errors.New("gift not found")
	ErrGiftOrderNotFound    = errors.New("gift order not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// 依赖失败类错误
var (
	ErrGiftFetchFailed          = errors.New("gift fetch failed")
	ErrGiftCreateFailed         = errors.New("gift create failed")
	ErrGiftUpdateFailed         = errors.New("gift update failed")
	ErrGiftOrderFetchFailed     = errors.New("gift order fetch failed")
	ErrGiftOrderCreateFailed    = errors.New("gift order create failed")
	ErrGiftOrderUpdateFailed    = errors.New("gift order update failed")
	ErrOrderFetchFailed         = errors.New("order fetch failed")
	ErrOrderCreateFailed        = errors.New("order create failed")
	ErrOrderUpdateFailed        = errors.New("order update failed")
	ErrNotificationFetchFailed  = errors.New("notification fetch failed")
	ErrNotificationCreateFailed = errors.New("notification create failed")
	ErrNotificationUpdateFailed = errors.New("notification update failed")
	ErrUserFetchFailed          = errors.New("user fetch failed")
)

var validationErrors = []error{
	ErrGiftInvalid,
	ErrGiftSelfSend,
	ErrGiftSenderUnverified,
	ErrGiftReceiverInvalid,
	ErrGiftDeliveryModeInvalid,
	ErrGiftScheduledDateRequired,
	ErrGiftScheduledDateInvalid,
	ErrGiftOrderItemInvalid,
	ErrGiftCodeFormatInvalid,
	ErrGiftNotRedeemable,
	ErrGiftNotSwappable,
	ErrGiftSwapPriceExceeded,
	ErrGiftExpired,
	ErrGiftShippingInvalid,
	ErrGiftRedeemInProgress,
}

var transitionErrors = []error{
	ErrGiftTransitionInvalid,
	ErrGiftOrderTransitionInvalid,
	ErrGiftStateConflict,
}

var notFoundErrors = []error{
	ErrGiftNotFound,
	ErrGiftOrderNotFound,
	ErrOrderNotFound,
	ErrUserNotFound,
	ErrNotificationNotFound,
}

// ErrorKind 返回业务错误的机器可读类别
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return constants.ErrorKindValidation
		}
	}
	for _, target := range transitionErrors {
		if errors.Is(err, target) {
			return constants.ErrorKindTransition
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return constants.ErrorKindNotFound
		}
	}
	return constants.ErrorKindDependencyFailure
}
