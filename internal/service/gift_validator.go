package service

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/giftloop/internal/constants"
	"github.com/giftloop/internal/models"
)

// redemptionCodePattern 兑换码格式：GIFT-毫秒时间戳-至少 6 位大写 base36
var redemptionCodePattern = regexp.MustCompile(`^GIFT-\d+-[A-Z0-9]{6,}$`)

// ValidateRedemptionCode 校验兑换码格式
func ValidateRedemptionCode(code string) error {
	if !redemptionCodePattern.MatchString(code) {
		return ErrGiftCodeFormatInvalid
	}
	return nil
}

// ValidateGiftSend 校验送礼前置条件（禁止自送、发送方须完成邮箱验证）
func ValidateGiftSend(sender *models.User, receiverEmail string, receiverUserID *uint) error {
	if sender == nil {
		return ErrUserNotFound
	}
	if sender.EmailVerifiedAt == nil {
		return ErrGiftSenderUnverified
	}
	email := strings.ToLower(strings.TrimSpace(receiverEmail))
	if email == "" && receiverUserID == nil {
		return ErrGiftReceiverInvalid
	}
	if email != "" && strings.EqualFold(email, sender.Email) {
		return ErrGiftSelfSend
	}
	if receiverUserID != nil && *receiverUserID == sender.ID {
		return ErrGiftSelfSend
	}
	return nil
}

// ValidateDeliveryMode 校验投递模式与计划日期的搭配
func ValidateDeliveryMode(mode string, scheduledDate *time.Time, now time.Time) error {
	policy, ok := ResolveDeliveryPolicy(mode)
	if !ok {
		return ErrGiftDeliveryModeInvalid
	}
	if !policy.RequiresScheduledDate {
		if scheduledDate != nil {
			return ErrGiftScheduledDateInvalid
		}
		return nil
	}
	if scheduledDate == nil {
		return ErrGiftScheduledDateRequired
	}
	return ValidateScheduledDate(*scheduledDate, now)
}

// ValidateScheduledDate 校验计划投递日期（按天比较，当天起 365 天内）
func ValidateScheduledDate(scheduledDate time.Time, now time.Time) error {
	today := truncateToDay(now)
	target := truncateToDay(scheduledDate)
	if target.Before(today) {
		return ErrGiftScheduledDateInvalid
	}
	if target.After(today.AddDate(0, 0, constants.GiftMaxScheduleDays)) {
		return ErrGiftScheduledDateInvalid
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ValidateShippingInfo 校验收货信息（电话、地址均不少于 10 个字符，按字符数而非字节数）
func ValidateShippingInfo(phone, address string) error {
	if utf8.RuneCountInString(strings.TrimSpace(phone)) < constants.GiftShippingMinChars {
		return ErrGiftShippingInvalid
	}
	if utf8.RuneCountInString(strings.TrimSpace(address)) < constants.GiftShippingMinChars {
		return ErrGiftShippingInvalid
	}
	return nil
}

// ValidateGiftOrderItems 校验礼品订单行（有且仅有一行，单价为正，商品引用有效）
func ValidateGiftOrderItems(items []models.GiftOrderItem) error {
	if len(items) != 1 {
		return ErrGiftOrderItemInvalid
	}
	item := items[0]
	if item.ProductID == 0 {
		return ErrGiftOrderItemInvalid
	}
	if !item.UnitPrice.GreaterThan(decimal.Zero) {
		return ErrGiftOrderItemInvalid
	}
	return nil
}

// ValidateSwapToProduct 校验换购目标（允许换购、当前可兑换、未过期、价格不超过原礼品价值）
func ValidateSwapToProduct(gift *models.Gift, candidatePrice models.Money, now time.Time) error {
	if gift == nil {
		return ErrGiftNotFound
	}
	if !gift.CanSwap {
		return ErrGiftNotSwappable
	}
	if IsGiftExpired(gift, now) {
		return ErrGiftExpired
	}
	if gift.Status != constants.GiftStatusRedeemable {
		return ErrGiftNotSwappable
	}
	if candidatePrice.GreaterThan(gift.ItemValue.Decimal) {
		return ErrGiftSwapPriceExceeded
	}
	return nil
}

// CalculateSwapRefund 换购差额（仅作展示，不产生真实退款），不会为负
func CalculateSwapRefund(originalValue, newValue models.Money) models.Money {
	diff := originalValue.Sub(newValue.Decimal)
	if diff.IsNegative() {
		return models.MoneyZero()
	}
	return models.NewMoneyFromDecimal(diff)
}
