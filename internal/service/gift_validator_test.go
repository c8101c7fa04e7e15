package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/giftloop/internal/constants"
	"github.com/giftloop/internal/models"

	"github.com/shopspring/decimal"
)

func TestValidateRedemptionCode(t *testing.T) {
	cases := []struct {
		name string
		code string
		ok   bool
	}{
		{name: "valid", code: "GIFT-1700000000000-AB12CD", ok: true},
		{name: "valid_long_suffix", code: "GIFT-1700000000000-AB12CD9Z", ok: true},
		{name: "non_numeric_timestamp", code: "GIFT-abc-AB12CD", ok: false},
		{name: "short_suffix", code: "GIFT-1700000000000-AB12C", ok: false},
		{name: "lowercase_suffix", code: "GIFT-1700000000000-ab12cd", ok: false},
		{name: "missing_prefix", code: "1700000000000-AB12CD", ok: false},
		{name: "empty", code: "", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRedemptionCode(tc.code)
			if tc.ok && err != nil {
				t.Fatalf("code %s should be valid, got %v", tc.code, err)
			}
			if !tc.ok && !errors.Is(err, ErrGiftCodeFormatInvalid) {
				t.Fatalf("code %s should be rejected, got %v", tc.code, err)
			}
		})
	}
}

func TestValidateGiftSend(t *testing.T) {
	verifiedAt := time.Now()
	sender := &models.User{ID: 1, Email: "alice@example.com", EmailVerifiedAt: &verifiedAt}

	if err := ValidateGiftSend(nil, "bob@example.com", nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("nil sender want ErrUserNotFound got %v", err)
	}

	unverified := &models.User{ID: 1, Email: "alice@example.com"}
	if err := ValidateGiftSend(unverified, "bob@example.com", nil); !errors.Is(err, ErrGiftSenderUnverified) {
		t.Fatalf("unverified sender want ErrGiftSenderUnverified got %v", err)
	}

	if err := ValidateGiftSend(sender, "", nil); !errors.Is(err, ErrGiftReceiverInvalid) {
		t.Fatalf("empty receiver want ErrGiftReceiverInvalid got %v", err)
	}

	if err := ValidateGiftSend(sender, "Alice@Example.com", nil); !errors.Is(err, ErrGiftSelfSend) {
		t.Fatalf("self email want ErrGiftSelfSend got %v", err)
	}

	selfID := uint(1)
	if err := ValidateGiftSend(sender, "bob@example.com", &selfID); !errors.Is(err, ErrGiftSelfSend) {
		t.Fatalf("self user id want ErrGiftSelfSend got %v", err)
	}

	otherID := uint(2)
	if err := ValidateGiftSend(sender, "bob@example.com", &otherID); err != nil {
		t.Fatalf("valid send should pass, got %v", err)
	}
}

func TestValidateDeliveryMode(t *testing.T) {
	now := time.Now()
	future := now.AddDate(0, 0, 7)

	if err := ValidateDeliveryMode("carrier_pigeon", nil, now); !errors.Is(err, ErrGiftDeliveryModeInvalid) {
		t.Fatalf("unknown mode want ErrGiftDeliveryModeInvalid got %v", err)
	}
	if err := ValidateDeliveryMode(constants.DeliveryModeInstant, &future, now); !errors.Is(err, ErrGiftScheduledDateInvalid) {
		t.Fatalf("instant with date want ErrGiftScheduledDateInvalid got %v", err)
	}
	if err := ValidateDeliveryMode(constants.DeliveryModeRedeemRequired, &future, now); !errors.Is(err, ErrGiftScheduledDateInvalid) {
		t.Fatalf("redeem_required with date want ErrGiftScheduledDateInvalid got %v", err)
	}
	if err := ValidateDeliveryMode(constants.DeliveryModeScheduled, nil, now); !errors.Is(err, ErrGiftScheduledDateRequired) {
		t.Fatalf("scheduled without date want ErrGiftScheduledDateRequired got %v", err)
	}
	if err := ValidateDeliveryMode(constants.DeliveryModeInstant, nil, now); err != nil {
		t.Fatalf("instant should pass, got %v", err)
	}
	if err := ValidateDeliveryMode(constants.DeliveryModeScheduled, &future, now); err != nil {
		t.Fatalf("scheduled with valid date should pass, got %v", err)
	}
}

func TestValidateScheduledDateBounds(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.Local)

	// 当天按天粒度允许
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	if err := ValidateScheduledDate(today, now); err != nil {
		t.Fatalf("today should be allowed, got %v", err)
	}

	yesterday := now.AddDate(0, 0, -1)
	if err := ValidateScheduledDate(yesterday, now); !errors.Is(err, ErrGiftScheduledDateInvalid) {
		t.Fatalf("past date want ErrGiftScheduledDateInvalid got %v", err)
	}

	maxDay := now.AddDate(0, 0, constants.GiftMaxScheduleDays)
	if err := ValidateScheduledDate(maxDay, now); err != nil {
		t.Fatalf("365th day should be allowed, got %v", err)
	}

	beyond := now.AddDate(0, 0, constants.GiftMaxScheduleDays+1)
	if err := ValidateScheduledDate(beyond, now); !errors.Is(err, ErrGiftScheduledDateInvalid) {
		t.Fatalf("366th day want ErrGiftScheduledDateInvalid got %v", err)
	}
}

func TestValidateShippingInfo(t *testing.T) {
	if err := ValidateShippingInfo("1380000000", "某省某市某区某街道 100 号"); err != nil {
		t.Fatalf("valid shipping should pass, got %v", err)
	}
	if err := ValidateShippingInfo("138000000", "某省某市某区某街道 100 号"); !errors.Is(err, ErrGiftShippingInvalid) {
		t.Fatalf("short phone want ErrGiftShippingInvalid got %v", err)
	}
	if err := ValidateShippingInfo("1380000000", "短地址"); !errors.Is(err, ErrGiftShippingInvalid) {
		t.Fatalf("short address want ErrGiftShippingInvalid got %v", err)
	}
	// 按字符数计：4 个汉字虽有 12 字节仍不足 10 个字符
	if err := ValidateShippingInfo("1380000000", "某市某区"); !errors.Is(err, ErrGiftShippingInvalid) {
		t.Fatalf("4-char CJK address want ErrGiftShippingInvalid got %v", err)
	}
	// 首尾空白不计入长度
	if err := ValidateShippingInfo("   138000000   ", strings.Repeat("地", 10)); !errors.Is(err, ErrGiftShippingInvalid) {
		t.Fatalf("padded short phone want ErrGiftShippingInvalid got %v", err)
	}
}

func TestValidateGiftOrderItems(t *testing.T) {
	valid := models.GiftOrderItem{
		ProductID: 1001,
		UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	}

	if err := ValidateGiftOrderItems([]models.GiftOrderItem{valid}); err != nil {
		t.Fatalf("single valid item should pass, got %v", err)
	}
	if err := ValidateGiftOrderItems(nil); !errors.Is(err, ErrGiftOrderItemInvalid) {
		t.Fatalf("empty items want ErrGiftOrderItemInvalid got %v", err)
	}
	if err := ValidateGiftOrderItems([]models.GiftOrderItem{valid, valid}); !errors.Is(err, ErrGiftOrderItemInvalid) {
		t.Fatalf("two items want ErrGiftOrderItemInvalid got %v", err)
	}

	zeroProduct := valid
	zeroProduct.ProductID = 0
	if err := ValidateGiftOrderItems([]models.GiftOrderItem{zeroProduct}); !errors.Is(err, ErrGiftOrderItemInvalid) {
		t.Fatalf("zero product want ErrGiftOrderItemInvalid got %v", err)
	}

	zeroPrice := valid
	zeroPrice.UnitPrice = models.MoneyZero()
	if err := ValidateGiftOrderItems([]models.GiftOrderItem{zeroPrice}); !errors.Is(err, ErrGiftOrderItemInvalid) {
		t.Fatalf("zero price want ErrGiftOrderItemInvalid got %v", err)
	}
}

func TestValidateSwapToProduct(t *testing.T) {
	now := time.Now()
	expiresAt := now.AddDate(0, 0, 30)
	gift := &models.Gift{
		Status:    constants.GiftStatusRedeemable,
		CanSwap:   true,
		ItemValue: models.NewMoneyFromDecimal(decimal.NewFromInt(1000)),
		ExpiresAt: &expiresAt,
	}

	equalPrice := models.NewMoneyFromDecimal(decimal.NewFromInt(1000))
	if err := ValidateSwapToProduct(gift, equalPrice, now); err != nil {
		t.Fatalf("equal price should pass, got %v", err)
	}

	higher := models.NewMoneyFromDecimal(decimal.NewFromInt(1001))
	if err := ValidateSwapToProduct(gift, higher, now); !errors.Is(err, ErrGiftSwapPriceExceeded) {
		t.Fatalf("higher price want ErrGiftSwapPriceExceeded got %v", err)
	}

	noSwap := *gift
	noSwap.CanSwap = false
	if err := ValidateSwapToProduct(&noSwap, equalPrice, now); !errors.Is(err, ErrGiftNotSwappable) {
		t.Fatalf("can_swap=false want ErrGiftNotSwappable got %v", err)
	}

	sent := *gift
	sent.Status = constants.GiftStatusSent
	if err := ValidateSwapToProduct(&sent, equalPrice, now); !errors.Is(err, ErrGiftNotSwappable) {
		t.Fatalf("sent gift want ErrGiftNotSwappable got %v", err)
	}

	pastExpiry := now.Add(-time.Minute)
	expired := *gift
	expired.ExpiresAt = &pastExpiry
	if err := ValidateSwapToProduct(&expired, equalPrice, now); !errors.Is(err, ErrGiftExpired) {
		t.Fatalf("expired gift want ErrGiftExpired got %v", err)
	}

	if err := ValidateSwapToProduct(nil, equalPrice, now); !errors.Is(err, ErrGiftNotFound) {
		t.Fatalf("nil gift want ErrGiftNotFound got %v", err)
	}
}

func TestCalculateSwapRefund(t *testing.T) {
	cases := []struct {
		name     string
		original int64
		newValue int64
		want     int64
	}{
		{name: "cheaper_item", original: 100000, newValue: 70000, want: 30000},
		{name: "pricier_item_clamped", original: 50000, newValue: 80000, want: 0},
		{name: "equal_value", original: 50000, newValue: 50000, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateSwapRefund(
				models.NewMoneyFromDecimal(decimal.NewFromInt(tc.original)),
				models.NewMoneyFromDecimal(decimal.NewFromInt(tc.newValue)),
			)
			if !got.Equal(decimal.NewFromInt(tc.want)) {
				t.Fatalf("refund want %d got %s", tc.want, got.String())
			}
		})
	}
}
