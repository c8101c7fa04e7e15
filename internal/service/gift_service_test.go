package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/giftloop/internal/constants"
	"github.com/giftloop/internal/models"
	"github.com/giftloop/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupGiftServiceTest(t *testing.T) (*GiftService, *FulfillmentService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:gift_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.GiftOrder{},
		&models.GiftOrderItem{},
		&models.Gift{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	giftRepo := repository.NewGiftRepository(db)
	giftOrderRepo := repository.NewGiftOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notificationSvc := NewNotificationService(repository.NewNotificationRepository(db), nil)
	fulfillmentSvc := NewFulfillmentService(orderRepo, giftRepo)
	giftSvc := NewGiftService(giftRepo, giftOrderRepo, userRepo, fulfillmentSvc, notificationSvc, nil, 90, 15, 200)
	return giftSvc, fulfillmentSvc, db
}

func seedGiftUser(t *testing.T, db *gorm.DB, id uint, verified bool) *models.User {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("gift_user_%d@example.com", id),
		PasswordHash: "hash",
		DisplayName:  fmt.Sprintf("用户%d", id),
		Status:       constants.UserStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if verified {
		now := time.Now()
		user.EmailVerifiedAt = &now
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return &user
}

func buildSendGiftInput(senderID uint, value int64) SendGiftInput {
	return SendGiftInput{
		SenderUserID:  senderID,
		ReceiverName:  "小明",
		ReceiverEmail: "gift_user_2@example.com",
		Item: SendGiftItem{
			ProductID:   1001,
			ProductType: "physical",
			Name:        "智能手表",
			Image:       "https://cdn.example.com/watch.png",
			Value:       models.NewMoneyFromDecimal(decimal.NewFromInt(value)),
		},
		Message:      "生日快乐！",
		Occasion:     "birthday",
		DeliveryMode: constants.DeliveryModeInstant,
		CanSwap:      true,
	}
}

func TestSendGiftInstantCreatesPendingPayment(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)

	gift, err := svc.SendGift(buildSendGiftInput(1, 100000))
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	if gift.Status != constants.GiftStatusPendingPayment {
		t.Fatalf("gift status want pending_payment got %s", gift.Status)
	}
	if err := ValidateRedemptionCode(gift.RedemptionCode); err != nil {
		t.Fatalf("redemption code %q invalid: %v", gift.RedemptionCode, err)
	}
	if gift.GiftOrderID == 0 {
		t.Fatal("gift should reference its purchase order")
	}

	var order models.GiftOrder
	if err := db.Preload("Items").First(&order, gift.GiftOrderID).Error; err != nil {
		t.Fatalf("load gift order failed: %v", err)
	}
	if order.Status != constants.GiftOrderStatusPendingPayment {
		t.Fatalf("order status want pending_payment got %s", order.Status)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 1 {
		t.Fatalf("order should have exactly one item with quantity 1, got %+v", order.Items)
	}
	if order.ExpiresAt == nil || !order.ExpiresAt.After(time.Now()) {
		t.Fatal("order payment window should be in the future")
	}
}

func TestSendGiftValidation(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	sender := seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)
	seedGiftUser(t, db, 3, false)

	selfInput := buildSendGiftInput(1, 50000)
	selfInput.ReceiverEmail = strings.ToUpper(sender.Email)
	if _, err := svc.SendGift(selfInput); !errors.Is(err, ErrGiftSelfSend) {
		t.Fatalf("self send want ErrGiftSelfSend got %v", err)
	}

	unverified := buildSendGiftInput(3, 50000)
	if _, err := svc.SendGift(unverified); !errors.Is(err, ErrGiftSenderUnverified) {
		t.Fatalf("unverified sender want ErrGiftSenderUnverified got %v", err)
	}

	scheduled := buildSendGiftInput(1, 50000)
	scheduled.DeliveryMode = constants.DeliveryModeScheduled
	if _, err := svc.SendGift(scheduled); !errors.Is(err, ErrGiftScheduledDateRequired) {
		t.Fatalf("scheduled without date want ErrGiftScheduledDateRequired got %v", err)
	}

	missing := buildSendGiftInput(99, 50000)
	if _, err := svc.SendGift(missing); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown sender want ErrUserNotFound got %v", err)
	}
}

func TestConfirmGiftPaymentInstantBecomesRedeemable(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)

	gift, err := svc.SendGift(buildSendGiftInput(1, 100000))
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}

	paid, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "alipay", "pay-123")
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	if paid.Status != constants.GiftStatusRedeemable {
		t.Fatalf("instant gift after payment want redeemable got %s", paid.Status)
	}
	if paid.SentDate == nil || paid.ExpiresAt == nil {
		t.Fatal("sent_date and expires_at should be set on payment")
	}
	wantExpiry := paid.SentDate.AddDate(0, 0, 90)
	if !paid.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires_at want sent_date+90d (%v) got %v", wantExpiry, paid.ExpiresAt)
	}

	var order models.GiftOrder
	if err := db.First(&order, gift.GiftOrderID).Error; err != nil {
		t.Fatalf("load gift order failed: %v", err)
	}
	if order.Status != constants.GiftOrderStatusPaid || order.PaidAt == nil {
		t.Fatalf("order want paid with paid_at, got %s %v", order.Status, order.PaidAt)
	}
	if order.PaymentMethod != "alipay" || order.PaymentID != "pay-123" {
		t.Fatalf("payment fields not recorded: %+v", order)
	}

	// 重复确认应被状态机拦下
	if _, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "alipay", "pay-123"); !errors.Is(err, ErrGiftOrderTransitionInvalid) {
		t.Fatalf("double payment want ErrGiftOrderTransitionInvalid got %v", err)
	}
}

func TestConfirmGiftPaymentScheduledStaysSent(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)

	input := buildSendGiftInput(1, 100000)
	input.DeliveryMode = constants.DeliveryModeScheduled
	scheduledDate := time.Now().AddDate(0, 0, 7)
	input.ScheduledDeliveryDate = &scheduledDate

	gift, err := svc.SendGift(input)
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	paid, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "wechat", "pay-456")
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	if paid.Status != constants.GiftStatusSent {
		t.Fatalf("scheduled gift before its date want sent got %s", paid.Status)
	}
}

func TestRedeemGiftCreatesFulfillmentOrder(t *testing.T) {
	svc, fulfillmentSvc, db := setupGiftServiceTest(t)
	sender := seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)

	gift, err := svc.SendGift(buildSendGiftInput(1, 100000))
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	if _, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "alipay", "pay-123"); err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}

	redeemed, err := svc.RedeemGift(context.Background(), RedeemGiftInput{
		Code:            gift.RedemptionCode,
		ReceiverUserID:  2,
		ShippingPhone:   "13800001234",
		ShippingAddress: "某省某市某区某街道 100 号",
	})
	if err != nil {
		t.Fatalf("redeem gift failed: %v", err)
	}
	if redeemed.Status != constants.GiftStatusFulfillmentCreated {
		t.Fatalf("redeemed gift want fulfillment_created got %s", redeemed.Status)
	}
	if redeemed.FulfillmentOrderID == nil || *redeemed.FulfillmentOrderID == 0 {
		t.Fatal("backlink to fulfillment order missing")
	}

	order, err := fulfillmentSvc.GetOrderByGift(redeemed.ID)
	if err != nil {
		t.Fatalf("fetch fulfillment order failed: %v", err)
	}
	if order.Status != constants.OrderStatusConfirmed {
		t.Fatalf("order status want confirmed got %s", order.Status)
	}
	if order.PaymentStatus != constants.OrderPaymentPrepaid {
		t.Fatalf("order payment status want prepaid got %s", order.PaymentStatus)
	}
	if !order.ShippingFee.IsZero() {
		t.Fatalf("shipping fee want 0 got %s", order.ShippingFee.String())
	}
	if !order.Subtotal.Equal(decimal.NewFromInt(100000)) || !order.TotalAmount.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("order amounts should snapshot the item value, got %s / %s", order.Subtotal.String(), order.TotalAmount.String())
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 1 {
		t.Fatalf("fulfillment order should have one item quantity 1, got %+v", order.Items)
	}
	if !strings.Contains(order.Note, sender.DisplayName) || !strings.Contains(order.Note, "生日快乐") {
		t.Fatalf("order note should carry sender and message, got %q", order.Note)
	}
	if !strings.Contains(order.InternalNote, fmt.Sprintf("gift_id=%d", redeemed.ID)) {
		t.Fatalf("internal note should reference the gift, got %q", order.InternalNote)
	}

	// 同一兑换码第二次兑换
	if _, err := svc.RedeemGift(context.Background(), RedeemGiftInput{
		Code:            gift.RedemptionCode,
		ReceiverUserID:  2,
		ShippingPhone:   "13800001234",
		ShippingAddress: "某省某市某区某街道 100 号",
	}); !errors.Is(err, ErrGiftNotRedeemable) {
		t.Fatalf("second redeem want ErrGiftNotRedeemable got %v", err)
	}
}

func TestRedeemGiftExpired(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)

	gift, err := svc.SendGift(buildSendGiftInput(1, 100000))
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	if _, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "alipay", "pay-123"); err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if err := db.Model(&models.Gift{}).Where("id = ?", gift.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("force expiry failed: %v", err)
	}

	if _, err := svc.RedeemGift(context.Background(), RedeemGiftInput{
		Code:            gift.RedemptionCode,
		ReceiverUserID:  2,
		ShippingPhone:   "13800001234",
		ShippingAddress: "某省某市某区某街道 100 号",
	}); !errors.Is(err, ErrGiftExpired) {
		t.Fatalf("expired redeem want ErrGiftExpired got %v", err)
	}

	var stored models.Gift
	if err := db.First(&stored, gift.ID).Error; err != nil {
		t.Fatalf("load gift failed: %v", err)
	}
	if stored.Status != constants.GiftStatusExpired {
		t.Fatalf("expiry should be persisted, got %s", stored.Status)
	}
}

func TestSwapGift(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)

	gift, err := svc.SendGift(buildSendGiftInput(1, 100000))
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	paid, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "alipay", "pay-123")
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}

	result, err := svc.SwapGift(context.Background(), SwapGiftInput{
		GiftID:         paid.ID,
		ReceiverUserID: 2,
		NewItem: SendGiftItem{
			ProductID:   2002,
			ProductType: "physical",
			Name:        "蓝牙耳机",
			Value:       models.NewMoneyFromDecimal(decimal.NewFromInt(70000)),
		},
	})
	if err != nil {
		t.Fatalf("swap gift failed: %v", err)
	}
	if !result.RefundAmount.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("refund want 30000 got %s", result.RefundAmount.String())
	}
	if result.OriginalGift.Status != constants.GiftStatusSwapped {
		t.Fatalf("original gift want swapped got %s", result.OriginalGift.Status)
	}
	if result.Gift.Status != constants.GiftStatusRedeemable {
		t.Fatalf("replacement gift want redeemable got %s", result.Gift.Status)
	}
	if result.Gift.RedemptionCode == paid.RedemptionCode {
		t.Fatal("replacement gift should carry a fresh redemption code")
	}
	if err := ValidateRedemptionCode(result.Gift.RedemptionCode); err != nil {
		t.Fatalf("replacement code invalid: %v", err)
	}
	if result.Gift.SwappedFromGiftID == nil || *result.Gift.SwappedFromGiftID != paid.ID {
		t.Fatal("replacement gift should link back to the original")
	}
	// 有效期沿用原礼品，不因换购重置
	if result.Gift.ExpiresAt == nil || result.Gift.ExpiresAt.Unix() != paid.ExpiresAt.Unix() {
		t.Fatalf("replacement expiry want %v got %v", paid.ExpiresAt, result.Gift.ExpiresAt)
	}
	if result.Gift.SentDate == nil || result.Gift.SentDate.Unix() != paid.SentDate.Unix() {
		t.Fatalf("replacement sent_date want %v got %v", paid.SentDate, result.Gift.SentDate)
	}

	var stored models.Gift
	if err := db.First(&stored, paid.ID).Error; err != nil {
		t.Fatalf("load original gift failed: %v", err)
	}
	if stored.Status != constants.GiftStatusSwapped {
		t.Fatalf("original gift should be persisted as swapped, got %s", stored.Status)
	}
}

func TestSwapGiftStrangerRejected(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)
	seedGiftUser(t, db, 3, true)

	gift, err := svc.SendGift(buildSendGiftInput(1, 100000))
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	paid, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "alipay", "pay-123")
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}

	// 与礼品无关的用户不能换购他人的礼品
	if _, err := svc.SwapGift(context.Background(), SwapGiftInput{
		GiftID:         paid.ID,
		ReceiverUserID: 3,
		NewItem: SendGiftItem{
			ProductID: 2002,
			Name:      "蓝牙耳机",
			Value:     models.NewMoneyFromDecimal(decimal.NewFromInt(70000)),
		},
	}); !errors.Is(err, ErrGiftNotFound) {
		t.Fatalf("stranger swap want ErrGiftNotFound got %v", err)
	}

	var stored models.Gift
	if err := db.First(&stored, paid.ID).Error; err != nil {
		t.Fatalf("load gift failed: %v", err)
	}
	if stored.Status != constants.GiftStatusRedeemable {
		t.Fatalf("rejected swap must not touch gift status, got %s", stored.Status)
	}
	var count int64
	if err := db.Model(&models.Gift{}).Where("swapped_from_gift_id = ?", paid.ID).Count(&count).Error; err != nil {
		t.Fatalf("count replacement gifts failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected swap must not create a replacement gift, got %d", count)
	}

	if _, err := svc.SwapGift(context.Background(), SwapGiftInput{
		GiftID: paid.ID,
		NewItem: SendGiftItem{
			ProductID: 2002,
			Name:      "蓝牙耳机",
			Value:     models.NewMoneyFromDecimal(decimal.NewFromInt(70000)),
		},
	}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("anonymous swap want ErrUserNotFound got %v", err)
	}
}

func TestSwapGiftBoundReceiverOnly(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)
	seedGiftUser(t, db, 3, true)

	gift, err := svc.SendGift(buildSendGiftInput(1, 100000))
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	paid, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "alipay", "pay-123")
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	if err := db.Model(&models.Gift{}).Where("id = ?", paid.ID).Update("receiver_user_id", 2).Error; err != nil {
		t.Fatalf("bind receiver failed: %v", err)
	}

	// 已绑定接收人后按用户 ID 比对，邮箱不再放行其他账号
	if _, err := svc.SwapGift(context.Background(), SwapGiftInput{
		GiftID:         paid.ID,
		ReceiverUserID: 3,
		NewItem: SendGiftItem{
			ProductID: 2002,
			Name:      "蓝牙耳机",
			Value:     models.NewMoneyFromDecimal(decimal.NewFromInt(70000)),
		},
	}); !errors.Is(err, ErrGiftNotFound) {
		t.Fatalf("non-receiver swap want ErrGiftNotFound got %v", err)
	}

	result, err := svc.SwapGift(context.Background(), SwapGiftInput{
		GiftID:         paid.ID,
		ReceiverUserID: 2,
		NewItem: SendGiftItem{
			ProductID: 2002,
			Name:      "蓝牙耳机",
			Value:     models.NewMoneyFromDecimal(decimal.NewFromInt(70000)),
		},
	})
	if err != nil {
		t.Fatalf("receiver swap failed: %v", err)
	}
	if result.Gift.ReceiverUserID == nil || *result.Gift.ReceiverUserID != 2 {
		t.Fatalf("replacement gift should stay bound to the receiver, got %+v", result.Gift.ReceiverUserID)
	}
}

func TestRedeemGiftScheduledBeforeDate(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)

	input := buildSendGiftInput(1, 100000)
	input.DeliveryMode = constants.DeliveryModeScheduled
	scheduledDate := time.Now().AddDate(0, 0, 5)
	input.ScheduledDeliveryDate = &scheduledDate

	gift, err := svc.SendGift(input)
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	paid, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "wechat", "pay-789")
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	if paid.Status != constants.GiftStatusSent {
		t.Fatalf("scheduled gift want sent got %s", paid.Status)
	}

	// 计划日期未到，兑换被拒且状态不动
	if _, err := svc.RedeemGift(context.Background(), RedeemGiftInput{
		Code:            gift.RedemptionCode,
		ReceiverUserID:  2,
		ShippingPhone:   "13800001234",
		ShippingAddress: "某省某市某区某街道 100 号",
	}); !errors.Is(err, ErrGiftNotRedeemable) {
		t.Fatalf("early redeem want ErrGiftNotRedeemable got %v", err)
	}

	var stored models.Gift
	if err := db.First(&stored, gift.ID).Error; err != nil {
		t.Fatalf("load gift failed: %v", err)
	}
	if stored.Status != constants.GiftStatusSent {
		t.Fatalf("early redeem must leave gift sent, got %s", stored.Status)
	}
	var orders int64
	if err := db.Model(&models.Order{}).Where("gift_id = ?", gift.ID).Count(&orders).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orders != 0 {
		t.Fatalf("early redeem must not create a fulfillment order, got %d", orders)
	}
}

func TestSwapGiftPriceExceeded(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)

	gift, err := svc.SendGift(buildSendGiftInput(1, 50000))
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	paid, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "alipay", "pay-123")
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}

	if _, err := svc.SwapGift(context.Background(), SwapGiftInput{
		GiftID:         paid.ID,
		ReceiverUserID: 2,
		NewItem: SendGiftItem{
			ProductID: 2002,
			Name:      "更贵的东西",
			Value:     models.NewMoneyFromDecimal(decimal.NewFromInt(80000)),
		},
	}); !errors.Is(err, ErrGiftSwapPriceExceeded) {
		t.Fatalf("pricier swap want ErrGiftSwapPriceExceeded got %v", err)
	}

	var stored models.Gift
	if err := db.First(&stored, paid.ID).Error; err != nil {
		t.Fatalf("load gift failed: %v", err)
	}
	if stored.Status != constants.GiftStatusRedeemable {
		t.Fatalf("failed swap must not touch gift status, got %s", stored.Status)
	}
}

func TestGetGiftByCodeLazyExpiry(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)

	gift, err := svc.SendGift(buildSendGiftInput(1, 100000))
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	if _, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "alipay", "pay-123"); err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Gift{}).Where("id = ?", gift.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("force expiry failed: %v", err)
	}

	fetched, err := svc.GetGiftByCode(gift.RedemptionCode)
	if err != nil {
		t.Fatalf("get gift by code failed: %v", err)
	}
	if fetched.Status != constants.GiftStatusExpired {
		t.Fatalf("read path should surface expiry, got %s", fetched.Status)
	}
	var stored models.Gift
	if err := db.First(&stored, gift.ID).Error; err != nil {
		t.Fatalf("load gift failed: %v", err)
	}
	if stored.Status != constants.GiftStatusExpired {
		t.Fatalf("lazy expiry should be persisted, got %s", stored.Status)
	}

	if _, err := svc.GetGiftByCode("GIFT-abc-AB12CD"); !errors.Is(err, ErrGiftCodeFormatInvalid) {
		t.Fatalf("malformed code want ErrGiftCodeFormatInvalid got %v", err)
	}
	if _, err := svc.GetGiftByCode("GIFT-1700000000000-ZZZZZZ"); !errors.Is(err, ErrGiftNotFound) {
		t.Fatalf("unknown code want ErrGiftNotFound got %v", err)
	}
}

func TestCancelGift(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)

	gift, err := svc.SendGift(buildSendGiftInput(1, 100000))
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}

	if _, err := svc.CancelGift(gift.ID, 2); !errors.Is(err, ErrGiftNotFound) {
		t.Fatalf("cancel by non-sender want ErrGiftNotFound got %v", err)
	}

	cancelled, err := svc.CancelGift(gift.ID, 1)
	if err != nil {
		t.Fatalf("cancel gift failed: %v", err)
	}
	if cancelled.Status != constants.GiftStatusCancelled {
		t.Fatalf("gift want cancelled got %s", cancelled.Status)
	}

	// 重复取消幂等
	again, err := svc.CancelGift(gift.ID, 1)
	if err != nil {
		t.Fatalf("repeat cancel should be idempotent, got %v", err)
	}
	if again.Status != constants.GiftStatusCancelled {
		t.Fatalf("repeat cancel status want cancelled got %s", again.Status)
	}
}

func TestCancelGiftAfterRedeemRejected(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)

	gift, err := svc.SendGift(buildSendGiftInput(1, 100000))
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	if _, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "alipay", "pay-123"); err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	if _, err := svc.RedeemGift(context.Background(), RedeemGiftInput{
		Code:            gift.RedemptionCode,
		ReceiverUserID:  2,
		ShippingPhone:   "13800001234",
		ShippingAddress: "某省某市某区某街道 100 号",
	}); err != nil {
		t.Fatalf("redeem gift failed: %v", err)
	}

	if _, err := svc.CancelGift(gift.ID, 1); !errors.Is(err, ErrGiftTransitionInvalid) {
		t.Fatalf("cancel after redeem want ErrGiftTransitionInvalid got %v", err)
	}
}

func TestExpireSweep(t *testing.T) {
	svc, _, db := setupGiftServiceTest(t)
	seedGiftUser(t, db, 1, true)
	seedGiftUser(t, db, 2, true)

	past := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		gift, err := svc.SendGift(buildSendGiftInput(1, 100000))
		if err != nil {
			t.Fatalf("send gift failed: %v", err)
		}
		if _, err := svc.ConfirmGiftPayment(gift.GiftOrderID, 1, "alipay", fmt.Sprintf("pay-%d", i)); err != nil {
			t.Fatalf("confirm payment failed: %v", err)
		}
		if err := db.Model(&models.Gift{}).Where("id = ?", gift.ID).Update("expires_at", past).Error; err != nil {
			t.Fatalf("force expiry failed: %v", err)
		}
	}
	// 一张未到期的礼品不应被扫到
	fresh, err := svc.SendGift(buildSendGiftInput(1, 100000))
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	if _, err := svc.ConfirmGiftPayment(fresh.GiftOrderID, 1, "alipay", "pay-fresh"); err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}

	expired, err := svc.ExpireSweep(0)
	if err != nil {
		t.Fatalf("expire sweep failed: %v", err)
	}
	if expired != 3 {
		t.Fatalf("sweep want 3 expired got %d", expired)
	}

	var count int64
	if err := db.Model(&models.Gift{}).Where("status = ?", constants.GiftStatusExpired).Count(&count).Error; err != nil {
		t.Fatalf("count expired failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("persisted expired count want 3 got %d", count)
	}

	var stored models.Gift
	if err := db.First(&stored, fresh.ID).Error; err != nil {
		t.Fatalf("load fresh gift failed: %v", err)
	}
	if stored.Status != constants.GiftStatusRedeemable {
		t.Fatalf("fresh gift must stay redeemable, got %s", stored.Status)
	}
}
