package main

import (
	"fmt"
	"time"

	"github.com/giftloop/internal/config"
	"github.com/giftloop/internal/constants"
	"github.com/giftloop/internal/logger"
	"github.com/giftloop/internal/models"
	"github.com/giftloop/internal/service"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	now := time.Now()
	verifiedAt := now.Add(-30 * 24 * time.Hour)

	// 演示用户
	users := []models.User{
		{
			Email:           "alice@example.com",
			DisplayName:     "Alice",
			Status:          constants.UserStatusActive,
			EmailVerifiedAt: &verifiedAt,
		},
		{
			Email:           "bob@example.com",
			DisplayName:     "Bob",
			Status:          constants.UserStatusActive,
			EmailVerifiedAt: &verifiedAt,
		},
		{
			Email:       "carol@example.com",
			DisplayName: "Carol",
			Status:      constants.UserStatusActive,
		},
	}

	userIDs := map[string]uint{}
	for _, u := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", u.Email).First(&existing).Error; err == nil {
			stdLog.Printf("User already exists: %s", u.Email)
			userIDs[u.Email] = existing.ID
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte("demo123456"), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Fatalf("Failed to hash demo password: %v", err)
		}
		u.PasswordHash = string(hash)
		if err := models.DB.Create(&u).Error; err != nil {
			stdLog.Printf("Failed to create user %s: %v", u.Email, err)
			continue
		}
		stdLog.Printf("Created user: %s (password: demo123456)", u.Email)
		userIDs[u.Email] = u.ID
	}

	aliceID := userIDs["alice@example.com"]
	bobID := userIDs["bob@example.com"]
	if aliceID == 0 || bobID == 0 {
		stdLog.Fatalf("Demo users missing, aborting gift seed")
	}

	// 演示礼品：Alice 送给 Bob 一件可兑换的礼物
	seedRedeemableGift(stdLog.Printf, aliceID, bobID, now)

	stdLog.Printf("Seed completed")
}

func seedRedeemableGift(printf func(format string, v ...interface{}), senderID, receiverID uint, now time.Time) {
	var count int64
	models.DB.Model(&models.Gift{}).Where("sender_user_id = ?", senderID).Count(&count)
	if count > 0 {
		printf("Demo gifts already exist, skipping")
		return
	}

	itemValue := models.NewMoneyFromDecimal(decimal.NewFromFloat(199.00))
	paidAt := now.Add(-2 * time.Hour)
	sentDate := paidAt
	expiresAt := sentDate.AddDate(0, 0, constants.GiftExpireDaysDefault)

	order := models.GiftOrder{
		OrderNo:       fmt.Sprintf("GF%d", now.UnixNano()),
		BuyerUserID:   senderID,
		BuyerEmail:    "alice@example.com",
		BuyerName:     "Alice",
		Status:        constants.GiftOrderStatusPaid,
		Currency:      constants.SiteCurrencyDefault,
		Subtotal:      itemValue,
		Discount:      models.MoneyZero(),
		TotalAmount:   itemValue,
		PaymentMethod: constants.PaymentMethodCard,
		PaidAt:        &paidAt,
	}
	if err := models.DB.Create(&order).Error; err != nil {
		printf("Failed to create demo gift order: %v", err)
		return
	}

	item := models.GiftOrderItem{
		GiftOrderID: order.ID,
		ProductID:   1001,
		ProductType: "physical",
		NameJSON:    models.JSON(map[string]interface{}{"default": "智能手表"}),
		Image:       "https://images.unsplash.com/photo-1579586337278-3befd40fd17a?w=800",
		UnitPrice:   itemValue,
		Quantity:    1,
	}
	if err := models.DB.Create(&item).Error; err != nil {
		printf("Failed to create demo gift order item: %v", err)
		return
	}

	gift := models.Gift{
		GiftOrderID:    order.ID,
		SenderUserID:   senderID,
		SenderName:     "Alice",
		SenderEmail:    "alice@example.com",
		ReceiverUserID: &receiverID,
		ReceiverName:   "Bob",
		ReceiverEmail:  "bob@example.com",
		ItemID:         item.ProductID,
		ItemType:       item.ProductType,
		ItemName:       "智能手表",
		ItemImage:      item.Image,
		ItemValue:      itemValue,
		Message:        "生日快乐！",
		Occasion:       "birthday",
		Status:         constants.GiftStatusRedeemable,
		DeliveryMode:   constants.DeliveryModeInstant,
		RedemptionCode: service.GenerateRedemptionCode(now),
		CanSwap:        true,
		SentDate:       &sentDate,
		ExpiresAt:      &expiresAt,
	}
	if err := models.DB.Create(&gift).Error; err != nil {
		printf("Failed to create demo gift: %v", err)
		return
	}
	printf("Created demo gift: code=%s", gift.RedemptionCode)
}
