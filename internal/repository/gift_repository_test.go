package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/giftloop/internal/constants"
	"github.com/giftloop/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupGiftRepositoryTest(t *testing.T) (*GormGiftRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:gift_repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Gift{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewGiftRepository(db), db
}

func seedGift(t *testing.T, repo *GormGiftRepository, status, code string, mutate func(*models.Gift)) *models.Gift {
	t.Helper()
	gift := &models.Gift{
		SenderUserID:   1,
		SenderEmail:    "alice@example.com",
		ReceiverEmail:  "bob@example.com",
		ItemID:         1001,
		ItemName:       "智能手表",
		ItemValue:      models.NewMoneyFromDecimal(decimal.NewFromInt(100000)),
		Status:         status,
		DeliveryMode:   constants.DeliveryModeInstant,
		RedemptionCode: code,
	}
	if mutate != nil {
		mutate(gift)
	}
	if err := repo.Create(gift); err != nil {
		t.Fatalf("create gift failed: %v", err)
	}
	return gift
}

func TestGiftRepositoryGetByCode(t *testing.T) {
	repo, _ := setupGiftRepositoryTest(t)
	gift := seedGift(t, repo, constants.GiftStatusRedeemable, "GIFT-1700000000000-AB12CD", nil)

	found, err := repo.GetByCode("GIFT-1700000000000-AB12CD")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if found == nil || found.ID != gift.ID {
		t.Fatalf("get by code mismatch: %+v", found)
	}

	// 兑换码大小写与空白归一
	found, err = repo.GetByCode("  gift-1700000000000-ab12cd  ")
	if err != nil {
		t.Fatalf("get by normalized code failed: %v", err)
	}
	if found == nil || found.ID != gift.ID {
		t.Fatalf("normalized lookup mismatch: %+v", found)
	}

	// 未命中返回 nil 而非错误
	missing, err := repo.GetByCode("GIFT-1700000000000-ZZZZZZ")
	if err != nil {
		t.Fatalf("miss lookup errored: %v", err)
	}
	if missing != nil {
		t.Fatalf("miss lookup want nil got %+v", missing)
	}
}

func TestGiftRepositoryUpdateStatusIf(t *testing.T) {
	repo, db := setupGiftRepositoryTest(t)
	gift := seedGift(t, repo, constants.GiftStatusRedeemable, "GIFT-1700000000001-AB12CD", nil)

	affected, err := repo.UpdateStatusIf(gift.ID,
		[]string{constants.GiftStatusRedeemable},
		constants.GiftStatusRedeemed,
		map[string]interface{}{"receiver_user_id": 2})
	if err != nil {
		t.Fatalf("conditional update failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("first update want 1 affected got %d", affected)
	}

	// 状态已变，相同条件再次更新应落空
	affected, err = repo.UpdateStatusIf(gift.ID,
		[]string{constants.GiftStatusRedeemable},
		constants.GiftStatusRedeemed, nil)
	if err != nil {
		t.Fatalf("second conditional update failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("second update want 0 affected got %d", affected)
	}

	var stored models.Gift
	if err := db.First(&stored, gift.ID).Error; err != nil {
		t.Fatalf("load gift failed: %v", err)
	}
	if stored.Status != constants.GiftStatusRedeemed {
		t.Fatalf("status want redeemed got %s", stored.Status)
	}
	if stored.ReceiverUserID == nil || *stored.ReceiverUserID != 2 {
		t.Fatalf("extra update fields should apply, got %+v", stored.ReceiverUserID)
	}

	if affected, err = repo.UpdateStatusIf(0, []string{constants.GiftStatusRedeemable}, constants.GiftStatusRedeemed, nil); err != nil || affected != 0 {
		t.Fatalf("zero id should be a no-op, got %d %v", affected, err)
	}
}

func TestGiftRepositoryListBySenderAndReceiver(t *testing.T) {
	repo, _ := setupGiftRepositoryTest(t)
	seedGift(t, repo, constants.GiftStatusRedeemable, "GIFT-1700000000002-AB12CD", nil)
	seedGift(t, repo, constants.GiftStatusCancelled, "GIFT-1700000000003-AB12CD", nil)
	receiverID := uint(2)
	seedGift(t, repo, constants.GiftStatusRedeemable, "GIFT-1700000000004-AB12CD", func(g *models.Gift) {
		g.SenderUserID = 9
		g.ReceiverUserID = &receiverID
		g.ReceiverEmail = "other@example.com"
	})

	sent, total, err := repo.ListBySender(GiftListFilter{SenderUserID: 1, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list by sender failed: %v", err)
	}
	if total != 2 || len(sent) != 2 {
		t.Fatalf("sender list want 2 got total=%d len=%d", total, len(sent))
	}

	filtered, total, err := repo.ListBySender(GiftListFilter{SenderUserID: 1, Status: constants.GiftStatusCancelled, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if total != 1 || filtered[0].Status != constants.GiftStatusCancelled {
		t.Fatalf("status filter want 1 cancelled got total=%d", total)
	}

	// 接收人既按绑定的用户 ID 也按邮箱命中
	byUser, total, err := repo.ListByReceiver(GiftListFilter{ReceiverUserID: 2, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list by receiver id failed: %v", err)
	}
	if total != 1 || len(byUser) != 1 {
		t.Fatalf("receiver id list want 1 got total=%d", total)
	}

	byEmail, total, err := repo.ListByReceiver(GiftListFilter{ReceiverEmail: "BOB@example.com", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list by receiver email failed: %v", err)
	}
	if total != 2 || len(byEmail) != 2 {
		t.Fatalf("receiver email list want 2 got total=%d", total)
	}

	empty, total, err := repo.ListByReceiver(GiftListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("empty receiver filter failed: %v", err)
	}
	if total != 0 || len(empty) != 0 {
		t.Fatalf("empty filter want no rows got total=%d", total)
	}
}

func TestGiftRepositoryListDueScheduled(t *testing.T) {
	repo, _ := setupGiftRepositoryTest(t)
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	due := seedGift(t, repo, constants.GiftStatusSent, "GIFT-1700000000005-AB12CD", func(g *models.Gift) {
		g.DeliveryMode = constants.DeliveryModeScheduled
		g.ScheduledDeliveryDate = &past
	})
	seedGift(t, repo, constants.GiftStatusSent, "GIFT-1700000000006-AB12CD", func(g *models.Gift) {
		g.DeliveryMode = constants.DeliveryModeScheduled
		g.ScheduledDeliveryDate = &future
	})
	seedGift(t, repo, constants.GiftStatusRedeemable, "GIFT-1700000000007-AB12CD", func(g *models.Gift) {
		g.DeliveryMode = constants.DeliveryModeScheduled
		g.ScheduledDeliveryDate = &past
	})

	gifts, err := repo.ListDueScheduled(now, 10)
	if err != nil {
		t.Fatalf("list due scheduled failed: %v", err)
	}
	if len(gifts) != 1 || gifts[0].ID != due.ID {
		t.Fatalf("due list want only the past sent gift, got %d rows", len(gifts))
	}
}
