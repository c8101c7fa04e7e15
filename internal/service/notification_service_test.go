package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/giftloop/internal/constants"
	"github.com/giftloop/internal/models"
	"github.com/giftloop/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupNotificationServiceTest(t *testing.T) (*NotificationService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:notification_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewNotificationService(repository.NewNotificationRepository(db), nil), db
}

func TestNotifyPersists(t *testing.T) {
	svc, db := setupNotificationServiceTest(t)

	svc.Notify(NotifyInput{
		UserID:  1,
		Event:   constants.NotificationEventGiftReceived,
		BizType: constants.NotificationBizTypeGift,
		BizID:   7,
		Payload: models.JSON{"sender_name": "小红", "item_name": "智能手表"},
	})

	var stored models.Notification
	if err := db.Where("user_id = ? AND event = ?", 1, constants.NotificationEventGiftReceived).First(&stored).Error; err != nil {
		t.Fatalf("load notification failed: %v", err)
	}
	if stored.BizID != 7 || stored.BizType != constants.NotificationBizTypeGift {
		t.Fatalf("notification biz fields mismatch: %+v", stored)
	}
	if stored.ReadAt != nil {
		t.Fatal("fresh notification should be unread")
	}

	// 缺主体或事件的输入直接丢弃
	svc.Notify(NotifyInput{Event: constants.NotificationEventGiftReceived})
	svc.Notify(NotifyInput{UserID: 1})
	var count int64
	if err := db.Model(&models.Notification{}).Count(&count).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("invalid inputs must not persist, want 1 got %d", count)
	}
}

func TestMarkReadAndCountUnread(t *testing.T) {
	svc, _ := setupNotificationServiceTest(t)

	for i := 0; i < 3; i++ {
		svc.Notify(NotifyInput{
			UserID:  1,
			Event:   constants.NotificationEventGiftReceived,
			BizType: constants.NotificationBizTypeGift,
			BizID:   uint(i + 1),
		})
	}
	svc.Notify(NotifyInput{
		UserID:  2,
		Event:   constants.NotificationEventGiftExpired,
		BizType: constants.NotificationBizTypeGift,
		BizID:   9,
	})

	unread, err := svc.CountUnread(1)
	if err != nil {
		t.Fatalf("count unread failed: %v", err)
	}
	if unread != 3 {
		t.Fatalf("unread want 3 got %d", unread)
	}

	items, total, err := svc.ListNotifications(repository.NotificationListFilter{UserID: 1, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("list want 3 got total=%d len=%d", total, len(items))
	}

	if err := svc.MarkRead(items[0].ID, 1); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	unread, err = svc.CountUnread(1)
	if err != nil {
		t.Fatalf("count unread failed: %v", err)
	}
	if unread != 2 {
		t.Fatalf("unread after mark want 2 got %d", unread)
	}

	// 他人的通知不可标记
	if err := svc.MarkRead(items[1].ID, 2); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("cross-user mark want ErrNotificationNotFound got %v", err)
	}
	if err := svc.MarkRead(9999, 1); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("unknown notification want ErrNotificationNotFound got %v", err)
	}
}
