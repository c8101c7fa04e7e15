package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/giftloop/internal/cache"
	"github.com/giftloop/internal/logger"
	"github.com/giftloop/internal/models"
	"github.com/giftloop/internal/queue"
	"github.com/giftloop/internal/repository"
)

const (
	notificationDedupeTTL  = 24 * time.Hour
	unreadCountCacheTTL    = 5 * time.Minute
	unreadCountCacheFormat = "notification:unread_count:%d"
)

// NotificationService 站内通知服务
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	queueClient      *queue.Client
}

// NewNotificationService 创建通知服务
func NewNotificationService(notificationRepo repository.NotificationRepository, queueClient *queue.Client) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		queueClient:      queueClient,
	}
}

// NotifyInput 发送通知输入
type NotifyInput struct {
	UserID  uint
	Event   string
	BizType string
	BizID   uint
	Title   string
	Message string
	Payload models.JSON
}

// Notify 写入站内通知并异步分发
// 通知失败只记录日志，不阻断主流程。
func (s *NotificationService) Notify(input NotifyInput) {
	if s == nil || input.UserID == 0 || input.Event == "" {
		return
	}
	if s.notificationRepo != nil {
		notification := &models.Notification{
			UserID:  input.UserID,
			Event:   input.Event,
			BizType: input.BizType,
			BizID:   input.BizID,
			Payload: input.Payload,
		}
		if err := s.notificationRepo.Create(notification); err != nil {
			logger.Warnw("notification_persist_failed",
				"user_id", input.UserID,
				"event", input.Event,
				"biz_type", input.BizType,
				"biz_id", input.BizID,
				"error", err,
			)
		} else {
			s.invalidateUnreadCount(input.UserID)
		}
	}
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	payload := queue.NotificationDispatchPayload{
		UserID:  input.UserID,
		Event:   input.Event,
		BizType: input.BizType,
		BizID:   input.BizID,
		Title:   input.Title,
		Message: input.Message,
	}
	if err := s.queueClient.EnqueueNotificationDispatch(payload, asynq.MaxRetry(5)); err != nil {
		logger.Warnw("notification_enqueue_failed",
			"user_id", input.UserID,
			"event", input.Event,
			"biz_id", input.BizID,
			"error", err,
		)
	}
}

// Dispatch 分发单条通知（队列消费侧调用），按事件去重
func (s *NotificationService) Dispatch(ctx context.Context, payload queue.NotificationDispatchPayload) error {
	if s == nil || payload.UserID == 0 || payload.Event == "" {
		return nil
	}
	dedupeKey := fmt.Sprintf("notification:dispatched:%s:%s:%d:%d", payload.Event, payload.BizType, payload.BizID, payload.UserID)
	acquired, err := cache.SetNX(ctx, dedupeKey, "1", notificationDedupeTTL)
	if err != nil {
		logger.Warnw("notification_dedupe_check_failed",
			"user_id", payload.UserID,
			"event", payload.Event,
			"error", err,
		)
	} else if !acquired {
		return nil
	}
	logger.Infow("notification_dispatched",
		"user_id", payload.UserID,
		"event", payload.Event,
		"biz_type", payload.BizType,
		"biz_id", payload.BizID,
	)
	return nil
}

// ListNotifications 查询用户通知列表
func (s *NotificationService) ListNotifications(filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	if s == nil || s.notificationRepo == nil {
		return nil, 0, ErrNotificationFetchFailed
	}
	if filter.UserID == 0 {
		return nil, 0, ErrUserNotFound
	}
	items, total, err := s.notificationRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, ErrNotificationFetchFailed
	}
	return items, total, nil
}

// CountUnread 统计未读通知数量（短缓存，写入侧失效）
func (s *NotificationService) CountUnread(userID uint) (int64, error) {
	if s == nil || s.notificationRepo == nil {
		return 0, ErrNotificationFetchFailed
	}
	if userID == 0 {
		return 0, ErrUserNotFound
	}
	ctx := context.Background()
	cacheKey := fmt.Sprintf(unreadCountCacheFormat, userID)
	var cached int64
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err != nil {
		logger.Warnw("notification_unread_cache_read_failed",
			"user_id", userID,
			"error", err,
		)
	} else if hit {
		return cached, nil
	}
	count, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return 0, ErrNotificationFetchFailed
	}
	if err := cache.SetJSON(ctx, cacheKey, count, unreadCountCacheTTL); err != nil {
		logger.Warnw("notification_unread_cache_write_failed",
			"user_id", userID,
			"error", err,
		)
	}
	return count, nil
}

// invalidateUnreadCount 未读数缓存失效（通知写入与已读标记后调用）
func (s *NotificationService) invalidateUnreadCount(userID uint) {
	if userID == 0 {
		return
	}
	if err := cache.Del(context.Background(), fmt.Sprintf(unreadCountCacheFormat, userID)); err != nil {
		logger.Warnw("notification_unread_cache_invalidate_failed",
			"user_id", userID,
			"error", err,
		)
	}
}

// MarkRead 标记通知已读
func (s *NotificationService) MarkRead(notificationID uint, userID uint) error {
	if s == nil || s.notificationRepo == nil {
		return ErrNotificationUpdateFailed
	}
	if notificationID == 0 || userID == 0 {
		return ErrNotificationNotFound
	}
	affected, err := s.notificationRepo.MarkRead(notificationID, userID, time.Now())
	if err != nil {
		return ErrNotificationUpdateFailed
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	s.invalidateUnreadCount(userID)
	return nil
}
