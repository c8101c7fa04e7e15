package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/giftloop/internal/logger"
	"github.com/giftloop/internal/provider"
	"github.com/giftloop/internal/queue"
	"github.com/giftloop/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskGiftScheduledRelease, c.handleGiftScheduledRelease)
	mux.HandleFunc(queue.TaskGiftExpireSweep, c.handleGiftExpireSweep)
	mux.HandleFunc(queue.TaskGiftOrderTimeoutCancel, c.handleGiftOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
}

func (c *Consumer) handleGiftScheduledRelease(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_gift_scheduled_release_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GiftScheduledReleasePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_gift_scheduled_release_unmarshal_failed", "error", err)
		return err
	}
	if payload.GiftID == 0 {
		logger.Debugw("worker_gift_scheduled_release_skip_invalid_payload", "gift_id", payload.GiftID)
		return nil
	}
	if c.GiftService == nil {
		logger.Warnw("worker_gift_scheduled_release_skip_service_nil", "gift_id", payload.GiftID)
		return nil
	}
	_, err := c.GiftService.ReleaseScheduledGift(payload.GiftID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGiftNotFound):
			logger.Debugw("worker_gift_scheduled_release_skip_not_found", "gift_id", payload.GiftID)
			return nil
		case errors.Is(err, service.ErrGiftFetchFailed):
			logger.Warnw("worker_gift_scheduled_release_fetch_failed", "gift_id", payload.GiftID, "error", err)
			return err
		default:
			logger.Warnw("worker_gift_scheduled_release_failed", "gift_id", payload.GiftID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleGiftExpireSweep(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_gift_expire_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GiftExpireSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_gift_expire_sweep_unmarshal_failed", "error", err)
		return err
	}
	if c.GiftService == nil {
		logger.Warnw("worker_gift_expire_sweep_skip_service_nil")
		return nil
	}
	expired, err := c.GiftService.ExpireSweep(payload.Limit)
	if err != nil {
		logger.Warnw("worker_gift_expire_sweep_failed", "error", err)
		return err
	}
	if expired > 0 {
		logger.Infow("worker_gift_expire_sweep_done", "expired", expired)
	}
	return nil
}

func (c *Consumer) handleGiftOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_gift_order_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GiftOrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_gift_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.GiftOrderID == 0 {
		logger.Debugw("worker_gift_order_timeout_cancel_skip_invalid_payload", "gift_order_id", payload.GiftOrderID)
		return nil
	}
	if c.GiftOrderService == nil {
		logger.Warnw("worker_gift_order_timeout_cancel_skip_service_nil", "gift_order_id", payload.GiftOrderID)
		return nil
	}
	_, err := c.GiftOrderService.CancelExpiredGiftOrder(payload.GiftOrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGiftOrderNotFound):
			logger.Debugw("worker_gift_order_timeout_cancel_skip_not_found", "gift_order_id", payload.GiftOrderID)
			return nil
		case errors.Is(err, service.ErrGiftOrderFetchFailed):
			logger.Warnw("worker_gift_order_timeout_cancel_fetch_failed", "gift_order_id", payload.GiftOrderID, "error", err)
			return nil
		default:
			logger.Warnw("worker_gift_order_timeout_cancel_failed", "gift_order_id", payload.GiftOrderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleNotificationDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_notification_dispatch_skip_service_nil", "user_id", payload.UserID)
		return nil
	}
	if err := c.NotificationService.Dispatch(ctx, payload); err != nil {
		logger.Warnw("worker_notification_dispatch_failed",
			"user_id", payload.UserID,
			"event", payload.Event,
			"error", err,
		)
		return err
	}
	return nil
}
