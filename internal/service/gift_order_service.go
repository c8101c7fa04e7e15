package service

import (
	"time"

	"github.com/giftloop/internal/constants"
	"github.com/giftloop/internal/logger"
	"github.com/giftloop/internal/models"
	"github.com/giftloop/internal/queue"
	"github.com/giftloop/internal/repository"

	"gorm.io/gorm"
)

// GiftOrderService 礼品购买单服务
type GiftOrderService struct {
	giftOrderRepo       repository.GiftOrderRepository
	giftRepo            repository.GiftRepository
	queueClient         *queue.Client
	notificationService *NotificationService
	expireMinutes       int
}

// NewGiftOrderService 创建礼品购买单服务
func NewGiftOrderService(giftOrderRepo repository.GiftOrderRepository, giftRepo repository.GiftRepository, queueClient *queue.Client, notificationService *NotificationService, expireMinutes int) *GiftOrderService {
	return &GiftOrderService{
		giftOrderRepo:       giftOrderRepo,
		giftRepo:            giftRepo,
		queueClient:         queueClient,
		notificationService: notificationService,
		expireMinutes:       expireMinutes,
	}
}

func (s *GiftOrderService) resolveExpireMinutes() int {
	if s != nil && s.expireMinutes > 0 {
		return s.expireMinutes
	}
	return 15
}

// GetGiftOrder 查询购买单详情（读取时懒同步超时状态）
func (s *GiftOrderService) GetGiftOrder(orderID uint, userID uint) (*models.GiftOrder, error) {
	if s == nil || s.giftOrderRepo == nil {
		return nil, ErrGiftOrderFetchFailed
	}
	order, err := s.giftOrderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrGiftOrderFetchFailed
	}
	if order == nil {
		return nil, ErrGiftOrderNotFound
	}
	if err := s.ensureCancelledIfExpired(order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListGiftOrders 查询用户购买单列表
func (s *GiftOrderService) ListGiftOrders(filter repository.GiftOrderListFilter) ([]models.GiftOrder, int64, error) {
	if s == nil || s.giftOrderRepo == nil {
		return nil, 0, ErrGiftOrderFetchFailed
	}
	if filter.UserID == 0 {
		return nil, 0, ErrUserNotFound
	}
	orders, total, err := s.giftOrderRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, ErrGiftOrderFetchFailed
	}
	for i := range orders {
		if err := s.ensureCancelledIfExpired(&orders[i]); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

// CancelGiftOrder 买家主动取消购买单（仅未支付可取消）
func (s *GiftOrderService) CancelGiftOrder(orderID uint, userID uint) (*models.GiftOrder, error) {
	if s == nil || s.giftOrderRepo == nil {
		return nil, ErrGiftOrderUpdateFailed
	}
	order, err := s.giftOrderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrGiftOrderFetchFailed
	}
	if order == nil {
		return nil, ErrGiftOrderNotFound
	}
	if order.Status == constants.GiftOrderStatusCancelled {
		return order, nil
	}
	if !CanTransitionGiftOrder(order.Status, constants.GiftOrderStatusCancelled) {
		return nil, ErrGiftOrderTransitionInvalid
	}
	if err := s.cancelOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// CancelExpiredGiftOrder 支付窗口超时取消（队列任务调用）
func (s *GiftOrderService) CancelExpiredGiftOrder(orderID uint) (*models.GiftOrder, error) {
	if s == nil || s.giftOrderRepo == nil {
		return nil, ErrGiftOrderUpdateFailed
	}
	if orderID == 0 {
		return nil, ErrGiftOrderNotFound
	}
	order, err := s.giftOrderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrGiftOrderFetchFailed
	}
	if order == nil {
		return nil, ErrGiftOrderNotFound
	}
	if err := s.ensureCancelledIfExpired(order); err != nil {
		return nil, err
	}
	return order, nil
}

// ensureCancelledIfExpired 读取时懒同步超时未支付的购买单
func (s *GiftOrderService) ensureCancelledIfExpired(order *models.GiftOrder) error {
	if order == nil {
		return nil
	}
	if order.Status != constants.GiftOrderStatusDraft && order.Status != constants.GiftOrderStatusPendingPayment {
		return nil
	}
	if order.ExpiresAt == nil || order.ExpiresAt.After(time.Now()) {
		return nil
	}
	return s.cancelOrder(order)
}

// cancelOrder 取消购买单并联动取消待支付礼品
func (s *GiftOrderService) cancelOrder(order *models.GiftOrder) error {
	now := time.Now()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.giftOrderRepo.WithTx(tx)
		affected, err := orderRepo.UpdateStatusIf(order.ID,
			[]string{constants.GiftOrderStatusDraft, constants.GiftOrderStatusPendingPayment},
			constants.GiftOrderStatusCancelled,
			map[string]interface{}{"cancelled_at": now})
		if err != nil {
			return ErrGiftOrderUpdateFailed
		}
		if affected == 0 {
			return ErrGiftStateConflict
		}
		if s.giftRepo == nil {
			return nil
		}
		giftRepo := s.giftRepo.WithTx(tx)
		gifts, err := giftRepo.ListByGiftOrder(order.ID)
		if err != nil {
			return ErrGiftFetchFailed
		}
		for i := range gifts {
			gift := gifts[i]
			if gift.Status != constants.GiftStatusPendingPayment {
				continue
			}
			if _, err := giftRepo.UpdateStatusIf(gift.ID,
				[]string{constants.GiftStatusPendingPayment},
				constants.GiftStatusCancelled, nil); err != nil {
				return ErrGiftUpdateFailed
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	order.Status = constants.GiftOrderStatusCancelled
	order.CancelledAt = &now
	logger.Infow("gift_order_cancelled",
		"gift_order_id", order.ID,
		"order_no", order.OrderNo,
	)
	return nil
}
