package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/giftloop/internal/constants"
	"github.com/giftloop/internal/logger"
	"github.com/giftloop/internal/models"
	"github.com/giftloop/internal/repository"

	"gorm.io/gorm"
)

// FulfillmentService 履约服务（将已兑换礼品落成可发货订单）
type FulfillmentService struct {
	orderRepo repository.OrderRepository
	giftRepo  repository.GiftRepository
}

// NewFulfillmentService 创建履约服务
func NewFulfillmentService(orderRepo repository.OrderRepository, giftRepo repository.GiftRepository) *FulfillmentService {
	return &FulfillmentService{
		orderRepo: orderRepo,
		giftRepo:  giftRepo,
	}
}

// ShippingInfo 收货信息
type ShippingInfo struct {
	Phone   string
	Address string
}

// CreateFromGift 在事务内由礼品快照生成履约订单
// 订单固定单行、数量 1，金额取礼品价值快照，运费为 0，支付视为已预付。
func (s *FulfillmentService) CreateFromGift(tx *gorm.DB, gift *models.Gift, shipping ShippingInfo) (*models.Order, error) {
	if s == nil || s.orderRepo == nil {
		return nil, ErrOrderCreateFailed
	}
	if gift == nil || gift.ID == 0 {
		return nil, ErrGiftNotFound
	}
	if gift.ReceiverUserID == nil || *gift.ReceiverUserID == 0 {
		return nil, ErrGiftReceiverInvalid
	}
	if err := ValidateShippingInfo(shipping.Phone, shipping.Address); err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		OrderNo:         generateFulfillmentOrderNo(),
		UserID:          *gift.ReceiverUserID,
		GiftID:          gift.ID,
		Status:          constants.OrderStatusConfirmed,
		PaymentStatus:   constants.OrderPaymentPrepaid,
		Currency:        constants.SiteCurrencyDefault,
		Subtotal:        gift.ItemValue,
		ShippingFee:     models.MoneyZero(),
		TotalAmount:     gift.ItemValue,
		ShippingPhone:   strings.TrimSpace(shipping.Phone),
		ShippingAddress: strings.TrimSpace(shipping.Address),
		Note:            buildGiftOrderNote(gift),
		InternalNote:    fmt.Sprintf("gift_redemption gift_id=%d code=%s", gift.ID, gift.RedemptionCode),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	item := models.OrderItem{
		ProductID:   gift.ItemID,
		ProductType: gift.ItemType,
		Name:        gift.ItemName,
		Image:       gift.ItemImage,
		UnitPrice:   gift.ItemValue,
		Quantity:    1,
		TotalPrice:  gift.ItemValue,
	}

	orderRepo := s.orderRepo.WithTx(tx)
	if err := orderRepo.Create(order, []models.OrderItem{item}); err != nil {
		logger.Errorw("fulfillment_order_create_failed",
			"gift_id", gift.ID,
			"receiver_user_id", *gift.ReceiverUserID,
			"error", err,
		)
		return nil, ErrOrderCreateFailed
	}
	return order, nil
}

// MarkDelivered 标记履约订单已交付，并推进礼品到 delivered 终态
func (s *FulfillmentService) MarkDelivered(orderID uint) (*models.Order, error) {
	if s == nil || s.orderRepo == nil {
		return nil, ErrOrderUpdateFailed
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == constants.OrderStatusDelivered {
		return order, nil
	}
	if order.Status != constants.OrderStatusConfirmed && order.Status != constants.OrderStatusShipped {
		return nil, ErrGiftTransitionInvalid
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusDelivered, map[string]interface{}{
			"delivered_at": now,
		}); err != nil {
			return ErrOrderUpdateFailed
		}
		if s.giftRepo == nil || order.GiftID == 0 {
			return nil
		}
		giftRepo := s.giftRepo.WithTx(tx)
		affected, err := giftRepo.UpdateStatusIf(order.GiftID,
			[]string{constants.GiftStatusFulfillmentCreated},
			constants.GiftStatusDelivered, nil)
		if err != nil {
			return ErrGiftUpdateFailed
		}
		if affected == 0 {
			return ErrGiftStateConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Status = constants.OrderStatusDelivered
	order.DeliveredAt = &now
	return order, nil
}

// GetOrderByGift 查询礼品对应的履约订单
func (s *FulfillmentService) GetOrderByGift(giftID uint) (*models.Order, error) {
	if s == nil || s.orderRepo == nil {
		return nil, ErrOrderFetchFailed
	}
	if giftID == 0 {
		return nil, ErrGiftNotFound
	}
	order, err := s.orderRepo.GetByGiftID(giftID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByUser 查询用户的履约订单详情
func (s *FulfillmentService) GetOrderByUser(orderID uint, userID uint) (*models.Order, error) {
	if s == nil || s.orderRepo == nil {
		return nil, ErrOrderFetchFailed
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByUser 查询用户的履约订单列表
func (s *FulfillmentService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if s == nil || s.orderRepo == nil {
		return nil, 0, ErrOrderFetchFailed
	}
	if filter.UserID == 0 {
		return nil, 0, ErrUserNotFound
	}
	orders, total, err := s.orderRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	return orders, total, nil
}

// buildGiftOrderNote 生成面向收件人的订单备注（带上赠送人与赠言）
func buildGiftOrderNote(gift *models.Gift) string {
	sender := strings.TrimSpace(gift.SenderName)
	if sender == "" {
		sender = strings.TrimSpace(gift.SenderEmail)
	}
	message := strings.TrimSpace(gift.Message)
	if message == "" {
		return fmt.Sprintf("来自 %s 的礼物", sender)
	}
	return fmt.Sprintf("来自 %s 的礼物：%s", sender, message)
}

func generateFulfillmentOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("GL%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
