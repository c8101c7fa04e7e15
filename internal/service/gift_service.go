package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/giftloop/internal/cache"
	"github.com/giftloop/internal/constants"
	"github.com/giftloop/internal/logger"
	"github.com/giftloop/internal/models"
	"github.com/giftloop/internal/queue"
	"github.com/giftloop/internal/repository"

	"gorm.io/gorm"
)

const (
	redeemIdempotencyScope = "gift:redeem"
	swapIdempotencyScope   = "gift:swap"
	idempotencyTTL         = 10 * time.Minute
)

// GiftService 礼品流转编排服务
type GiftService struct {
	giftRepo            repository.GiftRepository
	giftOrderRepo       repository.GiftOrderRepository
	userRepo            repository.UserRepository
	fulfillmentService  *FulfillmentService
	notificationService *NotificationService
	queueClient         *queue.Client
	expireDays          int
	paymentExpireMin    int
	sweepBatchSize      int
}

// NewGiftService 创建礼品服务
func NewGiftService(giftRepo repository.GiftRepository, giftOrderRepo repository.GiftOrderRepository, userRepo repository.UserRepository, fulfillmentService *FulfillmentService, notificationService *NotificationService, queueClient *queue.Client, expireDays, paymentExpireMinutes, sweepBatchSize int) *GiftService {
	return &GiftService{
		giftRepo:            giftRepo,
		giftOrderRepo:       giftOrderRepo,
		userRepo:            userRepo,
		fulfillmentService:  fulfillmentService,
		notificationService: notificationService,
		queueClient:         queueClient,
		expireDays:          expireDays,
		paymentExpireMin:    paymentExpireMinutes,
		sweepBatchSize:      sweepBatchSize,
	}
}

func (s *GiftService) resolveExpireDays() int {
	if s != nil && s.expireDays > 0 {
		return s.expireDays
	}
	return constants.GiftExpireDaysDefault
}

func (s *GiftService) resolvePaymentExpireMinutes() int {
	if s != nil && s.paymentExpireMin > 0 {
		return s.paymentExpireMin
	}
	return 15
}

func (s *GiftService) resolveSweepBatchSize() int {
	if s != nil && s.sweepBatchSize > 0 {
		return s.sweepBatchSize
	}
	return 200
}

// SendGiftItem 赠送商品快照输入
type SendGiftItem struct {
	ProductID   uint
	ProductType string
	Name        string
	Image       string
	Value       models.Money
}

// SendGiftInput 发起赠送输入
type SendGiftInput struct {
	SenderUserID          uint
	ReceiverName          string
	ReceiverEmail         string
	ReceiverUserID        *uint
	ConnectionID          *uint
	Item                  SendGiftItem
	Message               string
	Occasion              string
	GiftContext           string
	DeliveryMode          string
	ScheduledDeliveryDate *time.Time
	CanSwap               bool
	Discount              models.Money
}

// SendGift 发起赠送：创建购买单并派生待支付礼品
// 后续由支付确认推进到 sent / redeemable。
func (s *GiftService) SendGift(input SendGiftInput) (*models.Gift, error) {
	if s == nil || s.giftRepo == nil || s.giftOrderRepo == nil {
		return nil, ErrGiftCreateFailed
	}
	sender, err := s.fetchSender(input.SenderUserID)
	if err != nil {
		return nil, err
	}
	if err := ValidateGiftSend(sender, input.ReceiverEmail, input.ReceiverUserID); err != nil {
		return nil, err
	}
	now := time.Now()
	if err := ValidateDeliveryMode(input.DeliveryMode, input.ScheduledDeliveryDate, now); err != nil {
		return nil, err
	}

	item := models.GiftOrderItem{
		ProductID:   input.Item.ProductID,
		ProductType: input.Item.ProductType,
		NameJSON:    models.JSON{"default": input.Item.Name},
		Image:       input.Item.Image,
		UnitPrice:   input.Item.Value,
	}
	if err := ValidateGiftOrderItems([]models.GiftOrderItem{item}); err != nil {
		return nil, err
	}
	item.Quantity = 1

	subtotal := input.Item.Value
	discount := input.Discount
	if discount.IsNegative() || discount.GreaterThan(subtotal.Decimal) {
		return nil, ErrGiftOrderItemInvalid
	}
	total := models.NewMoneyFromDecimal(subtotal.Sub(discount.Decimal))

	paymentExpiresAt := now.Add(time.Duration(s.resolvePaymentExpireMinutes()) * time.Minute)
	order := &models.GiftOrder{
		OrderNo:     generateGiftOrderNo(),
		BuyerUserID: sender.ID,
		BuyerEmail:  sender.Email,
		BuyerName:   sender.DisplayName,
		Status:      constants.GiftOrderStatusDraft,
		Currency:    constants.SiteCurrencyDefault,
		Subtotal:    subtotal,
		Discount:    discount,
		TotalAmount: total,
		ExpiresAt:   &paymentExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	gift := &models.Gift{
		SenderUserID:          sender.ID,
		SenderName:            sender.DisplayName,
		SenderEmail:           sender.Email,
		ReceiverUserID:        input.ReceiverUserID,
		ReceiverName:          strings.TrimSpace(input.ReceiverName),
		ReceiverEmail:         strings.ToLower(strings.TrimSpace(input.ReceiverEmail)),
		ConnectionID:          input.ConnectionID,
		ItemID:                input.Item.ProductID,
		ItemType:              input.Item.ProductType,
		ItemName:              input.Item.Name,
		ItemImage:             input.Item.Image,
		ItemValue:             input.Item.Value,
		Message:               strings.TrimSpace(input.Message),
		Occasion:              strings.TrimSpace(input.Occasion),
		GiftContext:           strings.TrimSpace(input.GiftContext),
		Status:                constants.GiftStatusPendingPayment,
		DeliveryMode:          input.DeliveryMode,
		ScheduledDeliveryDate: input.ScheduledDeliveryDate,
		RedemptionCode:        GenerateRedemptionCode(now),
		CanSwap:               input.CanSwap,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.giftOrderRepo.WithTx(tx)
		giftRepo := s.giftRepo.WithTx(tx)
		if err := orderRepo.Create(order, []models.GiftOrderItem{item}); err != nil {
			return ErrGiftOrderCreateFailed
		}
		affected, err := orderRepo.UpdateStatusIf(order.ID,
			[]string{constants.GiftOrderStatusDraft},
			constants.GiftOrderStatusPendingPayment, nil)
		if err != nil {
			return ErrGiftOrderUpdateFailed
		}
		if affected == 0 {
			return ErrGiftStateConflict
		}
		gift.GiftOrderID = order.ID
		if err := giftRepo.Create(gift); err != nil {
			return ErrGiftCreateFailed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Status = constants.GiftOrderStatusPendingPayment

	if s.queueClient != nil && s.queueClient.Enabled() {
		delay := time.Until(paymentExpiresAt)
		if err := s.queueClient.EnqueueGiftOrderTimeoutCancel(queue.GiftOrderTimeoutCancelPayload{GiftOrderID: order.ID}, delay); err != nil {
			logger.Warnw("gift_enqueue_timeout_cancel_failed",
				"gift_order_id", order.ID,
				"gift_id", gift.ID,
				"error", err,
			)
		}
	}
	logger.Infow("gift_send_created",
		"gift_id", gift.ID,
		"gift_order_id", order.ID,
		"delivery_mode", gift.DeliveryMode,
	)
	return gift, nil
}

// ConfirmGiftPayment 支付确认：购买单转已支付并推进礼品到 sent（或直接可兑换）
func (s *GiftService) ConfirmGiftPayment(giftOrderID uint, buyerUserID uint, paymentMethod, paymentID string) (*models.Gift, error) {
	if s == nil || s.giftRepo == nil || s.giftOrderRepo == nil {
		return nil, ErrGiftUpdateFailed
	}
	order, err := s.giftOrderRepo.GetByIDAndUser(giftOrderID, buyerUserID)
	if err != nil {
		return nil, ErrGiftOrderFetchFailed
	}
	if order == nil {
		return nil, ErrGiftOrderNotFound
	}
	if !CanTransitionGiftOrder(order.Status, constants.GiftOrderStatusPaid) {
		return nil, ErrGiftOrderTransitionInvalid
	}

	now := time.Now()
	expiresAt := now.AddDate(0, 0, s.resolveExpireDays())
	var sentGift *models.Gift
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.giftOrderRepo.WithTx(tx)
		giftRepo := s.giftRepo.WithTx(tx)

		affected, err := orderRepo.UpdateStatusIf(order.ID,
			[]string{constants.GiftOrderStatusPendingPayment},
			constants.GiftOrderStatusPaid,
			map[string]interface{}{
				"paid_at":        now,
				"payment_method": strings.TrimSpace(paymentMethod),
				"payment_id":     strings.TrimSpace(paymentID),
			})
		if err != nil {
			return ErrGiftOrderUpdateFailed
		}
		if affected == 0 {
			return ErrGiftStateConflict
		}

		gifts, err := giftRepo.ListByGiftOrder(order.ID)
		if err != nil || len(gifts) == 0 {
			return ErrGiftFetchFailed
		}
		gift := &gifts[0]

		if affected, err = giftRepo.UpdateStatusIf(gift.ID,
			[]string{constants.GiftStatusPendingPayment},
			constants.GiftStatusPaid, nil); err != nil {
			return ErrGiftUpdateFailed
		} else if affected == 0 {
			return ErrGiftStateConflict
		}
		if affected, err = giftRepo.UpdateStatusIf(gift.ID,
			[]string{constants.GiftStatusPaid},
			constants.GiftStatusSent,
			map[string]interface{}{
				"sent_date":  now,
				"expires_at": expiresAt,
			}); err != nil {
			return ErrGiftUpdateFailed
		} else if affected == 0 {
			return ErrGiftStateConflict
		}
		gift.Status = constants.GiftStatusSent
		gift.SentDate = &now
		gift.ExpiresAt = &expiresAt

		if ShouldBeRedeemableNow(gift, now) {
			if affected, err = giftRepo.UpdateStatusIf(gift.ID,
				[]string{constants.GiftStatusSent},
				constants.GiftStatusRedeemable, nil); err != nil {
				return ErrGiftUpdateFailed
			} else if affected == 0 {
				return ErrGiftStateConflict
			}
			gift.Status = constants.GiftStatusRedeemable
		}
		sentGift = gift
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterGiftSent(sentGift, now)
	return sentGift, nil
}

// afterGiftSent 支付完成后的旁路动作：定时放行任务与收礼通知
func (s *GiftService) afterGiftSent(gift *models.Gift, now time.Time) {
	if gift == nil {
		return
	}
	if gift.Status == constants.GiftStatusSent &&
		gift.DeliveryMode == constants.DeliveryModeScheduled &&
		gift.ScheduledDeliveryDate != nil &&
		s.queueClient != nil && s.queueClient.Enabled() {
		delay := gift.ScheduledDeliveryDate.Sub(now)
		if err := s.queueClient.EnqueueGiftScheduledRelease(queue.GiftScheduledReleasePayload{GiftID: gift.ID}, delay); err != nil {
			logger.Warnw("gift_enqueue_scheduled_release_failed",
				"gift_id", gift.ID,
				"error", err,
			)
		}
	}
	if s.notificationService != nil && gift.ReceiverUserID != nil && *gift.ReceiverUserID != 0 {
		s.notificationService.Notify(NotifyInput{
			UserID:  *gift.ReceiverUserID,
			Event:   constants.NotificationEventGiftReceived,
			BizType: constants.NotificationBizTypeGift,
			BizID:   gift.ID,
			Message: gift.Message,
			Payload: models.JSON{
				"sender_name": gift.SenderName,
				"item_name":   gift.ItemName,
				"occasion":    gift.Occasion,
			},
		})
	}
	logger.Infow("gift_sent",
		"gift_id", gift.ID,
		"status", gift.Status,
		"delivery_mode", gift.DeliveryMode,
	)
}

// ReleaseScheduledGift 定时投递到点放行（队列任务调用）
func (s *GiftService) ReleaseScheduledGift(giftID uint) (*models.Gift, error) {
	if s == nil || s.giftRepo == nil {
		return nil, ErrGiftUpdateFailed
	}
	gift, err := s.giftRepo.GetByID(giftID)
	if err != nil {
		return nil, ErrGiftFetchFailed
	}
	if gift == nil {
		return nil, ErrGiftNotFound
	}
	now := time.Now()
	if gift.Status != constants.GiftStatusSent {
		return gift, nil
	}
	if IsGiftExpired(gift, now) {
		if err := s.expireGift(gift); err != nil {
			return nil, err
		}
		return gift, nil
	}
	if !ShouldBeRedeemableNow(gift, now) {
		return gift, nil
	}
	affected, err := s.giftRepo.UpdateStatusIf(gift.ID,
		[]string{constants.GiftStatusSent},
		constants.GiftStatusRedeemable, nil)
	if err != nil {
		return nil, ErrGiftUpdateFailed
	}
	if affected > 0 {
		gift.Status = constants.GiftStatusRedeemable
	}
	return gift, nil
}

// GetGiftByCode 按兑换码查询礼品（读取时懒同步放行与过期）
func (s *GiftService) GetGiftByCode(code string) (*models.Gift, error) {
	if s == nil || s.giftRepo == nil {
		return nil, ErrGiftFetchFailed
	}
	if err := ValidateRedemptionCode(strings.TrimSpace(code)); err != nil {
		return nil, err
	}
	gift, err := s.giftRepo.GetByCode(strings.TrimSpace(code))
	if err != nil {
		return nil, ErrGiftFetchFailed
	}
	if gift == nil {
		return nil, ErrGiftNotFound
	}
	if err := s.syncGiftLifecycle(gift, time.Now()); err != nil {
		return nil, err
	}
	return gift, nil
}

// GetGift 按 ID 查询礼品
func (s *GiftService) GetGift(giftID uint) (*models.Gift, error) {
	if s == nil || s.giftRepo == nil {
		return nil, ErrGiftFetchFailed
	}
	gift, err := s.giftRepo.GetByID(giftID)
	if err != nil {
		return nil, ErrGiftFetchFailed
	}
	if gift == nil {
		return nil, ErrGiftNotFound
	}
	if err := s.syncGiftLifecycle(gift, time.Now()); err != nil {
		return nil, err
	}
	return gift, nil
}

// ListSentGifts 查询用户送出的礼品（读取时懒同步状态）
func (s *GiftService) ListSentGifts(filter repository.GiftListFilter) ([]models.Gift, int64, error) {
	if s == nil || s.giftRepo == nil {
		return nil, 0, ErrGiftFetchFailed
	}
	if filter.SenderUserID == 0 {
		return nil, 0, ErrUserNotFound
	}
	gifts, total, err := s.giftRepo.ListBySender(filter)
	if err != nil {
		return nil, 0, ErrGiftFetchFailed
	}
	if err := s.syncGiftsLifecycle(gifts); err != nil {
		return nil, 0, err
	}
	return gifts, total, nil
}

// ListReceivedGifts 查询用户收到的礼品（读取时懒同步状态）
func (s *GiftService) ListReceivedGifts(filter repository.GiftListFilter) ([]models.Gift, int64, error) {
	if s == nil || s.giftRepo == nil {
		return nil, 0, ErrGiftFetchFailed
	}
	if filter.ReceiverUserID == 0 && strings.TrimSpace(filter.ReceiverEmail) == "" {
		return nil, 0, ErrUserNotFound
	}
	gifts, total, err := s.giftRepo.ListByReceiver(filter)
	if err != nil {
		return nil, 0, ErrGiftFetchFailed
	}
	if err := s.syncGiftsLifecycle(gifts); err != nil {
		return nil, 0, err
	}
	return gifts, total, nil
}

// RedeemGiftInput 兑换礼品输入
type RedeemGiftInput struct {
	Code            string
	ReceiverUserID  uint
	ShippingPhone   string
	ShippingAddress string
	IdempotencyKey  string
}

// RedeemGift 兑换礼品：置为已兑换并生成履约订单回链
func (s *GiftService) RedeemGift(ctx context.Context, input RedeemGiftInput) (*models.Gift, error) {
	if s == nil || s.giftRepo == nil || s.fulfillmentService == nil {
		return nil, ErrGiftUpdateFailed
	}
	code := strings.TrimSpace(input.Code)
	if err := ValidateRedemptionCode(code); err != nil {
		return nil, err
	}
	if input.ReceiverUserID == 0 {
		return nil, ErrUserNotFound
	}
	if err := ValidateShippingInfo(input.ShippingPhone, input.ShippingAddress); err != nil {
		return nil, err
	}

	idempotencyToken := strings.TrimSpace(input.IdempotencyKey)
	if idempotencyToken == "" {
		idempotencyToken = code
	}
	acquired, err := cache.AcquireIdempotency(ctx, redeemIdempotencyScope, idempotencyToken, idempotencyTTL)
	if err != nil {
		logger.Warnw("gift_redeem_idempotency_check_failed",
			"code", code,
			"error", err,
		)
	} else if !acquired {
		return nil, ErrGiftRedeemInProgress
	}

	now := time.Now()
	var redeemed *models.Gift
	var expiredGift *models.Gift
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		giftRepo := s.giftRepo.WithTx(tx)
		gift, err := giftRepo.GetByCodeForUpdate(code)
		if err != nil {
			return ErrGiftFetchFailed
		}
		if gift == nil {
			return ErrGiftNotFound
		}
		if gift.Status == constants.GiftStatusSent && ShouldBeRedeemableNow(gift, now) && !IsGiftExpired(gift, now) {
			if affected, err := giftRepo.UpdateStatusIf(gift.ID,
				[]string{constants.GiftStatusSent},
				constants.GiftStatusRedeemable, nil); err != nil {
				return ErrGiftUpdateFailed
			} else if affected > 0 {
				gift.Status = constants.GiftStatusRedeemable
			}
		}
		if IsGiftExpired(gift, now) {
			// 事务随错误回滚，过期落库放到事务外执行
			expiredGift = gift
			return ErrGiftExpired
		}
		if !CanRedeemGift(gift, now) {
			return ErrGiftNotRedeemable
		}

		affected, err := giftRepo.UpdateStatusIf(gift.ID,
			[]string{constants.GiftStatusRedeemable},
			constants.GiftStatusRedeemed,
			map[string]interface{}{
				"receiver_user_id":          input.ReceiverUserID,
				"receiver_phone":            strings.TrimSpace(input.ShippingPhone),
				"receiver_shipping_address": strings.TrimSpace(input.ShippingAddress),
			})
		if err != nil {
			return ErrGiftUpdateFailed
		}
		if affected == 0 {
			return ErrGiftStateConflict
		}
		gift.Status = constants.GiftStatusRedeemed
		receiverID := input.ReceiverUserID
		gift.ReceiverUserID = &receiverID
		gift.ReceiverPhone = strings.TrimSpace(input.ShippingPhone)
		gift.ReceiverShippingAddr = strings.TrimSpace(input.ShippingAddress)

		order, err := s.fulfillmentService.CreateFromGift(tx, gift, ShippingInfo{
			Phone:   input.ShippingPhone,
			Address: input.ShippingAddress,
		})
		if err != nil {
			return err
		}
		affected, err = giftRepo.UpdateStatusIf(gift.ID,
			[]string{constants.GiftStatusRedeemed},
			constants.GiftStatusFulfillmentCreated,
			map[string]interface{}{"fulfillment_order_id": order.ID})
		if err != nil {
			return ErrGiftUpdateFailed
		}
		if affected == 0 {
			return ErrGiftStateConflict
		}
		gift.Status = constants.GiftStatusFulfillmentCreated
		gift.FulfillmentOrderID = &order.ID
		redeemed = gift
		return nil
	})
	if err != nil {
		if expiredGift != nil &&
			(expiredGift.Status == constants.GiftStatusSent || expiredGift.Status == constants.GiftStatusRedeemable) {
			if expireErr := s.expireGift(expiredGift); expireErr != nil {
				logger.Warnw("gift_redeem_expire_persist_failed",
					"gift_id", expiredGift.ID,
					"error", expireErr,
				)
			}
		}
		if releaseErr := cache.ReleaseIdempotency(ctx, redeemIdempotencyScope, idempotencyToken); releaseErr != nil {
			logger.Warnw("gift_redeem_idempotency_release_failed",
				"code", code,
				"error", releaseErr,
			)
		}
		return nil, err
	}

	if s.notificationService != nil {
		s.notificationService.Notify(NotifyInput{
			UserID:  redeemed.SenderUserID,
			Event:   constants.NotificationEventGiftRedeemed,
			BizType: constants.NotificationBizTypeGift,
			BizID:   redeemed.ID,
			Payload: models.JSON{
				"receiver_name": redeemed.ReceiverName,
				"item_name":     redeemed.ItemName,
			},
		})
	}
	logger.Infow("gift_redeemed",
		"gift_id", redeemed.ID,
		"fulfillment_order_id", redeemed.FulfillmentOrderID,
	)
	return redeemed, nil
}

// SwapGiftInput 换购礼品输入
type SwapGiftInput struct {
	GiftID         uint
	ReceiverUserID uint
	NewItem        SendGiftItem
	IdempotencyKey string
}

// SwapResult 换购结果：原礼品封存，差额仅作展示
type SwapResult struct {
	Gift         *models.Gift `json:"gift"`
	OriginalGift *models.Gift `json:"original_gift"`
	RefundAmount models.Money `json:"refund_amount"`
}

// SwapGift 换购：原礼品置为 swapped 终态，生成新兑换码的新礼品记录
func (s *GiftService) SwapGift(ctx context.Context, input SwapGiftInput) (*SwapResult, error) {
	if s == nil || s.giftRepo == nil {
		return nil, ErrGiftUpdateFailed
	}
	if input.GiftID == 0 {
		return nil, ErrGiftNotFound
	}
	if input.ReceiverUserID == 0 {
		return nil, ErrUserNotFound
	}
	if input.NewItem.ProductID == 0 || !input.NewItem.Value.IsPositive() {
		return nil, ErrGiftOrderItemInvalid
	}

	idempotencyToken := strings.TrimSpace(input.IdempotencyKey)
	if idempotencyToken == "" {
		idempotencyToken = fmt.Sprintf("%d", input.GiftID)
	}
	acquired, err := cache.AcquireIdempotency(ctx, swapIdempotencyScope, idempotencyToken, idempotencyTTL)
	if err != nil {
		logger.Warnw("gift_swap_idempotency_check_failed",
			"gift_id", input.GiftID,
			"error", err,
		)
	} else if !acquired {
		return nil, ErrGiftRedeemInProgress
	}

	now := time.Now()
	var result *SwapResult
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		giftRepo := s.giftRepo.WithTx(tx)
		gift, err := giftRepo.GetByIDForUpdate(input.GiftID)
		if err != nil {
			return ErrGiftFetchFailed
		}
		if gift == nil {
			return ErrGiftNotFound
		}
		if err := s.authorizeSwapCaller(gift, input.ReceiverUserID); err != nil {
			return err
		}
		if gift.Status == constants.GiftStatusSent && ShouldBeRedeemableNow(gift, now) && !IsGiftExpired(gift, now) {
			if affected, err := giftRepo.UpdateStatusIf(gift.ID,
				[]string{constants.GiftStatusSent},
				constants.GiftStatusRedeemable, nil); err != nil {
				return ErrGiftUpdateFailed
			} else if affected > 0 {
				gift.Status = constants.GiftStatusRedeemable
			}
		}
		if err := ValidateSwapToProduct(gift, input.NewItem.Value, now); err != nil {
			return err
		}

		affected, err := giftRepo.UpdateStatusIf(gift.ID,
			[]string{constants.GiftStatusRedeemable},
			constants.GiftStatusSwapped, nil)
		if err != nil {
			return ErrGiftUpdateFailed
		}
		if affected == 0 {
			return ErrGiftStateConflict
		}
		gift.Status = constants.GiftStatusSwapped

		receiverID := gift.ReceiverUserID
		if input.ReceiverUserID != 0 {
			id := input.ReceiverUserID
			receiverID = &id
		}
		swapped := &models.Gift{
			GiftOrderID:       gift.GiftOrderID,
			SenderUserID:      gift.SenderUserID,
			SenderName:        gift.SenderName,
			SenderEmail:       gift.SenderEmail,
			ReceiverUserID:    receiverID,
			ReceiverName:      gift.ReceiverName,
			ReceiverEmail:     gift.ReceiverEmail,
			ConnectionID:      gift.ConnectionID,
			ItemID:            input.NewItem.ProductID,
			ItemType:          input.NewItem.ProductType,
			ItemName:          input.NewItem.Name,
			ItemImage:         input.NewItem.Image,
			ItemValue:         input.NewItem.Value,
			Message:           gift.Message,
			Occasion:          gift.Occasion,
			GiftContext:       gift.GiftContext,
			Status:            constants.GiftStatusRedeemable,
			DeliveryMode:      gift.DeliveryMode,
			RedemptionCode:    GenerateRedemptionCode(now),
			CanSwap:           gift.CanSwap,
			SwappedFromGiftID: &gift.ID,
			SentDate:          gift.SentDate,
			ExpiresAt:         gift.ExpiresAt,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := giftRepo.Create(swapped); err != nil {
			return ErrGiftCreateFailed
		}
		result = &SwapResult{
			Gift:         swapped,
			OriginalGift: gift,
			RefundAmount: CalculateSwapRefund(gift.ItemValue, input.NewItem.Value),
		}
		return nil
	})
	if err != nil {
		if releaseErr := cache.ReleaseIdempotency(ctx, swapIdempotencyScope, idempotencyToken); releaseErr != nil {
			logger.Warnw("gift_swap_idempotency_release_failed",
				"gift_id", input.GiftID,
				"error", releaseErr,
			)
		}
		return nil, err
	}

	if s.notificationService != nil {
		s.notificationService.Notify(NotifyInput{
			UserID:  result.Gift.SenderUserID,
			Event:   constants.NotificationEventGiftSwapped,
			BizType: constants.NotificationBizTypeGift,
			BizID:   result.Gift.ID,
			Payload: models.JSON{
				"original_item": result.OriginalGift.ItemName,
				"new_item":      result.Gift.ItemName,
				"refund_amount": result.RefundAmount.String(),
			},
		})
	}
	logger.Infow("gift_swapped",
		"original_gift_id", result.OriginalGift.ID,
		"new_gift_id", result.Gift.ID,
	)
	return result, nil
}

// CancelGift 赠送人取消未兑换的礼品
func (s *GiftService) CancelGift(giftID uint, senderUserID uint) (*models.Gift, error) {
	if s == nil || s.giftRepo == nil {
		return nil, ErrGiftUpdateFailed
	}
	gift, err := s.giftRepo.GetByID(giftID)
	if err != nil {
		return nil, ErrGiftFetchFailed
	}
	if gift == nil || gift.SenderUserID != senderUserID {
		return nil, ErrGiftNotFound
	}
	if gift.Status == constants.GiftStatusCancelled {
		return gift, nil
	}
	if !CanTransitionGift(gift.Status, constants.GiftStatusCancelled) {
		return nil, ErrGiftTransitionInvalid
	}
	affected, err := s.giftRepo.UpdateStatusIf(gift.ID,
		[]string{gift.Status},
		constants.GiftStatusCancelled, nil)
	if err != nil {
		return nil, ErrGiftUpdateFailed
	}
	if affected == 0 {
		return nil, ErrGiftStateConflict
	}
	gift.Status = constants.GiftStatusCancelled

	if s.notificationService != nil && gift.ReceiverUserID != nil && *gift.ReceiverUserID != 0 {
		s.notificationService.Notify(NotifyInput{
			UserID:  *gift.ReceiverUserID,
			Event:   constants.NotificationEventGiftCancelled,
			BizType: constants.NotificationBizTypeGift,
			BizID:   gift.ID,
		})
	}
	return gift, nil
}

// ExpireSweep 批量清扫过期礼品，返回落库为 expired 的数量
func (s *GiftService) ExpireSweep(limit int) (int, error) {
	if s == nil || s.giftRepo == nil {
		return 0, ErrGiftUpdateFailed
	}
	if limit <= 0 {
		limit = s.resolveSweepBatchSize()
	}
	now := time.Now()
	candidates, err := s.giftRepo.ListExpireCandidates(now, limit)
	if err != nil {
		return 0, ErrGiftFetchFailed
	}
	expired := 0
	for i := range candidates {
		gift := &candidates[i]
		if !IsGiftExpired(gift, now) {
			continue
		}
		if err := s.expireGift(gift); err != nil {
			logger.Warnw("gift_expire_sweep_item_failed",
				"gift_id", gift.ID,
				"error", err,
			)
			continue
		}
		if gift.Status == constants.GiftStatusExpired {
			expired++
		}
	}
	if expired > 0 {
		logger.Infow("gift_expire_sweep_done", "expired", expired)
	}
	return expired, nil
}

// syncGiftLifecycle 读取路径上的懒同步：到点放行与过期落库
func (s *GiftService) syncGiftLifecycle(gift *models.Gift, now time.Time) error {
	if gift == nil {
		return nil
	}
	if IsGiftExpired(gift, now) &&
		(gift.Status == constants.GiftStatusSent || gift.Status == constants.GiftStatusRedeemable) {
		return s.expireGift(gift)
	}
	if gift.Status == constants.GiftStatusSent && ShouldBeRedeemableNow(gift, now) {
		affected, err := s.giftRepo.UpdateStatusIf(gift.ID,
			[]string{constants.GiftStatusSent},
			constants.GiftStatusRedeemable, nil)
		if err != nil {
			return ErrGiftUpdateFailed
		}
		if affected > 0 {
			gift.Status = constants.GiftStatusRedeemable
		}
	}
	return nil
}

func (s *GiftService) syncGiftsLifecycle(gifts []models.Gift) error {
	now := time.Now()
	for i := range gifts {
		if err := s.syncGiftLifecycle(&gifts[i], now); err != nil {
			return err
		}
	}
	return nil
}

// expireGift 将礼品落库为过期并通知赠送人
func (s *GiftService) expireGift(gift *models.Gift) error {
	affected, err := s.giftRepo.UpdateStatusIf(gift.ID,
		[]string{constants.GiftStatusSent, constants.GiftStatusRedeemable},
		constants.GiftStatusExpired, nil)
	if err != nil {
		return ErrGiftUpdateFailed
	}
	if affected == 0 {
		fresh, err := s.giftRepo.GetByID(gift.ID)
		if err != nil || fresh == nil {
			return ErrGiftFetchFailed
		}
		gift.Status = fresh.Status
		return nil
	}
	gift.Status = constants.GiftStatusExpired
	if s.notificationService != nil {
		s.notificationService.Notify(NotifyInput{
			UserID:  gift.SenderUserID,
			Event:   constants.NotificationEventGiftExpired,
			BizType: constants.NotificationBizTypeGift,
			BizID:   gift.ID,
			Payload: models.JSON{"item_name": gift.ItemName},
		})
	}
	return nil
}

// authorizeSwapCaller 换购仅限接收人本人：已绑定用户按 ID 比对，未绑定按账号邮箱比对
func (s *GiftService) authorizeSwapCaller(gift *models.Gift, callerUserID uint) error {
	if gift.ReceiverUserID != nil && *gift.ReceiverUserID != 0 {
		if *gift.ReceiverUserID != callerUserID {
			return ErrGiftNotFound
		}
		return nil
	}
	if s.userRepo == nil {
		return ErrUserFetchFailed
	}
	caller, err := s.userRepo.GetByID(callerUserID)
	if err != nil {
		return ErrUserFetchFailed
	}
	if caller == nil {
		return ErrUserNotFound
	}
	if !strings.EqualFold(strings.TrimSpace(caller.Email), strings.TrimSpace(gift.ReceiverEmail)) {
		return ErrGiftNotFound
	}
	return nil
}

func (s *GiftService) fetchSender(userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	if s.userRepo == nil {
		return nil, ErrUserFetchFailed
	}
	sender, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrUserFetchFailed
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}
	return sender, nil
}

func generateGiftOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("GF%s%s", now, randNumeric(6))
}
