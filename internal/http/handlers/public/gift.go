package public

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/giftloop/internal/http/handlers/shared"
	"github.com/giftloop/internal/http/response"
	"github.com/giftloop/internal/models"
	"github.com/giftloop/internal/repository"
	"github.com/giftloop/internal/service"

	"github.com/gin-gonic/gin"
)

// GiftItemRequest 礼品商品快照请求体
type GiftItemRequest struct {
	ProductID   uint         `json:"product_id" binding:"required"`
	ProductType string       `json:"product_type"`
	Name        string       `json:"name" binding:"required"`
	Image       string       `json:"image"`
	Value       models.Money `json:"value"`
}

// SendGiftRequest 发起赠送请求体
type SendGiftRequest struct {
	ReceiverName          string          `json:"receiver_name"`
	ReceiverEmail         string          `json:"receiver_email"`
	ReceiverUserID        *uint           `json:"receiver_user_id"`
	ConnectionID          *uint           `json:"connection_id"`
	Item                  GiftItemRequest `json:"item" binding:"required"`
	Message               string          `json:"message"`
	Occasion              string          `json:"occasion"`
	GiftContext           string          `json:"gift_context"`
	DeliveryMode          string          `json:"delivery_mode" binding:"required"`
	ScheduledDeliveryDate *time.Time      `json:"scheduled_delivery_date"`
	CanSwap               bool            `json:"can_swap"`
	Discount              models.Money    `json:"discount"`
}

// SendGift 发起赠送
func (h *Handler) SendGift(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req SendGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	gift, err := h.GiftService.SendGift(service.SendGiftInput{
		SenderUserID:   userID,
		ReceiverName:   req.ReceiverName,
		ReceiverEmail:  req.ReceiverEmail,
		ReceiverUserID: req.ReceiverUserID,
		ConnectionID:   req.ConnectionID,
		Item: service.SendGiftItem{
			ProductID:   req.Item.ProductID,
			ProductType: req.Item.ProductType,
			Name:        req.Item.Name,
			Image:       req.Item.Image,
			Value:       req.Item.Value,
		},
		Message:               req.Message,
		Occasion:              req.Occasion,
		GiftContext:           req.GiftContext,
		DeliveryMode:          req.DeliveryMode,
		ScheduledDeliveryDate: req.ScheduledDeliveryDate,
		CanSwap:               req.CanSwap,
		Discount:              req.Discount,
	})
	if err != nil {
		respondGiftSendError(c, err)
		return
	}
	response.Success(c, gift)
}

// ConfirmGiftPaymentRequest 支付确认请求体
type ConfirmGiftPaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	PaymentID     string `json:"payment_id"`
}

// ConfirmGiftPayment 支付确认后推进礼品到已送出
func (h *Handler) ConfirmGiftPayment(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req ConfirmGiftPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	gift, err := h.GiftService.ConfirmGiftPayment(orderID, userID, req.PaymentMethod, req.PaymentID)
	if err != nil {
		respondGiftOrderError(c, err)
		return
	}
	response.Success(c, gift)
}

// ListSentGifts 查询我送出的礼品
func (h *Handler) ListSentGifts(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)
	filter := repository.GiftListFilter{
		Page:         page,
		PageSize:     pageSize,
		SenderUserID: userID,
		Status:       strings.TrimSpace(c.Query("status")),
		DeliveryMode: strings.TrimSpace(c.Query("delivery_mode")),
	}
	gifts, total, err := h.GiftService.ListSentGifts(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "礼品列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, gifts, buildPagination(page, pageSize, total))
}

// ListReceivedGifts 查询我收到的礼品
func (h *Handler) ListReceivedGifts(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "用户信息获取失败", err)
		return
	}
	page, pageSize := parsePagination(c)
	filter := repository.GiftListFilter{
		Page:           page,
		PageSize:       pageSize,
		ReceiverUserID: userID,
		ReceiverEmail:  user.Email,
		Status:         strings.TrimSpace(c.Query("status")),
	}
	gifts, total, err := h.GiftService.ListReceivedGifts(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "礼品列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, gifts, buildPagination(page, pageSize, total))
}

// GetGiftByCode 按兑换码查询礼品
func (h *Handler) GetGiftByCode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	gift, err := h.GiftService.GetGiftByCode(code)
	if err != nil {
		respondGiftRedeemError(c, err)
		return
	}
	response.Success(c, gift)
}

// RedeemGiftRequest 兑换请求体
type RedeemGiftRequest struct {
	Code            string `json:"code" binding:"required"`
	ShippingPhone   string `json:"shipping_phone" binding:"required"`
	ShippingAddress string `json:"shipping_address" binding:"required"`
}

// RedeemGift 兑换礼品
func (h *Handler) RedeemGift(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req RedeemGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	gift, err := h.GiftService.RedeemGift(c.Request.Context(), service.RedeemGiftInput{
		Code:            req.Code,
		ReceiverUserID:  userID,
		ShippingPhone:   req.ShippingPhone,
		ShippingAddress: req.ShippingAddress,
		IdempotencyKey:  strings.TrimSpace(c.GetHeader("X-Idempotency-Key")),
	})
	if err != nil {
		respondGiftRedeemError(c, err)
		return
	}
	response.Success(c, gift)
}

// SwapGiftRequest 换购请求体
type SwapGiftRequest struct {
	NewItem GiftItemRequest `json:"new_item" binding:"required"`
}

// SwapGift 换购礼品
func (h *Handler) SwapGift(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	giftID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req SwapGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	result, err := h.GiftService.SwapGift(c.Request.Context(), service.SwapGiftInput{
		GiftID:         giftID,
		ReceiverUserID: userID,
		NewItem: service.SendGiftItem{
			ProductID:   req.NewItem.ProductID,
			ProductType: req.NewItem.ProductType,
			Name:        req.NewItem.Name,
			Image:       req.NewItem.Image,
			Value:       req.NewItem.Value,
		},
		IdempotencyKey: strings.TrimSpace(c.GetHeader("X-Idempotency-Key")),
	})
	if err != nil {
		respondGiftSwapError(c, err)
		return
	}
	response.Success(c, result)
}

// CancelGift 取消未兑换礼品
func (h *Handler) CancelGift(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	giftID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	gift, err := h.GiftService.CancelGift(giftID, userID)
	if err != nil {
		respondGiftSendError(c, err)
		return
	}
	response.Success(c, gift)
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		respondError(c, response.CodeBadRequest, "路径参数无效", err)
		return 0, false
	}
	return uint(value), true
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return handlershared.NormalizePagination(page, pageSize)
}

func buildPagination(page, pageSize int, total int64) response.Pagination {
	totalPage := int64(0)
	if pageSize > 0 {
		totalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}
