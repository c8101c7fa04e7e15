package public

import (
	"errors"
	"strings"

	"github.com/giftloop/internal/http/response"
	"github.com/giftloop/internal/repository"
	"github.com/giftloop/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 查询我的履约订单
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)
	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	}
	orders, total, err := h.FulfillmentService.ListOrdersByUser(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "订单列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, orders, buildPagination(page, pageSize, total))
}

// GetOrder 查询履约订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.FulfillmentService.GetOrderByUser(orderID, userID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "订单获取失败", err)
		return
	}
	response.Success(c, order)
}

// ConfirmOrderDelivered 收货确认：订单交付并推进礼品到终态
func (h *Handler) ConfirmOrderDelivered(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.FulfillmentService.GetOrderByUser(orderID, userID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "订单获取失败", err)
		return
	}
	updated, err := h.FulfillmentService.MarkDelivered(order.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGiftTransitionInvalid):
			respondError(c, response.CodeBadRequest, "订单当前状态不允许确认收货", service.ErrGiftTransitionInvalid)
		case errors.Is(err, service.ErrGiftStateConflict):
			respondError(c, response.CodeBadRequest, "订单状态已被并发修改，请重试", service.ErrGiftStateConflict)
		default:
			respondError(c, response.CodeInternal, "确认收货失败", err)
		}
		return
	}
	response.Success(c, updated)
}
