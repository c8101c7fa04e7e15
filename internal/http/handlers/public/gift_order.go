package public

import (
	"strings"

	"github.com/giftloop/internal/http/response"
	"github.com/giftloop/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListGiftOrders 查询我的礼品购买单
func (h *Handler) ListGiftOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)
	filter := repository.GiftOrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	orders, total, err := h.GiftOrderService.ListGiftOrders(filter)
	if err != nil {
		respondGiftOrderError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, buildPagination(page, pageSize, total))
}

// GetGiftOrder 查询购买单详情
func (h *Handler) GetGiftOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.GiftOrderService.GetGiftOrder(orderID, userID)
	if err != nil {
		respondGiftOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelGiftOrder 取消未支付的购买单
func (h *Handler) CancelGiftOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.GiftOrderService.CancelGiftOrder(orderID, userID)
	if err != nil {
		respondGiftOrderError(c, err)
		return
	}
	response.Success(c, order)
}
