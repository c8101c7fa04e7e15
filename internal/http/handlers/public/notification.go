package public

import (
	"errors"
	"strings"

	"github.com/giftloop/internal/http/response"
	"github.com/giftloop/internal/repository"
	"github.com/giftloop/internal/service"

	"github.com/gin-gonic/gin"
)

// ListNotifications 查询我的通知
func (h *Handler) ListNotifications(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)
	filter := repository.NotificationListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     userID,
		Event:      strings.TrimSpace(c.Query("event")),
		UnreadOnly: c.Query("unread_only") == "true",
	}
	items, total, err := h.NotificationService.ListNotifications(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "通知列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, items, buildPagination(page, pageSize, total))
}

// CountUnreadNotifications 查询未读通知数
func (h *Handler) CountUnreadNotifications(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	count, err := h.NotificationService.CountUnread(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "未读数获取失败", err)
		return
	}
	response.Success(c, gin.H{"unread": count})
}

// MarkNotificationRead 标记通知已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	notificationID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.NotificationService.MarkRead(notificationID, userID); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			respondError(c, response.CodeNotFound, "通知不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "通知标记失败", err)
		return
	}
	response.Success(c, gin.H{"read": true})
}
