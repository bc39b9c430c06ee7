package public

import (
	handlershared "github.com/shelfwise/bookstore/internal/http/handlers/shared"
	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListNotifications 站内通知列表，unread=1 只看未读
func (h *Handler) ListNotifications(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)
	result, err := h.NotificationService.List(c.Request.Context(), repository.NotificationListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     uid,
		UnreadOnly: c.Query("unread") == "1" || c.Query("unread") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.notification_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, gin.H{
		"items":  result.Items,
		"unread": result.Unread,
	}, response.NewPagination(page, pageSize, result.Total))
}

// MarkNotificationRead 标记通知已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.NotificationService.MarkRead(c.Request.Context(), uid, id); err != nil {
		respondMapped(c, err, response.CodeInternal, "error.notification_update_failed")
		return
	}
	response.Success(c, gin.H{"read": true})
}
