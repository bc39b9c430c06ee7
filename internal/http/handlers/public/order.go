package public

import (
	"strings"

	handlershared "github.com/shelfwise/bookstore/internal/http/handlers/shared"
	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListOrders 我的订单
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)
	orders, total, err := h.OrderService.ListByUser(c.Request.Context(), repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder 订单详情（含订单项、物流与支付）
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetForUser(c.Request.Context(), uid, orderID)
	if err != nil {
		respondMapped(c, err, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// CancelOrder 用户取消未支付订单
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.CancelUserOrder(c.Request.Context(), uid, orderID)
	if err != nil {
		respondMapped(c, err, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}
