package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/shelfwise/bookstore/internal/http/handlers/shared"
	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/repository"

	"github.com/gin-gonic/gin"
)

// ShippingStatusRequest 物流状态更新请求
type ShippingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			userID = uint(parsed)
		}
	}

	orders, total, err := h.OrderService.ListAdmin(c.Request.Context(), repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Status:      strings.TrimSpace(c.Query("status")),
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		respondMapped(c, err, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// AdminConfirmPayment 确认收款：支付记录置为已支付并扣减库存
func (h *Handler) AdminConfirmPayment(c *gin.Context) {
	orderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.ConfirmPayment(c.Request.Context(), orderID)
	if err != nil {
		respondMapped(c, err, response.CodeInternal, "error.order_update_failed")
		return
	}
	requestLog(c).Infow("admin_order_payment_confirmed", "order_id", order.ID, "admin_id", c.GetUint("admin_id"))
	response.Success(c, order)
}

// AdminCancelOrder 取消未支付订单并释放库存
func (h *Handler) AdminCancelOrder(c *gin.Context) {
	orderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.CancelOrder(c.Request.Context(), orderID)
	if err != nil {
		respondMapped(c, err, response.CodeInternal, "error.order_update_failed")
		return
	}
	requestLog(c).Infow("admin_order_cancelled", "order_id", order.ID, "admin_id", c.GetUint("admin_id"))
	response.Success(c, order)
}

// AdminUpdateShippingStatus 推进物流状态
func (h *Handler) AdminUpdateShippingStatus(c *gin.Context) {
	orderID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req ShippingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	shipping, err := h.OrderService.UpdateShippingStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		respondMapped(c, err, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, shipping)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
