package admin

import (
	"strings"

	handlershared "github.com/shelfwise/bookstore/internal/http/handlers/shared"
	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/repository"
	"github.com/shelfwise/bookstore/internal/service"

	"github.com/gin-gonic/gin"
)

// DiscountRequest 优惠码请求
type DiscountRequest struct {
	Code             string       `json:"code" binding:"required"`
	Name             string       `json:"name"`
	Type             string       `json:"type" binding:"required"`
	Value            models.Money `json:"value"`
	MinRequiredValue models.Money `json:"min_required_value"`
	MaxDiscountValue models.Money `json:"max_discount_value"`
	Quantity         int          `json:"quantity"`
	StartDate        string       `json:"start_date"`
	EndDate          string       `json:"end_date"`
	IsActive         *bool        `json:"is_active"`
}

func (r DiscountRequest) toInput() (service.DiscountInput, error) {
	startDate, err := parseTimeNullable(strings.TrimSpace(r.StartDate))
	if err != nil {
		return service.DiscountInput{}, err
	}
	endDate, err := parseTimeNullable(strings.TrimSpace(r.EndDate))
	if err != nil {
		return service.DiscountInput{}, err
	}
	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}
	return service.DiscountInput{
		Code:             r.Code,
		Name:             r.Name,
		Type:             r.Type,
		Value:            r.Value,
		MinRequiredValue: r.MinRequiredValue,
		MaxDiscountValue: r.MaxDiscountValue,
		Quantity:         r.Quantity,
		StartDate:        startDate,
		EndDate:          endDate,
		IsActive:         isActive,
	}, nil
}

// AdminListDiscounts 优惠码列表
func (h *Handler) AdminListDiscounts(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	filter := repository.DiscountListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
	}
	switch strings.TrimSpace(c.Query("is_active")) {
	case "1", "true":
		active := true
		filter.IsActive = &active
	case "0", "false":
		inactive := false
		filter.IsActive = &inactive
	}
	discounts, total, err := h.DiscountService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.storage_failed", err)
		return
	}
	response.SuccessWithPage(c, discounts, response.NewPagination(page, pageSize, total))
}

// AdminCreateDiscount 创建优惠码
func (h *Handler) AdminCreateDiscount(c *gin.Context) {
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	discount, err := h.DiscountService.Create(c.Request.Context(), input)
	if err != nil {
		respondMapped(c, err, response.CodeInternal, "error.discount_save_failed")
		return
	}
	response.Success(c, discount)
}

// AdminUpdateDiscount 更新优惠码
func (h *Handler) AdminUpdateDiscount(c *gin.Context) {
	id, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	discount, err := h.DiscountService.Update(c.Request.Context(), id, input)
	if err != nil {
		respondMapped(c, err, response.CodeInternal, "error.discount_save_failed")
		return
	}
	response.Success(c, discount)
}

