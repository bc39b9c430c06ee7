package public

import (
	"errors"

	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/i18n"
	"github.com/shelfwise/bookstore/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	DiscountCode  string `json:"discount_code"`
	PaymentMethod string `json:"payment_method"` // 为空时按货到付款
}

// Checkout 将已勾选的购物车行下单
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.CheckoutService.Checkout(c.Request.Context(), service.CheckoutInput{
		UserID:        uid,
		DiscountCode:  req.DiscountCode,
		PaymentMethod: req.PaymentMethod,
		Locale:        requestLocale(c),
	})
	if err != nil {
		var partial *service.PartialCheckoutError
		if errors.As(err, &partial) {
			requestLogFor(c).Warnw("checkout_partial",
				"user_id", uid,
				"order_id", partial.OrderID,
				"error", partial.Cause,
			)
			msg := i18n.T(requestLocale(c), "error.checkout_partial")
			response.ErrorWithData(c, response.CodeInternal, msg, gin.H{"order_id": partial.OrderID})
			return
		}
		respondMapped(c, err, response.CodeInternal, "error.checkout_failed")
		return
	}
	response.Success(c, order)
}
