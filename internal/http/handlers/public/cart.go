package public

import (
	handlershared "github.com/shelfwise/bookstore/internal/http/handlers/shared"
	"github.com/shelfwise/bookstore/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 加入购物车请求
type CartItemRequest struct {
	BookID   uint `json:"book_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required"`
}

// CartQuantityRequest 修改数量请求，数量为 0 时删除该行
type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartCheckRequest 勾选请求
type CartCheckRequest struct {
	Checked bool `json:"checked"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	view, err := h.CartService.GetCart(c.Request.Context(), uid)
	if err != nil {
		respondMapped(c, err, response.CodeInternal, "error.cart_fetch_failed")
		return
	}
	response.Success(c, view)
}

// AddCartItem 加入购物车，已有行累加数量
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.CartService.AddItem(c.Request.Context(), uid, req.BookID, req.Quantity); err != nil {
		respondMapped(c, err, response.CodeInternal, "error.cart_update_failed")
		return
	}
	h.respondCart(c, uid)
}

// UpdateCartItem 修改购物车行数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	bookID, ok := handlershared.ParamUint(c, "book_id")
	if !ok {
		return
	}
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.CartService.UpdateItem(c.Request.Context(), uid, bookID, req.Quantity); err != nil {
		respondMapped(c, err, response.CodeInternal, "error.cart_update_failed")
		return
	}
	h.respondCart(c, uid)
}

// RemoveCartItem 删除购物车行并释放库存
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	bookID, ok := handlershared.ParamUint(c, "book_id")
	if !ok {
		return
	}
	if err := h.CartService.RemoveItem(c.Request.Context(), uid, bookID); err != nil {
		respondMapped(c, err, response.CodeInternal, "error.cart_update_failed")
		return
	}
	h.respondCart(c, uid)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(c.Request.Context(), uid); err != nil {
		respondMapped(c, err, response.CodeInternal, "error.cart_update_failed")
		return
	}
	h.respondCart(c, uid)
}

// CheckCartItem 勾选/取消勾选单行
func (h *Handler) CheckCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	bookID, ok := handlershared.ParamUint(c, "book_id")
	if !ok {
		return
	}
	var req CartCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.CartService.SetChecked(c.Request.Context(), uid, bookID, req.Checked); err != nil {
		respondMapped(c, err, response.CodeInternal, "error.cart_update_failed")
		return
	}
	h.respondCart(c, uid)
}

// CheckAllCartItems 全选/全不选
func (h *Handler) CheckAllCartItems(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.CartService.SetAllChecked(c.Request.Context(), uid, req.Checked); err != nil {
		respondMapped(c, err, response.CodeInternal, "error.cart_update_failed")
		return
	}
	h.respondCart(c, uid)
}

func (h *Handler) respondCart(c *gin.Context, uid uint) {
	view, err := h.CartService.GetCart(c.Request.Context(), uid)
	if err != nil {
		respondMapped(c, err, response.CodeInternal, "error.cart_fetch_failed")
		return
	}
	response.Success(c, view)
}
