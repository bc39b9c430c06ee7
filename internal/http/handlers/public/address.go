package public

import (
	handlershared "github.com/shelfwise/bookstore/internal/http/handlers/shared"
	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/service"

	"github.com/gin-gonic/gin"
)

// AddressRequest 收货地址请求
type AddressRequest struct {
	Name         string  `json:"name" binding:"required"`
	Phone        string  `json:"phone" binding:"required"`
	Description  string  `json:"description" binding:"required"`
	CityName     string  `json:"city_name"`
	ProvinceName string  `json:"province_name"`
	DistanceKm   float64 `json:"distance_km"`
	IsDefault    bool    `json:"is_default"`
}

var addressErrorRules = []handlershared.MappedError{
	{Target: service.ErrInvalidAddress, Code: response.CodeBadRequest, Key: "error.address_invalid"},
}

// ListAddresses 我的收货地址
func (h *Handler) ListAddresses(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	addresses, err := h.AddressService.List(c.Request.Context(), uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.address_fetch_failed", err)
		return
	}
	response.Success(c, addresses)
}

// CreateAddress 新增收货地址
func (h *Handler) CreateAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	address, err := h.AddressService.Create(c.Request.Context(), uid, service.AddressInput{
		Name:         req.Name,
		Phone:        req.Phone,
		Description:  req.Description,
		CityName:     req.CityName,
		ProvinceName: req.ProvinceName,
		DistanceKm:   req.DistanceKm,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		handlershared.RespondMapped(c, err, addressErrorRules, response.CodeInternal, "error.address_save_failed")
		return
	}
	response.Success(c, address)
}
