package shared

import (
	"errors"

	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedError 定义业务错误到接口错误响应的映射关系。
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// RespondMapped 按规则顺序匹配错误，未命中时使用兜底响应并记录原始错误。
func RespondMapped(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// ConcatMappedErrors 合并多组映射规则。
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// NotFoundErrorRules 细分的资源不存在错误，放在通用 ErrNotFound 之前匹配。
var NotFoundErrorRules = []MappedError{
	{Target: service.ErrBookNotFound, Code: response.CodeNotFound, Key: "error.book_not_found"},
	{Target: service.ErrCartItemNotFound, Code: response.CodeNotFound, Key: "error.cart_item_not_found"},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrPaymentNotFound, Code: response.CodeNotFound, Key: "error.payment_not_found"},
	{Target: service.ErrShippingNotFound, Code: response.CodeNotFound, Key: "error.shipping_not_found"},
	{Target: service.ErrDiscountNotFound, Code: response.CodeNotFound, Key: "error.discount_not_found"},
	{Target: service.ErrNotificationNotFound, Code: response.CodeNotFound, Key: "error.notification_not_found"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
}

// DomainErrorRules 下单链路通用的业务错误。
var DomainErrorRules = []MappedError{
	{Target: service.ErrInsufficientStock, Code: response.CodeBadRequest, Key: "error.insufficient_stock"},
	{Target: service.ErrInvalidQuantity, Code: response.CodeBadRequest, Key: "error.quantity_invalid"},
	{Target: service.ErrEmptyCart, Code: response.CodeBadRequest, Key: "error.cart_empty"},
	{Target: service.ErrNoDefaultAddress, Code: response.CodeBadRequest, Key: "error.no_default_address"},
	{Target: service.ErrInvalidPaymentMethod, Code: response.CodeBadRequest, Key: "error.payment_method_invalid"},
	{Target: service.ErrInvalidStatusTransition, Code: response.CodeBadRequest, Key: "error.order_status_invalid"},
	{Target: service.ErrDiscountInvalid, Code: response.CodeBadRequest, Key: "error.discount_invalid"},
	{Target: service.ErrDiscountCodeExists, Code: response.CodeBadRequest, Key: "error.discount_code_exists"},
	{Target: service.ErrCartItemConflict, Code: response.CodeConflict, Key: "error.cart_conflict"},
	{Target: service.ErrTrackingNumberExhausted, Code: response.CodeInternal, Key: "error.tracking_number_exhausted"},
	{Target: service.ErrBlobSignatureInvalid, Code: response.CodeForbidden, Key: "error.blob_signature_invalid"},
}

// CommonErrorRules 细分 not found 与业务错误的组合。
var CommonErrorRules = ConcatMappedErrors(NotFoundErrorRules, DomainErrorRules)
