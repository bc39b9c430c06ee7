package service

import (
	"errors"
	"fmt"
)

// ErrNotFound 资源不存在
var ErrNotFound = errors.New("not found")

// 资源不存在的细分错误，均可通过 errors.Is(err, ErrNotFound) 判断
var (
	ErrBookNotFound         = fmt.Errorf("book %w", ErrNotFound)
	ErrCartItemNotFound     = fmt.Errorf("cart item %w", ErrNotFound)
	ErrOrderNotFound        = fmt.Errorf("order %w", ErrNotFound)
	ErrPaymentNotFound      = fmt.Errorf("unpaid payment %w", ErrNotFound)
	ErrShippingNotFound     = fmt.Errorf("shipping %w", ErrNotFound)
	ErrDiscountNotFound     = fmt.Errorf("discount %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
)

// 业务校验错误
var (
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrEmptyCart               = errors.New("no checked items in cart")
	ErrNoDefaultAddress        = errors.New("no default address")
	ErrInvalidQuantity         = errors.New("invalid quantity")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
	ErrDiscountInvalid         = errors.New("invalid discount")
	ErrDiscountCodeExists      = errors.New("discount code already exists")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrUserDisabled            = errors.New("user disabled")
	ErrInvalidToken            = errors.New("invalid token")
	ErrInvalidEmail            = errors.New("invalid email")
	ErrWeakPassword            = errors.New("password too short")
	ErrEmailExists             = errors.New("email already registered")
	ErrInvalidAddress          = errors.New("invalid address")
	ErrCartItemConflict        = errors.New("cart item changed concurrently")
)

// 结算与存储错误
var (
	ErrTrackingNumberExhausted = errors.New("tracking number attempts exhausted")
	ErrPartialCheckoutFailure  = errors.New("partial checkout failure")
	ErrStorage                 = errors.New("storage error")
)

// PartialCheckoutError 订单已创建但未完成结算，携带订单 ID
type PartialCheckoutError struct {
	OrderID uint
	Cause   error
}

func (e *PartialCheckoutError) Error() string {
	return fmt.Sprintf("%v: order %d: %v", ErrPartialCheckoutFailure, e.OrderID, e.Cause)
}

// Is 支持 errors.Is(err, ErrPartialCheckoutFailure)
func (e *PartialCheckoutError) Is(target error) bool {
	return target == ErrPartialCheckoutFailure
}

// Unwrap 返回底层原因
func (e *PartialCheckoutError) Unwrap() error {
	return e.Cause
}

// wrapStorage 将数据访问错误包装为 ErrStorage，已是业务错误的原样返回
func wrapStorage(err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrInsufficientStock,
		ErrEmptyCart,
		ErrNoDefaultAddress,
		ErrInvalidQuantity,
		ErrInvalidStatusTransition,
		ErrInvalidPaymentMethod,
		ErrDiscountInvalid,
		ErrDiscountCodeExists,
		ErrInvalidEmail,
		ErrWeakPassword,
		ErrEmailExists,
		ErrInvalidAddress,
		ErrCartItemConflict,
		ErrTrackingNumberExhausted,
		ErrPartialCheckoutFailure,
		ErrStorage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
