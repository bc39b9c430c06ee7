package service

import (
	"context"
	"strings"
	"time"

	"github.com/shelfwise/bookstore/internal/constants"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountQuote 优惠码试算结果
type DiscountQuote struct {
	Discount *models.Discount
	Amount   models.Money
}

// DiscountInput 优惠码创建/更新参数
type DiscountInput struct {
	Code             string
	Name             string
	Type             string
	Value            models.Money
	MinRequiredValue models.Money
	MaxDiscountValue models.Money
	Quantity         int
	StartDate        *time.Time
	EndDate          *time.Time
	IsActive         bool
}

// DiscountService 优惠码服务
type DiscountService struct {
	discountRepo repository.DiscountRepository
	now          func() time.Time
}

// NewDiscountService 创建优惠码服务
func NewDiscountService(discountRepo repository.DiscountRepository) *DiscountService {
	return &DiscountService{discountRepo: discountRepo, now: time.Now}
}

// WithTx 绑定事务
func (s *DiscountService) WithTx(tx *gorm.DB) *DiscountService {
	return &DiscountService{discountRepo: s.discountRepo.WithTx(tx), now: s.now}
}

// Resolve 查找并试算优惠码，不满足任一条件时返回 nil 且不报错
func (s *DiscountService) Resolve(ctx context.Context, code string, subtotal models.Money) (*DiscountQuote, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	discount, err := s.discountRepo.WithContext(ctx).GetByCode(code)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if discount == nil || !discount.AvailableAt(s.now()) {
		return nil, nil
	}
	if subtotal.Decimal.LessThan(discount.MinRequiredValue.Decimal) {
		return nil, nil
	}
	amount := computeDiscountAmount(discount, subtotal.Decimal)
	if !amount.IsPositive() {
		return nil, nil
	}
	return &DiscountQuote{Discount: discount, Amount: models.NewMoneyFromDecimal(amount)}, nil
}

// Consume 原子核销一次，返回是否核销成功
func (s *DiscountService) Consume(ctx context.Context, discountID uint) (bool, error) {
	if discountID == 0 {
		return false, nil
	}
	affected, err := s.discountRepo.WithContext(ctx).Consume(discountID)
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// computeDiscountAmount 百分比按比例计算并受上限约束，固定金额不超过小计
func computeDiscountAmount(discount *models.Discount, subtotal decimal.Decimal) decimal.Decimal {
	if discount == nil || !subtotal.IsPositive() {
		return decimal.Zero
	}
	var amount decimal.Decimal
	switch discount.Type {
	case constants.DiscountTypePercentage:
		amount = models.NewMoneyFromDecimal(subtotal).Percent(discount.Value.Decimal).Decimal
		if discount.MaxDiscountValue.IsPositive() && amount.GreaterThan(discount.MaxDiscountValue.Decimal) {
			amount = discount.MaxDiscountValue.Decimal
		}
	case constants.DiscountTypeFixed:
		amount = decimal.Min(discount.Value.Decimal, subtotal)
	default:
		return decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount.Round(2)
}

// List 管理端优惠码列表
func (s *DiscountService) List(ctx context.Context, filter repository.DiscountListFilter) ([]models.Discount, int64, error) {
	rows, total, err := s.discountRepo.WithContext(ctx).List(filter)
	if err != nil {
		return nil, 0, wrapStorage(err)
	}
	return rows, total, nil
}

// Create 创建优惠码
func (s *DiscountService) Create(ctx context.Context, input DiscountInput) (*models.Discount, error) {
	normalized, err := normalizeDiscountInput(input)
	if err != nil {
		return nil, err
	}
	repo := s.discountRepo.WithContext(ctx)
	count, err := repo.CountByCode(normalized.Code, 0)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if count > 0 {
		return nil, ErrDiscountCodeExists
	}
	discount := &models.Discount{}
	applyDiscountInput(discount, normalized)
	if err := repo.Create(discount); err != nil {
		return nil, wrapStorage(err)
	}
	return discount, nil
}

// Update 更新优惠码
func (s *DiscountService) Update(ctx context.Context, id uint, input DiscountInput) (*models.Discount, error) {
	normalized, err := normalizeDiscountInput(input)
	if err != nil {
		return nil, err
	}
	repo := s.discountRepo.WithContext(ctx)
	discount, err := repo.GetByID(id)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if discount == nil {
		return nil, ErrDiscountNotFound
	}
	count, err := repo.CountByCode(normalized.Code, id)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if count > 0 {
		return nil, ErrDiscountCodeExists
	}
	applyDiscountInput(discount, normalized)
	if err := repo.Update(discount); err != nil {
		return nil, wrapStorage(err)
	}
	return discount, nil
}

func normalizeDiscountInput(input DiscountInput) (DiscountInput, error) {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	input.Name = strings.TrimSpace(input.Name)
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	if input.Code == "" || input.Quantity < 0 || !input.Value.IsPositive() {
		return input, ErrDiscountInvalid
	}
	if input.MinRequiredValue.IsNegative() || input.MaxDiscountValue.IsNegative() {
		return input, ErrDiscountInvalid
	}
	switch input.Type {
	case constants.DiscountTypePercentage:
		if input.Value.GreaterThan(decimal.NewFromInt(100)) {
			return input, ErrDiscountInvalid
		}
	case constants.DiscountTypeFixed:
	default:
		return input, ErrDiscountInvalid
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return input, ErrDiscountInvalid
	}
	return input, nil
}

func applyDiscountInput(discount *models.Discount, input DiscountInput) {
	discount.Code = input.Code
	discount.Name = input.Name
	discount.Type = input.Type
	discount.Value = input.Value
	discount.MinRequiredValue = input.MinRequiredValue
	discount.MaxDiscountValue = input.MaxDiscountValue
	discount.Quantity = input.Quantity
	discount.StartDate = input.StartDate
	discount.EndDate = input.EndDate
	discount.IsActive = input.IsActive
}
