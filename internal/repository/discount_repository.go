package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shelfwise/bookstore/internal/models"

	"gorm.io/gorm"
)

// DiscountRepository 优惠码数据访问接口
type DiscountRepository interface {
	GetByCode(code string) (*models.Discount, error)
	GetByID(id uint) (*models.Discount, error)
	List(filter DiscountListFilter) ([]models.Discount, int64, error)
	CountByCode(code string, excludeID uint) (int64, error)
	Create(discount *models.Discount) error
	Update(discount *models.Discount) error
	Consume(id uint) (int64, error)
	WithTx(tx *gorm.DB) DiscountRepository
	WithContext(ctx context.Context) DiscountRepository
}

// GormDiscountRepository GORM 实现
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewDiscountRepository 创建优惠码仓库
func NewDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountRepository) WithTx(tx *gorm.DB) DiscountRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormDiscountRepository) WithContext(ctx context.Context) DiscountRepository {
	if ctx == nil {
		return r
	}
	return &GormDiscountRepository{db: r.db.WithContext(ctx)}
}

// GetByCode 根据优惠码获取
func (r *GormDiscountRepository) GetByCode(code string) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.Where("code = ?", strings.TrimSpace(code)).First(&discount).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// GetByID 根据 ID 获取优惠码
func (r *GormDiscountRepository) GetByID(id uint) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.First(&discount, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// List 优惠码列表
func (r *GormDiscountRepository) List(filter DiscountListFilter) ([]models.Discount, int64, error) {
	var discounts []models.Discount
	query := r.db.Model(&models.Discount{})
	query = query.Scopes(keywordMatch(filter.Code, "code", "name"))
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("id desc").Find(&discounts).Error; err != nil {
		return nil, 0, err
	}
	return discounts, total, nil
}

// CountByCode 统计优惠码数量
func (r *GormDiscountRepository) CountByCode(code string, excludeID uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Discount{}).Where("code = ?", strings.TrimSpace(code))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create 创建优惠码
func (r *GormDiscountRepository) Create(discount *models.Discount) error {
	return r.db.Create(discount).Error
}

// Update 更新优惠码
func (r *GormDiscountRepository) Update(discount *models.Discount) error {
	return r.db.Save(discount).Error
}

// Consume 核销一次：quantity > 0 时减一，返回影响行数
func (r *GormDiscountRepository) Consume(id uint) (int64, error) {
	result := r.db.Model(&models.Discount{}).
		Where("id = ? AND quantity > 0", id).
		Update("quantity", gorm.Expr("quantity - ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
