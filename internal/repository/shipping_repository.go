package repository

import (
	"context"
	"errors"

	"github.com/shelfwise/bookstore/internal/models"

	"gorm.io/gorm"
)

// ShippingRepository 物流记录数据访问接口
type ShippingRepository interface {
	Create(shipping *models.Shipping) error
	GetByID(id uint) (*models.Shipping, error)
	GetByOrderID(orderID uint) (*models.Shipping, error)
	TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (int64, error)
	WithTx(tx *gorm.DB) ShippingRepository
	WithContext(ctx context.Context) ShippingRepository
}

// GormShippingRepository GORM 实现
type GormShippingRepository struct {
	db *gorm.DB
}

// NewShippingRepository 创建物流仓库
func NewShippingRepository(db *gorm.DB) *GormShippingRepository {
	return &GormShippingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormShippingRepository) WithTx(tx *gorm.DB) ShippingRepository {
	if tx == nil {
		return r
	}
	return &GormShippingRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormShippingRepository) WithContext(ctx context.Context) ShippingRepository {
	if ctx == nil {
		return r
	}
	return &GormShippingRepository{db: r.db.WithContext(ctx)}
}

// Create 创建物流记录
func (r *GormShippingRepository) Create(shipping *models.Shipping) error {
	return r.db.Create(shipping).Error
}

// GetByID 根据 ID 获取物流记录
func (r *GormShippingRepository) GetByID(id uint) (*models.Shipping, error) {
	var shipping models.Shipping
	if err := r.db.First(&shipping, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipping, nil
}

// GetByOrderID 根据订单获取物流记录
func (r *GormShippingRepository) GetByOrderID(orderID uint) (*models.Shipping, error) {
	var shipping models.Shipping
	if err := r.db.Where("order_id = ?", orderID).First(&shipping).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipping, nil
}

// TransitionStatus 条件状态流转：仅当当前状态属于 from 时更新
func (r *GormShippingRepository) TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	result := r.db.Model(&models.Shipping{}).Where("id = ? AND status IN ?", id, from).Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
