package repository

import (
	"context"
	"errors"

	"github.com/shelfwise/bookstore/internal/models"

	"gorm.io/gorm"
)

// AddressRepository 收货地址数据访问接口
type AddressRepository interface {
	GetDefault(userID uint) (*models.Address, error)
	GetByID(id uint) (*models.Address, error)
	ListByUser(userID uint) ([]models.Address, error)
	Create(address *models.Address) error
	WithTx(tx *gorm.DB) AddressRepository
	WithContext(ctx context.Context) AddressRepository
}

// GormAddressRepository GORM 实现
type GormAddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓库
func NewAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAddressRepository) WithTx(tx *gorm.DB) AddressRepository {
	if tx == nil {
		return r
	}
	return &GormAddressRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormAddressRepository) WithContext(ctx context.Context) AddressRepository {
	if ctx == nil {
		return r
	}
	return &GormAddressRepository{db: r.db.WithContext(ctx)}
}

// GetDefault 获取用户默认地址
func (r *GormAddressRepository) GetDefault(userID uint) (*models.Address, error) {
	var address models.Address
	err := r.db.Where("user_id = ? AND is_default = ?", userID, true).
		Order("updated_at desc").
		First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// GetByID 根据 ID 获取地址（含已删除，结算补偿时使用下单时的地址）
func (r *GormAddressRepository) GetByID(id uint) (*models.Address, error) {
	var address models.Address
	if err := r.db.Unscoped().First(&address, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// ListByUser 获取用户地址列表
func (r *GormAddressRepository) ListByUser(userID uint) ([]models.Address, error) {
	var addresses []models.Address
	if err := r.db.Where("user_id = ?", userID).Order("is_default desc, id asc").Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}

// Create 创建地址，设为默认时取消其他默认地址
func (r *GormAddressRepository) Create(address *models.Address) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND is_default = ?", address.UserID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
}
