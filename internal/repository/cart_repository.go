package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shelfwise/bookstore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetByUser(userID uint) (*models.Cart, error)
	GetOrCreateByUser(userID uint) (*models.Cart, error)
	ListItems(cartID uint) ([]models.CartItem, error)
	ListCheckedItems(cartID uint) ([]models.CartItem, error)
	GetItem(cartID, bookID uint) (*models.CartItem, error)
	CreateItem(item *models.CartItem) (int64, error)
	IncrementItemQuantity(cartID, bookID uint, delta int) (int64, error)
	UpdateItemQuantity(cartID, bookID uint, oldQuantity, newQuantity int) (int64, error)
	DeleteItem(cartID, bookID uint, expectedQuantity int) (int64, error)
	DeleteCheckedItems(cartID uint) (int64, error)
	SetItemChecked(cartID, bookID uint, checked bool) (int64, error)
	SetAllChecked(cartID uint, checked bool) (int64, error)
	WithTx(tx *gorm.DB) CartRepository
	WithContext(ctx context.Context) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormCartRepository) WithContext(ctx context.Context) CartRepository {
	if ctx == nil {
		return r
	}
	return &GormCartRepository{db: r.db.WithContext(ctx)}
}

// GetByUser 获取用户购物车
func (r *GormCartRepository) GetByUser(userID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateByUser 获取或创建用户购物车，并发创建时以唯一索引去重
func (r *GormCartRepository) GetOrCreateByUser(userID uint) (*models.Cart, error) {
	cart, err := r.GetByUser(userID)
	if err != nil || cart != nil {
		return cart, err
	}
	created := &models.Cart{UserID: userID}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(created).Error; err != nil {
		return nil, err
	}
	cart, err = r.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return cart, nil
}

// ListItems 获取购物车全部行
func (r *GormCartRepository) ListItems(cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Book").Where("cart_id = ?", cartID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListCheckedItems 获取已勾选的购物车行
func (r *GormCartRepository) ListCheckedItems(cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Where("cart_id = ? AND is_checked = ?", cartID, true).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem 获取单个购物车行
func (r *GormCartRepository) GetItem(cartID, bookID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.Where("cart_id = ? AND book_id = ?", cartID, bookID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// CreateItem 新增购物车行，行已存在时不写入并返回 0
func (r *GormCartRepository) CreateItem(item *models.CartItem) (int64, error) {
	if item == nil {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(item)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// IncrementItemQuantity 原子累加数量
func (r *GormCartRepository) IncrementItemQuantity(cartID, bookID uint, delta int) (int64, error) {
	result := r.db.Model(&models.CartItem{}).
		Where("cart_id = ? AND book_id = ?", cartID, bookID).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateItemQuantity 条件更新数量，仅当数量仍为 oldQuantity 时生效
func (r *GormCartRepository) UpdateItemQuantity(cartID, bookID uint, oldQuantity, newQuantity int) (int64, error) {
	result := r.db.Model(&models.CartItem{}).
		Where("cart_id = ? AND book_id = ? AND quantity = ?", cartID, bookID, oldQuantity).
		Updates(map[string]interface{}{
			"quantity":   newQuantity,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteItem 条件删除购物车行，仅当数量仍为 expectedQuantity 时生效
func (r *GormCartRepository) DeleteItem(cartID, bookID uint, expectedQuantity int) (int64, error) {
	result := r.db.Where("cart_id = ? AND book_id = ? AND quantity = ?", cartID, bookID, expectedQuantity).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteCheckedItems 删除已勾选的行（结算后清理，不回补库存）
func (r *GormCartRepository) DeleteCheckedItems(cartID uint) (int64, error) {
	result := r.db.Where("cart_id = ? AND is_checked = ?", cartID, true).Delete(&models.CartItem{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SetItemChecked 设置单行勾选状态
func (r *GormCartRepository) SetItemChecked(cartID, bookID uint, checked bool) (int64, error) {
	result := r.db.Model(&models.CartItem{}).
		Where("cart_id = ? AND book_id = ?", cartID, bookID).
		Update("is_checked", checked)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SetAllChecked 设置全部行勾选状态
func (r *GormCartRepository) SetAllChecked(cartID uint, checked bool) (int64, error) {
	result := r.db.Model(&models.CartItem{}).
		Where("cart_id = ?", cartID).
		Update("is_checked", checked)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
