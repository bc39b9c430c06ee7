package repository

import (
	"context"
	"time"

	"github.com/shelfwise/bookstore/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository 支付记录数据访问接口
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByOrderID(orderID uint) (*models.Payment, error)
	GetUnpaidByOrderID(orderID uint) (*models.Payment, error)
	MarkPaid(id uint, paidAt time.Time) (int64, error)
	WithTx(tx *gorm.DB) PaymentRepository
	WithContext(ctx context.Context) PaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) PaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormPaymentRepository) WithContext(ctx context.Context) PaymentRepository {
	if ctx == nil {
		return r
	}
	return &GormPaymentRepository{db: r.db.WithContext(ctx)}
}

// Create 创建支付记录
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// GetByID 根据 ID 获取支付记录
func (r *GormPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	return firstOrNil[models.Payment](r.db, id)
}

// GetByOrderID 订单的支付记录
func (r *GormPaymentRepository) GetByOrderID(orderID uint) (*models.Payment, error) {
	return firstOrNil[models.Payment](r.db.Where("order_id = ?", orderID))
}

// GetUnpaidByOrderID 订单尚未确认的支付记录
func (r *GormPaymentRepository) GetUnpaidByOrderID(orderID uint) (*models.Payment, error) {
	return firstOrNil[models.Payment](r.db.Where("order_id = ? AND is_paid = ?", orderID, false))
}

// MarkPaid 标记已支付，仅对未支付记录生效
func (r *GormPaymentRepository) MarkPaid(id uint, paidAt time.Time) (int64, error) {
	result := r.db.Model(&models.Payment{}).
		Where("id = ? AND is_paid = ?", id, false).
		Updates(map[string]interface{}{
			"is_paid": true,
			"paid_at": paidAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
