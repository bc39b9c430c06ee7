package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shelfwise/bookstore/internal/constants"
	"github.com/shelfwise/bookstore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	GetByIDForUpdate(id uint) (*models.Order, error)
	FindResumable(userID uint) (*models.Order, error)
	ListResumable(limit int, createdBefore time.Time) ([]models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (int64, error)
	WithTx(tx *gorm.DB) OrderRepository
	WithContext(ctx context.Context) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormOrderRepository) WithContext(ctx context.Context) OrderRepository {
	if ctx == nil {
		return r
	}
	return &GormOrderRepository{db: r.db.WithContext(ctx)}
}

// attachRelations 按引用加载物流与支付记录
func (r *GormOrderRepository) attachRelations(orders []models.Order) error {
	shippingIDs := make([]uint, 0, len(orders))
	paymentIDs := make([]uint, 0, len(orders))
	for _, order := range orders {
		if order.ShippingID != nil {
			shippingIDs = append(shippingIDs, *order.ShippingID)
		}
		if order.PaymentID != nil {
			paymentIDs = append(paymentIDs, *order.PaymentID)
		}
	}
	shippings := make(map[uint]*models.Shipping, len(shippingIDs))
	if len(shippingIDs) > 0 {
		var rows []models.Shipping
		if err := r.db.Where("id IN ?", shippingIDs).Find(&rows).Error; err != nil {
			return err
		}
		for i := range rows {
			shippings[rows[i].ID] = &rows[i]
		}
	}
	payments := make(map[uint]*models.Payment, len(paymentIDs))
	if len(paymentIDs) > 0 {
		var rows []models.Payment
		if err := r.db.Where("id IN ?", paymentIDs).Find(&rows).Error; err != nil {
			return err
		}
		for i := range rows {
			payments[rows[i].ID] = &rows[i]
		}
	}
	for i := range orders {
		if orders[i].ShippingID != nil {
			orders[i].Shipping = shippings[*orders[i].ShippingID]
		}
		if orders[i].PaymentID != nil {
			orders[i].Payment = payments[*orders[i].PaymentID]
		}
	}
	return nil
}

func (r *GormOrderRepository) first(query *gorm.DB) (*models.Order, error) {
	var order models.Order
	if err := query.Preload("Items").First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	orders := []models.Order{order}
	if err := r.attachRelations(orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Omit("Items").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByIDAndUser 获取用户自己的订单
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	return r.first(r.db.Where("id = ? AND user_id = ?", id, userID))
}

// GetByIDForUpdate 在事务内加行锁读取订单；sqlite 忽略锁子句，由库级写锁串行
func (r *GormOrderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	return r.first(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// resumableCondition 草稿订单或缺少物流/支付引用的待支付订单
func resumableCondition(db *gorm.DB) *gorm.DB {
	return db.Where(
		"status = ? OR (status = ? AND (shipping_id IS NULL OR payment_id IS NULL))",
		constants.OrderStatusDraft, constants.OrderStatusPending,
	)
}

// FindResumable 获取用户未完成结算的订单
func (r *GormOrderRepository) FindResumable(userID uint) (*models.Order, error) {
	query := resumableCondition(r.db.Model(&models.Order{}).Where("user_id = ?", userID)).Order("id asc")
	return r.first(query)
}

// ListResumable 获取 createdBefore 之前创建、仍未完成结算的订单（后台补偿）
func (r *GormOrderRepository) ListResumable(limit int, createdBefore time.Time) ([]models.Order, error) {
	var orders []models.Order
	query := resumableCondition(r.db.Model(&models.Order{})).
		Where("created_at < ?", createdBefore).
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Preload("Items").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) list(query *gorm.DB, filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	query = query.Scopes(keywordMatch(filter.OrderNo, "order_no"))
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	if err := r.attachRelations(orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByUser 获取用户订单列表（草稿订单不可见）
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).
		Where("user_id = ? AND status <> ?", filter.UserID, constants.OrderStatusDraft)
	return r.list(query, filter)
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	return r.list(query, filter)
}

// UpdateFields 更新订单字段
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// TransitionStatus 条件状态流转：仅当当前状态属于 from 时更新
func (r *GormOrderRepository) TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	result := r.db.Model(&models.Order{}).Where("id = ? AND status IN ?", id, from).Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
