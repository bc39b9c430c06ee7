package repository

import (
	"context"
	"errors"

	"github.com/shelfwise/bookstore/internal/models"

	"gorm.io/gorm"
)

// ErrInvalidStockParams 库存操作参数非法
var ErrInvalidStockParams = errors.New("invalid stock params")

// BookRepository 图书与库存台账数据访问接口
type BookRepository interface {
	List(filter BookListFilter) ([]models.Book, int64, error)
	GetByID(id uint) (*models.Book, error)
	ListByIDs(ids []uint) ([]models.Book, error)
	Create(book *models.Book) error
	Update(book *models.Book) error
	ReserveStock(bookID uint, quantity int) (int64, error)
	ReleaseStock(bookID uint, quantity int) (int64, error)
	CommitStock(bookID uint, quantity int) (int64, error)
	WithTx(tx *gorm.DB) BookRepository
	WithContext(ctx context.Context) BookRepository
}

// GormBookRepository GORM 实现
type GormBookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓库
func NewBookRepository(db *gorm.DB) *GormBookRepository {
	return &GormBookRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBookRepository) WithTx(tx *gorm.DB) BookRepository {
	if tx == nil {
		return r
	}
	return &GormBookRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormBookRepository) WithContext(ctx context.Context) BookRepository {
	if ctx == nil {
		return r
	}
	return &GormBookRepository{db: r.db.WithContext(ctx)}
}

// List 图书列表
func (r *GormBookRepository) List(filter BookListFilter) ([]models.Book, int64, error) {
	var books []models.Book
	query := r.db.Model(&models.Book{})
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	query = query.Scopes(keywordMatch(filter.Search, "title", "author"))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("id desc").Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// GetByID 根据 ID 获取图书
func (r *GormBookRepository) GetByID(id uint) (*models.Book, error) {
	var book models.Book
	if err := r.db.First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &book, nil
}

// ListByIDs 批量获取图书
func (r *GormBookRepository) ListByIDs(ids []uint) ([]models.Book, error) {
	if len(ids) == 0 {
		return []models.Book{}, nil
	}
	var books []models.Book
	if err := r.db.Where("id IN ?", ids).Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// Create 创建图书
func (r *GormBookRepository) Create(book *models.Book) error {
	return r.db.Create(book).Error
}

// Update 更新图书基础信息（不含库存字段）
func (r *GormBookRepository) Update(book *models.Book) error {
	return r.db.Model(book).
		Select("title", "author", "price", "price_discount", "image_cover", "is_active").
		Updates(book).Error
}

// ReserveStock 占用库存：available -> reserved，available 不足时不更新
func (r *GormBookRepository) ReserveStock(bookID uint, quantity int) (int64, error) {
	if bookID == 0 || quantity <= 0 {
		return 0, ErrInvalidStockParams
	}
	result := r.db.Model(&models.Book{}).
		Where("id = ? AND available_quantity >= ?", bookID, quantity).
		Updates(map[string]interface{}{
			"available_quantity": gorm.Expr("available_quantity - ?", quantity),
			"reserved_quantity":  gorm.Expr("reserved_quantity + ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReleaseStock 释放库存：reserved -> available
func (r *GormBookRepository) ReleaseStock(bookID uint, quantity int) (int64, error) {
	if bookID == 0 || quantity <= 0 {
		return 0, ErrInvalidStockParams
	}
	result := r.db.Model(&models.Book{}).
		Where("id = ? AND reserved_quantity >= ?", bookID, quantity).
		Updates(map[string]interface{}{
			"available_quantity": gorm.Expr("available_quantity + ?", quantity),
			"reserved_quantity":  gorm.Expr("reserved_quantity - ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CommitStock 确认售出：reserved -> sold，不再扣减 available
func (r *GormBookRepository) CommitStock(bookID uint, quantity int) (int64, error) {
	if bookID == 0 || quantity <= 0 {
		return 0, ErrInvalidStockParams
	}
	result := r.db.Model(&models.Book{}).
		Where("id = ? AND reserved_quantity >= ?", bookID, quantity).
		Updates(map[string]interface{}{
			"reserved_quantity": gorm.Expr("reserved_quantity - ?", quantity),
			"sold_quantity":     gorm.Expr("sold_quantity + ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
