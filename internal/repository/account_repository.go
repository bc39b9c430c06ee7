package repository

import (
	"context"
	"strings"
	"time"

	"github.com/shelfwise/bookstore/internal/models"

	"gorm.io/gorm"
)

// UserRepository 买家账号
type UserRepository interface {
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	Create(user *models.User) error
	TouchLastLogin(id uint, at time.Time) error
	WithContext(ctx context.Context) UserRepository
}

// AdminRepository 后台账号
type AdminRepository interface {
	GetByUsername(username string) (*models.Admin, error)
	GetByID(id uint) (*models.Admin, error)
	Create(admin *models.Admin) error
	TouchLastLogin(id uint, at time.Time) error
	WithContext(ctx context.Context) AdminRepository
}

// NormalizeEmail 邮箱统一小写存储与查询
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithContext 绑定请求上下文
func (r *GormUserRepository) WithContext(ctx context.Context) UserRepository {
	if ctx == nil {
		return r
	}
	return &GormUserRepository{db: r.db.WithContext(ctx)}
}

// GetByEmail 邮箱不区分大小写
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	return firstOrNil[models.User](r.db.Where("email = ?", NormalizeEmail(email)))
}

func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	return firstOrNil[models.User](r.db, id)
}

func (r *GormUserRepository) Create(user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	return r.db.Create(user).Error
}

func (r *GormUserRepository) TouchLastLogin(id uint, at time.Time) error {
	return touchLastLogin(r.db, &models.User{}, id, at)
}

// GormAdminRepository GORM 实现
type GormAdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository 创建管理员仓库
func NewAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

// WithContext 绑定请求上下文
func (r *GormAdminRepository) WithContext(ctx context.Context) AdminRepository {
	if ctx == nil {
		return r
	}
	return &GormAdminRepository{db: r.db.WithContext(ctx)}
}

func (r *GormAdminRepository) GetByUsername(username string) (*models.Admin, error) {
	return firstOrNil[models.Admin](r.db.Where("username = ?", strings.TrimSpace(username)))
}

func (r *GormAdminRepository) GetByID(id uint) (*models.Admin, error) {
	return firstOrNil[models.Admin](r.db, id)
}

func (r *GormAdminRepository) Create(admin *models.Admin) error {
	return r.db.Create(admin).Error
}

func (r *GormAdminRepository) TouchLastLogin(id uint, at time.Time) error {
	return touchLastLogin(r.db, &models.Admin{}, id, at)
}

func touchLastLogin(db *gorm.DB, model interface{}, id uint, at time.Time) error {
	return db.Model(model).Where("id = ?", id).Update("last_login_at", at).Error
}
