//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shelfwise/bookstore/internal/constants"
	"github.com/shelfwise/bookstore/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.CartItem{},
		&models.Cart{},
		&models.OrderItem{},
		&models.Shipping{},
		&models.Payment{},
		&models.Order{},
		&models.Discount{},
		&models.Book{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.Book{},
		&models.Discount{},
		&models.Order{},
		&models.OrderItem{},
		&models.Shipping{},
		&models.Payment{},
		&models.Cart{},
		&models.CartItem{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresBookSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewBookRepository(db)
	book := &models.Book{
		Title:             "The Go Programming Language",
		Author:            "Donovan",
		Price:             models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		AvailableQuantity: 3,
		IsActive:          true,
	}
	if err := repo.Create(book); err != nil {
		t.Fatalf("create book failed: %v", err)
	}

	rows, total, err := repo.List(BookListFilter{Page: 1, PageSize: 10, Search: "programming"})
	if err != nil {
		t.Fatalf("list books failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("search want 1 got total=%d len=%d", total, len(rows))
	}
}

func TestPostgresConcurrentReserveAndConsume(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	bookRepo := NewBookRepository(db)
	discountRepo := NewDiscountRepository(db)

	book := &models.Book{
		Title:             "Contended",
		Price:             models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		AvailableQuantity: 4,
		IsActive:          true,
	}
	if err := bookRepo.Create(book); err != nil {
		t.Fatalf("create book failed: %v", err)
	}
	discount := &models.Discount{
		Code:     "PGRACE",
		Type:     constants.DiscountTypePercentage,
		Value:    models.NewMoneyFromInt(10),
		Quantity: 2,
		IsActive: true,
	}
	if err := discountRepo.Create(discount); err != nil {
		t.Fatalf("create discount failed: %v", err)
	}

	var reserved, consumed int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if affected, err := bookRepo.ReserveStock(book.ID, 1); err == nil {
				atomic.AddInt64(&reserved, affected)
			} else {
				t.Errorf("reserve failed: %v", err)
			}
			if affected, err := discountRepo.Consume(discount.ID); err == nil {
				atomic.AddInt64(&consumed, affected)
			} else {
				t.Errorf("consume failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if reserved != 4 || consumed != 2 {
		t.Fatalf("want reserved=4 consumed=2 got %d/%d", reserved, consumed)
	}
	var got models.Book
	if err := db.First(&got, book.ID).Error; err != nil {
		t.Fatalf("reload book failed: %v", err)
	}
	if got.AvailableQuantity != 0 || got.ReservedQuantity != 4 {
		t.Fatalf("want available=0 reserved=4 got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
}
