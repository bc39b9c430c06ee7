package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/shelfwise/bookstore/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// setupRepositoryTestDB 初始化单连接内存数据库
func setupRepositoryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Book{},
		&models.Cart{},
		&models.CartItem{},
		&models.Discount{},
		&models.Order{},
		&models.OrderItem{},
		&models.Shipping{},
		&models.Payment{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

func createTestBook(t *testing.T, db *gorm.DB, title string, price int64, available int) *models.Book {
	t.Helper()
	book := &models.Book{
		Title:             title,
		Author:            "Tester",
		Price:             models.NewMoneyFromDecimal(decimal.NewFromInt(price)),
		AvailableQuantity: available,
		IsActive:          true,
	}
	if err := db.Create(book).Error; err != nil {
		t.Fatalf("create book failed: %v", err)
	}
	return book
}

func reloadBook(t *testing.T, db *gorm.DB, id uint) models.Book {
	t.Helper()
	var book models.Book
	if err := db.First(&book, id).Error; err != nil {
		t.Fatalf("reload book failed: %v", err)
	}
	return book
}
