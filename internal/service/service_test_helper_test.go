package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/constants"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/queue"
	"github.com/shelfwise/bookstore/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// setupServiceTestDB 初始化单连接内存数据库并替换全局 DB
func setupServiceTestDB(t *testing.T, name string) *gorm.DB {
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
		&models.Admin{},
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
	previous := models.DB
	models.DB = db
	t.Cleanup(func() {
		models.DB = previous
		_ = sqlDB.Close()
	})
	return db
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []queue.OrderNotifyPayload
}

func (n *recordingNotifier) EnqueueOrderNotify(payload queue.OrderNotifyPayload, _ ...asynq.Option) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	return nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := make([]string, 0, len(n.payloads))
	for _, payload := range n.payloads {
		result = append(result, payload.Type)
	}
	return result
}

type recordingResumer struct {
	mu       sync.Mutex
	payloads []queue.CheckoutResumePayload
}

func (r *recordingResumer) EnqueueCheckoutResume(payload queue.CheckoutResumePayload, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
	return nil
}

type serviceFixture struct {
	db        *gorm.DB
	books     repository.BookRepository
	ledger    *InventoryLedger
	cart      *CartService
	discounts *DiscountService
	checkout  *CheckoutService
	orders    *OrderService
	notifier  *recordingNotifier
	resumer   *recordingResumer
}

func newServiceFixture(t *testing.T, name string, checkoutOpts CheckoutServiceOptions) *serviceFixture {
	t.Helper()
	db := setupServiceTestDB(t, name)
	bookRepo := repository.NewBookRepository(db)
	cartRepo := repository.NewCartRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	shippingRepo := repository.NewShippingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	ledger := NewInventoryLedger(bookRepo)
	blobStore := NewLocalBlobStore(config.BlobConfig{BaseURL: "/uploads", Secret: "test-secret", TTLSeconds: 60})
	cartService := NewCartService(cartRepo, bookRepo, ledger, blobStore, CartServiceOptions{})
	discountService := NewDiscountService(repository.NewDiscountRepository(db))
	calculator := NewShippingCalculator(config.ShippingConfig{BaseFee: 10, PerKmFee: 0.5})
	notifier := &recordingNotifier{}
	resumer := &recordingResumer{}

	return &serviceFixture{
		db:        db,
		books:     bookRepo,
		ledger:    ledger,
		cart:      cartService,
		discounts: discountService,
		checkout: NewCheckoutService(cartRepo, addressRepo, orderRepo, shippingRepo, paymentRepo,
			cartService, discountService, calculator, notifier, resumer, checkoutOpts),
		orders:   NewOrderService(orderRepo, shippingRepo, paymentRepo, ledger, notifier, 0),
		notifier: notifier,
		resumer:  resumer,
	}
}

func createServiceBook(t *testing.T, db *gorm.DB, title string, price int64, available int) *models.Book {
	t.Helper()
	book := &models.Book{
		Title:             title,
		Author:            "Tester",
		Price:             models.NewMoneyFromInt(price),
		ImageCover:        "covers/" + title + ".jpg",
		AvailableQuantity: available,
		IsActive:          true,
	}
	if err := db.Create(book).Error; err != nil {
		t.Fatalf("create book failed: %v", err)
	}
	return book
}

// createServiceUser 创建带默认地址的用户，distanceKm 决定运费
func createServiceUser(t *testing.T, db *gorm.DB, email string, distanceKm float64) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "x", Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	address := &models.Address{
		UserID:      user.ID,
		Name:        "Reader",
		Phone:       "13800000000",
		Description: "1 Library Road",
		CityName:    "Hangzhou",
		DistanceKm:  distanceKm,
		IsDefault:   true,
	}
	if err := db.Create(address).Error; err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	return user
}

func createServiceDiscount(t *testing.T, db *gorm.DB, code, discountType string, value, minRequired int64, quantity int) *models.Discount {
	t.Helper()
	discount := &models.Discount{
		Code:             code,
		Name:             code,
		Type:             discountType,
		Value:            models.NewMoneyFromInt(value),
		MinRequiredValue: models.NewMoneyFromInt(minRequired),
		Quantity:         quantity,
		IsActive:         true,
	}
	if err := db.Create(discount).Error; err != nil {
		t.Fatalf("create discount failed: %v", err)
	}
	return discount
}

func reloadServiceBook(t *testing.T, db *gorm.DB, id uint) models.Book {
	t.Helper()
	var book models.Book
	if err := db.First(&book, id).Error; err != nil {
		t.Fatalf("reload book failed: %v", err)
	}
	return book
}

func countCartItems(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var count int64
	err := db.Model(&models.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count cart items failed: %v", err)
	}
	return count
}

func assertMoney(t *testing.T, field string, got models.Money, want string) {
	t.Helper()
	expected, err := decimal.NewFromString(want)
	if err != nil {
		t.Fatalf("bad expected money %q: %v", want, err)
	}
	if !got.Decimal.Equal(expected) {
		t.Fatalf("%s want %s got %s", field, want, got.String())
	}
}
