package main

import (
	"errors"
	"flag"
	"time"

	"github.com/shelfwise/bookstore/internal/authz"
	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/constants"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/service"

	"gorm.io/gorm"
)

type seedAdmin struct {
	Username string
	Password string
	IsSuper  bool
	Roles    []string
}

func main() {
	var withDemoUser bool
	flag.BoolVar(&withDemoUser, "demo-user", true, "同时创建带默认地址的演示用户")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Fatalf("Failed to bootstrap roles: %v", err)
	}

	seedAdmins(authzService, []seedAdmin{
		{Username: "admin", Password: "admin123", IsSuper: true},
		{Username: "auditor", Password: "auditor123", Roles: []string{"readonly_auditor"}},
		{Username: "warehouse", Password: "warehouse123", Roles: []string{"fulfillment"}},
		{Username: "cashier", Password: "cashier123", Roles: []string{"finance"}},
		{Username: "merchandiser", Password: "merchandiser123", Roles: []string{"catalog"}},
	})
	seedBooks()
	seedDiscounts()
	if withDemoUser {
		seedDemoUser()
	}
	logger.Infow("seed_completed")
}

func seedAdmins(authzService *authz.Service, admins []seedAdmin) {
	for _, item := range admins {
		var admin models.Admin
		err := models.DB.Where("username = ?", item.Username).First(&admin).Error
		switch {
		case err == nil:
			logger.Infow("seed_admin_exists", "username", item.Username)
		case errors.Is(err, gorm.ErrRecordNotFound):
			hash, hashErr := service.HashPassword(item.Password)
			if hashErr != nil {
				logger.Errorw("seed_admin_hash_failed", "username", item.Username, "error", hashErr)
				continue
			}
			admin = models.Admin{Username: item.Username, PasswordHash: hash, IsSuper: item.IsSuper}
			if createErr := models.DB.Create(&admin).Error; createErr != nil {
				logger.Errorw("seed_admin_create_failed", "username", item.Username, "error", createErr)
				continue
			}
			logger.Infow("seed_admin_created", "username", item.Username)
		default:
			logger.Errorw("seed_admin_lookup_failed", "username", item.Username, "error", err)
			continue
		}
		if len(item.Roles) == 0 {
			continue
		}
		if err := authzService.SetAdminRoles(admin.ID, item.Roles); err != nil {
			logger.Errorw("seed_admin_roles_failed", "username", item.Username, "error", err)
		}
	}
}

func seedBooks() {
	books := []models.Book{
		{Title: "The Go Programming Language", Author: "Alan Donovan", Price: models.NewMoneyFromInt(45), ImageCover: "covers/gopl.jpg", AvailableQuantity: 50, IsActive: true},
		{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", Price: models.NewMoneyFromInt(60), PriceDiscount: models.NewMoneyFromInt(8), ImageCover: "covers/ddia.jpg", AvailableQuantity: 30, IsActive: true},
		{Title: "Concurrency in Go", Author: "Katherine Cox-Buday", Price: models.NewMoneyFromInt(38), ImageCover: "covers/cig.jpg", AvailableQuantity: 20, IsActive: true},
		{Title: "三体", Author: "刘慈欣", Price: models.NewMoneyFromInt(23), ImageCover: "covers/santi.jpg", AvailableQuantity: 100, IsActive: true},
		{Title: "Out of Print Classic", Author: "Anonymous", Price: models.NewMoneyFromInt(99), AvailableQuantity: 0, IsActive: false},
	}
	for _, book := range books {
		var existing models.Book
		err := models.DB.Where("title = ?", book.Title).First(&existing).Error
		if err == nil {
			logger.Infow("seed_book_exists", "title", book.Title)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Errorw("seed_book_lookup_failed", "title", book.Title, "error", err)
			continue
		}
		book := book
		if err := models.DB.Create(&book).Error; err != nil {
			logger.Errorw("seed_book_create_failed", "title", book.Title, "error", err)
			continue
		}
		logger.Infow("seed_book_created", "title", book.Title, "id", book.ID)
	}
}

func seedDiscounts() {
	now := time.Now()
	nextQuarter := now.AddDate(0, 3, 0)
	discounts := []models.Discount{
		{Code: "WELCOME10", Name: "新用户九折", Type: constants.DiscountTypePercentage, Value: models.NewMoneyFromInt(10), MaxDiscountValue: models.NewMoneyFromInt(20), Quantity: 1000, IsActive: true},
		{Code: "SAVE15", Name: "满 100 减 15", Type: constants.DiscountTypeFixed, Value: models.NewMoneyFromInt(15), MinRequiredValue: models.NewMoneyFromInt(100), Quantity: 200, StartDate: &now, EndDate: &nextQuarter, IsActive: true},
	}
	for _, discount := range discounts {
		var existing models.Discount
		err := models.DB.Where("code = ?", discount.Code).First(&existing).Error
		if err == nil {
			logger.Infow("seed_discount_exists", "code", discount.Code)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Errorw("seed_discount_lookup_failed", "code", discount.Code, "error", err)
			continue
		}
		discount := discount
		if err := models.DB.Create(&discount).Error; err != nil {
			logger.Errorw("seed_discount_create_failed", "code", discount.Code, "error", err)
			continue
		}
		logger.Infow("seed_discount_created", "code", discount.Code)
	}
}

func seedDemoUser() {
	const email = "reader@example.com"
	var user models.User
	err := models.DB.Where("email = ?", email).First(&user).Error
	if err == nil {
		logger.Infow("seed_user_exists", "email", email)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Errorw("seed_user_lookup_failed", "email", email, "error", err)
		return
	}
	hash, err := service.HashPassword("reader123")
	if err != nil {
		logger.Errorw("seed_user_hash_failed", "error", err)
		return
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		user = models.User{Email: email, PasswordHash: hash, DisplayName: "Demo Reader", Status: constants.UserStatusActive}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Address{
			UserID:       user.ID,
			Name:         "Demo Reader",
			Phone:        "13800000000",
			Description:  "1 Library Road",
			CityName:     "Hangzhou",
			ProvinceName: "Zhejiang",
			DistanceKm:   12,
			IsDefault:    true,
		}).Error
	})
	if err != nil {
		logger.Errorw("seed_user_create_failed", "email", email, "error", err)
		return
	}
	logger.Infow("seed_user_created", "email", email, "user_id", user.ID)
}
