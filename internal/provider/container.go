package provider

import (
	"context"
	"time"

	"github.com/shelfwise/bookstore/internal/authz"
	"github.com/shelfwise/bookstore/internal/cache"
	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/notify"
	"github.com/shelfwise/bookstore/internal/queue"
	"github.com/shelfwise/bookstore/internal/repository"
	"github.com/shelfwise/bookstore/internal/service"

	"github.com/hibiken/asynq"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Publisher   notify.Publisher

	// Repositories
	AdminRepo        repository.AdminRepository
	UserRepo         repository.UserRepository
	AddressRepo      repository.AddressRepository
	BookRepo         repository.BookRepository
	CartRepo         repository.CartRepository
	DiscountRepo     repository.DiscountRepository
	OrderRepo        repository.OrderRepository
	ShippingRepo     repository.ShippingRepository
	PaymentRepo      repository.PaymentRepository
	NotificationRepo repository.NotificationRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	UserAuthService     *service.UserAuthService
	BlobStore           *service.LocalBlobStore
	Ledger              *service.InventoryLedger
	BookService         *service.BookService
	AddressService      *service.AddressService
	CartService         *service.CartService
	DiscountService     *service.DiscountService
	ShippingCalculator  *service.ShippingCalculator
	CheckoutService     *service.CheckoutService
	OrderService        *service.OrderService
	NotificationService *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Publisher:   notify.NewPublisher(&cfg.Kafka),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			logger.Warnw("provider_close_publisher_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.BookRepo = repository.NewBookRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.DiscountRepo = repository.NewDiscountRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ShippingRepo = repository.NewShippingRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	cfg := c.Config
	c.AuthService = service.NewAuthService(cfg.AdminJWT, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(cfg.UserJWT, c.UserRepo)
	c.BlobStore = service.NewLocalBlobStore(cfg.Blob)
	c.Ledger = service.NewInventoryLedger(c.BookRepo)
	c.BookService = service.NewBookService(c.BookRepo, c.BlobStore)
	c.AddressService = service.NewAddressService(c.AddressRepo)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.Publisher)
	c.CartService = service.NewCartService(c.CartRepo, c.BookRepo, c.Ledger, c.BlobStore, service.CartServiceOptions{
		UpdateMaxRetries:     cfg.Checkout.CartUpdateMaxRetries,
		ContentionMaxRetries: cfg.Inventory.MaxRetries,
		CacheTTL:             time.Duration(cfg.CartCache.TTLSeconds) * time.Second,
	})
	c.DiscountService = service.NewDiscountService(c.DiscountRepo)
	c.ShippingCalculator = service.NewShippingCalculator(cfg.Shipping)

	notifier := c.orderNotifySink()
	c.CheckoutService = service.NewCheckoutService(
		c.CartRepo,
		c.AddressRepo,
		c.OrderRepo,
		c.ShippingRepo,
		c.PaymentRepo,
		c.CartService,
		c.DiscountService,
		c.ShippingCalculator,
		notifier,
		c.QueueClient,
		service.CheckoutServiceOptions{
			TrackingNumberLength:      cfg.Checkout.TrackingNumberLength,
			TrackingNumberMaxAttempts: cfg.Checkout.TrackingNumberMaxAttempts,
			ContentionMaxRetries:      cfg.Inventory.MaxRetries,
			StaleAfter:                time.Duration(cfg.Checkout.StaleAfterSeconds) * time.Second,
		},
	)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ShippingRepo, c.PaymentRepo, c.Ledger, notifier, cfg.Inventory.MaxRetries)
}

// orderNotifySink 队列可用时异步投递，否则同步写入站内通知
func (c *Container) orderNotifySink() service.NotificationSink {
	if c.QueueClient.Enabled() {
		return c.QueueClient
	}
	return inlineNotifier{notifications: c.NotificationService}
}

type inlineNotifier struct {
	notifications *service.NotificationService
}

func (n inlineNotifier) EnqueueOrderNotify(payload queue.OrderNotifyPayload, _ ...asynq.Option) error {
	_, err := n.notifications.Record(context.Background(), payload)
	return err
}
