package router

import (
	"sort"
	"strings"

	"github.com/shelfwise/bookstore/internal/authz"
	"github.com/shelfwise/bookstore/internal/cache"
	"github.com/shelfwise/bookstore/internal/config"
	adminhandlers "github.com/shelfwise/bookstore/internal/http/handlers/admin"
	publichandlers "github.com/shelfwise/bookstore/internal/http/handlers/public"
	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/provider"

	"github.com/gin-gonic/gin"
)

const (
	apiPrefix          = "/api/v1"
	adminLoginPath     = apiPrefix + "/admin/login"
	defaultRedisPrefix = "bk"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.Z()
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = defaultRedisPrefix
	}
	redisClient := cache.Client()
	loginLimiter := NewRateLimiter(redisClient, redisPrefix+":rate:login", cfg.Security.LoginRateLimit)
	adminLoginLimiter := NewRateLimiter(redisClient, redisPrefix+":rate:admin_login", cfg.Security.LoginRateLimit)
	checkoutLimiter := NewRateLimiter(redisClient, redisPrefix+":rate:checkout", cfg.Security.CheckoutRateLimit)

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 签名后的封面等本地文件
	r.GET("/uploads/*key", publicHandler.ServeBlob)

	apiV1 := r.Group(apiPrefix)
	{
		// 图书目录（无需登录）
		apiV1.GET("/books", publicHandler.ListBooks)
		apiV1.GET("/books/:id", publicHandler.GetBook)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", loginLimiter.Middleware(KeyByBodyField("email"), "error.login_too_many"), publicHandler.UserLogin)
		}

		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserAuthService))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.GET("/addresses", publicHandler.ListAddresses)
			user.POST("/addresses", publicHandler.CreateAddress)

			user.GET("/cart", publicHandler.GetCart)
			user.DELETE("/cart", publicHandler.ClearCart)
			user.POST("/cart/items", publicHandler.AddCartItem)
			user.PATCH("/cart/items/:book_id", publicHandler.UpdateCartItem)
			user.DELETE("/cart/items/:book_id", publicHandler.RemoveCartItem)
			user.PUT("/cart/items/:book_id/check", publicHandler.CheckCartItem)
			user.PUT("/cart/check-all", publicHandler.CheckAllCartItems)

			user.POST("/checkout", checkoutLimiter.Middleware(KeyByUserID, "error.checkout_too_many"), publicHandler.Checkout)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)

			user.GET("/notifications", publicHandler.ListNotifications)
			user.POST("/notifications/:id/read", publicHandler.MarkNotificationRead)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", adminLoginLimiter.Middleware(KeyByBodyField("username"), "error.login_too_many"), adminHandler.AdminLogin)

			// 仅需登录
			session := admin.Group("")
			session.Use(AdminJWTAuthMiddleware(cfg.AdminJWT.SecretKey, c.AuthService))
			session.GET("/me", adminHandler.GetAdminMe)

			authorized := admin.Group("")
			authorized.Use(AdminJWTAuthMiddleware(cfg.AdminJWT.SecretKey, c.AuthService), AdminRBACMiddleware(c.AuthzService))
			{
				// 订单与履约
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.POST("/orders/:id/confirm-payment", adminHandler.AdminConfirmPayment)
				authorized.POST("/orders/:id/cancel", adminHandler.AdminCancelOrder)
				authorized.PATCH("/orders/:id/shipping", adminHandler.AdminUpdateShippingStatus)

				// 优惠码
				authorized.GET("/discounts", adminHandler.AdminListDiscounts)
				authorized.POST("/discounts", adminHandler.AdminCreateDiscount)
				authorized.PUT("/discounts/:id", adminHandler.AdminUpdateDiscount)

				// 权限管理
				authorized.GET("/authz/roles", adminHandler.AdminListRoles)
				authorized.GET("/authz/admins/:id/roles", adminHandler.AdminGetAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.AdminSetAdminRoles)
				authorized.GET("/authz/permissions", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 从已注册路由生成可授权的权限清单
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))
	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, apiPrefix+"/admin/") || item.Path == adminLoginPath {
			continue
		}
		object := authz.RouteObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module != items[j].Module {
			return items[i].Module < items[j].Module
		}
		if items[i].Object != items[j].Object {
			return items[i].Object < items[j].Object
		}
		return items[i].Method < items[j].Method
	})
	return items
}

// deriveAdminPermissionModule /admin/orders/:id -> orders
func deriveAdminPermissionModule(object string) string {
	segments := strings.Split(strings.Trim(strings.TrimSpace(object), "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "system"
	}
	if segments[0] != "admin" || len(segments) == 1 {
		return segments[0]
	}
	return segments[1]
}
