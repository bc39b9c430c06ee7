package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	LocaleZhCN    = "zh-CN"
	LocaleEnUS    = "en-US"
	DefaultLocale = LocaleZhCN
)

var messages = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":                     "请求参数错误",
		"error.unauthorized":                    "未登录或登录已过期",
		"error.forbidden":                       "无权限访问",
		"error.auth_header_missing":             "缺少 Authorization 请求头",
		"error.auth_header_invalid":             "Authorization 格式错误",
		"error.token_invalid":                   "Token 无效",
		"error.jwt_secret_missing":              "服务端未配置 JWT 密钥",
		"error.user_disabled":                   "账号已被禁用",
		"error.login_invalid":                   "账号或密码错误",
		"error.login_failed":                    "登录失败",
		"error.rate_limited":                    "请求过于频繁，请 %d 秒后再试",
		"error.book_not_found":                  "图书不存在",
		"error.cart_item_not_found":             "购物车中没有该图书",
		"error.cart_fetch_failed":               "获取购物车失败",
		"error.cart_update_failed":              "更新购物车失败",
		"error.cart_empty":                      "购物车中没有选中的商品",
		"error.quantity_invalid":                "数量无效",
		"error.insufficient_stock":              "库存不足",
		"error.no_default_address":              "请先设置默认收货地址",
		"error.checkout_failed":                 "下单失败",
		"error.checkout_partial":                "订单已创建但未完成，系统将自动重试",
		"error.tracking_number_exhausted":       "生成物流单号失败",
		"error.order_not_found":                 "订单不存在",
		"error.order_fetch_failed":              "获取订单失败",
		"error.order_update_failed":             "更新订单失败",
		"error.order_status_invalid":            "订单状态不允许该操作",
		"error.payment_not_found":               "没有待支付的支付记录",
		"error.shipping_not_found":              "物流记录不存在",
		"error.shipping_status_invalid":         "物流状态不允许该操作",
		"error.discount_not_found":              "优惠码不存在",
		"error.discount_invalid":                "优惠码参数无效",
		"error.discount_code_exists":            "优惠码已存在",
		"error.discount_save_failed":            "保存优惠码失败",
		"error.notification_not_found":          "通知不存在",
		"error.notification_fetch_failed":       "获取通知失败",
		"error.notification_update_failed":      "更新通知失败",
		"error.payment_method_invalid":          "支付方式无效",
		"error.storage_failed":                  "数据存储异常",
		"error.internal":                        "服务器内部错误",
		"notification.order_created.title":      "订单已提交",
		"notification.order_paid.title":         "订单已支付",
		"notification.order_cancelled.title":    "订单已取消",
		"notification.shipping_updated.title":   "物流状态更新",
		"notification.order_created.content":    "订单 %s 已提交，请尽快完成支付",
		"notification.order_paid.content":       "订单 %s 已支付，我们会尽快发货",
		"notification.order_cancelled.content":  "订单 %s 已取消",
		"notification.shipping_updated.content": "订单 %s 的物流状态已更新",
		"error.cart_conflict":                   "购物车已被修改，请刷新后重试",
		"error.blob_signature_invalid":          "访问链接无效或已过期",
		"error.email_invalid":                   "邮箱格式错误",
		"error.email_exists":                    "该邮箱已注册",
		"error.password_weak":                   "密码至少需要 8 位",
		"error.register_failed":                 "注册失败",
		"error.login_too_many":                  "登录尝试过于频繁，请 %d 秒后再试",
		"error.checkout_too_many":               "下单过于频繁，请 %d 秒后再试",
		"error.address_invalid":                 "收货地址信息不完整",
		"error.address_fetch_failed":            "获取收货地址失败",
		"error.address_save_failed":             "保存收货地址失败",
		"error.book_fetch_failed":               "获取图书失败",
		"error.user_fetch_failed":               "获取用户信息失败",
		"error.role_fetch_failed":               "获取角色失败",
		"error.role_save_failed":                "保存角色失败",
		"error.role_invalid":                    "角色不存在或名称无效",
		"error.not_found":                       "资源不存在",
	},
	LocaleEnUS: {
		"error.bad_request":                     "Invalid request parameters",
		"error.unauthorized":                    "Not signed in or session expired",
		"error.forbidden":                       "Access denied",
		"error.auth_header_missing":             "Missing Authorization header",
		"error.auth_header_invalid":             "Malformed Authorization header",
		"error.token_invalid":                   "Invalid token",
		"error.jwt_secret_missing":              "JWT secret is not configured",
		"error.user_disabled":                   "Account disabled",
		"error.login_invalid":                   "Wrong account or password",
		"error.login_failed":                    "Login failed",
		"error.rate_limited":                    "Too many requests, retry in %d seconds",
		"error.book_not_found":                  "Book not found",
		"error.cart_item_not_found":             "Book is not in the cart",
		"error.cart_fetch_failed":               "Failed to load cart",
		"error.cart_update_failed":              "Failed to update cart",
		"error.cart_empty":                      "No checked items in the cart",
		"error.quantity_invalid":                "Invalid quantity",
		"error.insufficient_stock":              "Not enough stock",
		"error.no_default_address":              "Please set a default shipping address",
		"error.checkout_failed":                 "Checkout failed",
		"error.checkout_partial":                "Order created but not completed, it will be retried",
		"error.tracking_number_exhausted":       "Failed to allocate a tracking number",
		"error.order_not_found":                 "Order not found",
		"error.order_fetch_failed":              "Failed to load order",
		"error.order_update_failed":             "Failed to update order",
		"error.order_status_invalid":            "Order status does not allow this action",
		"error.payment_not_found":               "No unpaid payment for this order",
		"error.shipping_not_found":              "Shipping record not found",
		"error.shipping_status_invalid":         "Shipping status does not allow this action",
		"error.discount_not_found":              "Discount code not found",
		"error.discount_invalid":                "Invalid discount parameters",
		"error.discount_code_exists":            "Discount code already exists",
		"error.discount_save_failed":            "Failed to save discount",
		"error.notification_not_found":          "Notification not found",
		"error.notification_fetch_failed":       "Failed to load notifications",
		"error.notification_update_failed":      "Failed to update notification",
		"error.payment_method_invalid":          "Invalid payment method",
		"error.storage_failed":                  "Storage error",
		"error.internal":                        "Internal server error",
		"notification.order_created.title":      "Order placed",
		"notification.order_paid.title":         "Order paid",
		"notification.order_cancelled.title":    "Order cancelled",
		"notification.shipping_updated.title":   "Shipping updated",
		"notification.order_created.content":    "Order %s has been placed, please complete the payment",
		"notification.order_paid.content":       "Order %s has been paid and will ship soon",
		"notification.order_cancelled.content":  "Order %s has been cancelled",
		"notification.shipping_updated.content": "Shipping status of order %s has changed",
		"error.cart_conflict":                   "Cart changed, please refresh and retry",
		"error.blob_signature_invalid":          "Link is invalid or expired",
		"error.email_invalid":                   "Invalid email address",
		"error.email_exists":                    "Email already registered",
		"error.password_weak":                   "Password must be at least 8 characters",
		"error.register_failed":                 "Registration failed",
		"error.login_too_many":                  "Too many login attempts, retry in %d seconds",
		"error.checkout_too_many":               "Too many checkout attempts, retry in %d seconds",
		"error.address_invalid":                 "Incomplete shipping address",
		"error.address_fetch_failed":            "Failed to load addresses",
		"error.address_save_failed":             "Failed to save address",
		"error.book_fetch_failed":               "Failed to load books",
		"error.user_fetch_failed":               "Failed to load user",
		"error.role_fetch_failed":               "Failed to load roles",
		"error.role_save_failed":                "Failed to save roles",
		"error.role_invalid":                    "Unknown or invalid role",
		"error.not_found":                       "Resource not found",
	},
}

// ResolveLocale 从请求头解析语言
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if locale := normalizeLocale(c.GetHeader("X-Locale")); locale != "" {
		return locale
	}
	header := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if locale := normalizeLocale(tag); locale != "" {
			return locale
		}
	}
	return DefaultLocale
}

// T 翻译消息 key，找不到时回退默认语言，再回退 key 本身
func T(locale, key string) string {
	if table, ok := messages[normalizeLocale(locale)]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化消息
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func normalizeLocale(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "":
		return ""
	case strings.HasPrefix(value, "zh"):
		return LocaleZhCN
	case strings.HasPrefix(value, "en"):
		return LocaleEnUS
	default:
		return ""
	}
}
