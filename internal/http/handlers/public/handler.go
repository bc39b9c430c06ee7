package public

import (
	handlershared "github.com/shelfwise/bookstore/internal/http/handlers/shared"
	"github.com/shelfwise/bookstore/internal/i18n"
	"github.com/shelfwise/bookstore/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 前台接口：图书浏览、注册登录、购物车、结算与订单
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.Principal(c, "user_id")
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondMapped(c *gin.Context, err error, fallbackCode int, fallbackKey string) {
	handlershared.RespondMapped(c, err, handlershared.CommonErrorRules, fallbackCode, fallbackKey)
}

func requestLocale(c *gin.Context) string {
	return i18n.ResolveLocale(c)
}

func requestLogFor(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}
