package admin

import (
	handlershared "github.com/shelfwise/bookstore/internal/http/handlers/shared"
	"github.com/shelfwise/bookstore/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 后台接口：订单履约、优惠码、角色授权
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.Principal(c, "admin_id")
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondMapped(c *gin.Context, err error, fallbackCode int, fallbackKey string) {
	handlershared.RespondMapped(c, err, handlershared.CommonErrorRules, fallbackCode, fallbackKey)
}
