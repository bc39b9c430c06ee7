package main

import (
	"flag"
	"os"
	"strings"
	"syscall"

	"github.com/shelfwise/bookstore/internal/app"
	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/models"

	"github.com/gin-gonic/gin"
)

func main() {
	var mode string
	var skipResume bool
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.BoolVar(&skipResume, "skip-resume", false, "启动时不补全未完成结算的订单")
	flag.Parse()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	for name, secret := range map[string]string{
		"user_jwt.secret":  cfg.UserJWT.SecretKey,
		"admin_jwt.secret": cfg.AdminJWT.SecretKey,
		"blob.secret":      cfg.Blob.Secret,
	} {
		if !isWeakSecret(secret) {
			continue
		}
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("%s 过弱或仍为默认值，请在生产环境中配置强随机密钥", name)
		}
		logger.Warnw("weak_secret_configured", "key", name)
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database, cfg.Server.Mode == "debug"); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 空库时创建超级管理员
	adminUser := os.Getenv("BK_DEFAULT_ADMIN_USERNAME")
	adminPass := os.Getenv("BK_DEFAULT_ADMIN_PASSWORD")
	if adminPass == "" && cfg.Server.Mode != "release" {
		adminPass = "admin123"
	}
	if adminPass == "" {
		logger.Warnw("default_admin_skipped", "reason", "BK_DEFAULT_ADMIN_PASSWORD not set")
	} else if created, err := models.EnsureSuperAdmin(adminUser, adminPass); err != nil {
		logger.Warnw("default_admin_init_failed", "error", err)
	} else if created {
		logger.Infow("default_admin_created", "username", adminUser, "default_password", adminPass == "admin123")
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:        cfg,
		Logger:        logger.S(),
		Signals:       []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:          mode,
		ResumeOnStart: !skipResume && mode != app.ModeAPI,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key")
}
