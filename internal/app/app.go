package app

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/provider"
	"github.com/shelfwise/bookstore/internal/router"
	"github.com/shelfwise/bookstore/internal/worker"

	"go.uber.org/zap"
)

// 运行模式
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

const (
	startupResumeTimeout = 30 * time.Second
	startupResumeLimit   = 500
)

// Options 启动参数
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
	// ResumeOnStart 启动时补全上次退出前未完成结算的订单
	ResumeOnStart bool
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.S()
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = defaultStopTimeout
	}
	switch o.Mode {
	case ModeAll, ModeAPI, ModeWorker:
	default:
		o.Mode = ModeAll
	}
	return o
}

// Run 组装依赖并运行到收到退出信号
func Run(opts Options) error {
	opts = opts.withDefaults()
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	container := provider.NewContainer(opts.Config)
	defer container.Close()

	services, err := buildServices(opts, container)
	if err != nil {
		return err
	}
	if opts.ResumeOnStart {
		resumeOnStartup(container, opts.Logger)
	}

	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, opts.Signals...)
		defer stop()
	}
	opts.Logger.Infow("app_start", "mode", opts.Mode, "services", len(services))
	return NewRunner(services...).
		WithLogger(opts.Logger).
		WithStopTimeout(opts.ShutdownTimeout).
		Run(ctx)
}

func buildServices(opts Options, container *provider.Container) ([]Service, error) {
	cfg := opts.Config
	var services []Service
	if opts.Mode != ModeWorker {
		addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
		services = append(services, NewHTTPService(addr, router.SetupRouter(cfg, container)))
	}
	if opts.Mode != ModeAPI {
		if cfg.Queue.Enabled {
			workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		} else {
			opts.Logger.Warnw("app_worker_skipped", "reason", "queue disabled", "mode", opts.Mode)
		}
	}
	if len(services) == 0 {
		return nil, errors.New("no services for mode " + opts.Mode)
	}
	return services, nil
}

func resumeOnStartup(container *provider.Container, log *zap.SugaredLogger) {
	if container.CheckoutService == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), startupResumeTimeout)
	defer cancel()
	resumed, err := container.CheckoutService.ResumeStale(ctx, startupResumeLimit)
	if err != nil {
		log.Warnw("app_startup_resume_failed", "error", err)
		return
	}
	log.Infow("app_startup_resume", "resumed", resumed)
}
