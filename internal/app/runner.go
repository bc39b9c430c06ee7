package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultStopTimeout = 10 * time.Second

var errServiceExited = errors.New("service exited")

// Service 随进程启停的长期运行组件（HTTP、asynq worker）
type Service interface {
	Name() string
	// Start 阻塞运行，ctx 取消后返回
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 并行运行多个 Service，任一退出即全部停止
type Runner struct {
	services    []Service
	stopTimeout time.Duration
	log         *zap.SugaredLogger
}

// NewRunner 创建运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services, stopTimeout: defaultStopTimeout, log: zap.NewNop().Sugar()}
}

// WithLogger 设置日志
func (r *Runner) WithLogger(log *zap.SugaredLogger) *Runner {
	if log != nil {
		r.log = log
	}
	return r
}

// WithStopTimeout 设置优雅停止的最长等待
func (r *Runner) WithStopTimeout(d time.Duration) *Runner {
	if d > 0 {
		r.stopTimeout = d
	}
	return r
}

// Run 阻塞直到 ctx 取消或某个服务退出；停止顺序与启动顺序相反
func (r *Runner) Run(ctx context.Context) error {
	if len(r.services) == 0 {
		return errors.New("no services to run")
	}
	for i, svc := range r.services {
		if svc == nil {
			return fmt.Errorf("service #%d is nil", i)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range r.services {
		svc := svc
		g.Go(func() error {
			r.log.Infow("service_start", "service", svc.Name())
			err := svc.Start(gctx)
			r.log.Infow("service_exit", "service", svc.Name(), "error", err)
			switch {
			case err != nil:
				return fmt.Errorf("%s: %w", svc.Name(), err)
			case gctx.Err() == nil:
				return fmt.Errorf("%s: %w", svc.Name(), errServiceExited)
			default:
				return nil
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), r.stopTimeout)
		defer cancel()
		for i := len(r.services) - 1; i >= 0; i-- {
			if err := r.services[i].Stop(stopCtx); err != nil {
				r.log.Errorw("service_stop_failed", "service", r.services[i].Name(), "error", err)
			}
		}
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
