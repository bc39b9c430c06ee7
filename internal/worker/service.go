package worker

import (
	"context"
	"errors"
	"time"

	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	sweepInterval  = time.Minute
	sweepBatchSize = 100
)

// Service asynq 消费进程，附带草稿订单的定时补全
type Service struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
	interval time.Duration
}

// NewService 创建 worker 服务，队列未启用时报错
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("worker: queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("worker: consumer is nil")
	}
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server:   asynq.NewServer(queue.BuildServerConfig(cfg)),
		mux:      mux,
		consumer: consumer,
		interval: sweepInterval,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string { return "worker" }

// Start 启动消费并阻塞到 ctx 取消
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker: not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	if s.consumer.Resumer != nil {
		s.sweep(ctx)
	} else {
		<-ctx.Done()
	}
	return nil
}

// Stop 等待进行中的任务结束
func (s *Service) Stop(context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

// sweep 周期性补全卡在 draft 的订单，覆盖补偿任务丢失的情况
func (s *Service) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		resumed, err := s.consumer.Resumer.ResumeStale(ctx, sweepBatchSize)
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Warnw("worker_checkout_sweep_failed", "error", err)
		case resumed > 0:
			logger.Infow("worker_checkout_sweep", "resumed", resumed)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
