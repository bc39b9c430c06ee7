package queue

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/constants"
	"github.com/shelfwise/bookstore/internal/logger"

	"github.com/hibiken/asynq"
)

// DefaultQueue 默认队列名称
const DefaultQueue = constants.QueueDefault

const (
	defaultConcurrency = 10
	resumeMaxRetry     = 10
	resumeUniqueTTL    = time.Minute
)

// Client asynq 投递端；未启用时所有投递都是空操作
type Client struct {
	inner *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{inner: asynq.NewClient(RedisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.inner != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.inner.Close()
}

// EnqueueOrderNotify 投递订单通知
func (c *Client) EnqueueOrderNotify(payload OrderNotifyPayload, opts ...asynq.Option) error {
	return c.enqueue(TaskOrderNotify, payload, append([]asynq.Option{asynq.Queue(DefaultQueue)}, opts...))
}

// EnqueueCheckoutResume 投递结算补偿，同一订单在去重窗口内只保留一个任务
func (c *Client) EnqueueCheckoutResume(payload CheckoutResumePayload, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	err := c.enqueue(TaskCheckoutResume, payload, []asynq.Option{
		asynq.Queue(constants.QueueCritical),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(resumeMaxRetry),
		asynq.Unique(resumeUniqueTTL),
	})
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func (c *Client) enqueue(kind string, payload any, opts []asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := newTask(kind, payload)
	if err != nil {
		return err
	}
	info, err := c.inner.Enqueue(task, opts...)
	if err != nil {
		return err
	}
	logger.Debugw("queue_task_enqueued", "type", kind, "task_id", info.ID, "queue", info.Queue)
	return nil
}

// BuildServerConfig worker 端的连接与并发配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultConcurrency,
		Queues:      map[string]int{DefaultQueue: 1, constants.QueueCritical: 2},
		Logger:      logger.S().Named("asynq"),
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Warnw("queue_task_failed", "type", task.Type(), "error", err)
		}),
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return RedisOpt(cfg), serverCfg
}

// RedisOpt 队列使用的 redis 连接参数，默认 127.0.0.1:6379
func RedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host, port := strings.TrimSpace(cfg.Host), cfg.Port
	if host == "" {
		host = "127.0.0.1"
	}
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
