package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shelfwise/bookstore/internal/config"

	"github.com/segmentio/kafka-go"
)

// OrderEvent 订单实时事件
type OrderEvent struct {
	NotificationID uint                   `json:"notification_id"`
	UserID         uint                   `json:"user_id"`
	OrderID        uint                   `json:"order_id"`
	OrderNo        string                 `json:"order_no,omitempty"`
	Type           string                 `json:"type"`
	Title          string                 `json:"title"`
	Content        string                 `json:"content,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
	OccurredAt     time.Time              `json:"occurred_at"`
}

// Publisher 订单事件推送接口
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// MessageWriter kafka 写入接口
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 基于 kafka-go 的事件推送
type KafkaPublisher struct {
	writer MessageWriter
}

// NewPublisher 按配置创建推送器，未启用时返回空实现
func NewPublisher(cfg *config.KafkaConfig) Publisher {
	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		return NoopPublisher{}
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "bookstore-order-events"
	}
	return NewKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
	})
}

// NewKafkaPublisher 使用指定 writer 创建推送器
func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish 按用户 ID 分区写入，保证同一用户事件有序
func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	if p == nil || p.writer == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.UserID), 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close 关闭 writer
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// NoopPublisher 未启用 Kafka 时的空实现
type NoopPublisher struct{}

// Publish 丢弃事件
func (NoopPublisher) Publish(context.Context, OrderEvent) error { return nil }

// Close 无操作
func (NoopPublisher) Close() error { return nil }
