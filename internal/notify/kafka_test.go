package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shelfwise/bookstore/internal/config"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherKeysByUser(t *testing.T) {
	writer := &recordingWriter{}
	publisher := NewKafkaPublisher(writer)

	err := publisher.Publish(context.Background(), OrderEvent{UserID: 42, OrderID: 7, Type: "order_paid", Title: "paid"})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("messages want 1 got %d", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "42" {
		t.Fatalf("message key want 42 got %s", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "order_paid" {
		t.Fatalf("unexpected headers: %+v", msg.Headers)
	}
	var decoded OrderEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode message failed: %v", err)
	}
	if decoded.OrderID != 7 || decoded.OccurredAt.IsZero() {
		t.Fatalf("unexpected event: %+v", decoded)
	}
	if err := publisher.Close(); err != nil || !writer.closed {
		t.Fatalf("close should close writer, err=%v", err)
	}
}

func TestKafkaPublisherPropagatesWriteError(t *testing.T) {
	writer := &recordingWriter{err: errors.New("broker down")}
	publisher := NewKafkaPublisher(writer)
	if err := publisher.Publish(context.Background(), OrderEvent{UserID: 1}); err == nil {
		t.Fatalf("publish should fail when writer fails")
	}
}

func TestNewPublisherDisabledReturnsNoop(t *testing.T) {
	publisher := NewPublisher(&config.KafkaConfig{Enabled: false})
	if _, ok := publisher.(NoopPublisher); !ok {
		t.Fatalf("disabled kafka should return noop publisher, got %T", publisher)
	}
	if err := publisher.Publish(context.Background(), OrderEvent{}); err != nil {
		t.Fatalf("noop publish failed: %v", err)
	}
}
