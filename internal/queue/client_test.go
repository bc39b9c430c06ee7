package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/constants"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("disabled client should report not enabled")
	}
	if err := client.EnqueueOrderNotify(OrderNotifyPayload{OrderID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	if err := client.EnqueueCheckoutResume(CheckoutResumePayload{OrderID: 1}, time.Second); err != nil {
		t.Fatalf("disabled enqueue should be noop, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should not be enabled")
	}
}

func TestNewOrderNotifyTaskPayload(t *testing.T) {
	task, err := NewOrderNotifyTask(OrderNotifyPayload{UserID: 3, OrderID: 9, OrderNo: "BK1", Type: constants.NotificationOrderCreated})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if task.Type() != TaskOrderNotify {
		t.Fatalf("task type want %s got %s", TaskOrderNotify, task.Type())
	}
	var decoded OrderNotifyPayload
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if decoded.OrderID != 9 || decoded.UserID != 3 || decoded.Type != constants.NotificationOrderCreated {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("default addr want 127.0.0.1:6379 got %s", opt.Addr)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("default concurrency want 10 got %d", cfg.Concurrency)
	}
	if cfg.Queues[constants.QueueCritical] == 0 || cfg.Queues[DefaultQueue] == 0 {
		t.Fatalf("default queues should include default and critical: %+v", cfg.Queues)
	}

	_, custom := BuildServerConfig(&config.QueueConfig{Host: "redis", Port: 6380, Concurrency: 3, Queues: map[string]int{"default": 4}})
	if custom.Concurrency != 3 || custom.Queues["default"] != 4 {
		t.Fatalf("custom config not applied: %+v", custom)
	}
}
