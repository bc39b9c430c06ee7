package queue

import (
	"encoding/json"
	"fmt"

	"github.com/shelfwise/bookstore/internal/constants"

	"github.com/hibiken/asynq"
)

// 任务类型
const (
	TaskOrderNotify    = constants.TaskOrderNotify
	TaskCheckoutResume = constants.TaskCheckoutResume
)

// OrderNotifyPayload 订单状态变化后给买家的站内通知
type OrderNotifyPayload struct {
	UserID  uint                   `json:"user_id"`
	OrderID uint                   `json:"order_id"`
	OrderNo string                 `json:"order_no"`
	Type    string                 `json:"type"`
	Locale  string                 `json:"locale,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// CheckoutResumePayload 草稿订单补全
type CheckoutResumePayload struct {
	OrderID uint `json:"order_id"`
	UserID  uint `json:"user_id"`
}

// NewOrderNotifyTask 订单通知任务
func NewOrderNotifyTask(payload OrderNotifyPayload) (*asynq.Task, error) {
	return newTask(TaskOrderNotify, payload)
}

// NewCheckoutResumeTask 结算补偿任务
func NewCheckoutResumeTask(payload CheckoutResumePayload) (*asynq.Task, error) {
	return newTask(TaskCheckoutResume, payload)
}

// DecodePayload 解析任务载荷
func DecodePayload[T any](task *asynq.Task) (T, error) {
	var payload T
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}
	return payload, nil
}

func newTask(kind string, payload any) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return asynq.NewTask(kind, body), nil
}
