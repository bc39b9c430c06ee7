package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shelfwise/bookstore/internal/constants"
)

func TestCartItemLineTotalIgnoresPriceDiscount(t *testing.T) {
	item := CartItem{
		UnitPrice:     NewMoneyFromInt(100),
		PriceDiscount: NewMoneyFromInt(80),
		Quantity:      3,
	}
	if got := item.LineTotal().String(); got != "300.00" {
		t.Fatalf("line total want 300.00 got %s", got)
	}

	item.PriceDiscount = ZeroMoney()
	if got := item.LineTotal().String(); got != "300.00" {
		t.Fatalf("line total without promo price want 300.00 got %s", got)
	}
}

func TestOrderSettled(t *testing.T) {
	shippingID := uint(1)
	paymentID := uint(2)
	cases := []struct {
		name  string
		order Order
		want  bool
	}{
		{"draft", Order{Status: constants.OrderStatusDraft, ShippingID: &shippingID, PaymentID: &paymentID}, false},
		{"pending_missing_payment", Order{Status: constants.OrderStatusPending, ShippingID: &shippingID}, false},
		{"pending_complete", Order{Status: constants.OrderStatusPending, ShippingID: &shippingID, PaymentID: &paymentID}, true},
		{"paid_complete", Order{Status: constants.OrderStatusPaid, ShippingID: &shippingID, PaymentID: &paymentID}, true},
	}
	for _, tc := range cases {
		if got := tc.order.Settled(); got != tc.want {
			t.Fatalf("%s: settled want %v got %v", tc.name, tc.want, got)
		}
	}
}

func TestDiscountAvailableAt(t *testing.T) {
	now := time.Now()
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)
	discount := Discount{IsActive: true, Quantity: 1, StartDate: &start, EndDate: &end}
	if !discount.AvailableAt(now) {
		t.Fatalf("discount should be available inside window")
	}
	if discount.AvailableAt(end.Add(time.Second)) {
		t.Fatalf("discount should expire after end date")
	}
	discount.Quantity = 0
	if discount.AvailableAt(now) {
		t.Fatalf("exhausted discount should not be available")
	}
	discount.Quantity = 1
	discount.IsActive = false
	if discount.AvailableAt(now) {
		t.Fatalf("inactive discount should not be available")
	}
}

func TestMoneyJSONAcceptsNumberAndString(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":12.345,"b":"7.1"}`), &payload); err != nil {
		t.Fatalf("unmarshal money failed: %v", err)
	}
	if payload.A.String() != "12.35" && payload.A.String() != "12.34" {
		t.Fatalf("unexpected rounding: %s", payload.A.String())
	}
	raw, err := json.Marshal(payload.B)
	if err != nil {
		t.Fatalf("marshal money failed: %v", err)
	}
	if string(raw) != `"7.10"` {
		t.Fatalf("money json want \"7.10\" got %s", raw)
	}
	if got := NewMoneyFromInt(5).Sub(NewMoneyFromInt(9)).FloorZero().String(); got != "0.00" {
		t.Fatalf("floor zero want 0.00 got %s", got)
	}
}
