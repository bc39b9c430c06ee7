package service

import (
	"testing"

	"github.com/shelfwise/bookstore/internal/config"
)

func TestShippingCalculatorCost(t *testing.T) {
	cases := []struct {
		name     string
		cfg      config.ShippingConfig
		distance float64
		want     string
	}{
		{"base only", config.ShippingConfig{BaseFee: 10, PerKmFee: 0.5}, 0, "10"},
		{"per km", config.ShippingConfig{BaseFee: 10, PerKmFee: 0.5}, 10, "15"},
		{"fractional km", config.ShippingConfig{BaseFee: 8, PerKmFee: 1.2}, 2.5, "11"},
		{"within free distance", config.ShippingConfig{BaseFee: 6, PerKmFee: 2, FreeDistanceKm: 3}, 2, "6"},
		{"beyond free distance", config.ShippingConfig{BaseFee: 6, PerKmFee: 2, FreeDistanceKm: 3}, 5, "10"},
		{"negative distance", config.ShippingConfig{BaseFee: 10, PerKmFee: 0.5}, -4, "10"},
		{"negative fees clamp", config.ShippingConfig{BaseFee: -1, PerKmFee: -1}, 4, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertMoney(t, "cost", NewShippingCalculator(tc.cfg).Cost(tc.distance), tc.want)
		})
	}
}
