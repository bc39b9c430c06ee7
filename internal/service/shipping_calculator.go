package service

import (
	"math"

	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/models"

	"github.com/shopspring/decimal"
)

// ShippingCalculator 按距离计算运费：起步价 + 超出免费里程部分按公里计费
type ShippingCalculator struct {
	baseFee        decimal.Decimal
	perKmFee       decimal.Decimal
	freeDistanceKm decimal.Decimal
}

// NewShippingCalculator 创建运费计算器
func NewShippingCalculator(cfg config.ShippingConfig) *ShippingCalculator {
	return &ShippingCalculator{
		baseFee:        decimal.NewFromFloat(math.Max(0, cfg.BaseFee)),
		perKmFee:       decimal.NewFromFloat(math.Max(0, cfg.PerKmFee)),
		freeDistanceKm: decimal.NewFromFloat(math.Max(0, cfg.FreeDistanceKm)),
	}
}

// Cost 计算运费
func (c *ShippingCalculator) Cost(distanceKm float64) models.Money {
	distance := decimal.NewFromFloat(math.Max(0, distanceKm))
	billable := distance.Sub(c.freeDistanceKm)
	if billable.IsNegative() {
		billable = decimal.Zero
	}
	return models.NewMoneyFromDecimal(c.baseFee.Add(billable.Mul(c.perKmFee)))
}
