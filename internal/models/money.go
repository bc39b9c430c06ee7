package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

const moneyScale = 2

var hundred = decimal.NewFromInt(100)

// Money 金额，始终按分（2 位小数）舍入，JSON 输出为字符串
type Money struct {
	decimal.Decimal
}

func money(d decimal.Decimal) Money { return Money{Decimal: d.Round(moneyScale)} }

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money { return money(amount) }

// NewMoneyFromInt 整数元
func NewMoneyFromInt(amount int64) Money { return money(decimal.NewFromInt(amount)) }

// NewMoneyFromFloat 仅用于配置项换算
func NewMoneyFromFloat(amount float64) Money { return money(decimal.NewFromFloat(amount)) }

// ZeroMoney 零金额
func ZeroMoney() Money { return Money{Decimal: decimal.Zero} }

func (m Money) Add(other Money) Money { return money(m.Decimal.Add(other.Decimal)) }

func (m Money) Sub(other Money) Money { return money(m.Decimal.Sub(other.Decimal)) }

// Times 单价乘数量
func (m Money) Times(qty int) Money { return money(m.Decimal.Mul(decimal.NewFromInt(int64(qty)))) }

// Percent 取 m 的 pct%
func (m Money) Percent(pct decimal.Decimal) Money { return money(m.Decimal.Mul(pct).Div(hundred)) }

// FloorZero 负数归零
func (m Money) FloorZero() Money {
	if m.IsNegative() {
		return ZeroMoney()
	}
	return m
}

func (m Money) String() string { return m.Decimal.StringFixed(moneyScale) }

// MarshalJSON 输出 "12.30"
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 数字与字符串均可
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*m = money(d)
	return nil
}

// Value 实现 driver.Valuer
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(moneyScale).Value()
}

// Scan 实现 sql.Scanner
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*m = money(d)
	return nil
}
