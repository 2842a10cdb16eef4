package models

import "github.com/shopspring/decimal"

// Column scales: money is NUMERIC(..,2), quantities NUMERIC(..,3).
const (
	MoneyScale    int32 = 2
	QuantityScale int32 = 3
)

// RoundMoney rounds half away from zero to cents, as Postgres does on insert.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// FitsScale reports whether d has at most places digits after the decimal point.
func FitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}
