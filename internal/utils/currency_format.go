package utils

import (
	"github.com/SscSPs/community_billing/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FormatMicroUSD renders a micro-unit amount as dollars with cent precision.
// Example: 1_234_567 returns "1.23", -500_000 returns "-0.50".
func FormatMicroUSD(amountMicro int64) string {
	return domain.MicroToDecimal(amountMicro).StringFixed(2)
}

// FormatWithPrecision formats an amount with the given precision
func FormatWithPrecision(amount decimal.Decimal, precision int) string {
	return amount.Round(int32(precision)).String()
}
