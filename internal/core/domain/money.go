package domain

import "github.com/shopspring/decimal"

// MicroPerUSD is the number of micro-units in one US dollar.
const MicroPerUSD int64 = 1_000_000

// BasisPointsDenominator is 100% expressed in basis points.
const BasisPointsDenominator int64 = 10_000

// USD converts whole dollars to micro-units.
func USD(dollars int64) int64 { return dollars * MicroPerUSD }

// Cents converts cents to micro-units.
func Cents(cents int64) int64 { return cents * (MicroPerUSD / 100) }

// ApplyBps returns amountMicro * bps / 10000, truncated toward zero.
// The product is computed in arbitrary precision so large amounts cannot overflow.
func ApplyBps(amountMicro int64, bps int64) int64 {
	return decimal.NewFromInt(amountMicro).
		Mul(decimal.NewFromInt(bps)).
		Div(decimal.NewFromInt(BasisPointsDenominator)).
		Truncate(0).
		IntPart()
}

// MicroToDecimal renders a micro-unit amount as a dollar decimal.
func MicroToDecimal(amountMicro int64) decimal.Decimal {
	return decimal.New(amountMicro, -6)
}
