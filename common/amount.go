/*
This file contains monetary amount conversion for the engine boundary.

Inside the engine every amount is an int64 count of "trumpies",
the smallest TRMP unit (1 TRMP = 1e8 trumpies). Decimal values coming
from the outside (user input, RPC JSON) are converted exactly once,
here, with shopspring/decimal. The engine itself never touches floats.
*/
package common

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// TrumpiesPerCoin is the number of smallest units in one TRMP.
	TrumpiesPerCoin int64 = 1e8

	// MaxAmountDecimals is the maximum number of decimal places a
	// TRMP amount may carry (same as bitcoin).
	MaxAmountDecimals = 8
)

// ParseAmount converts a decimal TRMP string (e.g. "12.5") into trumpies.
// Rejects non-positive values and values with more than 8 decimal places.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format: %q", s)
	}
	return amountFromDecimal(d)
}

// ParseFeeRate converts a decimal TRMP-per-kilobyte string into
// trumpies per kilobyte.
func ParseFeeRate(s string) (int64, error) {
	return ParseAmount(s)
}

// AmountFromFloat converts a float TRMP value (as found in node RPC JSON)
// into trumpies. The float is routed through decimal to avoid the usual
// *1e8 rounding drift.
func AmountFromFloat(f float64) (int64, error) {
	return amountFromDecimal(decimal.NewFromFloat(f))
}

func amountFromDecimal(d decimal.Decimal) (int64, error) {
	if d.Sign() <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %s", d)
	}
	shifted := d.Shift(MaxAmountDecimals)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("too many decimal places (max %d): %s", MaxAmountDecimals, d)
	}
	bi := shifted.BigInt()
	if !bi.IsInt64() {
		return 0, fmt.Errorf("amount out of range: %s", d)
	}
	return bi.Int64(), nil
}

// FormatAmount renders trumpies as a decimal TRMP string.
func FormatAmount(trumpies int64) string {
	return decimal.New(trumpies, -int32(MaxAmountDecimals)).String()
}
