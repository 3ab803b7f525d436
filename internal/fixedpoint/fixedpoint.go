// Package fixedpoint converts raw on-chain fixed-point integers into exact
// decimal values.
package fixedpoint

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// OhmDecimals is the precision of OHM amounts.
	OhmDecimals uint8 = 9
	// BpsDecimals is the precision of basis-point rates.
	BpsDecimals uint8 = 4
)

// MaxUint256 is 2^256-1, used by contracts as an "unset" marker.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ToDecimal returns raw / 10^decimals exactly. The sign of raw is preserved
// and a nil raw is zero.
func ToDecimal(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// ToOhmDecimal converts a 9-decimal OHM amount.
func ToOhmDecimal(raw *big.Int) decimal.Decimal {
	return ToDecimal(raw, OhmDecimals)
}

// ToBpsDecimal converts a 4-decimal basis-point value.
func ToBpsDecimal(raw *big.Int) decimal.Decimal {
	return ToDecimal(raw, BpsDecimals)
}

// FromDecimal returns d * 10^decimals truncated towards zero.
func FromDecimal(d decimal.Decimal, decimals uint8) *big.Int {
	return d.Shift(int32(decimals)).BigInt()
}

// IsMaxUint256 reports whether v is the 2^256-1 sentinel.
func IsMaxUint256(v *big.Int) bool {
	return v != nil && v.Cmp(MaxUint256) == 0
}

// OrNil returns nil when v is the sentinel, otherwise v.
func OrNil(v *big.Int) *big.Int {
	if v == nil || IsMaxUint256(v) {
		return nil
	}
	return v
}
