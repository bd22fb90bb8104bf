package fixedpoint

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/holiman/uint256"
)

// Scale is the decimal fixed-point unit. A scaled value v represents the real
// number v / Scale.
const Scale uint64 = 1_000_000_000_000_000_000

// Decimals is the number of fractional digits encoded by Scale.
const Decimals = 18

// SecondsPerYear is the accrual period used to convert annual rates.
const SecondsPerYear uint64 = 365 * 24 * 60 * 60

// MaxRatio is the sentinel returned for vaults without debt, or whose ratio
// does not fit into 64 bits. It compares above every configurable threshold.
const MaxRatio uint64 = math.MaxUint64

var (
	ErrOverflow       = errors.New("fixedpoint: arithmetic overflow")
	ErrDivideByZero   = errors.New("fixedpoint: division by zero")
	ErrInvalidDecimal = errors.New("fixedpoint: invalid decimal")
)

var (
	scaleU256          = uint256.NewInt(Scale)
	yearScaleDenomU256 = new(uint256.Int).Mul(uint256.NewInt(Scale), uint256.NewInt(SecondsPerYear))
)

// MulDiv returns floor(a*b/d). The product is formed at 256 bits so it never
// wraps; only a quotient that does not fit in 64 bits is reported.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivideByZero
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	product.Div(product, uint256.NewInt(d))
	if !product.IsUint64() {
		return 0, ErrOverflow
	}
	return product.Uint64(), nil
}

// MulDivSaturating behaves like MulDiv but clamps an oversized quotient to
// math.MaxUint64. Division by zero also yields the maximum.
func MulDivSaturating(a, b, d uint64) uint64 {
	if d == 0 {
		return math.MaxUint64
	}
	out, err := MulDiv(a, b, d)
	if err != nil {
		return math.MaxUint64
	}
	return out
}

// Ratio computes collateral*Scale/debt. A zero debt, or a quotient beyond 64
// bits, yields MaxRatio.
func Ratio(collateral, debt uint64) uint64 {
	if debt == 0 {
		return MaxRatio
	}
	return MulDivSaturating(collateral, Scale, debt)
}

// Interest computes floor(principal * rate * elapsed / (Scale * SecondsPerYear))
// where rate is a scaled annual rate and elapsed is in seconds.
func Interest(principal, rate, elapsed uint64) (uint64, error) {
	if principal == 0 || rate == 0 || elapsed == 0 {
		return 0, nil
	}
	acc := new(uint256.Int)
	if _, overflow := acc.MulOverflow(uint256.NewInt(principal), uint256.NewInt(rate)); overflow {
		return 0, ErrOverflow
	}
	if _, overflow := acc.MulOverflow(acc, uint256.NewInt(elapsed)); overflow {
		return 0, ErrOverflow
	}
	acc.Div(acc, yearScaleDenomU256)
	if !acc.IsUint64() {
		return 0, ErrOverflow
	}
	return acc.Uint64(), nil
}

// SaturatingAdd returns a+b clamped at math.MaxUint64.
func SaturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// SaturatingSub returns a-b clamped at zero.
func SaturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

func CheckedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

func CheckedMul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxUint64/b {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// FromDecimal parses a decimal string such as "1.5" or "0.05" into a scaled
// value. At most Decimals fractional digits are accepted.
func FromDecimal(value string) (uint64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidDecimal)
	}
	whole, frac, _ := strings.Cut(trimmed, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDecimal, value)
	}
	if len(frac) > Decimals {
		return 0, fmt.Errorf("%w: more than %d fractional digits in %q", ErrInvalidDecimal, Decimals, value)
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDecimal, value)
	}
	acc := new(uint256.Int)
	digits := whole + frac + strings.Repeat("0", Decimals-len(frac))
	ten := uint256.NewInt(10)
	for _, r := range digits {
		acc.Mul(acc, ten)
		acc.Add(acc, uint256.NewInt(uint64(r-'0')))
		if !acc.IsUint64() {
			return 0, fmt.Errorf("%w: %q out of range", ErrOverflow, value)
		}
	}
	return acc.Uint64(), nil
}

// FormatDecimal renders a scaled value without trailing fractional zeros.
func FormatDecimal(scaled uint64) string {
	v := uint256.NewInt(scaled)
	whole := new(uint256.Int).Div(v, scaleU256)
	frac := new(uint256.Int).Mod(v, scaleU256)
	if frac.IsZero() {
		return whole.Dec()
	}
	fracStr := frac.Dec()
	fracStr = strings.Repeat("0", Decimals-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")
	return whole.Dec() + "." + fracStr
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
