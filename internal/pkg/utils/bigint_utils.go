package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatBigInt converts a big.Int value to a human-readable string,
// considering the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) (string, error) {
	if amount == nil {
		return "0", nil
	}
	if decimals == 0 {
		return amount.String(), nil
	}

	// Exact decimal string: shift the digits instead of going through a float.
	digits := new(big.Int).Abs(amount).String()
	if len(digits) <= int(decimals) {
		digits = strings.Repeat("0", int(decimals)-len(digits)+1) + digits
	}
	point := len(digits) - int(decimals)
	formattedStr := digits[:point] + "." + digits[point:]

	formattedStr = strings.TrimRight(formattedStr, "0")
	formattedStr = strings.TrimRight(formattedStr, ".")
	if formattedStr == "" {
		return "", fmt.Errorf("formatting resulted in empty string for %s", amount.String())
	}
	if amount.Sign() < 0 {
		formattedStr = "-" + formattedStr
	}
	return formattedStr, nil
}

// ScaleDown returns amount / 10^decimals as the nearest float64.
func ScaleDown(amount *big.Int, decimals uint8) float64 {
	if amount == nil {
		return 0
	}
	amountFloat := new(big.Float).SetPrec(256).SetInt(amount)
	divisor := new(big.Float).SetPrec(256).SetInt(Pow10(decimals))
	value, _ := new(big.Float).SetPrec(256).Quo(amountFloat, divisor).Float64()
	return value
}

// Pow10 returns 10^decimals.
func Pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// ToUint8 narrows v, failing when it does not fit.
func ToUint8(v *big.Int) (uint8, error) {
	if v == nil || v.Sign() < 0 || !v.IsUint64() || v.Uint64() > 255 {
		return 0, fmt.Errorf("value %v does not fit in uint8", v)
	}
	return uint8(v.Uint64()), nil
}

// ToUint64 narrows v, failing when it does not fit.
func ToUint64(v *big.Int) (uint64, error) {
	if v == nil || v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("value %v does not fit in uint64", v)
	}
	return v.Uint64(), nil
}
