// internal/utils/bignum.go
package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseBigInt converts a decimal-string wire value into big.Int form. On-chain
// ids and token amounts exceed float64 precision, so they stay strings until
// the ledger-gateway boundary.
func ParseBigInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty big integer string")
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid big integer string %q", s)
	}
	return n, nil
}

// ParseDecimal converts a decimal-string price into an exact rational.
func ParseDecimal(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty decimal string")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid decimal string %q", s)
	}
	return r, nil
}

// MulDecimal computes price × amount exactly and renders the result back as a
// decimal string with trailing zeros trimmed.
func MulDecimal(price string, amount int64) (string, error) {
	r, err := ParseDecimal(price)
	if err != nil {
		return "", err
	}
	r.Mul(r, new(big.Rat).SetInt64(amount))
	return FormatDecimal(r), nil
}

// AddDecimal sums two decimal strings exactly.
func AddDecimal(a, b string) (string, error) {
	ra, err := ParseDecimal(a)
	if err != nil {
		return "", err
	}
	rb, err := ParseDecimal(b)
	if err != nil {
		return "", err
	}
	return FormatDecimal(ra.Add(ra, rb)), nil
}

// FormatDecimal renders a rational as a plain decimal string. 18 digits covers
// wei-scale precision; trailing zeros and a bare trailing dot are trimmed.
func FormatDecimal(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	s := r.FloatString(18)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
