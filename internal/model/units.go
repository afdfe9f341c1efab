package model

import (
	"fmt"
	"math/big"
	"strings"
)

// Amounts cross the contract boundary as integers in the asset's smallest
// unit. Conversion to and from human-decimal strings happens only here, at
// the edge; floating point is never involved.

// ParseUnits converts a decimal string like "1.2345" into an integer scaled
// by 10^decimals. More fractional digits than decimals is an error rather
// than silent truncation.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", s, decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	digits := whole + frac
	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if neg {
		value.Neg(value)
	}
	return value, nil
}

// FormatUnits renders a smallest-unit integer as a decimal string with
// trailing zeros trimmed. The inverse of ParseUnits up to trailing zeros.
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	abs := new(big.Int).Abs(amount)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, scale, new(big.Int))

	out := whole.String()
	if frac.Sign() != 0 {
		fracStr := frac.String()
		if pad := int(decimals) - len(fracStr); pad > 0 {
			fracStr = strings.Repeat("0", pad) + fracStr
		}
		fracStr = strings.TrimRight(fracStr, "0")
		out += "." + fracStr
	}
	if amount.Sign() < 0 {
		out = "-" + out
	}
	return out
}
