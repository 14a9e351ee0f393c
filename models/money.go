package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a fixed-point currency amount held in minor units (cents).
type Money int64

// MaxPricePerSeat bounds what a driver may charge for one seat, 1,000,000,000.00.
const MaxPricePerSeat Money = 100_000_000_000

var ErrMoneyOverflow = errors.New("amount out of range")

// ParseMoney parses "1500", "1500.5" or "1,500.50" into minor units. Amounts
// with more than two decimal places or a sign are rejected.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, fmt.Errorf("invalid amount")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("invalid amount %q", s)
			}
		}
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if w > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("invalid amount %q: %w", s, ErrMoneyOverflow)
	}
	f, _ := strconv.ParseInt(frac, 10, 64)
	return Money(w*100 + f), nil
}

// Mul returns the amount for n units, e.g. seats × price per seat. It fails
// instead of wrapping when the product does not fit.
func (m Money) Mul(n int) (Money, error) {
	if m == 0 || n == 0 {
		return 0, nil
	}
	if n < 0 || m < 0 || int64(m) > math.MaxInt64/int64(n) {
		return 0, ErrMoneyOverflow
	}
	return m * Money(n), nil
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both "12.50" and 12.50.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	v, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
