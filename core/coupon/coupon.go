// Package coupon evaluates discount codes against a configurable table.
package coupon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Kind string

const (
	Percentage Kind = "percentage"
	Fixed      Kind = "fixed"
)

type Coupon struct {
	Code     string  `json:"code"`
	Kind     Kind    `json:"kind"`
	Value    float64 `json:"value"`
	MinOrder float64 `json:"minOrder"`
}

// Applied keeps the user-entered code alongside the coupon so the UI can
// echo back exactly what was typed.
type Applied struct {
	Coupon
	Entered string `json:"entered"`
}

// Table maps canonical (upper-case) codes to coupons.
type Table map[string]Coupon

var (
	ErrEmptyCode   = errors.New("coupon code is empty")
	ErrUnknownCode = errors.New("coupon code is not valid")
)

// MinOrderError rejects a code whose minimum order amount is not reached by
// the current subtotal. Min is exposed for display.
type MinOrderError struct {
	Min float64
}

func (e *MinOrderError) Error() string {
	return fmt.Sprintf("minimum order of %.2f required", e.Min)
}

// Canonical trims surrounding space and upper-cases a code.
func Canonical(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply validates code against the table and the current subtotal.
func Apply(t Table, code string, subtotal float64) (Applied, error) {
	canon := Canonical(code)
	if canon == "" {
		return Applied{}, ErrEmptyCode
	}

	c, ok := t[canon]
	if !ok {
		return Applied{}, ErrUnknownCode
	}

	if subtotal < c.MinOrder {
		return Applied{}, &MinOrderError{Min: c.MinOrder}
	}

	return Applied{Coupon: c, Entered: code}, nil
}

// DefaultTable is the built-in coupon set, used when no table file is
// configured.
func DefaultTable() Table {
	return Table{
		"WELCOME10": {Code: "WELCOME10", Kind: Percentage, Value: 0.10, MinOrder: 0},
		"SAVE20":    {Code: "SAVE20", Kind: Percentage, Value: 0.20, MinOrder: 100},
		"FLAT30":    {Code: "FLAT30", Kind: Fixed, Value: 30, MinOrder: 150},
	}
}

// LoadFile reads a coupon table from a JSON file holding a list of coupons.
// Codes are canonicalized on the way in.
func LoadFile(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading coupon table: %w", err)
	}

	var coupons []Coupon
	if err := json.Unmarshal(b, &coupons); err != nil {
		return nil, fmt.Errorf("decoding coupon table: %w", err)
	}

	t := make(Table, len(coupons))
	for _, c := range coupons {
		c.Code = Canonical(c.Code)
		if c.Code == "" {
			return nil, errors.New("coupon table contains an empty code")
		}
		if c.Kind != Percentage && c.Kind != Fixed {
			return nil, fmt.Errorf("coupon %s has unknown kind %q", c.Code, c.Kind)
		}
		t[c.Code] = c
	}

	return t, nil
}
