// Package promo evaluates promotion codes against a fixed rule table.
package promo

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownCode indicates the code is not in the rule table.
	ErrUnknownCode = errors.New("unknown promotion code")
	// ErrNotEligible indicates the code exists but its minimum subtotal is not met.
	ErrNotEligible = errors.New("promotion minimum not met")
)

// Rule is a flat discount unlocked by a code.
type Rule struct {
	Code     string
	Discount decimal.Decimal
	// MinSubtotal must be strictly exceeded by the pre-discount subtotal.
	// Zero means no minimum.
	MinSubtotal decimal.Decimal
}

// Table maps codes to rules.
type Table struct {
	rules map[string]Rule
}

// NewTable builds a table. Later rules replace earlier ones with the same code.
func NewTable(rules ...Rule) *Table {
	t := &Table{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		t.rules[r.Code] = r
	}
	return t
}

// Default returns the reference rules: HOSGELDIN10 takes 10 off any cart,
// YENI20 takes 20 off carts above 50.
func Default() *Table {
	return NewTable(
		Rule{Code: "HOSGELDIN10", Discount: decimal.NewFromInt(10)},
		Rule{Code: "YENI20", Discount: decimal.NewFromInt(20), MinSubtotal: decimal.NewFromInt(50)},
	)
}

// Evaluate returns the discount the code grants for the given subtotal.
func (t *Table) Evaluate(code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	r, ok := t.rules[code]
	if !ok {
		return decimal.Zero, ErrUnknownCode
	}
	if r.MinSubtotal.IsPositive() && !subtotal.GreaterThan(r.MinSubtotal) {
		return decimal.Zero, ErrNotEligible
	}
	return r.Discount, nil
}
