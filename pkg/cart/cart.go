// Package cart implements the session shopping cart: lines bound to a single
// store, a flat promotion and a delivery note.
package cart

import (
	"github.com/shopspring/decimal"

	"gotur/pkg/catalog"
	"gotur/pkg/promo"
)

// Line is one product in the cart. Quantity is always at least 1.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Total is the line price before any discount.
func (l Line) Total() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Promotion is an applied promotion code and the discount it granted.
type Promotion struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// Cart is owned by a single session and is not safe for concurrent use.
type Cart struct {
	promos *promo.Table

	storeID   string
	storeName string
	lines     []Line
	promotion *Promotion
	note      string
}

// New returns an empty cart that evaluates codes against promos.
// A nil table uses promo.Default.
func New(promos *promo.Table) *Cart {
	if promos == nil {
		promos = promo.Default()
	}
	return &Cart{promos: promos}
}

// AddItem adds one unit of product. Adding from a store other than the bound
// one discards the current contents first.
func (c *Cart) AddItem(p catalog.Product, storeID, storeName string) {
	if c.storeID != "" && c.storeID != storeID {
		c.Clear()
	}
	c.storeID = storeID
	c.storeName = storeName

	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: 1})
}

// RemoveItem drops the line for productID, if any.
func (c *Cart) RemoveItem(productID string) {
	if i := c.index(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
	if len(c.lines) == 0 {
		c.Clear()
	}
}

// SetQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line. Unknown products are ignored.
func (c *Cart) SetQuantity(productID string, quantity int) {
	if i := c.index(productID); i >= 0 {
		if quantity > 0 {
			c.lines[i].Quantity = quantity
		} else {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		}
	}
	if len(c.lines) == 0 {
		c.Clear()
	}
}

// Clear resets the cart to its empty, unbound state.
func (c *Cart) Clear() {
	c.storeID = ""
	c.storeName = ""
	c.lines = nil
	c.promotion = nil
	c.note = ""
}

// ApplyPromotion applies code if it is known and eligible for the current
// subtotal, replacing any previous promotion. On failure nothing changes.
func (c *Cart) ApplyPromotion(code string) bool {
	discount, err := c.promos.Evaluate(code, c.Subtotal())
	if err != nil {
		return false
	}
	c.promotion = &Promotion{Code: code, Discount: discount}
	return true
}

// RemovePromotion clears the promotion only.
func (c *Cart) RemovePromotion() {
	c.promotion = nil
}

// SetNote sets the free-text delivery note.
func (c *Cart) SetNote(note string) {
	c.note = note
}

// Note returns the delivery note.
func (c *Cart) Note() string {
	return c.note
}

// Store returns the bound store. ok is false when the cart is unbound.
func (c *Cart) Store() (id, name string, ok bool) {
	return c.storeID, c.storeName, c.storeID != ""
}

// Promotion returns the applied promotion, if any.
func (c *Cart) Promotion() (Promotion, bool) {
	if c.promotion == nil {
		return Promotion{}, false
	}
	return *c.promotion, true
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Subtotal is the sum of line totals before discount.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total())
	}
	return total
}

// Discount is the applied promotion discount, zero when none.
func (c *Cart) Discount() decimal.Decimal {
	if c.promotion == nil {
		return decimal.Zero
	}
	return c.promotion.Discount
}

// DiscountedTotal is the subtotal minus the discount, floored at zero.
func (c *Cart) DiscountedTotal() decimal.Decimal {
	return decimal.Max(decimal.Zero, c.Subtotal().Sub(c.Discount()))
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// ItemCount is the total number of units across lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) index(productID string) int {
	for i, l := range c.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}
