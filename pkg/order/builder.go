package order

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"gotur/pkg/cart"
)

var (
	// ErrEmptyCart indicates checkout was attempted with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoStore indicates the cart is not bound to a store.
	ErrNoStore = errors.New("cart has no store")
)

// Builder turns carts into orders. It never mutates the cart or any history.
type Builder struct {
	NewID func() string
	Now   func() time.Time
}

// NewBuilder returns a Builder with UUID ids and the wall clock.
func NewBuilder() *Builder {
	return &Builder{NewID: uuid.NewString, Now: time.Now}
}

// CreateOrder snapshots c into a pending order for userID.
func (b *Builder) CreateOrder(c *cart.Cart, userID, deliveryAddress string) (Order, error) {
	if c.IsEmpty() {
		return Order{}, ErrEmptyCart
	}
	storeID, storeName, ok := c.Store()
	if !ok {
		return Order{}, ErrNoStore
	}

	lines := c.Lines()
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.Product.Price,
		})
	}

	o := Order{
		ID:              b.NewID(),
		UserID:          userID,
		StoreID:         storeID,
		StoreName:       storeName,
		Items:           items,
		Total:           c.DiscountedTotal(),
		Status:          StatusPending,
		DeliveryAddress: deliveryAddress,
		CreatedAt:       b.Now().UTC(),
	}
	if note := c.Note(); note != "" {
		o.DeliveryNote = &note
	}
	if p, ok := c.Promotion(); ok {
		code, discount := p.Code, p.Discount
		o.PromoCode = &code
		o.PromoDiscount = &discount
	}
	return o, nil
}
