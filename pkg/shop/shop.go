// Package shop runs the shopping flow for many sessions at once: one cart per
// session, checkout into the order history and status updates.
package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"gotur/pkg/cart"
	"gotur/pkg/catalog"
	"gotur/pkg/logger"
	"gotur/pkg/order"
	"gotur/pkg/promo"
)

var (
	// ErrProductNotFound indicates the product is not sold by the store.
	ErrProductNotFound = errors.New("product not found")
	// ErrPromotionRejected indicates an unknown or ineligible promotion code.
	ErrPromotionRejected = errors.New("promotion code rejected")
)

// Summary is a read-only view of a cart with its derived totals.
type Summary struct {
	StoreID   string          `json:"store_id,omitempty"`
	StoreName string          `json:"store_name,omitempty"`
	Lines     []cart.Line     `json:"lines"`
	Promotion *cart.Promotion `json:"promotion,omitempty"`
	Note      string          `json:"note"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	Empty     bool            `json:"empty"`
}

// Summarize builds the view of c.
func Summarize(c *cart.Cart) Summary {
	s := Summary{
		Lines:     c.Lines(),
		Note:      c.Note(),
		Subtotal:  c.Subtotal(),
		Discount:  c.Discount(),
		Total:     c.DiscountedTotal(),
		ItemCount: c.ItemCount(),
		Empty:     c.IsEmpty(),
	}
	s.StoreID, s.StoreName, _ = c.Store()
	if p, ok := c.Promotion(); ok {
		s.Promotion = &p
	}
	return s
}

type sessionCart struct {
	mu      sync.Mutex
	cart    *cart.Cart
	touched time.Time
}

// DefaultCartTTL is how long an untouched cart is kept.
const DefaultCartTTL = time.Hour

// Option configures a Service.
type Option func(*Service)

// WithCartTTL evicts carts that have not been touched for ttl. It should
// match the session lifetime so a cart does not outlive its session.
func WithCartTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now for cart expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service owns the carts of all live sessions. Carts are isolated from each
// other; calls for the same session are serialized.
type Service struct {
	catalog *catalog.Catalog
	promos  *promo.Table
	builder *order.Builder
	orders  order.Repository
	log     *logger.Logger

	ttl       time.Duration
	now       func() time.Time
	mu        sync.Mutex
	carts     map[string]*sessionCart
	lastSweep time.Time
}

// New returns a Service. A nil promos table uses promo.Default.
func New(log *logger.Logger, c *catalog.Catalog, promos *promo.Table, builder *order.Builder, orders order.Repository, opts ...Option) *Service {
	if promos == nil {
		promos = promo.Default()
	}
	s := &Service{
		catalog: c,
		promos:  promos,
		builder: builder,
		orders:  orders,
		log:     log,
		ttl:     DefaultCartTTL,
		now:     time.Now,
		carts:   make(map[string]*sessionCart),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSweep = s.now()
	return s
}

// Catalog returns the reference data the service sells from.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// AddItem adds one unit of a store's product to the session cart.
func (s *Service) AddItem(ctx context.Context, sessionID, storeID, productID string) (Summary, error) {
	st, err := s.catalog.Store(storeID)
	if err != nil {
		return Summary{}, err
	}
	p, ok := s.catalog.Product(storeID, productID)
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s/%s", ErrProductNotFound, storeID, productID)
	}
	return s.mutate(sessionID, func(c *cart.Cart) error {
		if id, _, bound := c.Store(); bound && id != storeID {
			s.log.Info(ctx, "cart rebound to new store", "from", id, "to", storeID)
		}
		c.AddItem(p, st.ID, st.Name)
		return nil
	})
}

// RemoveItem removes a product line from the session cart.
func (s *Service) RemoveItem(ctx context.Context, sessionID, productID string) Summary {
	return s.update(ctx, "remove item", sessionID, func(c *cart.Cart) {
		c.RemoveItem(productID)
	})
}

// SetQuantity sets a line quantity; zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) Summary {
	return s.update(ctx, "set quantity", sessionID, func(c *cart.Cart) {
		c.SetQuantity(productID, quantity)
	})
}

// ClearCart empties the session cart.
func (s *Service) ClearCart(ctx context.Context, sessionID string) Summary {
	return s.update(ctx, "clear cart", sessionID, func(c *cart.Cart) {
		c.Clear()
	})
}

// ApplyPromotion applies code to the session cart. A rejected code returns
// ErrPromotionRejected together with the unchanged cart.
func (s *Service) ApplyPromotion(ctx context.Context, sessionID, code string) (Summary, error) {
	return s.mutate(sessionID, func(c *cart.Cart) error {
		if !c.ApplyPromotion(code) {
			s.log.Debug(ctx, "promotion rejected", "code", code, "subtotal", c.Subtotal().StringFixed(2))
			return fmt.Errorf("%w: %s", ErrPromotionRejected, code)
		}
		return nil
	})
}

// RemovePromotion drops the applied promotion.
func (s *Service) RemovePromotion(ctx context.Context, sessionID string) Summary {
	return s.update(ctx, "remove promotion", sessionID, func(c *cart.Cart) {
		c.RemovePromotion()
	})
}

// SetNote sets the delivery note.
func (s *Service) SetNote(ctx context.Context, sessionID, note string) Summary {
	return s.update(ctx, "set note", sessionID, func(c *cart.Cart) {
		c.SetNote(note)
	})
}

// Cart returns the session cart. Unknown or expired sessions see an empty
// cart and no cart is created for them.
func (s *Service) Cart(sessionID string) Summary {
	sc := s.lookup(sessionID, false)
	if sc == nil {
		return Summarize(cart.New(s.promos))
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return Summarize(sc.cart)
}

// Checkout turns the session cart into a pending order, records it at the
// head of the user's history and clears the cart. The cart is left untouched
// when building or recording fails.
func (s *Service) Checkout(ctx context.Context, sessionID, userID, deliveryAddress string) (order.Order, error) {
	sc := s.lookup(sessionID, false)
	if sc == nil {
		return order.Order{}, order.ErrEmptyCart
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()

	o, err := s.builder.CreateOrder(sc.cart, userID, deliveryAddress)
	if err != nil {
		return order.Order{}, err
	}
	if err := s.orders.Record(ctx, o); err != nil {
		return order.Order{}, fmt.Errorf("record order: %w", err)
	}
	sc.cart.Clear()

	s.log.Info(ctx, "order placed", "order_id", o.ID, "user_id", userID, "store_id", o.StoreID, "total", o.Total.StringFixed(2))
	return o, nil
}

// Orders returns the user's order history, most recent first.
func (s *Service) Orders(ctx context.Context, userID string) ([]order.Order, error) {
	return s.orders.List(ctx, userID)
}

// Order returns one of the user's orders. Orders of other users are reported
// as order.ErrNotFound.
func (s *Service) Order(ctx context.Context, userID, orderID string) (order.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}
	if o.UserID != userID {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

// UpdateStatus overwrites the status of one of the user's orders. Any
// transition is accepted. Unknown ids and orders of other users are ignored.
func (s *Service) UpdateStatus(ctx context.Context, userID, orderID string, status order.Status) error {
	if _, err := s.Order(ctx, userID, orderID); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			s.log.Warn(ctx, "status update ignored", "order_id", orderID, "user_id", userID)
			return nil
		}
		return fmt.Errorf("update status: %w", err)
	}
	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	s.log.Info(ctx, "order status updated", "order_id", orderID, "status", status.String())
	return nil
}

// Forget drops the session cart, typically at logout.
func (s *Service) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// Carts reports how many session carts are held.
func (s *Service) Carts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

func (s *Service) update(ctx context.Context, op, sessionID string, fn func(c *cart.Cart)) Summary {
	sc := s.lookup(sessionID, true)
	sc.mu.Lock()
	fn(sc.cart)
	sum := Summarize(sc.cart)
	sc.mu.Unlock()

	s.log.Debug(ctx, "cart updated", "op", op, "items", sum.ItemCount, "total", sum.Total.StringFixed(2))
	return sum
}

func (s *Service) mutate(sessionID string, fn func(c *cart.Cart) error) (Summary, error) {
	sc := s.lookup(sessionID, true)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	err := fn(sc.cart)
	return Summarize(sc.cart), err
}

// lookup returns the live cart of the session and marks it as touched. An
// idle cart past the TTL counts as absent. With create unset a missing cart
// yields nil.
func (s *Service) lookup(sessionID string, create bool) *sessionCart {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.ttl {
		s.sweep(now)
	}
	sc, ok := s.carts[sessionID]
	if ok && now.Sub(sc.touched) >= s.ttl {
		delete(s.carts, sessionID)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		sc = &sessionCart{cart: cart.New(s.promos)}
		s.carts[sessionID] = sc
	}
	sc.touched = now
	return sc
}

// sweep drops every cart idle for longer than the TTL. s.mu must be held.
func (s *Service) sweep(now time.Time) {
	for id, sc := range s.carts {
		if now.Sub(sc.touched) >= s.ttl {
			delete(s.carts, id)
		}
	}
	s.lastSweep = now
}
