// Package memory implements an in-memory order repository.
package memory

import (
	"context"
	"sync"

	"gotur/pkg/order"
)

// Repository provides an in-memory implementation of order.Repository.
// Orders are kept most recent first.
type Repository struct {
	mu     sync.RWMutex
	orders []order.Order
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{}
}

// Record prepends the order to the history.
func (r *Repository) Record(ctx context.Context, o order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append([]order.Order{cloneOrder(o)}, r.orders...)
	return nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.ID == id {
			return cloneOrder(o), nil
		}
	}
	return order.Order{}, order.ErrNotFound
}

// List returns the user's orders, most recent first.
func (r *Repository) List(ctx context.Context, userID string) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]order.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

// UpdateStatus sets the status of an existing order.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if r.orders[i].ID == id {
			r.orders[i].Status = status
			return nil
		}
	}
	return nil
}

// Len reports how many orders are stored.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

// cloneOrder keeps callers from aliasing the stored items, note and
// promotion snapshot. Only UpdateStatus may change a recorded order.
func cloneOrder(o order.Order) order.Order {
	items := make([]order.Item, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	if o.DeliveryNote != nil {
		note := *o.DeliveryNote
		o.DeliveryNote = &note
	}
	if o.PromoCode != nil {
		code := *o.PromoCode
		o.PromoCode = &code
	}
	if o.PromoDiscount != nil {
		discount := *o.PromoDiscount
		o.PromoDiscount = &discount
	}
	return o
}
