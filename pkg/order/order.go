// Package order defines the order record, its status and the repository that
// keeps each user's order history.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the delivery state of an order.
type Status string

const (
	// StatusPending is the state of every new order.
	StatusPending Status = "pending"
	// StatusOnTheWay means a courier has picked the order up.
	StatusOnTheWay Status = "on_the_way"
	// StatusDelivered means the order reached the customer.
	StatusDelivered Status = "delivered"
	// StatusCancelled means the order will not be delivered.
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusOnTheWay, StatusDelivered, StatusCancelled}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus validates s.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Item is a snapshot of a cart line taken at checkout.
type Item struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Total is the item price before discount.
func (i Item) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a placed customer order.
type Order struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	StoreID         string           `json:"store_id"`
	StoreName       string           `json:"store_name"`
	Items           []Item           `json:"items"`
	Total           decimal.Decimal  `json:"total"`
	Status          Status           `json:"status"`
	DeliveryNote    *string          `json:"delivery_note,omitempty"`
	DeliveryAddress string           `json:"delivery_address"`
	CreatedAt       time.Time        `json:"created_at"`
	PromoCode       *string          `json:"promo_code,omitempty"`
	PromoDiscount   *decimal.Decimal `json:"promo_discount,omitempty"`
}

// Repository keeps order history. Implementations must serialize writes.
type Repository interface {
	// Record stores o at the head of its user's history.
	Record(ctx context.Context, o Order) error
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (Order, error)
	// List returns the user's orders, most recent first.
	List(ctx context.Context, userID string) ([]Order, error)
	// UpdateStatus overwrites the status. Unknown ids are ignored.
	UpdateStatus(ctx context.Context, id string, status Status) error
}

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidStatus indicates an unrecognised status value.
	ErrInvalidStatus = errors.New("invalid order status")
)
