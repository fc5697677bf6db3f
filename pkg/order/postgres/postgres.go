// Package postgres persists order history in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"gotur/pkg/order"
)

// Schema creates the tables the repository needs. seq keeps insertion order
// stable when two orders share a timestamp.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	seq              BIGSERIAL,
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	store_id         TEXT NOT NULL,
	store_name       TEXT NOT NULL,
	total            NUMERIC(12,2) NOT NULL,
	status           TEXT NOT NULL,
	delivery_note    TEXT,
	delivery_address TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	promo_code       TEXT,
	promo_discount   NUMERIC(12,2)
);
CREATE INDEX IF NOT EXISTS orders_user_seq ON orders (user_id, seq DESC);
CREATE TABLE IF NOT EXISTS order_items (
	order_id     TEXT NOT NULL REFERENCES orders(id),
	position     INT NOT NULL,
	product_id   TEXT NOT NULL,
	product_name TEXT NOT NULL,
	quantity     INT NOT NULL,
	unit_price   NUMERIC(12,2) NOT NULL,
	PRIMARY KEY (order_id, position)
);`

const orderColumns = "id,user_id,store_id,store_name,total,status,delivery_note,delivery_address,created_at,promo_code,promo_discount"

// Repository persists orders in PostgreSQL.
type Repository struct {
	db *sql.DB
}

// New creates a PostgreSQL repository.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate applies Schema.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate orders: %w", err)
	}
	return nil
}

// Record inserts the order and its items in one transaction.
func (r *Repository) Record(ctx context.Context, o order.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var discount decimal.NullDecimal
	if o.PromoDiscount != nil {
		discount = decimal.NewNullDecimal(*o.PromoDiscount)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)",
		o.ID, o.UserID, o.StoreID, o.StoreName, o.Total, string(o.Status),
		nullString(o.DeliveryNote), o.DeliveryAddress, o.CreatedAt, nullString(o.PromoCode), discount)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for i, it := range o.Items {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id,position,product_id,product_name,quantity,unit_price) VALUES ($1,$2,$3,$4,$5,$6)",
			o.ID, i, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return tx.Commit()
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id=$1", id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	if err != nil {
		return order.Order{}, err
	}
	items, err := r.items(ctx, []string{o.ID})
	if err != nil {
		return order.Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// List fetches the user's orders, most recent first.
func (r *Repository) List(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id=$1 ORDER BY seq DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]order.Order, 0)
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// UpdateStatus sets the status. Unknown ids affect no rows and are not an error.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	_, err := r.db.ExecContext(ctx, "UPDATE orders SET status=$2 WHERE id=$1", id, string(status))
	return err
}

func (r *Repository) items(ctx context.Context, orderIDs []string) (map[string][]order.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT order_id,product_id,product_name,quantity,unit_price FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position",
		pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string][]order.Item, len(orderIDs))
	for rows.Next() {
		var orderID string
		var it order.Item
		if err := rows.Scan(&orderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (order.Order, error) {
	var (
		o        order.Order
		status   string
		note     sql.NullString
		code     sql.NullString
		discount decimal.NullDecimal
	)
	err := s.Scan(&o.ID, &o.UserID, &o.StoreID, &o.StoreName, &o.Total, &status,
		&note, &o.DeliveryAddress, &o.CreatedAt, &code, &discount)
	if err != nil {
		return order.Order{}, err
	}
	o.Status = order.Status(status)
	if note.Valid {
		o.DeliveryNote = &note.String
	}
	if code.Valid {
		o.PromoCode = &code.String
	}
	if discount.Valid {
		o.PromoDiscount = &discount.Decimal
	}
	return o, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
