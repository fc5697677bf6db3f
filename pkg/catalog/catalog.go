// Package catalog holds the read-only store and product reference data.
package catalog

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AllCategory is the pseudo-category that matches every product of a store.
const AllCategory = "All"

// ErrStoreNotFound indicates the requested store does not exist.
var ErrStoreNotFound = errors.New("store not found")

// Product is an item a store sells.
type Product struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"store_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
}

// Store is a market or restaurant that delivers.
type Store struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Address      string          `json:"address"`
	DeliveryTime string          `json:"delivery_time"`
	Rating       float64         `json:"rating"`
	MinimumOrder decimal.Decimal `json:"minimum_order"`
}

// Catalog is an immutable index of stores and their products.
type Catalog struct {
	stores   []Store
	byID     map[string]Store
	products map[string][]Product
}

// New indexes stores and products. Products whose store is unknown are dropped.
func New(stores []Store, products []Product) *Catalog {
	c := &Catalog{
		stores:   make([]Store, len(stores)),
		byID:     make(map[string]Store, len(stores)),
		products: make(map[string][]Product, len(stores)),
	}
	copy(c.stores, stores)
	for _, s := range stores {
		c.byID[s.ID] = s
	}
	for _, p := range products {
		if _, ok := c.byID[p.StoreID]; !ok {
			continue
		}
		c.products[p.StoreID] = append(c.products[p.StoreID], p)
	}
	return c
}

// Stores returns every store in load order.
func (c *Catalog) Stores() []Store {
	out := make([]Store, len(c.stores))
	copy(out, c.stores)
	return out
}

// Store returns the store with the given id.
func (c *Catalog) Store(id string) (Store, error) {
	s, ok := c.byID[id]
	if !ok {
		return Store{}, ErrStoreNotFound
	}
	return s, nil
}

// Product looks a product up within a store.
func (c *Catalog) Product(storeID, productID string) (Product, bool) {
	for _, p := range c.products[storeID] {
		if p.ID == productID {
			return p, true
		}
	}
	return Product{}, false
}

// ProductsOfStore returns the products of a store, empty if the store is unknown.
func (c *Catalog) ProductsOfStore(storeID string) []Product {
	src := c.products[storeID]
	out := make([]Product, len(src))
	copy(out, src)
	return out
}

// ProductsInCategory filters a store's products by category label.
// AllCategory returns every product of the store.
func (c *Catalog) ProductsInCategory(storeID, category string) []Product {
	if category == AllCategory {
		return c.ProductsOfStore(storeID)
	}
	var out []Product
	for _, p := range c.products[storeID] {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Categories lists the distinct category labels of a store, sorted, prefixed by AllCategory.
func (c *Catalog) Categories(storeID string) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, p := range c.products[storeID] {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		labels = append(labels, p.Category)
	}
	sort.Strings(labels)
	return append([]string{AllCategory}, labels...)
}

// Search returns the stores whose name, description or category contains query,
// ignoring case. An empty query returns every store.
func (c *Catalog) Search(query string) []Store {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.Stores()
	}
	var out []Store
	for _, s := range c.stores {
		if strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(s.Description), q) ||
			strings.Contains(strings.ToLower(s.Category), q) {
			out = append(out, s)
		}
	}
	return out
}
