// Package client is a typed HTTP client for the Götür API. It keeps the
// session cookie in a jar so calls made after Login are authenticated.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"gotur/pkg/catalog"
	"gotur/pkg/display"
	"gotur/pkg/order"
	"gotur/pkg/shop"
)

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// StoreDetail is a store together with its product categories.
type StoreDetail struct {
	catalog.Store
	Categories []string `json:"categories"`
}

// Order is a placed order with the attributes used to render its status.
type Order struct {
	order.Order
	Display display.Attributes `json:"display"`
}

// Client talks to one API base URL.
type Client struct {
	base *url.URL
	hc   *http.Client
}

// New returns a client for baseURL. A nil hc gets a default client; a cookie
// jar is attached when hc has none.
func New(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		hc.Jar = jar
	}
	return &Client{base: u, hc: hc}, nil
}

// Login opens a session for username. The returned id is also kept in the jar.
func (c *Client) Login(ctx context.Context, username, address string) (string, error) {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	body := map[string]string{"username": username, "address": address}
	if err := c.do(ctx, http.MethodPost, "/login", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil, nil)
}

// Stores lists stores matching query; an empty query lists all of them.
func (c *Client) Stores(ctx context.Context, query string) ([]catalog.Store, error) {
	var q url.Values
	if query != "" {
		q = url.Values{"q": {query}}
	}
	var out []catalog.Store
	err := c.do(ctx, http.MethodGet, "/stores", q, nil, &out)
	return out, err
}

// Store returns one store and its categories.
func (c *Client) Store(ctx context.Context, id string) (StoreDetail, error) {
	var out StoreDetail
	err := c.do(ctx, http.MethodGet, "/stores/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// Products lists a store's products in category. An empty category lists all.
func (c *Client) Products(ctx context.Context, storeID, category string) ([]catalog.Product, error) {
	var q url.Values
	if category != "" {
		q = url.Values{"category": {category}}
	}
	var out []catalog.Product
	err := c.do(ctx, http.MethodGet, "/stores/"+url.PathEscape(storeID)+"/products", q, nil, &out)
	return out, err
}

// Cart returns the session's cart.
func (c *Client) Cart(ctx context.Context) (shop.Summary, error) {
	var out shop.Summary
	err := c.do(ctx, http.MethodGet, "/cart", nil, nil, &out)
	return out, err
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context) (shop.Summary, error) {
	var out shop.Summary
	err := c.do(ctx, http.MethodDelete, "/cart", nil, nil, &out)
	return out, err
}

// AddItem adds one unit of a product.
func (c *Client) AddItem(ctx context.Context, storeID, productID string) (shop.Summary, error) {
	var out shop.Summary
	body := map[string]string{"store_id": storeID, "product_id": productID}
	err := c.do(ctx, http.MethodPost, "/cart/items", nil, body, &out)
	return out, err
}

// SetQuantity sets a line's quantity; zero or less removes it.
func (c *Client) SetQuantity(ctx context.Context, productID string, quantity int) (shop.Summary, error) {
	var out shop.Summary
	body := map[string]int{"quantity": quantity}
	err := c.do(ctx, http.MethodPut, "/cart/items/"+url.PathEscape(productID), nil, body, &out)
	return out, err
}

// RemoveItem removes a line.
func (c *Client) RemoveItem(ctx context.Context, productID string) (shop.Summary, error) {
	var out shop.Summary
	err := c.do(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(productID), nil, nil, &out)
	return out, err
}

// ApplyPromotion applies code. A rejected code yields an *Error with status 422.
func (c *Client) ApplyPromotion(ctx context.Context, code string) (shop.Summary, error) {
	var out shop.Summary
	err := c.do(ctx, http.MethodPut, "/cart/promotion", nil, map[string]string{"code": code}, &out)
	return out, err
}

// RemovePromotion drops the applied promotion.
func (c *Client) RemovePromotion(ctx context.Context) (shop.Summary, error) {
	var out shop.Summary
	err := c.do(ctx, http.MethodDelete, "/cart/promotion", nil, nil, &out)
	return out, err
}

// SetNote sets the delivery note.
func (c *Client) SetNote(ctx context.Context, note string) (shop.Summary, error) {
	var out shop.Summary
	err := c.do(ctx, http.MethodPut, "/cart/note", nil, map[string]string{"note": note}, &out)
	return out, err
}

// Checkout places the cart as an order. An empty address uses the one given
// at login.
func (c *Client) Checkout(ctx context.Context, deliveryAddress string) (Order, error) {
	var out Order
	var body any
	if deliveryAddress != "" {
		body = map[string]string{"delivery_address": deliveryAddress}
	}
	err := c.do(ctx, http.MethodPost, "/checkout", nil, body, &out)
	return out, err
}

// Orders lists the session user's orders, most recent first.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out []Order
	err := c.do(ctx, http.MethodGet, "/orders", nil, nil, &out)
	return out, err
}

// Order returns one order.
func (c *Client) Order(ctx context.Context, id string) (Order, error) {
	var out Order
	err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// UpdateStatus overwrites an order's status.
func (c *Client) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	body := map[string]string{"status": status.String()}
	return c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/status", nil, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &Error{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
