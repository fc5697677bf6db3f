package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"

	"gotur/pkg/catalog"
	"gotur/pkg/display"
	"gotur/pkg/order"
	"gotur/pkg/otel"
	"gotur/pkg/session"
)

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Address  string `json:"address"`
}

type loginResponse struct {
	SessionID string `json:"session_id"`
}

type addItemRequest struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type promotionRequest struct {
	Code string `json:"code"`
}

type noteRequest struct {
	Note string `json:"note"`
}

type checkoutRequest struct {
	DeliveryAddress string `json:"delivery_address"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type storeDetail struct {
	catalog.Store
	Categories []string `json:"categories"`
}

type orderView struct {
	order.Order
	Display display.Attributes `json:"display"`
}

func viewOf(o order.Order) orderView {
	return orderView{Order: o, Display: display.ForStatus(o.Status)}
}

// loginHandler handles user login and session creation.
// @Summary Login
// @Description Authenticates the shopper and sets the session cookie
// @Accept json
// @Produce json
// @Param creds body loginRequest true "Credentials"
// @Success 200 {object} loginResponse
// @Failure 400 {object} errorResponse
// @Router /login [post]
func (a *app) loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "loginHandler")
	defer span.End()

	var req loginRequest
	if err := decode(r, &req); err != nil || req.Username == "" {
		writeErr(w, http.StatusBadRequest, "invalid credentials")
		return
	}
	sid, err := a.sessions.Create(ctx, session.Profile{UserID: req.Username, Name: req.Name, Address: req.Address})
	if err != nil {
		a.log.Error(ctx, "create session", "error", err)
		writeErr(w, http.StatusInternalServerError, "session error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(a.sessionTTL),
		HttpOnly: true,
	})
	a.log.Info(ctx, "login", "user", req.Username)
	writeJSON(w, http.StatusOK, loginResponse{SessionID: sid})
}

// logoutHandler ends the session and discards its cart.
// @Summary Logout
// @Success 204
// @Security ApiKeyAuth
// @Router /logout [post]
func (a *app) logoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "logoutHandler")
	defer span.End()

	sid := sessionFrom(ctx)
	if err := a.sessions.Delete(ctx, sid); err != nil {
		a.log.Error(ctx, "delete session", "error", err)
		writeErr(w, http.StatusInternalServerError, "session error")
		return
	}
	a.shop.Forget(sid)
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

// listStoresHandler lists stores, optionally filtered by a search term.
// @Summary List stores
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {array} catalog.Store
// @Router /stores [get]
func (a *app) listStoresHandler(w http.ResponseWriter, r *http.Request) {
	_, span := otel.AddSpan(r.Context(), "listStoresHandler")
	defer span.End()

	q := r.URL.Query().Get("q")
	span.SetAttributes(attribute.String("query", q))
	writeJSON(w, http.StatusOK, a.shop.Catalog().Search(q))
}

// getStoreHandler returns one store and its categories.
// @Summary Get store
// @Produce json
// @Param id path string true "Store ID"
// @Success 200 {object} storeDetail
// @Failure 404 {object} errorResponse
// @Router /stores/{id} [get]
func (a *app) getStoreHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getStoreHandler")
	defer span.End()

	cat := a.shop.Catalog()
	s, err := cat.Store(mux.Vars(r)["id"])
	if err != nil {
		a.fail(ctx, w, "get store", err)
		return
	}
	writeJSON(w, http.StatusOK, storeDetail{Store: s, Categories: cat.Categories(s.ID)})
}

// listProductsHandler lists a store's products.
// @Summary List products
// @Produce json
// @Param id path string true "Store ID"
// @Param category query string false "Category, All for every product"
// @Success 200 {array} catalog.Product
// @Failure 404 {object} errorResponse
// @Router /stores/{id}/products [get]
func (a *app) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listProductsHandler")
	defer span.End()

	cat := a.shop.Catalog()
	s, err := cat.Store(mux.Vars(r)["id"])
	if err != nil {
		a.fail(ctx, w, "list products", err)
		return
	}
	category := r.URL.Query().Get("category")
	if category == "" {
		category = catalog.AllCategory
	}
	writeJSON(w, http.StatusOK, cat.ProductsInCategory(s.ID, category))
}

// listCategoriesHandler lists a store's categories.
// @Summary List categories
// @Produce json
// @Param id path string true "Store ID"
// @Success 200 {array} string
// @Failure 404 {object} errorResponse
// @Router /stores/{id}/categories [get]
func (a *app) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listCategoriesHandler")
	defer span.End()

	cat := a.shop.Catalog()
	s, err := cat.Store(mux.Vars(r)["id"])
	if err != nil {
		a.fail(ctx, w, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, cat.Categories(s.ID))
}

// listStatusesHandler lists the order statuses with their display attributes.
// @Summary List order statuses
// @Produce json
// @Success 200 {array} display.Attributes
// @Router /order-statuses [get]
func (a *app) listStatusesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, display.All())
}

// getCartHandler returns the session's cart.
// @Summary Get cart
// @Produce json
// @Success 200 {object} shop.Summary
// @Security ApiKeyAuth
// @Router /cart [get]
func (a *app) getCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getCartHandler")
	defer span.End()

	writeJSON(w, http.StatusOK, a.shop.Cart(sessionFrom(ctx)))
}

// clearCartHandler empties the cart.
// @Summary Clear cart
// @Produce json
// @Success 200 {object} shop.Summary
// @Security ApiKeyAuth
// @Router /cart [delete]
func (a *app) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "clearCartHandler")
	defer span.End()

	writeJSON(w, http.StatusOK, a.shop.ClearCart(ctx, sessionFrom(ctx)))
}

// addItemHandler adds one unit of a product. Adding from a different store
// replaces the cart.
// @Summary Add item
// @Accept json
// @Produce json
// @Param item body addItemRequest true "Item"
// @Success 200 {object} shop.Summary
// @Failure 404 {object} errorResponse
// @Security ApiKeyAuth
// @Router /cart/items [post]
func (a *app) addItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addItemHandler")
	defer span.End()

	var req addItemRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(attribute.String("store_id", req.StoreID), attribute.String("product_id", req.ProductID))
	sum, err := a.shop.AddItem(ctx, sessionFrom(ctx), req.StoreID, req.ProductID)
	if err != nil {
		a.fail(ctx, w, "add item", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// setQuantityHandler sets a line's quantity. Zero or less removes the line.
// @Summary Set quantity
// @Accept json
// @Produce json
// @Param productID path string true "Product ID"
// @Param quantity body quantityRequest true "Quantity"
// @Success 200 {object} shop.Summary
// @Security ApiKeyAuth
// @Router /cart/items/{productID} [put]
func (a *app) setQuantityHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "setQuantityHandler")
	defer span.End()

	var req quantityRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.shop.SetQuantity(ctx, sessionFrom(ctx), mux.Vars(r)["productID"], req.Quantity))
}

// removeItemHandler removes a line.
// @Summary Remove item
// @Produce json
// @Param productID path string true "Product ID"
// @Success 200 {object} shop.Summary
// @Security ApiKeyAuth
// @Router /cart/items/{productID} [delete]
func (a *app) removeItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "removeItemHandler")
	defer span.End()

	writeJSON(w, http.StatusOK, a.shop.RemoveItem(ctx, sessionFrom(ctx), mux.Vars(r)["productID"]))
}

// applyPromotionHandler applies a promotion code.
// @Summary Apply promotion
// @Accept json
// @Produce json
// @Param code body promotionRequest true "Code"
// @Success 200 {object} shop.Summary
// @Failure 422 {object} errorResponse
// @Security ApiKeyAuth
// @Router /cart/promotion [put]
func (a *app) applyPromotionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "applyPromotionHandler")
	defer span.End()

	var req promotionRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	sum, err := a.shop.ApplyPromotion(ctx, sessionFrom(ctx), req.Code)
	if err != nil {
		a.fail(ctx, w, "apply promotion", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// removePromotionHandler drops the applied promotion.
// @Summary Remove promotion
// @Produce json
// @Success 200 {object} shop.Summary
// @Security ApiKeyAuth
// @Router /cart/promotion [delete]
func (a *app) removePromotionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "removePromotionHandler")
	defer span.End()

	writeJSON(w, http.StatusOK, a.shop.RemovePromotion(ctx, sessionFrom(ctx)))
}

// setNoteHandler sets the delivery note.
// @Summary Set delivery note
// @Accept json
// @Produce json
// @Param note body noteRequest true "Note"
// @Success 200 {object} shop.Summary
// @Security ApiKeyAuth
// @Router /cart/note [put]
func (a *app) setNoteHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "setNoteHandler")
	defer span.End()

	var req noteRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.shop.SetNote(ctx, sessionFrom(ctx), req.Note))
}

// checkoutHandler turns the cart into an order.
// @Summary Checkout
// @Description Places an order from the cart. The session address is used when none is given.
// @Accept json
// @Produce json
// @Param checkout body checkoutRequest false "Delivery address"
// @Success 201 {object} orderView
// @Failure 422 {object} errorResponse
// @Security ApiKeyAuth
// @Router /checkout [post]
func (a *app) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "checkoutHandler")
	defer span.End()

	var req checkoutRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	p := profileFrom(ctx)
	addr := req.DeliveryAddress
	if addr == "" {
		addr = p.Address
	}
	o, err := a.shop.Checkout(ctx, sessionFrom(ctx), p.UserID, addr)
	if err != nil {
		a.fail(ctx, w, "checkout", err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(o))
}

// listOrdersHandler lists the shopper's orders, most recent first.
// @Summary List orders
// @Produce json
// @Success 200 {array} orderView
// @Security ApiKeyAuth
// @Router /orders [get]
func (a *app) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	orders, err := a.shop.Orders(ctx, profileFrom(ctx).UserID)
	if err != nil {
		a.fail(ctx, w, "list orders", err)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, viewOf(o))
	}
	writeJSON(w, http.StatusOK, views)
}

// getOrderHandler retrieves an order by ID.
// @Summary Get order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} orderView
// @Failure 404 {object} errorResponse
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func (a *app) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	o, err := a.shop.Order(ctx, profileFrom(ctx).UserID, mux.Vars(r)["id"])
	if err != nil {
		a.fail(ctx, w, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(o))
}

// updateStatusHandler overwrites the status of one of the shopper's orders.
// Unknown ids and other shoppers' orders are left alone.
// @Summary Update order status
// @Accept json
// @Param id path string true "Order ID"
// @Param status body statusRequest true "Status"
// @Success 204
// @Failure 400 {object} errorResponse
// @Security ApiKeyAuth
// @Router /orders/{id}/status [put]
func (a *app) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateStatusHandler")
	defer span.End()

	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		a.fail(ctx, w, "update status", err)
		return
	}
	if err := a.shop.UpdateStatus(ctx, profileFrom(ctx).UserID, mux.Vars(r)["id"], status); err != nil {
		a.fail(ctx, w, "update status", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
