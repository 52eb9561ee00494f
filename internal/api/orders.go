package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/orders"
	"github.com/erazemk/vitrina/internal/store"
)

// OrdersHandler handles checkout and order administration.
type OrdersHandler struct {
	DB     *sql.DB
	Orders *orders.Service
}

type createOrderRequest struct {
	Items []model.OrderLine `json:"items"`
	Notes string            `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// orderMessage is an order rendered for sending over WhatsApp. WhatsAppURL is
// empty until a contact number is configured.
type orderMessage struct {
	Order       *model.Order `json:"order"`
	Message     string       `json:"message"`
	WhatsAppURL string       `json:"whatsapp_url,omitempty"`
}

// Create handles POST /api/orders.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		jsonError(w, http.StatusBadRequest, "order has no items")
		return
	}

	claims := GetClaims(r.Context())
	order, err := h.Orders.Create(r.Context(), claims.UserID, req.Items, req.Notes)
	if err != nil {
		writeError(w, "create order", err)
		return
	}

	msg, err := h.render(r.Context(), order)
	if err != nil {
		writeError(w, "render order", err)
		return
	}

	slog.Info("order placed", "user", claims.Username, "order_id", order.ID, "total_items", order.TotalItems)
	jsonResponse(w, http.StatusCreated, msg)
}

// List handles GET /api/orders. Admins see every order with ?all=1.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var list []model.Order
	var err error
	if claims.IsAdmin() && r.URL.Query().Get("all") == "1" {
		list, err = h.Orders.List(r.Context())
	} else {
		list, err = h.Orders.ListForUser(r.Context(), claims.UserID)
	}
	if err != nil {
		writeError(w, "list orders", err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(list))
}

// Get handles GET /api/orders/{id}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.visibleOrder(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, order)
}

// Message handles GET /api/orders/{id}/message.
func (h *OrdersHandler) Message(w http.ResponseWriter, r *http.Request) {
	order, ok := h.visibleOrder(w, r)
	if !ok {
		return
	}
	msg, err := h.render(r.Context(), order)
	if err != nil {
		writeError(w, "render order", err)
		return
	}
	jsonResponse(w, http.StatusOK, msg)
}

// SetStatus handles PUT /api/orders/{id}/status.
func (h *OrdersHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Orders.SetStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, "set order status", err)
		return
	}

	slog.Info("order status updated", "user", GetClaims(r.Context()).Username, "order_id", id, "status", req.Status)
	jsonResponse(w, http.StatusOK, map[string]string{"status": req.Status})
}

// Delete handles DELETE /api/orders/{id}.
func (h *OrdersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.Orders.Delete(r.Context(), id); err != nil {
		writeError(w, "delete order", err)
		return
	}

	slog.Info("order deleted", "user", GetClaims(r.Context()).Username, "order_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// visibleOrder loads the {id} order if the session may see it. Other users'
// orders are reported as missing.
func (h *OrdersHandler) visibleOrder(w http.ResponseWriter, r *http.Request) (*model.Order, bool) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return nil, false
	}

	order, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get order", err)
		return nil, false
	}

	claims := GetClaims(r.Context())
	if order.UserID != claims.UserID && !claims.IsAdmin() {
		writeError(w, "get order", orders.ErrNotFound)
		return nil, false
	}
	return order, true
}

func (h *OrdersHandler) render(ctx context.Context, order *model.Order) (*orderMessage, error) {
	text, err := h.Orders.Message(ctx, order)
	if err != nil {
		return nil, err
	}
	number, err := store.GetWhatsAppNumber(ctx, h.DB)
	if err != nil {
		return nil, err
	}

	msg := &orderMessage{Order: order, Message: text}
	if number != "" {
		msg.WhatsAppURL = orders.WhatsAppLink(number, text)
	}
	return msg, nil
}
