package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/store"
)

// DashboardHandler serves the admin overview.
type DashboardHandler struct {
	DB      *sql.DB
	Catalog catalog.Store
}

type dashboardResponse struct {
	Sector        model.Sector `json:"sector"`
	Products      int          `json:"products"`
	Customers     int          `json:"customers"`
	Orders        int          `json:"orders"`
	PendingOrders int          `json:"pending_orders"`
}

// Get handles GET /api/admin/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := dashboardResponse{Sector: GetClaims(ctx).Sector}

	var err error
	if resp.Products, err = h.Catalog.CountProducts(ctx, resp.Sector); err != nil {
		writeError(w, "count products", err)
		return
	}
	if resp.Customers, err = store.CountUsers(ctx, h.DB, model.RoleUser); err != nil {
		writeError(w, "count customers", err)
		return
	}
	if resp.Orders, err = store.CountOrders(ctx, h.DB, ""); err != nil {
		writeError(w, "count orders", err)
		return
	}
	if resp.PendingOrders, err = store.CountOrders(ctx, h.DB, model.OrderStatusPending); err != nil {
		writeError(w, "count orders", err)
		return
	}

	jsonResponse(w, http.StatusOK, resp)
}
