package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/vitrina/internal/blob"
	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/orders"
	"github.com/erazemk/vitrina/internal/store"
)

// Config holds the router's dependencies. Catalog, Blobs and Orders default
// to implementations backed by DB.
type Config struct {
	DB        *sql.DB
	JWTSecret string
	Catalog   catalog.Store
	Blobs     blob.Store
	Orders    *orders.Service
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	if cfg.Catalog == nil {
		cfg.Catalog = &store.Products{DB: cfg.DB}
	}
	if cfg.Blobs == nil {
		cfg.Blobs = &blob.DB{DB: cfg.DB}
	}
	if cfg.Orders == nil {
		cfg.Orders = &orders.Service{DB: cfg.DB}
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: cfg.DB, JWTSecret: cfg.JWTSecret}
	productsHandler := &ProductsHandler{Catalog: cfg.Catalog, Blobs: cfg.Blobs}
	usersHandler := &UsersHandler{DB: cfg.DB}
	settingsHandler := &SettingsHandler{DB: cfg.DB}
	dashboardHandler := &DashboardHandler{DB: cfg.DB, Catalog: cfg.Catalog}
	ordersHandler := &OrdersHandler{DB: cfg.DB, Orders: cfg.Orders}
	imagesHandler := &ImagesHandler{DB: cfg.DB}

	authMW := AuthMiddleware(cfg.JWTSecret, cfg.DB)
	requireAdmin := RequireRole(model.RoleAdmin)

	// session: authenticated with a sector selected.
	session := func(h http.HandlerFunc) http.Handler {
		return authMW(RequireSector(h))
	}
	// admin: session plus the admin role.
	admin := func(h http.HandlerFunc) http.Handler {
		return authMW(requireAdmin(RequireSector(h)))
	}

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET "+blob.ImageRoute+"{key...}", imagesHandler.Get)

	// Session management.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("PUT /api/auth/sector", authMW(http.HandlerFunc(authHandler.SelectSector)))
	mux.Handle("DELETE /api/auth/sector", authMW(http.HandlerFunc(authHandler.ClearSector)))

	// Catalog browsing.
	mux.Handle("GET /api/products", session(productsHandler.Search))
	mux.Handle("GET /api/brands", session(productsHandler.Brands))
	mux.Handle("GET /api/products/{id}", session(productsHandler.Get))
	mux.Handle("GET /api/clearance", session(productsHandler.Offers))

	// Catalog administration.
	mux.Handle("GET /api/products/related", admin(productsHandler.Related))
	mux.Handle("GET /api/admin/products", admin(productsHandler.AdminList))
	mux.Handle("POST /api/products", admin(productsHandler.Create))
	mux.Handle("PUT /api/products/{id}", admin(productsHandler.Update))
	mux.Handle("DELETE /api/products/{id}", admin(productsHandler.Delete))
	mux.Handle("POST /api/products/{id}/photo", admin(productsHandler.UploadPhoto))
	mux.Handle("GET /api/admin/clearance", admin(productsHandler.AdminClearance))
	mux.Handle("POST /api/products/{id}/clearance/toggle", admin(productsHandler.ToggleClearance))
	mux.Handle("PUT /api/products/{id}/clearance", admin(productsHandler.SetClearancePrices))
	mux.Handle("GET /api/admin/dashboard", admin(dashboardHandler.Get))

	// Users (admin only, no sector needed).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Settings.
	mux.Handle("GET /api/whatsapp", authMW(http.HandlerFunc(settingsHandler.GetWhatsApp)))
	mux.Handle("PUT /api/whatsapp", authMW(requireAdmin(http.HandlerFunc(settingsHandler.SetWhatsApp))))

	// Orders.
	mux.Handle("POST /api/orders", authMW(http.HandlerFunc(ordersHandler.Create)))
	mux.Handle("GET /api/orders", authMW(http.HandlerFunc(ordersHandler.List)))
	mux.Handle("GET /api/orders/{id}", authMW(http.HandlerFunc(ordersHandler.Get)))
	mux.Handle("GET /api/orders/{id}/message", authMW(http.HandlerFunc(ordersHandler.Message)))
	mux.Handle("PUT /api/orders/{id}/status", authMW(requireAdmin(http.HandlerFunc(ordersHandler.SetStatus))))
	mux.Handle("DELETE /api/orders/{id}", authMW(requireAdmin(http.HandlerFunc(ordersHandler.Delete))))

	return mux
}
