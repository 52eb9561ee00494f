// Package orders builds customer orders from requested lines and renders
// them into the notification message sent to the store over WhatsApp.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/store"
)

// Errors returned by the Service.
var (
	ErrPersistence     = errors.New("order persistence failed")
	ErrNotFound        = errors.New("order not found")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidStatus   = errors.New("invalid order status")
)

// Service manages the order lifecycle on top of the local database.
type Service struct {
	DB *sql.DB

	// Lookup resolves products while an order is written. Nil means the
	// catalog lives in DB and is read inside the order transaction.
	Lookup store.ProductLookup
}

// CatalogLookup adapts a catalog that lives outside the order database. The
// lookups then happen outside the order transaction.
func CatalogLookup(l catalog.Lookup) store.ProductLookup {
	return func(ctx context.Context, _ *sql.Tx, id int64) (*model.Product, error) {
		return l.GetProduct(ctx, id)
	}
}

// Create places an order for userID. A zero quantity means one; negative
// quantities are rejected before anything is written. Lines referring to
// products that no longer exist are dropped. The order and its items are
// written atomically.
func (s *Service) Create(ctx context.Context, userID int64, lines []model.OrderLine, notes string) (*model.Order, error) {
	normalized := make([]model.OrderLine, len(lines))
	for i, line := range lines {
		if line.Quantity < 0 {
			return nil, fmt.Errorf("%w: %d for product %d", ErrInvalidQuantity, line.Quantity, line.ProductID)
		}
		if line.Quantity == 0 {
			line.Quantity = 1
		}
		normalized[i] = line
	}

	lookup := s.Lookup
	if lookup == nil {
		lookup = store.LookupProductTx
	}
	resolving := func(ctx context.Context, tx *sql.Tx, id int64) (*model.Product, error) {
		p, err := lookup(ctx, tx, id)
		if err == nil && p == nil {
			slog.Debug("order line skipped, product not found", "product_id", id, "user_id", userID)
		}
		return p, err
	}

	order, err := store.CreateOrder(ctx, s.DB, userID, normalized, notes, resolving)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return order, nil
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*model.Order, error) {
	order, err := store.GetOrder(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]model.Order, error) {
	return store.ListOrders(ctx, s.DB)
}

// ListForUser returns a user's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return store.ListUserOrders(ctx, s.DB, userID)
}

// SetStatus sets an order's status. Any known status may follow any other.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) error {
	if !model.ValidOrderStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	err := store.UpdateOrderStatus(ctx, s.DB, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes an order together with its items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := store.DeleteOrder(ctx, s.DB, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Message renders the notification for order, resolving the customer's
// username.
func (s *Service) Message(ctx context.Context, order *model.Order) (string, error) {
	username := ""
	user, err := store.GetUser(ctx, s.DB, order.UserID)
	if err != nil {
		return "", err
	}
	if user != nil {
		username = user.Username
	}
	return FormatNotification(order, username), nil
}
