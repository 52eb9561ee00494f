package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/vitrina/internal/model"
)

// ProductLookup resolves an order line's product while the order transaction
// is open. A missing product is reported as (nil, nil).
type ProductLookup func(ctx context.Context, tx *sql.Tx, id int64) (*model.Product, error)

// CreateOrder writes an order and its items in a single transaction. Lines
// whose product cannot be resolved are skipped; the cached total counts the
// quantities of the written items only. Quantities must already be positive.
func CreateOrder(ctx context.Context, db *sql.DB, userID int64, lines []model.OrderLine, notes string, lookup ProductLookup) (*model.Order, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var items []model.OrderItem
	total := 0
	for _, line := range lines {
		p, err := lookup(ctx, tx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("resolving product %d: %w", line.ProductID, err)
		}
		if p == nil {
			continue
		}
		items = append(items, model.OrderItem{
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductBrand: p.Brand(),
			Quantity:     line.Quantity,
			Notes:        line.Notes,
		})
		total += line.Quantity
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, notes, total_items) VALUES (?, ?, ?)`,
		userID, nullString(notes), total,
	)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting order id: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, product_brand, quantity, notes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			orderID, item.ProductID, item.ProductName, item.ProductBrand, item.Quantity, nullString(item.Notes),
		)
		if err != nil {
			return nil, fmt.Errorf("adding order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}

	return GetOrder(ctx, db, orderID)
}

const orderColumns = `o.id, o.user_id, o.status, o.notes, o.total_items, o.created_at, o.updated_at,
	COALESCE(u.username, '')`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	o := &model.Order{}
	var notes sql.NullString
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &notes, &o.TotalItems, &o.CreatedAt, &o.UpdatedAt, &o.Username)
	if err != nil {
		return nil, err
	}
	o.Notes = notes.String
	return o, nil
}

// GetOrder returns an order with its items.
func GetOrder(ctx context.Context, db *sql.DB, id int64) (*model.Order, error) {
	o, err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders o LEFT JOIN users u ON u.id = o.user_id
		 WHERE o.id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	if o.Items, err = listOrderItems(ctx, db, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders returns every order, newest first.
func ListOrders(ctx context.Context, db *sql.DB) ([]model.Order, error) {
	return listOrders(ctx, db,
		`SELECT `+orderColumns+` FROM orders o LEFT JOIN users u ON u.id = o.user_id
		 ORDER BY o.created_at DESC, o.id DESC`)
}

// ListUserOrders returns the orders placed by a user, newest first.
func ListUserOrders(ctx context.Context, db *sql.DB, userID int64) ([]model.Order, error) {
	return listOrders(ctx, db,
		`SELECT `+orderColumns+` FROM orders o LEFT JOIN users u ON u.id = o.user_id
		 WHERE o.user_id = ? ORDER BY o.created_at DESC, o.id DESC`, userID)
}

func listOrders(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Order, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	rows.Close()

	// Items are loaded after the header cursor is closed; the test database
	// runs on a single connection.
	for i := range orders {
		if orders[i].Items, err = listOrderItems(ctx, db, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func listOrderItems(ctx context.Context, db *sql.DB, orderID int64) ([]model.OrderItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, product_brand, quantity, notes
		 FROM order_items WHERE order_id = ? ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var item model.OrderItem
		var notes sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.ProductBrand, &item.Quantity, &notes); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		item.Notes = notes.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateOrderStatus sets an order's status. It returns sql.ErrNoRows when the
// order does not exist.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteOrder deletes an order; its items go with it. It returns
// sql.ErrNoRows when the order does not exist.
func DeleteOrder(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountOrders counts orders with the given status, or all orders when status
// is empty.
func CountOrders(ctx context.Context, db *sql.DB, status string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE ? = '' OR status = ?`, status, status,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}
