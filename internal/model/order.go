package model

import "time"

// Order is a customer order. TotalItems is cached when the order is written.
type Order struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"user_id"`
	Status     string      `json:"status"`
	Notes      string      `json:"notes,omitempty"`
	TotalItems int         `json:"total_items"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Items      []OrderItem `json:"items"`

	// Joined field (not always populated).
	Username string `json:"username,omitempty"`
}

// ItemCount sums the quantities of the order's items.
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// OrderItem is one line of an order. ProductName and ProductBrand are a
// snapshot taken when the order was created and are never rewritten.
type OrderItem struct {
	ID           int64  `json:"id"`
	OrderID      int64  `json:"order_id"`
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	ProductBrand string `json:"product_brand"`
	Quantity     int    `json:"quantity"`
	Notes        string `json:"notes,omitempty"`
}

// OrderLine is a requested order line before product resolution.
type OrderLine struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusShipped   = "shipped"
	OrderStatusFinalized = "finalized"
)

// ValidOrderStatus reports whether status is a known order status.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusShipped, OrderStatusFinalized:
		return true
	}
	return false
}
