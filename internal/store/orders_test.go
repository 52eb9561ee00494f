package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/vitrina/internal/db"
	"github.com/erazemk/vitrina/internal/model"
)

func TestCreateOrderSkipsUnresolved(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	products := &Products{DB: database}

	user, _ := CreateUser(ctx, database, "cliente", "hash", model.RoleUser)
	a := createProduct(t, ctx, products, "Parafuso M8 3M", model.SectorAutomotive)
	b := createProduct(t, ctx, products, "Porca M8 Vonder", model.SectorAutomotive)

	lines := []model.OrderLine{
		{ProductID: 999, Quantity: 4},
		{ProductID: a.ID, Quantity: 2, Notes: "zincado"},
		{ProductID: b.ID, Quantity: 3},
	}
	order, err := CreateOrder(ctx, database, user.ID, lines, "entregar na loja", LookupProductTx)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.TotalItems != 5 {
		t.Errorf("expected total 5, got %d", order.TotalItems)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	if order.Items[0].ProductBrand != "3M" || order.Items[0].Notes != "zincado" {
		t.Errorf("unexpected first item %+v", order.Items[0])
	}
	if order.Status != model.OrderStatusPending || order.Username != "cliente" {
		t.Errorf("unexpected order header %+v", order)
	}
}

func TestOrderSnapshotSurvivesProductChanges(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	products := &Products{DB: database}

	user, _ := CreateUser(ctx, database, "cliente", "hash", model.RoleUser)
	p := createProduct(t, ctx, products, "Junta Sabó", model.SectorAutomotive)
	order, err := CreateOrder(ctx, database, user.ID, []model.OrderLine{{ProductID: p.ID, Quantity: 1}}, "", LookupProductTx)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	p.Name = "Junta Taranto"
	products.UpdateProduct(ctx, p)
	products.DeleteProduct(ctx, p.ID, model.SectorAutomotive)

	got, err := GetOrder(ctx, database, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Items[0].ProductName != "Junta Sabó" || got.Items[0].ProductBrand != "Sabó" {
		t.Errorf("snapshot changed: %+v", got.Items[0])
	}
}

func TestCreateOrderRollsBack(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "cliente", "hash", model.RoleUser)
	p := createProduct(t, ctx, &Products{DB: database}, "Óleo Mobil", model.SectorAutomotive)

	// A non-positive quantity violates the item CHECK after the header is
	// written; nothing may be left behind.
	lines := []model.OrderLine{{ProductID: p.ID, Quantity: 1}, {ProductID: p.ID, Quantity: 0}}
	if _, err := CreateOrder(ctx, database, user.ID, lines, "", LookupProductTx); err == nil {
		t.Fatal("expected error")
	}
	if n, _ := CountOrders(ctx, database, ""); n != 0 {
		t.Errorf("expected no orders after rollback, got %d", n)
	}
	var items int
	database.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_items`).Scan(&items)
	if items != 0 {
		t.Errorf("expected no order items after rollback, got %d", items)
	}
}

func TestCreateOrderLookupError(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user, _ := CreateUser(ctx, database, "cliente", "hash", model.RoleUser)

	failing := func(context.Context, *sql.Tx, int64) (*model.Product, error) {
		return nil, errors.New("catalog offline")
	}
	if _, err := CreateOrder(ctx, database, user.ID, []model.OrderLine{{ProductID: 1, Quantity: 1}}, "", failing); err == nil {
		t.Fatal("expected lookup error")
	}
	if n, _ := CountOrders(ctx, database, ""); n != 0 {
		t.Errorf("expected no orders, got %d", n)
	}
}

func TestListUpdateDeleteOrders(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	products := &Products{DB: database}

	alice, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	bob, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	p := createProduct(t, ctx, products, "Vela NGK", model.SectorAutomotive)
	line := []model.OrderLine{{ProductID: p.ID, Quantity: 1}}

	first, _ := CreateOrder(ctx, database, alice.ID, line, "", LookupProductTx)
	second, _ := CreateOrder(ctx, database, alice.ID, line, "", LookupProductTx)
	CreateOrder(ctx, database, bob.ID, line, "", LookupProductTx)

	mine, err := ListUserOrders(ctx, database, alice.ID)
	if err != nil {
		t.Fatalf("ListUserOrders: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != second.ID {
		t.Fatalf("expected alice's two orders newest first, got %+v", mine)
	}
	if len(mine[0].Items) != 1 {
		t.Errorf("expected items to be loaded, got %d", len(mine[0].Items))
	}

	all, _ := ListOrders(ctx, database)
	if len(all) != 3 {
		t.Errorf("expected 3 orders, got %d", len(all))
	}

	if err := UpdateOrderStatus(ctx, database, first.ID, model.OrderStatusShipped); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if n, _ := CountOrders(ctx, database, model.OrderStatusShipped); n != 1 {
		t.Errorf("expected 1 shipped order, got %d", n)
	}
	if err := UpdateOrderStatus(ctx, database, 999, model.OrderStatusShipped); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}

	if err := DeleteOrder(ctx, database, first.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	var items int
	database.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_items WHERE order_id = ?`, first.ID).Scan(&items)
	if items != 0 {
		t.Errorf("expected items to cascade, %d left", items)
	}
	if err := DeleteOrder(ctx, database, first.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestImages(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	data, _, err := GetImage(ctx, database, "produtos/none.jpg")
	if err != nil || data != nil {
		t.Fatalf("expected missing image, got %v, %v", data, err)
	}

	PutImage(ctx, database, "produtos/a.jpg", []byte{1, 2}, "image/jpeg")
	if err := PutImage(ctx, database, "produtos/a.jpg", []byte{3}, "image/jpeg"); err != nil {
		t.Fatalf("PutImage: %v", err)
	}
	data, mime, err := GetImage(ctx, database, "produtos/a.jpg")
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if len(data) != 1 || data[0] != 3 || mime != "image/jpeg" {
		t.Errorf("unexpected image %v %q", data, mime)
	}
}
