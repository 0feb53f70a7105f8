package storage

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:password@tcp(localhost:3306)/live_commerce?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	return db
}

func cleanupOrders(ctx context.Context, db *sql.DB, buyerID string) {
	db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id IN (SELECT id FROM orders WHERE buyer_id = ?)`, buyerID)
	db.ExecContext(ctx, `DELETE FROM orders WHERE buyer_id = ?`, buyerID)
}

func TestCreateOrderAndGetOpen(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	cleanupOrders(ctx, db, "test-buyer-1")

	orderID, err := adapter.CreateOrder(ctx, domain.Order{
		SellerID:   "test-seller",
		BuyerID:    "test-buyer-1",
		ClientName: "Maria Lopez",
		Phone:      "999888777",
		Address:    "Av. Central 123",
		Items: []domain.OrderItem{
			{ProductCode: "ZP01", Name: "Denim jacket", Quantity: 2, UnitPrice: 20, Subtotal: 40},
		},
		Total:  40,
		Status: domain.OrderStatusPendingPayment,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if orderID == "" {
		t.Fatal("expected assigned order id")
	}

	open, err := adapter.GetOpenOrder(ctx, "test-seller", "test-buyer-1")
	if err != nil {
		t.Fatalf("get open order failed: %v", err)
	}
	if open == nil || open.ID != orderID {
		t.Fatalf("expected open order %s, got %+v", orderID, open)
	}
	if len(open.Items) != 1 || open.Items[0].ProductCode != "ZP01" {
		t.Errorf("expected order items loaded, got %v", open.Items)
	}
	if open.Total != 40 {
		t.Errorf("expected total 40, got %.2f", open.Total)
	}
}

func TestAppendItem_RecomputesTotal(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	cleanupOrders(ctx, db, "test-buyer-2")

	orderID, err := adapter.CreateOrder(ctx, domain.Order{
		SellerID: "test-seller",
		BuyerID:  "test-buyer-2",
		Items:    []domain.OrderItem{{ProductCode: "ZP01", Name: "Denim jacket", Quantity: 1, UnitPrice: 20, Subtotal: 20}},
		Total:    20,
		Status:   domain.OrderStatusPendingPayment,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	err = adapter.AppendItem(ctx, orderID, domain.OrderItem{
		ProductCode: "ZP02", Name: "Silk scarf", Quantity: 1, UnitPrice: 15, Subtotal: 15,
	})
	if err != nil {
		t.Fatalf("append item failed: %v", err)
	}

	open, err := adapter.GetOpenOrder(ctx, "test-seller", "test-buyer-2")
	if err != nil {
		t.Fatalf("get open order failed: %v", err)
	}
	if len(open.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(open.Items))
	}
	if open.Total != 35 {
		t.Errorf("expected total 35, got %.2f", open.Total)
	}
}

func TestAppendItem_UnknownOrder(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)
	err := adapter.AppendItem(context.Background(), "no-such-order", domain.OrderItem{
		ProductCode: "ZP01", Quantity: 1, UnitPrice: 20, Subtotal: 20,
	})
	if err == nil {
		t.Error("expected error for unknown order")
	}
}

func TestSetOrderStatus_AccumulatesVouchers(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	cleanupOrders(ctx, db, "test-buyer-3")

	orderID, err := adapter.CreateOrder(ctx, domain.Order{
		SellerID: "test-seller",
		BuyerID:  "test-buyer-3",
		Total:    10,
		Status:   domain.OrderStatusPendingPayment,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := adapter.SetOrderStatus(ctx, orderID, domain.OrderStatusPendingValidation, "media-1"); err != nil {
		t.Fatalf("first status update failed: %v", err)
	}
	if err := adapter.SetOrderStatus(ctx, orderID, domain.OrderStatusPendingValidation, "media-2"); err != nil {
		t.Fatalf("second status update failed: %v", err)
	}

	var status, vouchers string
	err = db.QueryRowContext(ctx, `SELECT status, COALESCE(voucher_refs, '') FROM orders WHERE id = ?`, orderID).
		Scan(&status, &vouchers)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if status != string(domain.OrderStatusPendingValidation) {
		t.Errorf("expected pending_validation, got %s", status)
	}
	if !strings.Contains(vouchers, "media-1") || !strings.Contains(vouchers, "media-2") {
		t.Errorf("expected both vouchers kept, got %q", vouchers)
	}

	// No longer pending payment, so it is no longer the open order.
	open, err := adapter.GetOpenOrder(ctx, "test-seller", "test-buyer-3")
	if err != nil {
		t.Fatalf("get open order failed: %v", err)
	}
	if open != nil {
		t.Errorf("expected no open order, got %+v", open)
	}
}

func TestSaveAndFindClient(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	db.ExecContext(ctx, `DELETE FROM clients WHERE buyer_id = 'test-buyer-4'`)

	client := domain.Client{BuyerID: "test-buyer-4", Name: "Maria Lopez", Address: "Av. Central 123", Phone: "999888777"}
	if err := adapter.SaveClient(ctx, "test-seller", client); err != nil {
		t.Fatalf("save client failed: %v", err)
	}

	// Upsert path: saving again with new data overwrites.
	client.Address = "Jr. Union 456"
	if err := adapter.SaveClient(ctx, "test-seller", client); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	found, err := adapter.FindClient(ctx, "test-seller", "test-buyer-4")
	if err != nil {
		t.Fatalf("find client failed: %v", err)
	}
	if found == nil || found.Address != "Jr. Union 456" {
		t.Errorf("expected updated record, got %+v", found)
	}

	missing, err := adapter.FindClient(ctx, "test-seller", "no-such-buyer")
	if err != nil {
		t.Fatalf("find missing client failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown buyer, got %+v", missing)
	}
}
