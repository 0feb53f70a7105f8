package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// MySQLAdapter persists orders, clients and the seller/carrier master
// data. It backs port.OrderStore, port.ClientStore, port.SellerDirectory
// and port.CarrierDirectory.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) (string, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, seller_id, buyer_id, client_name, phone, address, total, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		order.ID, order.SellerID, order.BuyerID, order.ClientName, order.Phone,
		order.Address, order.Total, order.Status,
	)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		if err := insertItem(ctx, tx, order.ID, item); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return order.ID, nil
}

func insertItem(ctx context.Context, tx *sql.Tx, orderID string, item domain.OrderItem) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_items (order_id, product_code, name, quantity, unit_price, subtotal)
		VALUES (?, ?, ?, ?, ?, ?)`,
		orderID, item.ProductCode, item.Name, item.Quantity, item.UnitPrice, item.Subtotal,
	)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) AppendItem(ctx context.Context, orderID string, item domain.OrderItem) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertItem(ctx, tx, orderID, item); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET total = total + ?, updated_at = NOW() WHERE id = ?`,
		item.Subtotal, orderID,
	)
	if err != nil {
		return fmt.Errorf("update order total: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("order %s not found", orderID)
	}

	return tx.Commit()
}

func (m *MySQLAdapter) SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, voucherRef string) error {
	var result sql.Result
	var err error
	if voucherRef != "" {
		// Vouchers accumulate; a second proof never overwrites the first.
		result, err = m.db.ExecContext(ctx, `
			UPDATE orders
			SET status = ?, voucher_refs = TRIM(BOTH '|' FROM CONCAT(COALESCE(voucher_refs, ''), '|', ?)), updated_at = NOW()
			WHERE id = ?`,
			status, voucherRef, orderID,
		)
	} else {
		result, err = m.db.ExecContext(ctx, `
			UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`,
			status, orderID,
		)
	}
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("order %s not found", orderID)
	}
	return nil
}

func (m *MySQLAdapter) SetOrderShipping(ctx context.Context, orderID string, shipping domain.ShippingInfo) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE orders
		SET ship_city = ?, ship_method = ?, ship_carrier = ?, ship_branch = ?, ship_cost = ?, updated_at = NOW()
		WHERE id = ?`,
		shipping.City, shipping.Method, shipping.Carrier, shipping.Branch, shipping.Cost, orderID,
	)
	if err != nil {
		return fmt.Errorf("update order shipping: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetOpenOrder(ctx context.Context, sellerID, buyerID string) (*domain.Order, error) {
	var order domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, seller_id, buyer_id, client_name, phone, address, total, status, created_at, updated_at
		FROM orders
		WHERE seller_id = ? AND buyer_id = ? AND status = ?
		ORDER BY created_at DESC LIMIT 1`,
		sellerID, buyerID, domain.OrderStatusPendingPayment,
	).Scan(&order.ID, &order.SellerID, &order.BuyerID, &order.ClientName, &order.Phone,
		&order.Address, &order.Total, &order.Status, &order.CreatedAt, &order.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query open order: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT product_code, name, quantity, unit_price, subtotal
		FROM order_items WHERE order_id = ?`, order.ID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductCode, &item.Name, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return &order, nil
}

func (m *MySQLAdapter) FindClient(ctx context.Context, sellerID, buyerID string) (*domain.Client, error) {
	var client domain.Client
	err := m.db.QueryRowContext(ctx, `
		SELECT buyer_id, name, address, phone
		FROM clients WHERE seller_id = ? AND buyer_id = ?`,
		sellerID, buyerID,
	).Scan(&client.BuyerID, &client.Name, &client.Address, &client.Phone)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query client: %w", err)
	}
	return &client, nil
}

func (m *MySQLAdapter) SaveClient(ctx context.Context, sellerID string, client domain.Client) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO clients (seller_id, buyer_id, name, address, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE name = VALUES(name), address = VALUES(address), phone = VALUES(phone), updated_at = NOW()`,
		sellerID, client.BuyerID, client.Name, client.Address, client.Phone,
	)
	if err != nil {
		return fmt.Errorf("save client: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListSellers(ctx context.Context) ([]domain.Seller, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, prefix, description, logo_url, phone
		FROM sellers WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query sellers: %w", err)
	}
	defer rows.Close()

	var sellers []domain.Seller
	for rows.Next() {
		var s domain.Seller
		if err := rows.Scan(&s.ID, &s.Name, &s.Prefix, &s.Description, &s.LogoURL, &s.Phone); err != nil {
			return nil, fmt.Errorf("scan seller: %w", err)
		}
		sellers = append(sellers, s)
	}
	return sellers, rows.Err()
}

func (m *MySQLAdapter) GetSeller(ctx context.Context, sellerID string) (*domain.Seller, error) {
	var s domain.Seller
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, prefix, description, logo_url, phone
		FROM sellers WHERE id = ? AND active = 1`, sellerID,
	).Scan(&s.ID, &s.Name, &s.Prefix, &s.Description, &s.LogoURL, &s.Phone)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query seller: %w", err)
	}
	return &s, nil
}

func (m *MySQLAdapter) ListCarriers(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT DISTINCT carrier FROM carrier_branches WHERE active = 1 ORDER BY carrier`)
	if err != nil {
		return nil, fmt.Errorf("query carriers: %w", err)
	}
	defer rows.Close()

	var carriers []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan carrier: %w", err)
		}
		carriers = append(carriers, name)
	}
	return carriers, rows.Err()
}

func (m *MySQLAdapter) ListBranches(ctx context.Context, carrier string) ([]domain.CarrierBranch, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT carrier, branch, address, district, city, phone
		FROM carrier_branches WHERE carrier = ? AND active = 1 ORDER BY branch`, carrier)
	if err != nil {
		return nil, fmt.Errorf("query branches: %w", err)
	}
	defer rows.Close()

	var branches []domain.CarrierBranch
	for rows.Next() {
		var b domain.CarrierBranch
		if err := rows.Scan(&b.Carrier, &b.Branch, &b.Address, &b.District, &b.City, &b.Phone); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}
