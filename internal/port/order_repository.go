package port

import (
	"context"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// OrderStore persists orders for one seller's ledger.
type OrderStore interface {
	// CreateOrder persists a new order and returns its assigned id.
	CreateOrder(ctx context.Context, order domain.Order) (string, error)

	// AppendItem adds a line to an existing order and recomputes its total.
	AppendItem(ctx context.Context, orderID string, item domain.OrderItem) error

	// SetOrderStatus updates status; a non-empty voucherRef is appended
	// to the order's payment-proof references.
	SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, voucherRef string) error

	// SetOrderShipping records the shipping choice on an order.
	SetOrderShipping(ctx context.Context, orderID string, shipping domain.ShippingInfo) error

	// GetOpenOrder returns the buyer's most recent order still awaiting
	// payment, or nil when there is none.
	GetOpenOrder(ctx context.Context, sellerID, buyerID string) (*domain.Order, error)
}

// ClientStore keeps saved delivery records per (seller, buyer).
type ClientStore interface {
	// FindClient returns the saved record or nil when unknown.
	FindClient(ctx context.Context, sellerID, buyerID string) (*domain.Client, error)

	// SaveClient creates or updates the record.
	SaveClient(ctx context.Context, sellerID string, client domain.Client) error
}
