package port

import (
	"context"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// InventoryStore is the authoritative stock count. It guarantees no
// transaction across a read/write pair; callers must serialize.
type InventoryStore interface {
	// GetProduct returns the product snapshot including stock counts,
	// or nil when the code is unknown to this seller.
	GetProduct(ctx context.Context, sellerID, code string) (*domain.Product, error)

	// GetAvailable returns stock minus reserved for one product.
	GetAvailable(ctx context.Context, sellerID, code string) (int, error)

	// SetReserved overwrites the reserved quantity for one product.
	SetReserved(ctx context.Context, sellerID, code string, reserved int) error
}

// AtomicReserver is an optional extension of InventoryStore for backends
// that can move the reserved count atomically against availability.
type AtomicReserver interface {
	// ReserveIfAvailable increments reserved by quantity only if enough
	// stock remains, returns false otherwise.
	ReserveIfAvailable(ctx context.Context, sellerID, code string, quantity int) (bool, error)

	// ReleaseReserved decrements reserved by quantity, flooring at zero.
	ReleaseReserved(ctx context.Context, sellerID, code string, quantity int) error
}
