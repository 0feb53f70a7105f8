package port

import (
	"context"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// SellerDirectory lists the tenants of the platform.
type SellerDirectory interface {
	ListSellers(ctx context.Context) ([]domain.Seller, error)

	// GetSeller returns nil when the id is unknown or inactive.
	GetSeller(ctx context.Context, sellerID string) (*domain.Seller, error)
}

// CarrierDirectory exposes the shipping-carrier master data used during
// checkout. An empty carrier list means the seller ships nothing and the
// short checkout path applies.
type CarrierDirectory interface {
	ListCarriers(ctx context.Context) ([]string, error)
	ListBranches(ctx context.Context, carrier string) ([]domain.CarrierBranch, error)
}
