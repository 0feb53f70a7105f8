package port

import "github.com/apartalo/live-commerce/internal/core/domain"

// CatalogNotifier pushes lightweight real-time events to the web-catalog
// audience of a seller. Implementations must never block the caller.
type CatalogNotifier interface {
	// ProductLive announces a product just published to the live feed.
	ProductLive(sellerID string, product domain.Product)

	// ProductReserved announces that a broadcast unit was won and how
	// much stock remains.
	ProductReserved(sellerID, productCode string, remaining int)
}
