package domain

import "time"

// CartItem is one reserved line in a buyer's per-seller cart.
// Subtotal is recomputed on every mutation, never stored stale.
type CartItem struct {
	ProductCode string
	Name        string
	Quantity    int
	UnitPrice   float64
	Subtotal    float64
	ReservedAt  time.Time
}
