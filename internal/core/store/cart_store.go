package store

import (
	"sync"
	"time"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// CartStore keeps line items per (buyer, seller). Adding the same
// product again merges quantities; subtotals are recomputed on every
// mutation so quantity x unit price always holds.
type CartStore struct {
	mu    sync.Mutex
	carts map[cartKey][]domain.CartItem
	now   func() time.Time
}

type cartKey struct {
	buyerID  string
	sellerID string
}

func NewCartStore() *CartStore {
	return &CartStore{
		carts: make(map[cartKey][]domain.CartItem),
		now:   time.Now,
	}
}

// Get returns a copy of the cart, empty when none exists.
func (c *CartStore) Get(buyerID, sellerID string) []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.carts[cartKey{buyerID, sellerID}]
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}

// Add merges by product code, summing quantity and recomputing subtotal.
func (c *CartStore) Add(buyerID, sellerID string, item domain.CartItem) []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cartKey{buyerID, sellerID}
	items := c.carts[key]
	merged := false
	for i := range items {
		if items[i].ProductCode == item.ProductCode {
			items[i].Quantity += item.Quantity
			items[i].Subtotal = float64(items[i].Quantity) * items[i].UnitPrice
			merged = true
			break
		}
	}
	if !merged {
		item.Subtotal = float64(item.Quantity) * item.UnitPrice
		item.ReservedAt = c.now()
		items = append(items, item)
	}
	c.carts[key] = items
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}

// Remove drops one product from the cart. Safe to retry.
func (c *CartStore) Remove(buyerID, sellerID, productCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cartKey{buyerID, sellerID}
	items := c.carts[key]
	kept := items[:0]
	for _, it := range items {
		if it.ProductCode != productCode {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		delete(c.carts, key)
		return
	}
	c.carts[key] = kept
}

func (c *CartStore) Clear(buyerID, sellerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.carts, cartKey{buyerID, sellerID})
}

// Total sums the subtotals of the cart.
func (c *CartStore) Total(buyerID, sellerID string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, it := range c.carts[cartKey{buyerID, sellerID}] {
		total += it.Subtotal
	}
	return total
}
