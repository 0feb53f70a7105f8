package store

import (
	"sync"
	"testing"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

func TestCartAdd_MergesSameProduct(t *testing.T) {
	c := NewCartStore()

	c.Add("buyer-1", "seller-1", domain.CartItem{ProductCode: "ZP01", Name: "Denim jacket", Quantity: 2, UnitPrice: 20})
	items := c.Add("buyer-1", "seller-1", domain.CartItem{ProductCode: "ZP01", Name: "Denim jacket", Quantity: 1, UnitPrice: 20})

	if len(items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", items[0].Quantity)
	}
	if items[0].Subtotal != 60 {
		t.Errorf("expected subtotal 60, got %.2f", items[0].Subtotal)
	}
	if items[0].ReservedAt.IsZero() {
		t.Error("expected ReservedAt to be stamped")
	}
}

func TestCartTotal(t *testing.T) {
	c := NewCartStore()

	c.Add("buyer-1", "seller-1", domain.CartItem{ProductCode: "ZP01", Quantity: 2, UnitPrice: 20})
	c.Add("buyer-1", "seller-1", domain.CartItem{ProductCode: "ZP02", Quantity: 1, UnitPrice: 15})

	if total := c.Total("buyer-1", "seller-1"); total != 55 {
		t.Errorf("expected total 55, got %.2f", total)
	}
}

func TestCartIsolation_PerBuyerPerSeller(t *testing.T) {
	c := NewCartStore()

	c.Add("buyer-1", "seller-1", domain.CartItem{ProductCode: "ZP01", Quantity: 1, UnitPrice: 10})
	c.Add("buyer-1", "seller-2", domain.CartItem{ProductCode: "XK01", Quantity: 1, UnitPrice: 30})
	c.Add("buyer-2", "seller-1", domain.CartItem{ProductCode: "ZP01", Quantity: 5, UnitPrice: 10})

	if got := c.Total("buyer-1", "seller-1"); got != 10 {
		t.Errorf("buyer-1/seller-1 total: expected 10, got %.2f", got)
	}
	if got := c.Total("buyer-1", "seller-2"); got != 30 {
		t.Errorf("buyer-1/seller-2 total: expected 30, got %.2f", got)
	}
	if got := c.Total("buyer-2", "seller-1"); got != 50 {
		t.Errorf("buyer-2/seller-1 total: expected 50, got %.2f", got)
	}
}

func TestCartRemoveAndClear(t *testing.T) {
	c := NewCartStore()

	c.Add("buyer-1", "seller-1", domain.CartItem{ProductCode: "ZP01", Quantity: 1, UnitPrice: 10})
	c.Add("buyer-1", "seller-1", domain.CartItem{ProductCode: "ZP02", Quantity: 1, UnitPrice: 15})

	c.Remove("buyer-1", "seller-1", "ZP01")
	items := c.Get("buyer-1", "seller-1")
	if len(items) != 1 || items[0].ProductCode != "ZP02" {
		t.Fatalf("expected only ZP02 left, got %v", items)
	}

	// Removing an absent code is a no-op.
	c.Remove("buyer-1", "seller-1", "ZP99")
	if len(c.Get("buyer-1", "seller-1")) != 1 {
		t.Error("removing unknown code must not change the cart")
	}

	c.Clear("buyer-1", "seller-1")
	if len(c.Get("buyer-1", "seller-1")) != 0 {
		t.Error("expected empty cart after clear")
	}
}

func TestCartGet_ReturnsCopy(t *testing.T) {
	c := NewCartStore()
	c.Add("buyer-1", "seller-1", domain.CartItem{ProductCode: "ZP01", Quantity: 1, UnitPrice: 10})

	items := c.Get("buyer-1", "seller-1")
	items[0].Quantity = 99

	if c.Get("buyer-1", "seller-1")[0].Quantity != 1 {
		t.Error("mutating a returned slice leaked into the store")
	}
}

func TestCartAdd_Concurrent(t *testing.T) {
	c := NewCartStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add("buyer-1", "seller-1", domain.CartItem{ProductCode: "ZP01", Quantity: 1, UnitPrice: 10})
		}()
	}
	wg.Wait()

	items := c.Get("buyer-1", "seller-1")
	if len(items) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(items))
	}
	if items[0].Quantity != 100 {
		t.Errorf("expected quantity 100, got %d", items[0].Quantity)
	}
	if items[0].Subtotal != 1000 {
		t.Errorf("expected subtotal 1000, got %.2f", items[0].Subtotal)
	}
}
