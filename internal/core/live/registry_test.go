package live

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRegistrySubscribeAndExpiry(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	start := time.Now()
	current := start
	r.now = func() time.Time { return current }

	expires := r.Subscribe("seller-1", "buyer-1", "Maria", 5*time.Minute)
	if !expires.Equal(start.Add(5 * time.Minute)) {
		t.Errorf("expected expiry at +5m, got %v", expires)
	}

	current = start.Add(5*time.Minute - time.Second)
	if !r.IsActive("seller-1", "buyer-1") {
		t.Error("expected active just before expiry")
	}

	current = start.Add(5*time.Minute + time.Second)
	if r.IsActive("seller-1", "buyer-1") {
		t.Error("expected inactive just after expiry")
	}

	// The expired lookup evicted the entry.
	if _, ok := r.Get("seller-1", "buyer-1"); ok {
		t.Error("expected entry gone after lazy eviction")
	}
}

func TestRegistryResubscribeRefreshes(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	start := time.Now()
	current := start
	r.now = func() time.Time { return current }

	r.Subscribe("seller-1", "buyer-1", "Maria", 5*time.Minute)
	current = start.Add(4 * time.Minute)
	r.Subscribe("seller-1", "buyer-1", "Maria", 5*time.Minute)

	current = start.Add(8 * time.Minute)
	if !r.IsActive("seller-1", "buyer-1") {
		t.Error("refresh must extend the window from the second subscribe")
	}

	current = start.Add(10 * time.Minute)
	if r.IsActive("seller-1", "buyer-1") {
		t.Error("windows must not stack past the refreshed expiry")
	}
}

func TestRegistryGetRemaining(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	start := time.Now()
	current := start
	r.now = func() time.Time { return current }

	r.Subscribe("seller-1", "buyer-1", "Maria", 5*time.Minute)
	current = start.Add(2 * time.Minute)

	sub, ok := r.Get("seller-1", "buyer-1")
	if !ok {
		t.Fatal("expected active subscription")
	}
	if sub.Remaining != 3*time.Minute {
		t.Errorf("expected 3m remaining, got %v", sub.Remaining)
	}
	if sub.DisplayName != "Maria" {
		t.Errorf("expected display name Maria, got %q", sub.DisplayName)
	}
}

func TestRegistryListActiveEvicts(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	start := time.Now()
	current := start
	r.now = func() time.Time { return current }

	r.Subscribe("seller-1", "buyer-1", "Maria", time.Minute)
	r.Subscribe("seller-1", "buyer-2", "Jose", 10*time.Minute)
	r.Subscribe("seller-2", "buyer-3", "Ana", 10*time.Minute)

	current = start.Add(2 * time.Minute)

	active := r.ListActive("seller-1")
	if len(active) != 1 {
		t.Fatalf("expected 1 active subscriber, got %d", len(active))
	}
	if active[0].BuyerID != "buyer-2" {
		t.Errorf("expected buyer-2, got %s", active[0].BuyerID)
	}
	if r.Count("seller-2") != 1 {
		t.Errorf("other seller's audience must be untouched, got %d", r.Count("seller-2"))
	}
}

func TestRegistryUnsubscribe(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	r.Subscribe("seller-1", "buyer-1", "Maria", time.Minute)
	if !r.Unsubscribe("seller-1", "buyer-1") {
		t.Error("expected unsubscribe to report an existing entry")
	}
	if r.Unsubscribe("seller-1", "buyer-1") {
		t.Error("second unsubscribe must report nothing to remove")
	}
	if r.IsActive("seller-1", "buyer-1") {
		t.Error("expected inactive after unsubscribe")
	}
}

func TestRegistrySweep(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	start := time.Now()
	current := start
	r.now = func() time.Time { return current }

	r.Subscribe("seller-1", "buyer-1", "Maria", time.Minute)
	r.Subscribe("seller-1", "buyer-2", "Jose", 10*time.Minute)
	r.Subscribe("seller-2", "buyer-3", "Ana", time.Minute)

	current = start.Add(5 * time.Minute)

	if evicted := r.Sweep(); evicted != 2 {
		t.Errorf("expected 2 evicted, got %d", evicted)
	}
	if r.Count("seller-1") != 1 {
		t.Errorf("expected 1 survivor for seller-1, got %d", r.Count("seller-1"))
	}
	if evicted := r.Sweep(); evicted != 0 {
		t.Errorf("second sweep must find nothing, got %d", evicted)
	}
}

func TestRegistrySweepDoesNotBlockSubscribers(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	const sellers = 50
	for i := 0; i < sellers; i++ {
		r.Subscribe(fmt.Sprintf("seller-%d", i), "stale", "Maria", -time.Minute)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < sellers; i++ {
			r.Subscribe(fmt.Sprintf("seller-%d", i), "fresh", "Jose", 10*time.Minute)
		}
	}()

	evicted := r.Sweep()
	wg.Wait()

	if evicted != sellers {
		t.Errorf("expected %d stale entries evicted, got %d", sellers, evicted)
	}
	for i := 0; i < sellers; i++ {
		if !r.IsActive(fmt.Sprintf("seller-%d", i), "fresh") {
			t.Fatalf("sweep must not drop a subscription that arrived mid-scan (seller-%d)", i)
		}
	}
}
