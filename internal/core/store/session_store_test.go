package store

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

func TestSessionGet_UnknownBuyerIsInitial(t *testing.T) {
	s := NewSessionStore(zerolog.Nop())

	sess := s.Get("buyer-1")
	if sess.Step != domain.StepInitial {
		t.Errorf("expected initial step, got %s", sess.Step)
	}
	if sess.BuyerID != "buyer-1" {
		t.Errorf("expected buyer-1, got %s", sess.BuyerID)
	}
	if sess.Data == nil {
		t.Error("expected non-nil data map")
	}
	if s.Len() != 0 {
		t.Errorf("read must not create a session, got len %d", s.Len())
	}
}

func TestSessionSetStep_MergesData(t *testing.T) {
	s := NewSessionStore(zerolog.Nop())

	s.SetStep("buyer-1", domain.StepCollectingAddress, map[string]string{domain.DataClientName: "Maria Lopez"})
	s.SetStep("buyer-1", domain.StepCollectingPhone, map[string]string{domain.DataClientAddr: "Av. Central 123, Miraflores"})

	sess := s.Get("buyer-1")
	if sess.Step != domain.StepCollectingPhone {
		t.Errorf("expected phone step, got %s", sess.Step)
	}
	if sess.Data[domain.DataClientName] != "Maria Lopez" {
		t.Errorf("earlier answer lost: %q", sess.Data[domain.DataClientName])
	}
	if sess.Data[domain.DataClientAddr] != "Av. Central 123, Miraflores" {
		t.Errorf("later answer lost: %q", sess.Data[domain.DataClientAddr])
	}
}

func TestSessionReplaceStep_DropsStaleData(t *testing.T) {
	s := NewSessionStore(zerolog.Nop())

	s.SetStep("buyer-1", domain.StepAwaitingQuantity, map[string]string{domain.DataProductCode: "ZP01"})
	s.ReplaceStep("buyer-1", domain.StepAwaitingPaymentProof, map[string]string{domain.DataOrderID: "ord-1"})

	sess := s.Get("buyer-1")
	if _, ok := sess.Data[domain.DataProductCode]; ok {
		t.Error("stale product scratch leaked across replace")
	}
	if sess.Data[domain.DataOrderID] != "ord-1" {
		t.Errorf("expected ord-1, got %q", sess.Data[domain.DataOrderID])
	}
}

func TestSessionReset_PreservesSeller(t *testing.T) {
	s := NewSessionStore(zerolog.Nop())

	s.SetActiveSeller("buyer-1", "seller-1")
	s.SetStep("buyer-1", domain.StepCollectingName, map[string]string{domain.DataClientName: "Maria"})
	s.Reset("buyer-1")

	sess := s.Get("buyer-1")
	if sess.Step != domain.StepInitial {
		t.Errorf("expected initial step, got %s", sess.Step)
	}
	if len(sess.Data) != 0 {
		t.Errorf("expected empty data, got %v", sess.Data)
	}
	if sess.SellerID != "seller-1" {
		t.Errorf("reset must keep the active seller, got %q", sess.SellerID)
	}
}

func TestSessionGet_ReturnsCopy(t *testing.T) {
	s := NewSessionStore(zerolog.Nop())
	s.SetStep("buyer-1", domain.StepCollectingName, map[string]string{domain.DataClientName: "Maria"})

	sess := s.Get("buyer-1")
	sess.Data[domain.DataClientName] = "tampered"

	if s.Get("buyer-1").Data[domain.DataClientName] != "Maria" {
		t.Error("mutating a returned session leaked into the store")
	}
}

func TestSessionSweepInactive(t *testing.T) {
	s := NewSessionStore(zerolog.Nop())
	current := time.Now()
	s.now = func() time.Time { return current }

	s.SetStep("stale", domain.StepAwaitingQuantity, map[string]string{domain.DataProductCode: "ZP01"})
	s.SetActiveSeller("stale", "seller-1")

	current = current.Add(31 * time.Minute)
	s.SetStep("fresh", domain.StepCollectingName, nil)

	reset := s.SweepInactive(30 * time.Minute)
	if reset != 1 {
		t.Fatalf("expected 1 reset, got %d", reset)
	}

	stale := s.Get("stale")
	if stale.Step != domain.StepInitial {
		t.Errorf("stale session not reset, step %s", stale.Step)
	}
	if stale.SellerID != "seller-1" {
		t.Errorf("sweep must keep the active seller, got %q", stale.SellerID)
	}
	if s.Get("fresh").Step != domain.StepCollectingName {
		t.Error("fresh session must survive the sweep")
	}

	// Already-initial sessions never count again.
	current = current.Add(time.Hour)
	if got := s.SweepInactive(30 * time.Minute); got != 1 {
		t.Errorf("expected only the fresh session reset on second sweep, got %d", got)
	}
}

func TestSessionStore_ConcurrentWriters(t *testing.T) {
	s := NewSessionStore(zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			buyer := "buyer-" + string(rune('a'+n%10))
			s.SetStep(buyer, domain.StepAwaitingProductCode, nil)
			s.Get(buyer)
			s.SetActiveSeller(buyer, "seller-1")
		}(i)
	}
	wg.Wait()

	if s.Len() != 10 {
		t.Errorf("expected 10 sessions, got %d", s.Len())
	}
}
