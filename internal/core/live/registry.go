// Package live holds the time-boxed subscription registry and the
// single-winner reservation ledger for live broadcasts.
package live

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// Registry tracks which buyers are inside a seller's live window.
// Lookups evict expired entries lazily; a periodic sweep keeps memory
// bounded for sellers nobody queries.
type Registry struct {
	mu   sync.Mutex
	subs map[string]map[string]domain.Subscription
	now  func() time.Time
	log  zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		subs: make(map[string]map[string]domain.Subscription),
		now:  time.Now,
		log:  log.With().Str("component", "live_registry").Logger(),
	}
}

// Subscribe adds or refreshes a buyer's live membership and returns the
// expiry. Re-subscribing replaces the previous entry; TTLs never stack.
func (r *Registry) Subscribe(sellerID, buyerID, displayName string, ttl time.Duration) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	sellerSubs, ok := r.subs[sellerID]
	if !ok {
		sellerSubs = make(map[string]domain.Subscription)
		r.subs[sellerID] = sellerSubs
	}
	now := r.now()
	sub := domain.Subscription{
		SellerID:     sellerID,
		BuyerID:      buyerID,
		DisplayName:  displayName,
		SubscribedAt: now,
		ExpiresAt:    now.Add(ttl),
	}
	sellerSubs[buyerID] = sub
	r.log.Debug().Str("seller", sellerID).Str("buyer", buyerID).Time("expires", sub.ExpiresAt).Msg("live subscribe")
	return sub.ExpiresAt
}

// Unsubscribe removes the entry, reporting whether one existed.
func (r *Registry) Unsubscribe(sellerID, buyerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sellerSubs, ok := r.subs[sellerID]
	if !ok {
		return false
	}
	if _, ok := sellerSubs[buyerID]; !ok {
		return false
	}
	delete(sellerSubs, buyerID)
	return true
}

// IsActive reports whether the buyer is inside an unexpired window,
// evicting the entry when it turns out to be expired.
func (r *Registry) IsActive(sellerID, buyerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sellerSubs, ok := r.subs[sellerID]
	if !ok {
		return false
	}
	sub, ok := sellerSubs[buyerID]
	if !ok {
		return false
	}
	if sub.Expired(r.now()) {
		delete(sellerSubs, buyerID)
		return false
	}
	return true
}

// Get returns the unexpired subscription entry, if any.
func (r *Registry) Get(sellerID, buyerID string) (domain.Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sellerSubs, ok := r.subs[sellerID]
	if !ok {
		return domain.Subscription{}, false
	}
	sub, ok := sellerSubs[buyerID]
	if !ok {
		return domain.Subscription{}, false
	}
	now := r.now()
	if sub.Expired(now) {
		delete(sellerSubs, buyerID)
		return domain.Subscription{}, false
	}
	sub.Remaining = sub.ExpiresAt.Sub(now)
	return sub, true
}

// ListActive returns unexpired subscribers with remaining time computed
// at call time, evicting expired entries while iterating.
func (r *Registry) ListActive(sellerID string) []domain.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	sellerSubs := r.subs[sellerID]
	now := r.now()
	active := make([]domain.Subscription, 0, len(sellerSubs))
	for buyerID, sub := range sellerSubs {
		if sub.Expired(now) {
			delete(sellerSubs, buyerID)
			continue
		}
		sub.Remaining = sub.ExpiresAt.Sub(now)
		active = append(active, sub)
	}
	return active
}

func (r *Registry) Count(sellerID string) int {
	return len(r.ListActive(sellerID))
}

// Sweep evicts expired entries across all sellers. The lock is taken
// per seller so a long scan never stalls subscribe or claim traffic.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	sellerIDs := make([]string, 0, len(r.subs))
	for sellerID := range r.subs {
		sellerIDs = append(sellerIDs, sellerID)
	}
	r.mu.Unlock()

	evicted := 0
	for _, sellerID := range sellerIDs {
		r.mu.Lock()
		now := r.now()
		for buyerID, sub := range r.subs[sellerID] {
			if sub.Expired(now) {
				delete(r.subs[sellerID], buyerID)
				evicted++
			}
		}
		r.mu.Unlock()
	}
	if evicted > 0 {
		r.log.Debug().Int("evicted", evicted).Msg("swept expired live subscriptions")
	}
	return evicted
}

// RunSweeper sweeps on a fixed interval until ctx is cancelled.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
