package live

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// ReserveOutcome classifies a claim attempt. Losing is an expected,
// frequent outcome, not an error.
type ReserveOutcome int

const (
	ReserveWon ReserveOutcome = iota
	ReserveAlreadyTaken
	ReserveNotFound
)

func (o ReserveOutcome) String() string {
	switch o {
	case ReserveWon:
		return "won"
	case ReserveAlreadyTaken:
		return "already_reserved"
	default:
		return "not_found"
	}
}

// ReserveResult carries the outcome of a claim. Product is set on a win;
// WinnerID/WinnerName identify the earlier winner on a loss.
type ReserveResult struct {
	Outcome    ReserveOutcome
	Product    domain.Product
	WinnerID   string
	WinnerName string
}

// Ledger is the single-winner record for broadcast products. The
// available-to-reserved transition for one key is serialized under the
// ledger lock so two contenders can never both observe it available.
type Ledger struct {
	mu      sync.Mutex
	entries map[ledgerKey]*domain.LiveEntry
	now     func() time.Time
	log     zerolog.Logger
}

type ledgerKey struct {
	sellerID    string
	productCode string
}

func NewLedger(log zerolog.Logger) *Ledger {
	return &Ledger{
		entries: make(map[ledgerKey]*domain.LiveEntry),
		now:     time.Now,
		log:     log.With().Str("component", "live_ledger").Logger(),
	}
}

// Publish creates or overwrites an entry in available status. A seller
// re-broadcasting over a reserved entry deliberately discards the stale
// winner; that displacement is logged, not masked.
func (l *Ledger) Publish(sellerID string, product domain.Product) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey{sellerID, product.Code}
	if prev, ok := l.entries[key]; ok && prev.Status == domain.LiveStatusReserved {
		l.log.Info().
			Str("seller", sellerID).
			Str("code", product.Code).
			Str("displaced_winner", prev.WinnerID).
			Msg("re-publish cleared a reserved live entry")
	}
	l.entries[key] = &domain.LiveEntry{
		SellerID:    sellerID,
		Product:     product,
		Status:      domain.LiveStatusAvailable,
		PublishedAt: l.now(),
	}
}

// TryReserve atomically claims the entry for the buyer if it is still
// available. Exactly one concurrent caller wins.
func (l *Ledger) TryReserve(sellerID, productCode, buyerID, displayName string) ReserveResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[ledgerKey{sellerID, productCode}]
	if !ok {
		return ReserveResult{Outcome: ReserveNotFound}
	}
	if entry.Status == domain.LiveStatusReserved {
		return ReserveResult{
			Outcome:    ReserveAlreadyTaken,
			WinnerID:   entry.WinnerID,
			WinnerName: entry.WinnerName,
		}
	}
	now := l.now()
	entry.Status = domain.LiveStatusReserved
	entry.WinnerID = buyerID
	entry.WinnerName = displayName
	entry.ReservedAt = &now
	l.log.Debug().
		Str("seller", sellerID).
		Str("code", productCode).
		Str("winner", buyerID).
		Msg("live claim won")
	return ReserveResult{Outcome: ReserveWon, Product: entry.Product}
}

// Clear removes the entry regardless of status, reporting whether one
// existed. Used once a win is folded into an order or the seller pulls
// the item.
func (l *Ledger) Clear(sellerID, productCode string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey{sellerID, productCode}
	if _, ok := l.entries[key]; !ok {
		return false
	}
	delete(l.entries, key)
	return true
}

// ListForSeller returns a read-only snapshot for dashboards.
func (l *Ledger) ListForSeller(sellerID string) []domain.LiveEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.LiveEntry
	for key, entry := range l.entries {
		if key.sellerID == sellerID {
			out = append(out, *entry)
		}
	}
	return out
}
