package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/apartalo/live-commerce/internal/core/domain"
	"github.com/apartalo/live-commerce/internal/core/live"
	"github.com/apartalo/live-commerce/internal/core/liveaction"
	"github.com/apartalo/live-commerce/internal/port"
)

var (
	ErrNoSubscribers = errors.New("no active live subscribers")
	ErrNoStock       = errors.New("product has no available stock")
)

// Broadcast is the seller-side live surface: pushing one unit of a
// product to every active subscriber and to the web-catalog audience.
type Broadcast struct {
	registry  *live.Registry
	ledger    *live.Ledger
	inv       port.InventoryStore
	sellers   port.SellerDirectory
	messenger port.Messenger
	catalog   port.CatalogNotifier
	log       zerolog.Logger
}

func NewBroadcast(
	registry *live.Registry,
	ledger *live.Ledger,
	inv port.InventoryStore,
	sellers port.SellerDirectory,
	messenger port.Messenger,
	catalog port.CatalogNotifier,
	log zerolog.Logger,
) *Broadcast {
	return &Broadcast{
		registry:  registry,
		ledger:    ledger,
		inv:       inv,
		sellers:   sellers,
		messenger: messenger,
		catalog:   catalog,
		log:       log.With().Str("component", "broadcast").Logger(),
	}
}

// PublishReport summarizes one broadcast fan-out.
type PublishReport struct {
	ProductCode string
	Subscribers int
	Sent        int
	Failed      int
}

// Publish broadcasts a product into the seller's live feed: ledger entry
// in available status, a claim button to every active subscriber, and a
// real-time push to the web catalog.
func (b *Broadcast) Publish(ctx context.Context, sellerID, code string) (*PublishReport, error) {
	product, err := b.inv.GetProduct(ctx, sellerID, code)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.Available() < 1 {
		return nil, ErrNoStock
	}

	subs := b.registry.ListActive(sellerID)
	if len(subs) == 0 {
		return nil, ErrNoSubscribers
	}

	b.ledger.Publish(sellerID, *product)

	caption := fmt.Sprintf("*%s*\n%s\nPrice: *%.2f*\n\nFirst one to tap takes it!", product.Name, product.Description, product.Price)
	claim := []domain.ChoiceOption{{ID: liveaction.Encode(sellerID, code), Title: "Grab it"}}

	report := &PublishReport{ProductCode: code, Subscribers: len(subs)}
	for _, sub := range subs {
		if product.ImageURL != "" {
			if err := b.messenger.SendMedia(ctx, sub.BuyerID, product.ImageURL, caption); err != nil {
				b.log.Error().Err(err).Str("buyer", sub.BuyerID).Msg("broadcast media failed")
			}
		}
		text := caption
		if product.ImageURL != "" {
			text = "Tap the button to grab it."
		}
		if err := b.messenger.SendChoice(ctx, sub.BuyerID, text, claim); err != nil {
			b.log.Error().Err(err).Str("buyer", sub.BuyerID).Msg("broadcast claim button failed")
			report.Failed++
			continue
		}
		report.Sent++
	}

	if b.catalog != nil {
		b.catalog.ProductLive(sellerID, *product)
	}
	b.log.Info().
		Str("seller", sellerID).
		Str("code", code).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Msg("live broadcast published")
	return report, nil
}

// Notify sends a plain announcement to every active subscriber,
// prefixed with the seller's name.
func (b *Broadcast) Notify(ctx context.Context, sellerID, text string) (int, error) {
	seller, err := b.sellers.GetSeller(ctx, sellerID)
	if err != nil {
		return 0, fmt.Errorf("get seller: %w", err)
	}
	header := text
	if seller != nil {
		header = fmt.Sprintf("*%s*\n\n%s", seller.Name, text)
	}

	sent := 0
	for _, sub := range b.registry.ListActive(sellerID) {
		if err := b.messenger.SendText(ctx, sub.BuyerID, header); err != nil {
			b.log.Error().Err(err).Str("buyer", sub.BuyerID).Msg("live notify failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// Stats is the dashboard snapshot for one seller's live.
type Stats struct {
	SubscriberCount int
	Subscribers     []domain.Subscription
	LiveProducts    []domain.LiveEntry
}

func (b *Broadcast) Stats(sellerID string) Stats {
	subs := b.registry.ListActive(sellerID)
	return Stats{
		SubscriberCount: len(subs),
		Subscribers:     subs,
		LiveProducts:    b.ledger.ListForSeller(sellerID),
	}
}
