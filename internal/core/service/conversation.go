package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/apartalo/live-commerce/internal/core/domain"
	"github.com/apartalo/live-commerce/internal/core/live"
	"github.com/apartalo/live-commerce/internal/core/liveaction"
	"github.com/apartalo/live-commerce/internal/core/store"
	"github.com/apartalo/live-commerce/internal/port"
)

type stepHandler func(ctx context.Context, sess domain.Session, msg domain.InboundMessage)

// ConversationDeps wires the stores and collaborators into the state
// machine. Everything is injected; the service owns no globals.
type ConversationDeps struct {
	Sessions  *store.SessionStore
	Carts     *store.CartStore
	Registry  *live.Registry
	Ledger    *live.Ledger
	Stock     *StockCoordinator
	Inventory port.InventoryStore
	Orders    port.OrderStore
	Clients   port.ClientStore
	Sellers   port.SellerDirectory
	Carriers  port.CarrierDirectory
	Messenger port.Messenger
	Catalog   port.CatalogNotifier

	LiveTTL      time.Duration
	PlatformName string
	Logger       zerolog.Logger
}

// Conversation drives the per-buyer flow: one inbound event in, session
// and cart mutations plus outbound messages out. Events for the same
// buyer are serialized; events for different buyers run concurrently.
type Conversation struct {
	ConversationDeps
	log      zerolog.Logger
	handlers map[domain.Step]stepHandler

	mu     sync.Mutex
	buyers map[string]*sync.Mutex
}

func NewConversation(deps ConversationDeps) *Conversation {
	c := &Conversation{
		ConversationDeps: deps,
		log:              deps.Logger.With().Str("component", "conversation").Logger(),
		buyers:           make(map[string]*sync.Mutex),
	}
	c.handlers = map[domain.Step]stepHandler{
		domain.StepInitial:              c.handleWelcome,
		domain.StepSelectingSeller:      c.handleSellerSelection,
		domain.StepSellerMenu:           c.handleProductCode,
		domain.StepAwaitingProductCode:  c.handleProductCode,
		domain.StepInLive:               c.handleProductCode,
		domain.StepAwaitingQuantity:     c.handleQuantity,
		domain.StepCollectingName:       c.handleCollectName,
		domain.StepCollectingAddress:    c.handleCollectAddress,
		domain.StepCollectingPhone:      c.handleCollectPhone,
		domain.StepSelectingShipCity:    c.handleShipCity,
		domain.StepSelectingShipMethod:  c.handleShipMethod,
		domain.StepSelectingCarrier:     c.handleCarrier,
		domain.StepSelectingCarrierStop: c.handleCarrierBranch,
		domain.StepConfirmingOrder:      c.handleOrderConfirmation,
		domain.StepAwaitingPaymentProof: c.handlePaymentProof,
	}
	return c
}

func (c *Conversation) buyerLock(buyerID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.buyers[buyerID]
	if !ok {
		m = &sync.Mutex{}
		c.buyers[buyerID] = m
	}
	return m
}

// Handle processes one inbound event to completion. Claim taps bypass
// the step dispatch entirely; global commands are intercepted next; the
// current step's handler runs last.
func (c *Conversation) Handle(ctx context.Context, msg domain.InboundMessage) {
	lock := c.buyerLock(msg.From)
	lock.Lock()
	defer lock.Unlock()

	if sellerID, code, ok := liveaction.Decode(msg.ActionID); ok {
		c.handleClaim(ctx, msg, sellerID, code)
		return
	}

	sess := c.Sessions.Get(msg.From)
	if c.handleCommand(ctx, sess, msg) {
		return
	}

	handler, ok := c.handlers[sess.Step]
	if !ok {
		handler = c.handleWelcome
	}
	handler(ctx, sess, msg)
}

// restingStep is where a buyer lands between purchases: inside the live
// window if still subscribed, the ordinary code prompt otherwise.
func (c *Conversation) restingStep(sellerID, buyerID string) domain.Step {
	if sellerID != "" && c.Registry.IsActive(sellerID, buyerID) {
		return domain.StepInLive
	}
	return domain.StepAwaitingProductCode
}

// sendText delivers fire-and-forget; failures are the channel's problem
// and only logged here.
func (c *Conversation) sendText(ctx context.Context, to, text string) {
	if err := c.Messenger.SendText(ctx, to, text); err != nil {
		c.log.Error().Err(err).Str("to", to).Msg("send text failed")
	}
}

func (c *Conversation) sendMedia(ctx context.Context, to, mediaURL, caption string) {
	if err := c.Messenger.SendMedia(ctx, to, mediaURL, caption); err != nil {
		c.log.Error().Err(err).Str("to", to).Msg("send media failed")
	}
}

func (c *Conversation) sendChoice(ctx context.Context, to, text string, options []domain.ChoiceOption) {
	if err := c.Messenger.SendChoice(ctx, to, text, options); err != nil {
		c.log.Error().Err(err).Str("to", to).Msg("send choice failed")
	}
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
