// Package sse pushes catalog events to web viewers of a seller's live.
package sse

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// Event is one catalog push. Type is product-live, product-reserved or
// viewers-update.
type Event struct {
	Type      string `json:"type"`
	SellerID  string `json:"sellerId"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// Client is one connected catalog viewer.
type Client struct {
	ID       string
	SellerID string
	Events   chan Event
}

// Hub fans catalog events out to viewers, room-per-seller. Sends never
// block: a viewer that stops draining just misses events.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     log.With().Str("component", "catalog_hub").Logger(),
	}
}

// Register adds a viewer to a seller's room and announces the new count.
func (h *Hub) Register(sellerID string) *Client {
	client := &Client{
		ID:       uuid.NewString(),
		SellerID: sellerID,
		Events:   make(chan Event, 16),
	}
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
	h.notifyViewers(sellerID)
	return client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if ok {
		delete(h.clients, clientID)
		close(client.Events)
	}
	h.mu.Unlock()
	if ok {
		h.notifyViewers(client.SellerID)
	}
}

func (h *Hub) ViewerCount(sellerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, c := range h.clients {
		if c.SellerID == sellerID {
			count++
		}
	}
	return count
}

// ProductLive implements port.CatalogNotifier.
func (h *Hub) ProductLive(sellerID string, product domain.Product) {
	h.broadcast(sellerID, Event{
		Type:     "product-live",
		SellerID: sellerID,
		Data: map[string]any{
			"code":        product.Code,
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"image":       product.ImageURL,
			"available":   product.Available(),
		},
		Timestamp: time.Now().UnixMilli(),
	})
}

// ProductReserved implements port.CatalogNotifier.
func (h *Hub) ProductReserved(sellerID, productCode string, remaining int) {
	h.broadcast(sellerID, Event{
		Type:     "product-reserved",
		SellerID: sellerID,
		Data: map[string]any{
			"code":      productCode,
			"remaining": remaining,
		},
		Timestamp: time.Now().UnixMilli(),
	})
}

func (h *Hub) notifyViewers(sellerID string) {
	h.broadcast(sellerID, Event{
		Type:      "viewers-update",
		SellerID:  sellerID,
		Data:      map[string]any{"count": h.ViewerCount(sellerID)},
		Timestamp: time.Now().UnixMilli(),
	})
}

func (h *Hub) broadcast(sellerID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.SellerID != sellerID {
			continue
		}
		select {
		case c.Events <- ev:
		default:
			h.log.Debug().Str("client", c.ID).Msg("catalog viewer not draining, event dropped")
		}
	}
}

// Stop disconnects every viewer.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.Events)
		delete(h.clients, id)
	}
}
