// Package handler exposes the HTTP surface: the messaging webhook, the
// seller live dashboard API, and the web-catalog SSE stream.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/apartalo/live-commerce/internal/adapter/sse"
	"github.com/apartalo/live-commerce/internal/core/domain"
	"github.com/apartalo/live-commerce/internal/core/live"
	"github.com/apartalo/live-commerce/internal/core/service"
)

type HTTPHandler struct {
	conversation *service.Conversation
	broadcast    *service.Broadcast
	ledger       *live.Ledger
	hub          *sse.Hub
	log          zerolog.Logger
}

func NewHTTPHandler(
	conversation *service.Conversation,
	broadcast *service.Broadcast,
	ledger *live.Ledger,
	hub *sse.Hub,
	log zerolog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		conversation: conversation,
		broadcast:    broadcast,
		ledger:       ledger,
		hub:          hub,
		log:          log.With().Str("component", "http").Logger(),
	}
}

func (h *HTTPHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Post("/webhook", h.webhook)

	r.Route("/api/{sellerID}", func(r chi.Router) {
		r.Route("/live", func(r chi.Router) {
			r.Post("/broadcast/{code}", h.publishProduct)
			r.Post("/notify", h.notifySubscribers)
			r.Get("/subscribers", h.listSubscribers)
			r.Get("/products", h.listLiveProducts)
			r.Get("/stats", h.liveStats)
			r.Delete("/products/{code}", h.clearLiveProduct)
		})
		r.Get("/catalog/events", h.catalogEvents)
	})

	return r
}

func (h *HTTPHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type webhookRequest struct {
	From        string `json:"from"`
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
	MediaID     string `json:"media_id"`
	ActionID    string `json:"action_id"`
}

// webhook receives inbound messages from the messaging provider. It
// always acks with 200 once the payload parses; conversation errors are
// reported to the buyer, not to the provider.
func (h *HTTPHandler) webhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if req.From == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from is required"})
		return
	}

	h.conversation.Handle(r.Context(), domain.InboundMessage{
		From:        req.From,
		DisplayName: req.DisplayName,
		Text:        req.Text,
		MediaID:     req.MediaID,
		ActionID:    req.ActionID,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func (h *HTTPHandler) publishProduct(w http.ResponseWriter, r *http.Request) {
	sellerID := chi.URLParam(r, "sellerID")
	code := chi.URLParam(r, "code")

	report, err := h.broadcast.Publish(r.Context(), sellerID, code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		case errors.Is(err, service.ErrNoStock), errors.Is(err, service.ErrNoSubscribers):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			h.log.Error().Err(err).Str("seller", sellerID).Str("code", code).Msg("broadcast failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "broadcast failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"product_code": report.ProductCode,
		"subscribers":  report.Subscribers,
		"sent":         report.Sent,
		"failed":       report.Failed,
	})
}

type notifyRequest struct {
	Message string `json:"message"`
}

func (h *HTTPHandler) notifySubscribers(w http.ResponseWriter, r *http.Request) {
	sellerID := chi.URLParam(r, "sellerID")

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	sent, err := h.broadcast.Notify(r.Context(), sellerID, req.Message)
	if err != nil {
		h.log.Error().Err(err).Str("seller", sellerID).Msg("notify failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "notify failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}

func (h *HTTPHandler) listSubscribers(w http.ResponseWriter, r *http.Request) {
	stats := h.broadcast.Stats(chi.URLParam(r, "sellerID"))

	subs := make([]map[string]any, 0, len(stats.Subscribers))
	for _, s := range stats.Subscribers {
		subs = append(subs, map[string]any{
			"buyer_id":          s.BuyerID,
			"display_name":      s.DisplayName,
			"expires_at":        s.ExpiresAt,
			"remaining_seconds": int(s.Remaining.Seconds()),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       stats.SubscriberCount,
		"subscribers": subs,
	})
}

func (h *HTTPHandler) listLiveProducts(w http.ResponseWriter, r *http.Request) {
	stats := h.broadcast.Stats(chi.URLParam(r, "sellerID"))
	writeJSON(w, http.StatusOK, map[string]any{"products": liveEntries(stats.LiveProducts)})
}

func (h *HTTPHandler) liveStats(w http.ResponseWriter, r *http.Request) {
	sellerID := chi.URLParam(r, "sellerID")
	stats := h.broadcast.Stats(sellerID)
	writeJSON(w, http.StatusOK, map[string]any{
		"subscriber_count": stats.SubscriberCount,
		"live_products":    liveEntries(stats.LiveProducts),
		"catalog_viewers":  h.hub.ViewerCount(sellerID),
	})
}

func (h *HTTPHandler) clearLiveProduct(w http.ResponseWriter, r *http.Request) {
	sellerID := chi.URLParam(r, "sellerID")
	code := chi.URLParam(r, "code")
	if !h.ledger.Clear(sellerID, code) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not in live"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// catalogEvents streams catalog pushes for one seller over SSE. The
// connection stays open until the client drops or the server shuts down.
func (h *HTTPHandler) catalogEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sellerID := chi.URLParam(r, "sellerID")
	client := h.hub.Register(sellerID)
	defer h.hub.Unregister(client.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-client.Events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.log.Error().Err(err).Msg("marshal catalog event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
		}
	}
}

func liveEntries(entries []domain.LiveEntry) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		item := map[string]any{
			"code":         e.Product.Code,
			"name":         e.Product.Name,
			"price":        e.Product.Price,
			"status":       string(e.Status),
			"published_at": e.PublishedAt,
		}
		if e.Status == domain.LiveStatusReserved {
			item["winner_id"] = e.WinnerID
			item["winner_name"] = e.WinnerName
			item["reserved_at"] = e.ReservedAt
		}
		out = append(out, item)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
