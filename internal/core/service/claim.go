package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/apartalo/live-commerce/internal/core/domain"
	"github.com/apartalo/live-commerce/internal/core/live"
)

// handleClaim runs the live-broadcast race. The ledger decides the
// single winner instantly; only the winner ever touches the external
// inventory count, and a failure after the win is compensated before
// the buyer hears about it.
func (c *Conversation) handleClaim(ctx context.Context, msg domain.InboundMessage, sellerID, code string) {
	displayName := msg.DisplayName
	if sub, ok := c.Registry.Get(sellerID, msg.From); ok && displayName == "" {
		displayName = sub.DisplayName
	}

	result := c.Ledger.TryReserve(sellerID, code, msg.From, displayName)
	switch result.Outcome {
	case live.ReserveNotFound:
		c.sendText(ctx, msg.From, "That product is no longer in the live.\nStay tuned for the next one!")
		return

	case live.ReserveAlreadyTaken:
		// Expected, frequent, not a fault.
		who := result.WinnerName
		if who == "" {
			who = "someone else"
		}
		c.sendText(ctx, msg.From, fmt.Sprintf("Oops, %s was faster this time.\nStay tuned for the next product!", who))
		return
	}

	product, err := c.Stock.Reserve(ctx, sellerID, code, 1)
	if err != nil {
		// Nothing was reserved externally, so there is nothing to release;
		// clear the win so it does not linger as a phantom reservation.
		c.Ledger.Clear(sellerID, code)
		var insufficient *InsufficientStockError
		if errors.As(err, &insufficient) || errors.Is(err, ErrProductNotFound) {
			c.sendText(ctx, msg.From, fmt.Sprintf("*%s* is no longer available — it sold out elsewhere.", result.Product.Name))
			return
		}
		c.log.Error().Err(err).Str("seller", sellerID).Str("code", code).Msg("stock reservation fault after live win")
		c.sendText(ctx, msg.From, "We couldn't hold the stock just now. Please try again shortly.")
		return
	}

	item := domain.OrderItem{
		ProductCode: result.Product.Code,
		Name:        result.Product.Name,
		Quantity:    1,
		UnitPrice:   result.Product.Price,
		Subtotal:    result.Product.Price,
	}

	orderID, err := c.foldIntoOrder(ctx, sellerID, msg.From, displayName, item)
	if err != nil {
		if rerr := c.Stock.Release(ctx, sellerID, code, 1); rerr != nil {
			c.log.Error().Err(rerr).Str("seller", sellerID).Str("code", code).Msg("compensating release failed")
		}
		c.Ledger.Clear(sellerID, code)
		c.log.Error().Err(err).Str("seller", sellerID).Str("code", code).Msg("order persistence fault after live win")
		c.sendText(ctx, msg.From, "We couldn't record your win. Please try again shortly.")
		return
	}

	// The ledger entry stays RESERVED so later tappers learn who won
	// instead of seeing the product vanish. The seller retires it by
	// clearing it or publishing the next product.
	if c.Catalog != nil {
		c.Catalog.ProductReserved(sellerID, code, product.Available())
	}

	c.Sessions.SetActiveSeller(msg.From, sellerID)
	c.Sessions.ReplaceStep(msg.From, c.restingStep(sellerID, msg.From), nil)

	c.sendText(ctx, msg.From, fmt.Sprintf(
		"*You got it!*\n\n*%s* is yours for *%.2f*.\nAdded to order *%s*. Send *pay* when you're ready to check out.",
		result.Product.Name, result.Product.Price, orderID))
}

// foldIntoOrder appends the won unit to the buyer's open order, or
// creates a fresh one when none is pending.
func (c *Conversation) foldIntoOrder(ctx context.Context, sellerID, buyerID, displayName string, item domain.OrderItem) (string, error) {
	open, err := c.Orders.GetOpenOrder(ctx, sellerID, buyerID)
	if err != nil {
		return "", fmt.Errorf("open order lookup: %w", err)
	}
	if open != nil {
		if err := c.Orders.AppendItem(ctx, open.ID, item); err != nil {
			return "", fmt.Errorf("append item: %w", err)
		}
		return open.ID, nil
	}

	orderID, err := c.Orders.CreateOrder(ctx, domain.Order{
		SellerID:   sellerID,
		BuyerID:    buyerID,
		ClientName: displayName,
		Items:      []domain.OrderItem{item},
		Total:      item.Subtotal,
		Status:     domain.OrderStatusPendingPayment,
	})
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	return orderID, nil
}
