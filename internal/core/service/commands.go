package service

import (
	"context"
	"fmt"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// Button action ids for non-claim choices.
const (
	actionViewCart = "view_cart"
	actionPay      = "pay"
	actionSwitch   = "switch_seller"
	actionKeepOn   = "keep_shopping"
	actionConfirm  = "confirm_order"
	actionEdit     = "edit_details"
	actionCancel   = "cancel"
)

// handleCommand intercepts global commands before step dispatch. They
// may fire from any state. Returns true when the event was consumed.
func (c *Conversation) handleCommand(ctx context.Context, sess domain.Session, msg domain.InboundMessage) bool {
	word := normalize(msg.Text)
	if msg.ActionID != "" {
		word = msg.ActionID
	}

	switch word {
	case "home", "start", "menu":
		c.Sessions.Reset(msg.From)
		c.showWelcome(ctx, msg.From)
		return true

	case "sellers", "switch", actionSwitch:
		c.Sessions.ReplaceStep(msg.From, domain.StepSelectingSeller, nil)
		c.showSellerList(ctx, msg.From)
		return true

	case "cart", actionViewCart:
		if sess.SellerID == "" {
			c.showWelcome(ctx, msg.From)
			return true
		}
		c.showCart(ctx, msg.From, sess.SellerID)
		return true

	case "checkout", actionPay:
		if sess.SellerID == "" {
			c.showWelcome(ctx, msg.From)
			return true
		}
		c.startCheckout(ctx, sess)
		return true

	case actionCancel:
		c.cancelAll(ctx, sess, msg)
		return true

	case "live", "join":
		if sess.SellerID == "" {
			c.showWelcome(ctx, msg.From)
			return true
		}
		expires := c.Registry.Subscribe(sess.SellerID, msg.From, msg.DisplayName, c.LiveTTL)
		c.Sessions.ReplaceStep(msg.From, domain.StepInLive, nil)
		c.sendText(ctx, msg.From, fmt.Sprintf(
			"You are in the live until %s.\nThe first buyer to tap a broadcast wins it. Type a product code any time to reserve it the ordinary way.",
			expires.Format("15:04")))
		return true

	case "leave":
		if sess.SellerID != "" && c.Registry.Unsubscribe(sess.SellerID, msg.From) {
			c.Sessions.ReplaceStep(msg.From, domain.StepAwaitingProductCode, nil)
			c.sendText(ctx, msg.From, "You left the live. Type a product code whenever you want to keep shopping.")
			return true
		}
		// The subscription may have expired while the buyer was parked
		// in the live step. Unstick them instead of treating "leave" as
		// a product code.
		if sess.Step == domain.StepInLive {
			c.Sessions.ReplaceStep(msg.From, domain.StepAwaitingProductCode, nil)
		}
		c.sendText(ctx, msg.From, "You are not in a live right now. Type a product code to keep shopping.")
		return true

	case actionKeepOn:
		c.Sessions.ReplaceStep(msg.From, c.restingStep(sess.SellerID, msg.From), nil)
		c.sendText(ctx, msg.From, "Type the code of the next product you want.")
		return true
	}

	return false
}

// cancelAll clears the cart, releases the stock its lines were holding,
// and returns the buyer to the seller menu. It never touches an
// in-flight claim: tryReserve outcomes are already final.
func (c *Conversation) cancelAll(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	if sess.SellerID != "" {
		for _, item := range c.Carts.Get(msg.From, sess.SellerID) {
			if err := c.Stock.Release(ctx, sess.SellerID, item.ProductCode, item.Quantity); err != nil {
				c.log.Error().Err(err).
					Str("seller", sess.SellerID).
					Str("code", item.ProductCode).
					Msg("release on cancel failed")
			}
		}
		c.Carts.Clear(msg.From, sess.SellerID)
	}
	c.Sessions.Reset(msg.From)
	if sess.SellerID != "" {
		c.showSellerMenu(ctx, msg.From, sess.SellerID)
		return
	}
	c.showWelcome(ctx, msg.From)
}
