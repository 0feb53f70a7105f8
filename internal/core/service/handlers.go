package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// sellerActionPrefix tags seller-selection buttons.
const sellerActionPrefix = "seller."

func (c *Conversation) handleWelcome(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	c.showWelcome(ctx, msg.From)
}

func (c *Conversation) showWelcome(ctx context.Context, buyerID string) {
	sellers, err := c.Sellers.ListSellers(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("list sellers failed")
		c.sendText(ctx, buyerID, "We hit a snag loading the shops. Please try again shortly.")
		return
	}

	switch len(sellers) {
	case 0:
		c.sendText(ctx, buyerID, fmt.Sprintf(
			"Hi! Welcome to *%s*.\nNo shops are open right now, please come back later.", c.PlatformName))
	case 1:
		c.Sessions.SetActiveSeller(buyerID, sellers[0].ID)
		c.showSellerMenu(ctx, buyerID, sellers[0].ID)
	default:
		c.Sessions.ReplaceStep(buyerID, domain.StepSelectingSeller, nil)
		c.showSellerList(ctx, buyerID)
	}
}

func (c *Conversation) showSellerList(ctx context.Context, buyerID string) {
	sellers, err := c.Sellers.ListSellers(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("list sellers failed")
		c.sendText(ctx, buyerID, "We hit a snag loading the shops. Please try again shortly.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\nWhich shop are you buying from today?\n\n", c.PlatformName)
	for i, s := range sellers {
		fmt.Fprintf(&b, "*%d.* %s\n", i+1, s.Name)
		if s.Description != "" {
			fmt.Fprintf(&b, "   _%s_\n", s.Description)
		}
	}
	b.WriteString("\nReply with the shop's number.")

	if len(sellers) <= 3 {
		options := make([]domain.ChoiceOption, 0, len(sellers))
		for _, s := range sellers {
			options = append(options, domain.ChoiceOption{ID: sellerActionPrefix + s.ID, Title: truncate(s.Name, 20)})
		}
		c.sendChoice(ctx, buyerID, b.String(), options)
		return
	}
	c.sendText(ctx, buyerID, b.String())
}

func (c *Conversation) handleSellerSelection(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	sellers, err := c.Sellers.ListSellers(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("list sellers failed")
		c.sendText(ctx, msg.From, "We hit a snag loading the shops. Please try again shortly.")
		return
	}

	var picked *domain.Seller
	if id, ok := strings.CutPrefix(msg.ActionID, sellerActionPrefix); ok {
		for i := range sellers {
			if sellers[i].ID == id {
				picked = &sellers[i]
				break
			}
		}
	}
	if picked == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(msg.Text)); err == nil && n >= 1 && n <= len(sellers) {
			picked = &sellers[n-1]
		}
	}
	if picked == nil {
		needle := normalize(msg.Text)
		for i := range sellers {
			if needle != "" && strings.Contains(strings.ToLower(sellers[i].Name), needle) {
				picked = &sellers[i]
				break
			}
		}
	}
	if picked == nil {
		c.sendText(ctx, msg.From, "I couldn't find that shop.\nReply with its number or its name.")
		return
	}

	c.Sessions.SetActiveSeller(msg.From, picked.ID)
	c.showSellerMenu(ctx, msg.From, picked.ID)
}

func (c *Conversation) showSellerMenu(ctx context.Context, buyerID, sellerID string) {
	seller, err := c.Sellers.GetSeller(ctx, sellerID)
	if err != nil || seller == nil {
		if err != nil {
			c.log.Error().Err(err).Str("seller", sellerID).Msg("get seller failed")
		}
		c.showWelcome(ctx, buyerID)
		return
	}

	cart := c.Carts.Get(buyerID, sellerID)
	total := c.Carts.Total(buyerID, sellerID)

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", seller.Name)
	if len(cart) > 0 {
		fmt.Fprintf(&b, "You have *%d product(s)* in your cart, total *%.2f*.\n\n", len(cart), total)
	}
	b.WriteString("Saw something in the live?\nType the product code to reserve it.\n")
	if seller.Prefix != "" {
		fmt.Fprintf(&b, "_Example: %s01_\n", seller.Prefix)
	}
	b.WriteString("\nSend *live* to join the live feed.")

	c.Sessions.ReplaceStep(buyerID, c.restingStep(sellerID, buyerID), nil)

	options := []domain.ChoiceOption{{ID: actionSwitch, Title: "Switch shop"}}
	if len(cart) > 0 {
		options = []domain.ChoiceOption{
			{ID: actionViewCart, Title: "View cart"},
			{ID: actionPay, Title: "Pay"},
			{ID: actionSwitch, Title: "Switch shop"},
		}
	}
	c.sendChoice(ctx, buyerID, b.String(), options)
}

func (c *Conversation) handleProductCode(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	if sess.SellerID == "" {
		c.showWelcome(ctx, msg.From)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(msg.Text))
	if code == "" {
		c.sendText(ctx, msg.From, "Type the code of the product you saw in the live.")
		return
	}

	product, err := c.Inventory.GetProduct(ctx, sess.SellerID, code)
	if err != nil {
		c.log.Error().Err(err).Str("seller", sess.SellerID).Str("code", code).Msg("inventory read failed")
		c.sendText(ctx, msg.From, "We couldn't check that product right now. Please try again shortly.")
		return
	}
	if product == nil || !product.Active {
		c.sendText(ctx, msg.From, fmt.Sprintf(
			"Code *%s* not found.\nCheck the product code from the live and type it again.", code))
		return
	}
	if product.Available() < 1 {
		c.sendText(ctx, msg.From, fmt.Sprintf(
			"*%s* is sold out right now.\nTry another code.", product.Name))
		return
	}

	caption := fmt.Sprintf("*%s*\n\n%s\nPrice: *%.2f*\nAvailable: %d units\n\nHow many do you want to reserve?",
		product.Name, product.Description, product.Price, product.Available())

	c.Sessions.ReplaceStep(msg.From, domain.StepAwaitingQuantity, map[string]string{
		domain.DataProductCode:  product.Code,
		domain.DataProductName:  product.Name,
		domain.DataProductPrice: strconv.FormatFloat(product.Price, 'f', 2, 64),
	})

	if product.ImageURL != "" {
		c.sendMedia(ctx, msg.From, product.ImageURL, caption)
		return
	}
	c.sendText(ctx, msg.From, caption)
}

func (c *Conversation) handleQuantity(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	code := sess.Data[domain.DataProductCode]
	if code == "" {
		c.showSellerMenu(ctx, msg.From, sess.SellerID)
		return
	}
	name := sess.Data[domain.DataProductName]
	price, _ := strconv.ParseFloat(sess.Data[domain.DataProductPrice], 64)

	quantity, err := strconv.Atoi(strings.TrimSpace(msg.Text))
	if err != nil || quantity < 1 {
		c.sendText(ctx, msg.From, fmt.Sprintf(
			"Please reply with a valid number.\nHow many units of *%s* do you want?", name))
		return
	}

	product, err := c.Stock.Reserve(ctx, sess.SellerID, code, quantity)
	if err != nil {
		c.replyReserveFailure(ctx, msg.From, name, err)
		return
	}

	cart := c.Carts.Add(msg.From, sess.SellerID, domain.CartItem{
		ProductCode: product.Code,
		Name:        product.Name,
		Quantity:    quantity,
		UnitPrice:   price,
	})
	total := c.Carts.Total(msg.From, sess.SellerID)

	c.Sessions.ReplaceStep(msg.From, c.restingStep(sess.SellerID, msg.From), nil)

	text := fmt.Sprintf("*Reserved!*\n\n%dx %s\nSubtotal: %.2f\n\nYour cart has %d product(s), total *%.2f*.\nWhat next?",
		quantity, product.Name, float64(quantity)*price, len(cart), total)
	c.sendChoice(ctx, msg.From, text, []domain.ChoiceOption{
		{ID: actionKeepOn, Title: "Keep shopping"},
		{ID: actionPay, Title: "Pay"},
		{ID: actionViewCart, Title: "View cart"},
	})
}

// replyReserveFailure maps coordinator errors to next-action prompts.
// Validation-level failures keep the current state; faults are logged.
func (c *Conversation) replyReserveFailure(ctx context.Context, buyerID, productName string, err error) {
	var insufficient *InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		c.sendText(ctx, buyerID, fmt.Sprintf(
			"Only *%d* unit(s) of %s left.\nHow many do you want to reserve?", insufficient.Available, productName))
	case errors.Is(err, ErrProductNotFound):
		c.sendText(ctx, buyerID, fmt.Sprintf("*%s* is no longer available.\nTry another code.", productName))
	default:
		c.log.Error().Err(err).Str("buyer", buyerID).Msg("stock reservation fault")
		c.sendText(ctx, buyerID, "We couldn't hold the stock just now. Please try again shortly.")
	}
}

func (c *Conversation) showCart(ctx context.Context, buyerID, sellerID string) {
	cart := c.Carts.Get(buyerID, sellerID)
	if len(cart) == 0 {
		c.sendText(ctx, buyerID, "Your cart is empty.\nType the code of a product from the live to add one.")
		return
	}

	var b strings.Builder
	b.WriteString("*Your cart*\n\n")
	for i, item := range cart {
		fmt.Fprintf(&b, "%d. *%s*\n   %d x %.2f = %.2f\n", i+1, item.Name, item.Quantity, item.UnitPrice, item.Subtotal)
	}
	fmt.Fprintf(&b, "\n*TOTAL: %.2f*\n\n_Type another code to add more products._", c.Carts.Total(buyerID, sellerID))

	c.Sessions.ReplaceStep(buyerID, c.restingStep(sellerID, buyerID), nil)
	c.sendChoice(ctx, buyerID, b.String(), []domain.ChoiceOption{
		{ID: actionPay, Title: "Pay"},
		{ID: actionKeepOn, Title: "Keep shopping"},
		{ID: actionCancel, Title: "Empty cart"},
	})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
