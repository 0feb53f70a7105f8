package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/apartalo/live-commerce/internal/core/domain"
)

// Shipping choice action ids and Data values.
const (
	actionCityLocal  = "city.local"
	actionCityOther  = "city.other"
	actionShipHome   = "method.delivery"
	actionShipPickup = "method.pickup"
	carrierPrefix    = "carrier."

	shipCityLocal   = "local"
	shipCityOther   = "other"
	shipMethodHome  = "delivery"
	shipMethodAgent = "carrier_pickup"
)

// startCheckout begins payment: a buyer with a saved delivery record
// jumps straight to confirmation, everyone else answers the three-step
// intake (name, address, phone).
func (c *Conversation) startCheckout(ctx context.Context, sess domain.Session) {
	cart := c.Carts.Get(sess.BuyerID, sess.SellerID)
	if len(cart) == 0 {
		c.sendText(ctx, sess.BuyerID, "Your cart is empty.\nType a product code to add something first.")
		return
	}

	client, err := c.Clients.FindClient(ctx, sess.SellerID, sess.BuyerID)
	if err != nil {
		c.log.Error().Err(err).Str("buyer", sess.BuyerID).Msg("client lookup failed")
		client = nil
	}
	if client != nil && client.Name != "" && client.Address != "" {
		c.showOrderConfirmation(ctx, sess.BuyerID, sess.SellerID, *client, nil)
		return
	}

	c.Sessions.ReplaceStep(sess.BuyerID, domain.StepCollectingName, nil)
	c.sendText(ctx, sess.BuyerID, "*Delivery details*\n\nStep 1 of 3\n\nWhat is your *full name*?")
}

func (c *Conversation) handleCollectName(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	name := strings.TrimSpace(msg.Text)
	if len(name) < 2 {
		c.sendText(ctx, msg.From, "Please send your full name.")
		return
	}
	// Merge, not replace: the intake carries prior answers forward.
	c.Sessions.SetStep(msg.From, domain.StepCollectingAddress, map[string]string{domain.DataClientName: name})
	c.sendText(ctx, msg.From, fmt.Sprintf(
		"Name: *%s*\n\nStep 2 of 3\n\nWhat is your *full delivery address*?\n_Include district and a reference._", name))
}

func (c *Conversation) handleCollectAddress(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	address := strings.TrimSpace(msg.Text)
	if len(address) < 10 {
		c.sendText(ctx, msg.From, "Please send a more complete address.\nInclude street, number, district and a reference.")
		return
	}
	c.Sessions.SetStep(msg.From, domain.StepCollectingPhone, map[string]string{domain.DataClientAddr: address})
	c.sendText(ctx, msg.From, fmt.Sprintf(
		"Address: *%s*\n\nStep 3 of 3\n\nWhat is your contact *phone number*?", address))
}

func (c *Conversation) handleCollectPhone(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	phone := digitsOnly(msg.Text)
	if len(phone) < 7 {
		c.sendText(ctx, msg.From, "Please send a valid phone number.")
		return
	}

	client := domain.Client{
		BuyerID: msg.From,
		Name:    sess.Data[domain.DataClientName],
		Address: sess.Data[domain.DataClientAddr],
		Phone:   phone,
	}
	if err := c.Clients.SaveClient(ctx, sess.SellerID, client); err != nil {
		c.log.Error().Err(err).Str("buyer", msg.From).Msg("client save failed")
	}

	carriers, err := c.Carriers.ListCarriers(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("carrier list failed")
		carriers = nil
	}
	if len(carriers) == 0 {
		// No shipping options configured: phone success finalizes directly.
		c.finalizeOrder(ctx, sess, client, nil)
		return
	}

	c.Sessions.SetStep(msg.From, domain.StepSelectingShipCity, map[string]string{domain.DataClientPhone: phone})
	c.sendChoice(ctx, msg.From, "Where should we send your order?", []domain.ChoiceOption{
		{ID: actionCityLocal, Title: "In town"},
		{ID: actionCityOther, Title: "Another city"},
	})
}

func (c *Conversation) handleShipCity(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	choice := msg.ActionID
	if choice == "" {
		switch normalize(msg.Text) {
		case "1", "in town", "local":
			choice = actionCityLocal
		case "2", "another city", "other":
			choice = actionCityOther
		}
	}

	switch choice {
	case actionCityLocal:
		c.Sessions.SetStep(msg.From, domain.StepSelectingShipMethod, map[string]string{domain.DataShipCity: shipCityLocal})
		c.sendChoice(ctx, msg.From, "How do you want to receive it?", []domain.ChoiceOption{
			{ID: actionShipHome, Title: "Home delivery"},
			{ID: actionShipPickup, Title: "Carrier pickup"},
		})
	case actionCityOther:
		// Out-of-town orders always travel with a carrier.
		c.Sessions.SetStep(msg.From, domain.StepSelectingCarrier, map[string]string{
			domain.DataShipCity:   shipCityOther,
			domain.DataShipMethod: shipMethodAgent,
		})
		c.showCarrierList(ctx, msg.From)
	default:
		c.sendText(ctx, msg.From, "Please pick one: *In town* or *Another city*.")
	}
}

func (c *Conversation) handleShipMethod(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	choice := msg.ActionID
	if choice == "" {
		switch normalize(msg.Text) {
		case "1", "home delivery", "delivery":
			choice = actionShipHome
		case "2", "carrier pickup", "pickup":
			choice = actionShipPickup
		}
	}

	switch choice {
	case actionShipHome:
		client := c.clientFromData(sess, msg.From)
		c.showOrderConfirmation(ctx, msg.From, sess.SellerID, client, &domain.ShippingInfo{
			City:   sess.Data[domain.DataShipCity],
			Method: shipMethodHome,
		})
	case actionShipPickup:
		c.Sessions.SetStep(msg.From, domain.StepSelectingCarrier, map[string]string{domain.DataShipMethod: shipMethodAgent})
		c.showCarrierList(ctx, msg.From)
	default:
		c.sendText(ctx, msg.From, "Please pick one: *Home delivery* or *Carrier pickup*.")
	}
}

func (c *Conversation) showCarrierList(ctx context.Context, buyerID string) {
	carriers, err := c.Carriers.ListCarriers(ctx)
	if err != nil || len(carriers) == 0 {
		if err != nil {
			c.log.Error().Err(err).Msg("carrier list failed")
		}
		c.sendText(ctx, buyerID, "No carriers are available right now. Please try again shortly.")
		return
	}

	var b strings.Builder
	b.WriteString("Which carrier do you prefer?\n\n")
	for i, name := range carriers {
		fmt.Fprintf(&b, "*%d.* %s\n", i+1, name)
	}
	b.WriteString("\nReply with the carrier's number.")

	if len(carriers) <= 3 {
		options := make([]domain.ChoiceOption, 0, len(carriers))
		for _, name := range carriers {
			options = append(options, domain.ChoiceOption{ID: carrierPrefix + name, Title: truncate(name, 20)})
		}
		c.sendChoice(ctx, buyerID, b.String(), options)
		return
	}
	c.sendText(ctx, buyerID, b.String())
}

func (c *Conversation) handleCarrier(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	carriers, err := c.Carriers.ListCarriers(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("carrier list failed")
		c.sendText(ctx, msg.From, "We couldn't load the carriers. Please try again shortly.")
		return
	}

	carrier := ""
	if name, ok := strings.CutPrefix(msg.ActionID, carrierPrefix); ok {
		carrier = name
	} else if n, err := strconv.Atoi(strings.TrimSpace(msg.Text)); err == nil && n >= 1 && n <= len(carriers) {
		carrier = carriers[n-1]
	} else {
		needle := normalize(msg.Text)
		for _, name := range carriers {
			if needle != "" && strings.Contains(strings.ToLower(name), needle) {
				carrier = name
				break
			}
		}
	}
	if carrier == "" {
		c.sendText(ctx, msg.From, "I couldn't find that carrier.\nReply with its number or its name.")
		return
	}

	branches, err := c.Carriers.ListBranches(ctx, carrier)
	if err != nil {
		c.log.Error().Err(err).Str("carrier", carrier).Msg("branch list failed")
		c.sendText(ctx, msg.From, "We couldn't load that carrier's offices. Please try again shortly.")
		return
	}
	if len(branches) == 0 {
		c.sendText(ctx, msg.From, fmt.Sprintf("*%s* has no pickup offices available.\nPick another carrier.", carrier))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pick a *%s* office:\n\n", carrier)
	for i, br := range branches {
		fmt.Fprintf(&b, "*%d.* %s — %s\n", i+1, br.Branch, br.District)
	}
	b.WriteString("\nReply with the office's number.")

	c.Sessions.SetStep(msg.From, domain.StepSelectingCarrierStop, map[string]string{domain.DataCarrier: carrier})
	c.sendText(ctx, msg.From, b.String())
}

func (c *Conversation) handleCarrierBranch(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	carrier := sess.Data[domain.DataCarrier]
	branches, err := c.Carriers.ListBranches(ctx, carrier)
	if err != nil {
		c.log.Error().Err(err).Str("carrier", carrier).Msg("branch list failed")
		c.sendText(ctx, msg.From, "We couldn't load that carrier's offices. Please try again shortly.")
		return
	}

	var branch *domain.CarrierBranch
	if n, err := strconv.Atoi(strings.TrimSpace(msg.Text)); err == nil && n >= 1 && n <= len(branches) {
		branch = &branches[n-1]
	} else {
		needle := normalize(msg.Text)
		for i := range branches {
			if needle != "" && strings.Contains(strings.ToLower(branches[i].Branch), needle) {
				branch = &branches[i]
				break
			}
		}
	}
	if branch == nil {
		c.sendText(ctx, msg.From, "I couldn't find that office.\nReply with its number from the list.")
		return
	}

	client := c.clientFromData(sess, msg.From)
	c.showOrderConfirmation(ctx, msg.From, sess.SellerID, client, &domain.ShippingInfo{
		City:    sess.Data[domain.DataShipCity],
		Method:  sess.Data[domain.DataShipMethod],
		Carrier: carrier,
		Branch:  branch.Branch,
	})
}

// showOrderConfirmation summarizes cart, delivery record and shipping,
// then waits for an explicit confirmation.
func (c *Conversation) showOrderConfirmation(ctx context.Context, buyerID, sellerID string, client domain.Client, shipping *domain.ShippingInfo) {
	cart := c.Carts.Get(buyerID, sellerID)
	total := c.Carts.Total(buyerID, sellerID)

	var b strings.Builder
	b.WriteString("*Confirm your order*\n\n*Products:*\n")
	for _, item := range cart {
		fmt.Fprintf(&b, "- %dx %s — %.2f\n", item.Quantity, item.Name, item.Subtotal)
	}
	fmt.Fprintf(&b, "\n*Total: %.2f*\n\n*Delivery:*\n%s\n%s\n%s\n", total, client.Name, client.Address, client.Phone)
	if shipping != nil && shipping.Carrier != "" {
		fmt.Fprintf(&b, "Via *%s* — %s\n", shipping.Carrier, shipping.Branch)
	}
	b.WriteString("\nIs everything correct?")

	data := map[string]string{
		domain.DataClientName:  client.Name,
		domain.DataClientAddr:  client.Address,
		domain.DataClientPhone: client.Phone,
	}
	if shipping != nil {
		data[domain.DataShipCity] = shipping.City
		data[domain.DataShipMethod] = shipping.Method
		data[domain.DataCarrier] = shipping.Carrier
		data[domain.DataCarrierStop] = shipping.Branch
	}
	c.Sessions.ReplaceStep(buyerID, domain.StepConfirmingOrder, data)

	c.sendChoice(ctx, buyerID, b.String(), []domain.ChoiceOption{
		{ID: actionConfirm, Title: "Yes, confirm"},
		{ID: actionEdit, Title: "Edit details"},
		{ID: actionCancel, Title: "Cancel"},
	})
}

func (c *Conversation) handleOrderConfirmation(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	choice := msg.ActionID
	if choice == "" {
		switch normalize(msg.Text) {
		case "yes", "confirm", "yes, confirm", "ok":
			choice = actionConfirm
		case "edit", "edit details":
			choice = actionEdit
		}
	}

	switch choice {
	case actionConfirm:
		client := c.clientFromData(sess, msg.From)
		c.finalizeOrder(ctx, sess, client, shippingFromData(sess))
	case actionEdit:
		c.Sessions.ReplaceStep(msg.From, domain.StepCollectingName, nil)
		c.sendText(ctx, msg.From, "*Delivery details*\n\nStep 1 of 3\n\nWhat is your *full name*?")
	default:
		c.sendText(ctx, msg.From, "Please pick one: *Yes, confirm*, *Edit details* or *Cancel*.")
	}
}

// finalizeOrder creates the order record, clears the cart and moves the
// buyer to the payment-proof step. On a persistence fault the cart and
// its stock reservations stay intact so the buyer can retry.
func (c *Conversation) finalizeOrder(ctx context.Context, sess domain.Session, client domain.Client, shipping *domain.ShippingInfo) {
	cart := c.Carts.Get(sess.BuyerID, sess.SellerID)
	total := c.Carts.Total(sess.BuyerID, sess.SellerID)

	items := make([]domain.OrderItem, 0, len(cart))
	for _, it := range cart {
		items = append(items, domain.OrderItem{
			ProductCode: it.ProductCode,
			Name:        it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}

	orderID, err := c.Orders.CreateOrder(ctx, domain.Order{
		SellerID:   sess.SellerID,
		BuyerID:    sess.BuyerID,
		ClientName: client.Name,
		Phone:      client.Phone,
		Address:    client.Address,
		Items:      items,
		Total:      total,
		Status:     domain.OrderStatusPendingPayment,
	})
	if err != nil {
		c.log.Error().Err(err).Str("buyer", sess.BuyerID).Msg("order creation fault")
		c.sendText(ctx, sess.BuyerID, "We couldn't create your order. Your cart is safe — please try again shortly.")
		return
	}
	if shipping != nil {
		if err := c.Orders.SetOrderShipping(ctx, orderID, *shipping); err != nil {
			c.log.Error().Err(err).Str("order", orderID).Msg("order shipping update fault")
		}
	}

	c.Carts.Clear(sess.BuyerID, sess.SellerID)
	c.Sessions.ReplaceStep(sess.BuyerID, domain.StepAwaitingPaymentProof, map[string]string{domain.DataOrderID: orderID})

	var b strings.Builder
	fmt.Fprintf(&b, "*Order created!*\n\nCode: *%s*\n\n*Products:*\n", orderID)
	for _, item := range items {
		fmt.Fprintf(&b, "- %dx %s\n", item.Quantity, item.Name)
	}
	fmt.Fprintf(&b, "\n*Total: %.2f*\n\n*To confirm your order:*\nSend your payment voucher to this chat.", total)
	c.sendText(ctx, sess.BuyerID, b.String())
}

func (c *Conversation) handlePaymentProof(ctx context.Context, sess domain.Session, msg domain.InboundMessage) {
	orderID := sess.Data[domain.DataOrderID]
	if orderID == "" {
		c.showSellerMenu(ctx, msg.From, sess.SellerID)
		return
	}

	if msg.MediaID == "" {
		// Text without media re-prompts without changing state.
		c.sendText(ctx, msg.From, fmt.Sprintf(
			"Please send an *image* of your payment voucher.\nYour order code is *%s*.", orderID))
		return
	}

	if err := c.Orders.SetOrderStatus(ctx, orderID, domain.OrderStatusPendingValidation, msg.MediaID); err != nil {
		c.log.Error().Err(err).Str("order", orderID).Msg("order status update fault")
		c.sendText(ctx, msg.From, "We couldn't register your voucher. Please send it again shortly.")
		return
	}

	c.Sessions.ReplaceStep(msg.From, c.restingStep(sess.SellerID, msg.From), nil)
	c.sendText(ctx, msg.From, fmt.Sprintf(
		"*Voucher received!*\n\nYour order *%s* is being verified.\nWe'll let you know once it is confirmed. Thanks for buying!", orderID))
}

func (c *Conversation) clientFromData(sess domain.Session, buyerID string) domain.Client {
	return domain.Client{
		BuyerID: buyerID,
		Name:    sess.Data[domain.DataClientName],
		Address: sess.Data[domain.DataClientAddr],
		Phone:   sess.Data[domain.DataClientPhone],
	}
}

func shippingFromData(sess domain.Session) *domain.ShippingInfo {
	if sess.Data[domain.DataShipCity] == "" && sess.Data[domain.DataShipMethod] == "" {
		return nil
	}
	return &domain.ShippingInfo{
		City:    sess.Data[domain.DataShipCity],
		Method:  sess.Data[domain.DataShipMethod],
		Carrier: sess.Data[domain.DataCarrier],
		Branch:  sess.Data[domain.DataCarrierStop],
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
