package domain

import "time"

// Step identifies a buyer's position in the conversation flow.
type Step string

const (
	StepInitial               Step = "initial"
	StepSelectingSeller       Step = "selecting_seller"
	StepSellerMenu            Step = "seller_menu"
	StepAwaitingProductCode   Step = "awaiting_product_code"
	StepAwaitingQuantity      Step = "awaiting_quantity"
	StepCollectingName        Step = "collecting_name"
	StepCollectingAddress     Step = "collecting_address"
	StepCollectingPhone       Step = "collecting_phone"
	StepConfirmingOrder       Step = "confirming_order"
	StepAwaitingPaymentProof  Step = "awaiting_payment_proof"
	StepInLive                Step = "in_live"
	StepSelectingShipCity     Step = "selecting_shipping_city"
	StepSelectingShipMethod   Step = "selecting_shipping_method"
	StepSelectingCarrier      Step = "selecting_carrier"
	StepSelectingCarrierStop  Step = "selecting_carrier_branch"
)

// Well-known keys in Session.Data.
const (
	DataProductCode  = "product_code"
	DataProductName  = "product_name"
	DataProductPrice = "product_price"
	DataClientName   = "client_name"
	DataClientAddr   = "client_address"
	DataClientPhone  = "client_phone"
	DataOrderID      = "order_id"
	DataShipCity     = "ship_city"
	DataShipMethod   = "ship_method"
	DataCarrier      = "carrier"
	DataCarrierStop  = "carrier_branch"
)

// Session is the per-buyer conversation state. Data is step-scoped
// scratch space; multi-step forms carry prior answers forward in it.
type Session struct {
	BuyerID        string
	Step           Step
	SellerID       string
	Data           map[string]string
	LastActivityAt time.Time
}
