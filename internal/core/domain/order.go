package domain

import "time"

type OrderStatus string

const (
	OrderStatusPendingPayment    OrderStatus = "pending_payment"
	OrderStatusPendingValidation OrderStatus = "pending_validation"
	OrderStatusConfirmed         OrderStatus = "confirmed"
	OrderStatusCancelled         OrderStatus = "cancelled"
)

type OrderItem struct {
	ProductCode string
	Name        string
	Quantity    int
	UnitPrice   float64
	Subtotal    float64
}

// ShippingInfo is the shipping choice collected during checkout.
// Carrier and Branch are empty for local delivery.
type ShippingInfo struct {
	City    string
	Method  string
	Carrier string
	Branch  string
	Cost    float64
}

type Order struct {
	ID          string
	SellerID    string
	BuyerID     string
	ClientName  string
	Phone       string
	Address     string
	Items       []OrderItem
	Total       float64
	Status      OrderStatus
	Shipping    *ShippingInfo
	VoucherRefs []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Client is a buyer's saved delivery record for one seller.
type Client struct {
	BuyerID string
	Name    string
	Address string
	Phone   string
}
