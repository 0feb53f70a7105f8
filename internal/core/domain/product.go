package domain

// Product is a catalog snapshot read from the inventory store.
// Available is always derived, never written.
type Product struct {
	SellerID    string
	Code        string
	Name        string
	Description string
	Price       float64
	Stock       int
	Reserved    int
	ImageURL    string
	Active      bool
}

func (p Product) Available() int {
	return p.Stock - p.Reserved
}

// Seller is one tenant of the platform.
type Seller struct {
	ID          string
	Name        string
	Prefix      string
	Description string
	LogoURL     string
	Phone       string
}

// CarrierBranch is a pickup office of a shipping carrier.
type CarrierBranch struct {
	Carrier  string
	Branch   string
	Address  string
	District string
	City     string
	Phone    string
}
