package domain

import "time"

// Subscription is a time-boxed membership in a seller's live audience.
type Subscription struct {
	SellerID     string
	BuyerID      string
	DisplayName  string
	SubscribedAt time.Time
	ExpiresAt    time.Time
	Remaining    time.Duration
}

func (s Subscription) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

type LiveStatus string

const (
	LiveStatusAvailable LiveStatus = "available"
	LiveStatusReserved  LiveStatus = "reserved"
)

// LiveEntry tracks the single-winner outcome for one broadcast product.
// Once Status becomes reserved the winner fields are immutable.
type LiveEntry struct {
	SellerID    string
	Product     Product
	Status      LiveStatus
	WinnerID    string
	WinnerName  string
	PublishedAt time.Time
	ReservedAt  *time.Time
}
