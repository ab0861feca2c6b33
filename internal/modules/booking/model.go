// README: Booking aggregate and status definitions.
package booking

import (
	"time"

	"github.com/google/uuid"

	"wayfarer/internal/modules/provider"
	"wayfarer/internal/types"
)

type Status string

const (
	StatusNone         Status = "none"
	StatusQuoted       Status = "quoted"
	StatusPriced       Status = "priced"
	StatusPriceChanged Status = "price_changed"
	StatusBooked       Status = "booked"
	StatusFailed       Status = "failed"
)

type Booking struct {
	ID              uuid.UUID
	ConversationID  uuid.UUID
	OwnerID         string
	OfferID         string
	Option          int
	Status          Status
	StatusVersion   int
	Quoted          types.Money
	Confirmed       *types.Money
	Traveler        provider.Traveler
	ProviderOrderID string
	Reference       string
	FailureReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Event struct {
	ID         int64
	BookingID  uuid.UUID
	FromStatus Status
	ToStatus   Status
	CreatedAt  time.Time
}

// AllowedTransitions represents the booking flow as code. A price change
// must be re-confirmed before the booking can be priced.
var AllowedTransitions = map[Status][]Status{
	StatusQuoted:       {StatusPriced, StatusPriceChanged, StatusFailed},
	StatusPriceChanged: {StatusPriced, StatusPriceChanged, StatusFailed},
	StatusPriced:       {StatusBooked, StatusFailed},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
