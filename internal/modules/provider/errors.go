package provider

import (
	"errors"
	"fmt"
	"math"

	"wayfarer/internal/types"
)

// PriceTolerance is the largest quoted/confirmed difference accepted
// without asking the traveler to re-confirm.
const PriceTolerance = 0.01

var (
	// ErrNotInitialized is returned before any I/O when the client was built
	// without credentials.
	ErrNotInitialized = errors.New("provider: client not initialized (missing credentials)")
	// ErrAuthDisabled is wrapped by every call made after an auth failure.
	ErrAuthDisabled = errors.New("provider: disabled after authentication failure")
)

// Kind classifies a failed provider request.
type Kind string

const (
	KindBadRequest Kind = "bad_request"
	KindAuth       Kind = "auth"
	KindUpstream   Kind = "upstream"
)

// RequestError is a failed call to the travel-commerce API. Title and
// Detail come from the provider's error body and are for logs only.
type RequestError struct {
	Kind       Kind
	Op         string
	StatusCode int
	Code       int
	Title      string
	Detail     string
	Err        error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("provider: %s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Title != "" {
		msg += ": " + e.Title
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsKind reports whether err is a *RequestError of kind k.
func IsKind(err error, k Kind) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Kind == k
}

// PriceChangedError means the confirmed price moved beyond PriceTolerance
// from the quoted one. Booking must not proceed.
type PriceChangedError struct {
	Quoted    types.Money
	Confirmed types.Money
}

func (e *PriceChangedError) Error() string {
	return fmt.Sprintf("provider: price changed from %s to %s", e.Quoted, e.Confirmed)
}

// CheckPrice returns a *PriceChangedError when confirmed differs from
// quoted by more than PriceTolerance or is in another currency.
func CheckPrice(quoted, confirmed types.Money) error {
	sameCurrency := quoted.Currency == "" || confirmed.Currency == "" || quoted.Currency == confirmed.Currency
	if sameCurrency && math.Abs(confirmed.Amount-quoted.Amount) <= PriceTolerance+1e-9 {
		return nil
	}
	return &PriceChangedError{Quoted: quoted, Confirmed: confirmed}
}
