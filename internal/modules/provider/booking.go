package provider

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

// ConfirmPrice re-prices a previously returned offer. When the price moved
// beyond PriceTolerance it returns the confirmed offer together with a
// *PriceChangedError.
func (c *Client) ConfirmPrice(ctx context.Context, offer FlightOffer) (FlightOffer, error) {
	const op = "confirm_price"
	if err := c.ready(op); err != nil {
		return FlightOffer{}, err
	}
	quoted, err := offer.Price.Money()
	if err != nil {
		return FlightOffer{}, &RequestError{Kind: KindBadRequest, Op: op, Err: err}
	}

	body := map[string]any{
		"data": map[string]any{
			"type":         "flight-offers-pricing",
			"flightOffers": []FlightOffer{offer},
		},
	}
	var resp struct {
		Data struct {
			FlightOffers []FlightOffer `json:"flightOffers"`
		} `json:"data"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/v1/shopping/flight-offers/pricing", nil, body, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return FlightOffer{}, &RequestError{Kind: KindBadRequest, Op: op, StatusCode: http.StatusNotFound, Title: "offer no longer available"}
		}
		return FlightOffer{}, err
	}
	if len(resp.Data.FlightOffers) == 0 {
		return FlightOffer{}, &RequestError{Kind: KindUpstream, Op: op, Title: "pricing returned no offers"}
	}
	confirmed := resp.Data.FlightOffers[0]
	price, err := confirmed.Price.Money()
	if err != nil {
		return FlightOffer{}, &RequestError{Kind: KindUpstream, Op: op, Err: err}
	}
	return confirmed, CheckPrice(quoted, price)
}

type bookingTraveler struct {
	ID   string `json:"id"`
	Name struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"name"`
	Contact struct {
		EmailAddress string `json:"emailAddress"`
	} `json:"contact"`
}

// CreateBooking places a flight order for a confirmed offer. It must only be
// called with an offer whose ConfirmPrice reported no change.
func (c *Client) CreateBooking(ctx context.Context, offer FlightOffer, travelers []Traveler) (Order, error) {
	const op = "create_booking"
	if err := c.ready(op); err != nil {
		return Order{}, err
	}
	if len(travelers) == 0 {
		return Order{}, &RequestError{Kind: KindBadRequest, Op: op, Title: "no travelers"}
	}
	wire := make([]bookingTraveler, len(travelers))
	for i, t := range travelers {
		wire[i].ID = strconv.Itoa(i + 1)
		wire[i].Name.FirstName = t.FirstName
		wire[i].Name.LastName = t.LastName
		wire[i].Contact.EmailAddress = t.Email
	}
	body := map[string]any{
		"data": map[string]any{
			"type":         "flight-order",
			"flightOffers": []FlightOffer{offer},
			"travelers":    wire,
			"ticketingAgreement": map[string]string{
				"option": "DELAY_TO_CANCEL",
				"delay":  c.ticketingDelay,
			},
		},
	}
	var resp struct {
		Data struct {
			ID                string `json:"id"`
			AssociatedRecords []struct {
				Reference string `json:"reference"`
			} `json:"associatedRecords"`
		} `json:"data"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/v1/booking/flight-orders", nil, body, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return Order{}, &RequestError{Kind: KindBadRequest, Op: op, StatusCode: http.StatusNotFound}
		}
		return Order{}, err
	}
	order := Order{ID: resp.Data.ID}
	if len(resp.Data.AssociatedRecords) > 0 {
		order.Reference = resp.Data.AssociatedRecords[0].Reference
	}
	return order, nil
}
