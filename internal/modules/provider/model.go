// README: Wire models for the travel-commerce API (flight offers, hotel offers, POIs, locations, orders).
package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"wayfarer/internal/types"
)

// Location subtypes returned by the location search.
const (
	SubTypeCity    = "CITY"
	SubTypeAirport = "AIRPORT"
)

type Location struct {
	SubType  string `json:"subType"`
	Name     string `json:"name"`
	IataCode string `json:"iataCode"`
	Address  struct {
		CityName    string `json:"cityName"`
		CountryCode string `json:"countryCode"`
	} `json:"address"`
	GeoCode GeoCode `json:"geoCode"`
}

type GeoCode struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FlightQuery is a flight search. Dates are YYYY-MM-DD; ReturnDate is
// optional.
type FlightQuery struct {
	Origin      string
	Destination string
	DepartDate  string
	ReturnDate  string
	Adults      int
	CabinClass  string
	Max         int
}

// FlightOffer is one priced itinerary. Raw keeps the provider's JSON so the
// offer can be sent back verbatim for pricing and booking.
type FlightOffer struct {
	ID                    string            `json:"id"`
	NumberOfBookableSeats int               `json:"numberOfBookableSeats"`
	Itineraries           []Itinerary       `json:"itineraries"`
	Price                 OfferPrice        `json:"price"`
	ValidatingAirline     []string          `json:"validatingAirlineCodes"`
	TravelerPricings      []TravelerPricing `json:"travelerPricings"`

	Raw json.RawMessage `json:"-"`
}

type flightOfferAlias FlightOffer

func (o *FlightOffer) UnmarshalJSON(b []byte) error {
	var a flightOfferAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*o = FlightOffer(a)
	o.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON emits the provider's original JSON when it is known.
func (o FlightOffer) MarshalJSON() ([]byte, error) {
	if len(o.Raw) > 0 {
		return o.Raw, nil
	}
	return json.Marshal(flightOfferAlias(o))
}

// Cabin returns the cabin of the first fare segment, if any.
func (o FlightOffer) Cabin() string {
	for _, tp := range o.TravelerPricings {
		for _, fd := range tp.FareDetailsBySegment {
			if fd.Cabin != "" {
				return fd.Cabin
			}
		}
	}
	return ""
}

type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Departure   Endpoint `json:"departure"`
	Arrival     Endpoint `json:"arrival"`
	CarrierCode string   `json:"carrierCode"`
	Number      string   `json:"number"`
	Duration    string   `json:"duration"`
}

type Endpoint struct {
	IataCode string `json:"iataCode"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at"`
}

// Time parses the provider's local timestamp (no zone).
func (e Endpoint) Time() (time.Time, error) {
	return time.Parse("2006-01-02T15:04:05", e.At)
}

type TravelerPricing struct {
	FareDetailsBySegment []struct {
		Cabin string `json:"cabin"`
	} `json:"fareDetailsBySegment"`
}

// OfferPrice carries amounts as the decimal strings the provider sends.
type OfferPrice struct {
	Currency   string `json:"currency"`
	Total      string `json:"total"`
	GrandTotal string `json:"grandTotal,omitempty"`
}

// Money parses the grand total, falling back to the total.
func (p OfferPrice) Money() (types.Money, error) {
	raw := p.GrandTotal
	if raw == "" {
		raw = p.Total
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return types.Money{}, fmt.Errorf("provider: price %q: %w", raw, err)
	}
	return types.Money{Amount: amount, Currency: p.Currency}, nil
}

// FlightResults is a flight search response.
type FlightResults struct {
	Offers   []FlightOffer
	Carriers map[string]string
}

// HotelQuery is a hotel search by city code.
type HotelQuery struct {
	CityCode string
	CheckIn  string
	CheckOut string
	Adults   int
}

type HotelOffer struct {
	Hotel struct {
		HotelID   string   `json:"hotelId"`
		Name      string   `json:"name"`
		CityCode  string   `json:"cityCode"`
		Rating    string   `json:"rating,omitempty"`
		Amenities []string `json:"amenities,omitempty"`
	} `json:"hotel"`
	Available bool        `json:"available"`
	Offers    []RoomOffer `json:"offers"`
}

type RoomOffer struct {
	ID           string `json:"id"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
	Room         struct {
		TypeEstimated struct {
			Category string `json:"category"`
			Beds     int    `json:"beds"`
			BedType  string `json:"bedType"`
		} `json:"typeEstimated"`
		Description struct {
			Text string `json:"text"`
		} `json:"description"`
	} `json:"room"`
	Price OfferPrice `json:"price"`
}

type PointOfInterest struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Rank     int      `json:"rank"`
	Tags     []string `json:"tags"`
	GeoCode  GeoCode  `json:"geoCode"`
}

// Traveler is the minimal passenger record sent with a booking.
type Traveler struct {
	FirstName string
	LastName  string
	Email     string
}

// Order is a created flight order.
type Order struct {
	ID        string
	Reference string
}
