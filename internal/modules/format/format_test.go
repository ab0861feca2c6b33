package format

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"wayfarer/internal/modules/provider"
)

func offer(id, total string, segs ...provider.Segment) provider.FlightOffer {
	o := provider.FlightOffer{ID: id, Price: provider.OfferPrice{Currency: "USD", Total: total}}
	if len(segs) > 0 {
		o.Itineraries = []provider.Itinerary{{Segments: segs}}
	}
	return o
}

func seg(from, dep, to, arr string) provider.Segment {
	return provider.Segment{
		Departure:   provider.Endpoint{IataCode: from, At: dep},
		Arrival:     provider.Endpoint{IataCode: to, At: arr},
		CarrierCode: "BA",
		Number:      "178",
	}
}

func TestFormatFlightResultsEmpty(t *testing.T) {
	f := New(nil)
	out := f.FormatFlightResults(provider.FlightResults{}, "New York", "London", "2026-11-02")
	require.Contains(t, out, "New York to London")
	require.Contains(t, out, "Try different dates")
}

func TestFormatFlightResultsCapsAndSkipsBadItems(t *testing.T) {
	f := New(nil)
	good := seg("JFK", "2026-11-02T18:00:00", "LHR", "2026-11-03T06:30:00")
	offers := []provider.FlightOffer{
		offer("bad-price", "n/a", good),
		offer("no-segments", "100.00"),
	}
	for i := 0; i < 7; i++ {
		offers = append(offers, offer(fmt.Sprint(i), fmt.Sprintf("%d.00", 400+i), good))
	}
	out := f.FormatFlightResults(provider.FlightResults{Offers: offers, Carriers: map[string]string{"BA": "BRITISH AIRWAYS"}}, "New York", "London", "2026-11-02")

	require.Contains(t, out, "Flights from New York to London on 2026-11-02")
	require.Contains(t, out, "1. BRITISH AIRWAYS (BA 178) · nonstop")
	require.Contains(t, out, "5. BRITISH AIRWAYS")
	require.NotContains(t, out, "6. ")
	require.Contains(t, out, "Duration: 12h 30m")
	require.Contains(t, out, "Price: 400.00 USD")
	require.Contains(t, out, "...and 2 more options.")
}

func TestFormatFlightResultsAllMalformed(t *testing.T) {
	f := New(nil)
	out := f.FormatFlightResults(provider.FlightResults{Offers: []provider.FlightOffer{offer("x", "")}}, "A", "B", "2026-11-02")
	require.NotEmpty(t, out)
	require.Contains(t, out, "A to B")
}

func TestItineraryDurationIncludesLayovers(t *testing.T) {
	it := provider.Itinerary{Segments: []provider.Segment{
		seg("JFK", "2026-11-02T08:00:00", "ORD", "2026-11-02T10:00:00"),
		seg("ORD", "2026-11-02T14:00:00", "SFO", "2026-11-02T17:15:00"),
	}}
	d, ok := ItineraryDuration(it)
	require.True(t, ok)
	require.Equal(t, "9h 15m", humanDuration(d))

	_, ok = ItineraryDuration(provider.Itinerary{Segments: []provider.Segment{{}}})
	require.False(t, ok)
}

func TestFormatFlightDefaultsForMissingFields(t *testing.T) {
	f := New(nil)
	o := offer("1", "99.00", provider.Segment{Departure: provider.Endpoint{IataCode: "JFK"}, Arrival: provider.Endpoint{IataCode: "LHR"}})
	out := f.FormatFlightResults(provider.FlightResults{Offers: []provider.FlightOffer{o}}, "New York", "London", "2026-11-02")
	require.Contains(t, out, "Unknown airline")
	require.Contains(t, out, "time n/a")
	require.NotContains(t, out, "Cabin:")
}

func TestFormatHotelResults(t *testing.T) {
	f := New(nil)
	var offers []provider.HotelOffer
	for i := 0; i < 5; i++ {
		var h provider.HotelOffer
		h.Hotel.HotelID = fmt.Sprint(i)
		h.Hotel.Name = fmt.Sprintf("HOTEL NUMBER %d", i)
		h.Hotel.Amenities = []string{"WIFI", "SWIMMING_POOL"}
		if i != 1 {
			var room provider.RoomOffer
			room.Price = provider.OfferPrice{Currency: "EUR", Total: "210.00"}
			room.Room.TypeEstimated.Category = "SUPERIOR_ROOM"
			h.Offers = []provider.RoomOffer{room}
		}
		offers = append(offers, h)
	}
	out := f.FormatHotelResults(offers, "Paris", "2026-11-05", "2026-11-06", 2)
	require.Contains(t, out, "Hotels in Paris (2026-11-05 to 2026-11-06, 2 guests)")
	require.Contains(t, out, "1. Hotel Number 0")
	require.Contains(t, out, "2. Hotel Number 2")
	require.Contains(t, out, "3. Hotel Number 3")
	require.NotContains(t, out, "Hotel Number 1")
	require.Contains(t, out, "Amenities: wifi, swimming pool")
	require.Contains(t, out, "...and 1 more hotels.")
	require.Equal(t, "SWIMMING_POOL", offers[0].Hotel.Amenities[1])

	require.Contains(t, f.FormatHotelResults(nil, "Paris", "2026-11-05", "2026-11-06", 1), "Try different dates")
}

func TestFormatPointsOfInterestCap(t *testing.T) {
	f := New(nil)
	var pois []provider.PointOfInterest
	for i := 0; i < 10; i++ {
		pois = append(pois, provider.PointOfInterest{Name: fmt.Sprintf("Spot %d", i), Category: "SIGHTS"})
	}
	out := f.FormatPointsOfInterest(pois, "Rome")
	require.Contains(t, out, "8. Spot 7 (sights)")
	require.NotContains(t, out, "Spot 8")
	require.Contains(t, out, "...and 2 more places.")
	require.Contains(t, f.FormatPointsOfInterest(nil, "Rome"), "couldn't find")
}

func TestFormatItinerary(t *testing.T) {
	f := New(nil)
	pois := []provider.PointOfInterest{{Name: "A"}, {Name: "B"}, {Name: ""}, {Name: "C"}, {Name: "D"}}
	out := f.FormatItinerary("Lisbon", 3, pois)
	require.Contains(t, out, "3-day plan for Lisbon")
	require.Equal(t, 1, strings.Count(out, "Day 2:"))
	require.Contains(t, out, "Day 2:\n  • D")
	require.Contains(t, out, "Day 3:\n  • Free day")
	require.Contains(t, f.FormatItinerary("Lisbon", 2, nil), "couldn't find")
}

func TestFormatPriceChangedAndClarification(t *testing.T) {
	f := New(nil)
	out := f.FormatPriceChanged(2, &provider.PriceChangedError{})
	require.Contains(t, out, "option 2 changed")
	require.Equal(t, "a, b and c", JoinList([]string{"a", "b", "c"}))
	require.Equal(t, "a and b", JoinList([]string{"a", "b"}))
	q := f.FormatClarification("search flights", []string{"departure city", "travel date"}, "")
	require.Equal(t, "I can help search flights. Could you tell me the departure city and travel date?", q)
}
