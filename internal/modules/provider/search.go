package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const maxHotelIDs = 20

// SearchFlights returns flight offers for q. A 404 is an empty result.
func (c *Client) SearchFlights(ctx context.Context, q FlightQuery) (FlightResults, error) {
	const op = "search_flights"
	if err := c.ready(op); err != nil {
		return FlightResults{}, err
	}
	depart, ret, err := leniencyDates(q.DepartDate, q.ReturnDate, 7, false, true, c.now())
	if err != nil {
		return FlightResults{}, &RequestError{Kind: KindBadRequest, Op: op, Err: err}
	}

	v := url.Values{}
	v.Set("originLocationCode", q.Origin)
	v.Set("destinationLocationCode", q.Destination)
	v.Set("departureDate", depart)
	if ret != "" {
		v.Set("returnDate", ret)
	}
	v.Set("adults", strconv.Itoa(max(q.Adults, 1)))
	if q.CabinClass != "" {
		v.Set("travelClass", q.CabinClass)
	}
	limit := q.Max
	if limit <= 0 {
		limit = defaultFlightsMax
	}
	v.Set("max", strconv.Itoa(limit))

	var resp struct {
		Data         []FlightOffer `json:"data"`
		Dictionaries struct {
			Carriers map[string]string `json:"carriers"`
		} `json:"dictionaries"`
	}
	if err := c.do(ctx, op, http.MethodGet, "/v2/shopping/flight-offers", v, nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return FlightResults{}, nil
		}
		return FlightResults{}, err
	}
	return FlightResults{Offers: resp.Data, Carriers: resp.Dictionaries.Carriers}, nil
}

// SearchHotels lists hotels in the city, then fetches offers for the first
// batch of them.
func (c *Client) SearchHotels(ctx context.Context, q HotelQuery) ([]HotelOffer, error) {
	const op = "search_hotels"
	if err := c.ready(op); err != nil {
		return nil, err
	}
	checkIn, checkOut, err := leniencyDates(q.CheckIn, q.CheckOut, 1, true, false, c.now())
	if err != nil {
		return nil, &RequestError{Kind: KindBadRequest, Op: op, Err: err}
	}

	var list struct {
		Data []struct {
			HotelID string `json:"hotelId"`
		} `json:"data"`
	}
	err = c.do(ctx, op, http.MethodGet, "/v1/reference-data/locations/hotels/by-city", url.Values{"cityCode": {q.CityCode}}, nil, &list)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, maxHotelIDs)
	for _, h := range list.Data {
		if h.HotelID == "" {
			continue
		}
		ids = append(ids, h.HotelID)
		if len(ids) == maxHotelIDs {
			break
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	v := url.Values{}
	v.Set("hotelIds", strings.Join(ids, ","))
	v.Set("checkInDate", checkIn)
	v.Set("checkOutDate", checkOut)
	v.Set("adults", strconv.Itoa(max(q.Adults, 1)))
	var offers struct {
		Data []HotelOffer `json:"data"`
	}
	if err := c.do(ctx, op, http.MethodGet, "/v3/shopping/hotel-offers", v, nil, &offers); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return offers.Data, nil
}

// SearchPointsOfInterest returns POIs within radiusKm of the coordinates.
func (c *Client) SearchPointsOfInterest(ctx context.Context, lat, lng float64, radiusKm int) ([]PointOfInterest, error) {
	const op = "search_pois"
	v := url.Values{}
	v.Set("latitude", strconv.FormatFloat(lat, 'f', 6, 64))
	v.Set("longitude", strconv.FormatFloat(lng, 'f', 6, 64))
	v.Set("radius", strconv.Itoa(max(radiusKm, 1)))
	var resp struct {
		Data []PointOfInterest `json:"data"`
	}
	if err := c.do(ctx, op, http.MethodGet, "/v1/reference-data/locations/pois", v, nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Data, nil
}

// LookupLocation searches cities and airports by keyword.
func (c *Client) LookupLocation(ctx context.Context, keyword string) ([]Location, error) {
	const op = "lookup_location"
	v := url.Values{}
	v.Set("subType", SubTypeCity+","+SubTypeAirport)
	v.Set("keyword", keyword)
	v.Set("page[limit]", "10")
	var resp struct {
		Data []Location `json:"data"`
	}
	if err := c.do(ctx, op, http.MethodGet, "/v1/reference-data/locations", v, nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Data, nil
}
