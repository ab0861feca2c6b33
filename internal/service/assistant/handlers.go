package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wayfarer/internal/modules/booking"
	"wayfarer/internal/modules/extract"
	"wayfarer/internal/modules/provider"
	"wayfarer/internal/types"
)

// handler answers one dispatched turn. A non-nil error hands the turn to the
// generic tier; expected gaps such as missing fields are replies, not errors.
type handler func(ctx context.Context, req Request, message string) (string, error)

// POIRadiusKm bounds the provider's points-of-interest search around a city.
const POIRadiusKm = 5

func (o *Orchestrator) clarify(task string, err error, example string) (string, bool) {
	var incomplete *extract.IncompleteError
	if !errors.As(err, &incomplete) {
		return "", false
	}
	return o.opts.Formatter.FormatClarification(task, incomplete.Missing, example), true
}

func (o *Orchestrator) handleFlight(ctx context.Context, req Request, message string) (string, error) {
	p := extract.ExtractFlightParams(message)
	if text, ok := o.clarify("find flights", extract.Check(p.Missing()), "flights from New York to London on June 15th"); ok {
		return text, nil
	}

	now := o.now()
	depart, err := extract.NormalizeDate(p.DepartDate, now)
	if err != nil {
		return fmt.Sprintf("I couldn't read the travel date %q. Could you give it like \"June 15th\" or \"2026-06-15\"?", p.DepartDate), nil
	}
	var ret string
	if p.ReturnDate != "" {
		if ret, err = extract.NormalizeDate(p.ReturnDate, now); err != nil {
			o.log.Info("ignoring unreadable return date", zap.String("return_date", p.ReturnDate))
			ret = ""
		}
	}

	originCode, err := o.opts.Resolver.Resolve(ctx, p.Origin)
	if err != nil {
		return "", fmt.Errorf("resolve origin %q: %w", p.Origin, err)
	}
	destCode, err := o.opts.Resolver.Resolve(ctx, p.Destination)
	if err != nil {
		return "", fmt.Errorf("resolve destination %q: %w", p.Destination, err)
	}

	q := provider.FlightQuery{
		Origin:      originCode,
		Destination: destCode,
		DepartDate:  depart,
		ReturnDate:  ret,
		Adults:      p.Adults,
		CabinClass:  p.CabinClass,
	}
	res, err := o.opts.Provider.SearchFlights(ctx, q)
	if err != nil {
		o.log.Warn("flight search failed",
			zap.String("origin", originCode), zap.String("destination", destCode),
			zap.String("depart", depart), zap.Error(err))
		return "", err
	}

	if len(res.Offers) > 0 && o.opts.Bookings != nil {
		if err := o.opts.Bookings.RememberOffers(ctx, req.ConversationID, res.Offers); err != nil {
			o.log.Warn("remember offers failed", zap.String("conversation_id", req.ConversationID.String()), zap.Error(err))
		}
	}
	return o.opts.Formatter.FormatFlightResults(res, p.Origin, p.Destination, depart), nil
}

func (o *Orchestrator) handleHotel(ctx context.Context, req Request, message string) (string, error) {
	p := extract.ExtractHotelParams(message)
	if text, ok := o.clarify("find a hotel", extract.Check(p.Missing()), "hotels in Paris from July 3rd to July 6th"); ok {
		return text, nil
	}

	now := o.now()
	checkIn, err := extract.NormalizeDate(p.CheckIn, now)
	if err != nil {
		return fmt.Sprintf("I couldn't read the check-in date %q. Could you give it like \"July 3rd\"?", p.CheckIn), nil
	}
	checkOut := stayEnd(checkIn, p, now)

	code, err := o.opts.Resolver.Resolve(ctx, p.City)
	if err != nil {
		return "", fmt.Errorf("resolve city %q: %w", p.City, err)
	}
	offers, err := o.opts.Provider.SearchHotels(ctx, provider.HotelQuery{
		CityCode: code,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Adults:   p.Adults,
	})
	if err != nil {
		o.log.Warn("hotel search failed", zap.String("city", code), zap.String("check_in", checkIn), zap.Error(err))
		return "", err
	}
	return o.opts.Formatter.FormatHotelResults(offers, p.City, checkIn, checkOut, p.Adults), nil
}

// stayEnd picks the check-out day: explicit date, then nights, then one night.
func stayEnd(checkIn string, p extract.HotelParams, now time.Time) string {
	in, err := time.Parse(types.DateLayout, checkIn)
	if err != nil {
		return ""
	}
	if p.CheckOut != "" {
		if out, err := extract.NormalizeDate(p.CheckOut, now); err == nil && out > checkIn {
			return out
		}
	}
	nights := p.Nights
	if nights < 1 {
		nights = 1
	}
	return in.AddDate(0, 0, nights).Format(types.DateLayout)
}

func (o *Orchestrator) handlePointsOfInterest(ctx context.Context, req Request, message string) (string, error) {
	place := extract.ExtractPlace(message)
	if text, ok := o.clarify("suggest things to do", extract.Check(placeMissing(place)), "things to do in Rome"); ok {
		return text, nil
	}
	pois, err := o.pointsOfInterest(ctx, place)
	if err != nil {
		return "", err
	}
	return o.opts.Formatter.FormatPointsOfInterest(pois, place), nil
}

func (o *Orchestrator) handleItinerary(ctx context.Context, req Request, message string) (string, error) {
	place := extract.ExtractPlace(message)
	if text, ok := o.clarify("plan your trip", extract.Check(placeMissing(place)), "plan a 3 day itinerary for Tokyo"); ok {
		return text, nil
	}
	days := extract.ExtractDays(message)
	pois, err := o.pointsOfInterest(ctx, place)
	if err != nil {
		return "", err
	}
	return o.opts.Formatter.FormatItinerary(place, days, pois), nil
}

func placeMissing(place string) []string {
	if place == "" {
		return []string{"city"}
	}
	return nil
}

// pointsOfInterest asks the provider first and falls back to the Places
// text search when the provider errors or has nothing for the area.
func (o *Orchestrator) pointsOfInterest(ctx context.Context, place string) ([]provider.PointOfInterest, error) {
	lat, lng, err := o.coordinates(ctx, place)
	var pois []provider.PointOfInterest
	if err == nil {
		pois, err = o.opts.Provider.SearchPointsOfInterest(ctx, lat, lng, POIRadiusKm)
		if err != nil {
			o.log.Warn("poi search failed", zap.String("place", place), zap.Error(err))
		}
	}
	if len(pois) > 0 {
		return pois, nil
	}
	if o.opts.Places == nil {
		return pois, err
	}
	fallback, ferr := o.opts.Places.Attractions(ctx, place)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return fallback, nil
}

func (o *Orchestrator) coordinates(ctx context.Context, place string) (float64, float64, error) {
	if o.opts.Places != nil {
		lat, lng, err := o.opts.Places.Geocode(ctx, place)
		if err == nil {
			return lat, lng, nil
		}
		o.log.Info("geocoding failed, trying provider location lookup", zap.String("place", place), zap.Error(err))
	}
	locs, err := o.opts.Provider.LookupLocation(ctx, place)
	if err != nil {
		return 0, 0, err
	}
	for _, l := range locs {
		if l.GeoCode.Latitude != 0 || l.GeoCode.Longitude != 0 {
			return l.GeoCode.Latitude, l.GeoCode.Longitude, nil
		}
	}
	return 0, 0, fmt.Errorf("no coordinates for %q", place)
}

func (o *Orchestrator) handleBooking(ctx context.Context, req Request, message string) (string, error) {
	if o.opts.Bookings == nil {
		return "", fmt.Errorf("%w: bookings", ErrNotConfigured)
	}
	br := extract.ExtractBookingRequest(message)
	if text, ok := o.clarify("book that flight", extract.Check(br.Missing()), "book option 2 for Jane Doe, jane@example.com"); ok {
		return text, nil
	}

	traveler := provider.Traveler{FirstName: br.FirstName, LastName: br.LastName, Email: br.Email}
	res, err := o.opts.Bookings.Book(ctx, booking.BookCommand{
		ConversationID: req.ConversationID,
		OwnerID:        req.OwnerID,
		Option:         br.Option,
		Traveler:       traveler,
	})
	var changed *provider.PriceChangedError
	switch {
	case errors.As(err, &changed):
		return o.opts.Formatter.FormatPriceChanged(br.Option, changed), nil
	case errors.Is(err, booking.ErrNoOffers):
		return "I don't have any recent flight options for this conversation. Search for flights first, " +
			"for example \"flights from New York to London on June 15th\".", nil
	case errors.Is(err, booking.ErrOptionOutOfRange):
		return fmt.Sprintf("Option %d isn't in the last list of flights I showed you. Please pick one of the listed option numbers.", br.Option), nil
	case err != nil:
		o.log.Warn("booking failed", zap.String("conversation_id", req.ConversationID.String()), zap.Int("option", br.Option), zap.Error(err))
		return "", err
	}
	return o.opts.Formatter.FormatBookingConfirmation(res.Order, traveler, res.Offer), nil
}
