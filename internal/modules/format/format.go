// README: Renders provider results into chat replies; one bad item never spoils the rest.
package format

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"wayfarer/internal/modules/provider"
)

// Display caps.
const (
	MaxFlights = 5
	MaxHotels  = 3
	MaxPOIs    = 8
)

var errIncomplete = errors.New("format: incomplete result")

// Formatter renders replies. The zero value is not usable; call New.
type Formatter struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Formatter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Formatter{log: log.Named("format")}
}

// renderList renders up to limit items, skipping ones that fail, and
// reports how many were left unexamined.
func (f *Formatter) renderList(kind string, n, limit int, render func(i, shown int) (string, error)) ([]string, int) {
	var blocks []string
	for i := 0; i < n; i++ {
		block, err := render(i, len(blocks)+1)
		if err != nil {
			f.log.Warn("skipping result", zap.String("kind", kind), zap.Int("index", i), zap.Error(err))
			continue
		}
		blocks = append(blocks, block)
		if len(blocks) == limit {
			return blocks, n - i - 1
		}
	}
	return blocks, 0
}

func moreSuffix(remaining int, noun string) string {
	if remaining <= 0 {
		return ""
	}
	return fmt.Sprintf("\n\n...and %d more %s.", remaining, noun)
}

// FormatFlightResults lists offers for a route. date is shown as given.
func (f *Formatter) FormatFlightResults(res provider.FlightResults, origin, destination, date string) string {
	route := fmt.Sprintf("%s to %s", origin, destination)
	if len(res.Offers) == 0 {
		return fmt.Sprintf("I couldn't find any flights from %s on %s. Try different dates or nearby airports.", route, date)
	}
	blocks, remaining := f.renderList("flight", len(res.Offers), MaxFlights, func(i, shown int) (string, error) {
		return renderFlight(shown, res.Offers[i], res.Carriers)
	})
	if len(blocks) == 0 {
		return fmt.Sprintf("I found flights from %s on %s but couldn't read their details. Try different dates or nearby airports.", route, date)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Flights from %s on %s:\n\n", route, date)
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString(moreSuffix(remaining, "options"))
	b.WriteString("\n\nTo book, reply \"book option N\" with the traveler's full name and email.")
	return b.String()
}

func renderFlight(n int, o provider.FlightOffer, carriers map[string]string) (string, error) {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return "", fmt.Errorf("offer %s: %w: no segments", o.ID, errIncomplete)
	}
	price, err := o.Price.Money()
	if err != nil {
		return "", fmt.Errorf("offer %s: %w", o.ID, err)
	}
	out := o.Itineraries[0]
	first, last := out.Segments[0], out.Segments[len(out.Segments)-1]

	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s", n, carrierLabel(first, carriers))
	fmt.Fprintf(&b, " · %s\n", stopsLabel(len(out.Segments)-1))
	fmt.Fprintf(&b, "   %s %s → %s %s\n", endpointLabel(first.Departure), first.Departure.IataCode, endpointLabel(last.Arrival), last.Arrival.IataCode)
	var details []string
	if d, ok := ItineraryDuration(out); ok {
		details = append(details, "Duration: "+humanDuration(d))
	}
	if cabin := o.Cabin(); cabin != "" {
		details = append(details, "Cabin: "+cabin)
	}
	if len(details) > 0 {
		fmt.Fprintf(&b, "   %s\n", strings.Join(details, " · "))
	}
	if len(o.Itineraries) > 1 && len(o.Itineraries[1].Segments) > 0 {
		back := o.Itineraries[1]
		bf, bl := back.Segments[0], back.Segments[len(back.Segments)-1]
		fmt.Fprintf(&b, "   Return: %s %s → %s %s\n", endpointLabel(bf.Departure), bf.Departure.IataCode, endpointLabel(bl.Arrival), bl.Arrival.IataCode)
	}
	fmt.Fprintf(&b, "   Price: %s", price)
	return b.String(), nil
}

// ItineraryDuration is last arrival minus first departure, layovers
// included. ok is false when either timestamp is unreadable.
func ItineraryDuration(it provider.Itinerary) (time.Duration, bool) {
	if len(it.Segments) == 0 {
		return 0, false
	}
	dep, err := it.Segments[0].Departure.Time()
	if err != nil {
		return 0, false
	}
	arr, err := it.Segments[len(it.Segments)-1].Arrival.Time()
	if err != nil || arr.Before(dep) {
		return 0, false
	}
	return arr.Sub(dep), true
}

func humanDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %02dm", h, m)
}

func carrierLabel(s provider.Segment, carriers map[string]string) string {
	code := s.CarrierCode
	if code == "" {
		return "Unknown airline"
	}
	name := carriers[code]
	if name == "" {
		name = code
	}
	if s.Number == "" {
		return name
	}
	return fmt.Sprintf("%s (%s %s)", name, code, s.Number)
}

func stopsLabel(stops int) string {
	switch stops {
	case 0:
		return "nonstop"
	case 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", stops)
	}
}

func endpointLabel(e provider.Endpoint) string {
	t, err := e.Time()
	if err != nil {
		return "time n/a"
	}
	return t.Format("Jan 2 15:04")
}

// FormatHotelResults lists available hotels with their cheapest room.
func (f *Formatter) FormatHotelResults(offers []provider.HotelOffer, city, checkIn, checkOut string, adults int) string {
	stay := fmt.Sprintf("%s to %s, %s", checkIn, checkOut, guests(adults))
	if len(offers) == 0 {
		return fmt.Sprintf("I couldn't find any available hotels in %s (%s). Try different dates or a nearby city.", city, stay)
	}
	blocks, remaining := f.renderList("hotel", len(offers), MaxHotels, func(i, shown int) (string, error) {
		return renderHotel(shown, offers[i])
	})
	if len(blocks) == 0 {
		return fmt.Sprintf("I couldn't find any bookable rooms in %s (%s). Try different dates or a nearby city.", city, stay)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hotels in %s (%s):\n\n", city, stay)
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString(moreSuffix(remaining, "hotels"))
	return b.String()
}

func renderHotel(n int, h provider.HotelOffer) (string, error) {
	if len(h.Offers) == 0 {
		return "", fmt.Errorf("hotel %s: %w: no room offers", h.Hotel.HotelID, errIncomplete)
	}
	room := h.Offers[0]
	price, err := room.Price.Money()
	if err != nil {
		return "", fmt.Errorf("hotel %s: %w", h.Hotel.HotelID, err)
	}
	name := h.Hotel.Name
	if name == "" {
		name = "Unnamed hotel"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s", n, titleWords(name))
	if h.Hotel.Rating != "" {
		fmt.Fprintf(&b, " (%s★)", h.Hotel.Rating)
	}
	b.WriteString("\n")
	te := room.Room.TypeEstimated
	switch {
	case te.Category != "" && te.Beds > 0:
		fmt.Fprintf(&b, "   Room: %s, %d %s bed(s)\n", humanize(te.Category), te.Beds, strings.ToLower(orDefault(te.BedType, "standard")))
	case te.Category != "":
		fmt.Fprintf(&b, "   Room: %s\n", humanize(te.Category))
	}
	if len(h.Hotel.Amenities) > 0 {
		am := make([]string, 0, 4)
		for _, a := range h.Hotel.Amenities[:min(4, len(h.Hotel.Amenities))] {
			am = append(am, humanize(a))
		}
		fmt.Fprintf(&b, "   Amenities: %s\n", strings.Join(am, ", "))
	}
	fmt.Fprintf(&b, "   Price: %s total", price)
	return b.String(), nil
}

// FormatPointsOfInterest lists places worth visiting in city.
func (f *Formatter) FormatPointsOfInterest(pois []provider.PointOfInterest, city string) string {
	if len(pois) == 0 {
		return fmt.Sprintf("I couldn't find points of interest in %s. Try a nearby city or a more specific place.", city)
	}
	blocks, remaining := f.renderList("poi", len(pois), MaxPOIs, func(i, shown int) (string, error) {
		return renderPOI(shown, pois[i])
	})
	if len(blocks) == 0 {
		return fmt.Sprintf("I couldn't find points of interest in %s. Try a nearby city or a more specific place.", city)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Places to visit in %s:\n\n", city)
	b.WriteString(strings.Join(blocks, "\n"))
	b.WriteString(moreSuffix(remaining, "places"))
	return b.String()
}

func renderPOI(n int, p provider.PointOfInterest) (string, error) {
	if strings.TrimSpace(p.Name) == "" {
		return "", fmt.Errorf("poi: %w: no name", errIncomplete)
	}
	line := fmt.Sprintf("%d. %s", n, p.Name)
	if p.Category != "" {
		line += " (" + humanize(p.Category) + ")"
	}
	return line, nil
}

// StopsPerDay is how many places an itinerary day holds.
const StopsPerDay = 3

// FormatItinerary spreads pois across days, StopsPerDay each.
func (f *Formatter) FormatItinerary(city string, days int, pois []provider.PointOfInterest) string {
	var names []string
	for _, p := range pois {
		if strings.TrimSpace(p.Name) != "" {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("I couldn't find enough places in %s to build an itinerary. Try a nearby city.", city)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Here's a %d-day plan for %s:\n", days, city)
	for d := 0; d < days; d++ {
		fmt.Fprintf(&b, "\nDay %d:\n", d+1)
		start := d * StopsPerDay
		if start >= len(names) {
			b.WriteString("  • Free day to wander, shop or revisit a favourite spot\n")
			continue
		}
		end := min(start+StopsPerDay, len(names))
		for _, name := range names[start:end] {
			fmt.Fprintf(&b, "  • %s\n", name)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatBookingConfirmation tells the traveler the order went through.
func (f *Formatter) FormatBookingConfirmation(order provider.Order, traveler provider.Traveler, offer provider.FlightOffer) string {
	var b strings.Builder
	b.WriteString("Your flight is booked!")
	ref := orDefault(order.Reference, order.ID)
	if ref != "" {
		fmt.Fprintf(&b, " Booking reference: %s.", ref)
	}
	if len(offer.Itineraries) > 0 && len(offer.Itineraries[0].Segments) > 0 {
		segs := offer.Itineraries[0].Segments
		fmt.Fprintf(&b, "\nRoute: %s → %s, departing %s.", segs[0].Departure.IataCode, segs[len(segs)-1].Arrival.IataCode, endpointLabel(segs[0].Departure))
	}
	if price, err := offer.Price.Money(); err == nil {
		fmt.Fprintf(&b, "\nTotal: %s.", price)
	}
	fmt.Fprintf(&b, "\nTraveler: %s %s. A confirmation will be sent to %s.", traveler.FirstName, traveler.LastName, traveler.Email)
	return b.String()
}

// FormatPriceChanged asks the traveler to re-confirm at the new price.
func (f *Formatter) FormatPriceChanged(option int, pc *provider.PriceChangedError) string {
	return fmt.Sprintf("The price for option %d changed from %s to %s. Reply \"book option %d\" again to book at the new price.",
		option, pc.Quoted, pc.Confirmed, option)
}

// FormatClarification asks for the fields a request is missing.
func (f *Formatter) FormatClarification(task string, missing []string, example string) string {
	msg := fmt.Sprintf("I can help %s. Could you tell me the %s?", task, JoinList(missing))
	if example != "" {
		msg += fmt.Sprintf(" For example: \"%s\"", example)
	}
	return msg
}

// JoinList joins items as "a", "a and b" or "a, b and c".
func JoinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

func guests(n int) string {
	if n <= 1 {
		return "1 guest"
	}
	return fmt.Sprintf("%d guests", n)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// humanize turns provider enums like "SUPERIOR_ROOM" into "superior room".
func humanize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", " "))
}

func titleWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
