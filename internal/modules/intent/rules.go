package intent

import (
	"regexp"

	"wayfarer/internal/modules/extract"
)

// Rule maps a pattern to a category. A nil Category marks small talk: a
// match ends classification with no intent.
type Rule struct {
	Name       string
	Pattern    *regexp.Regexp
	Category   Category
	Confidence float64
	SmallTalk  bool
	// Accept, when set, must approve a match's capture groups; otherwise
	// the next match of the same pattern is tried.
	Accept func(groups []string) bool
}

// placesOnly accepts a match whose every capture names a place.
func placesOnly(groups []string) bool {
	for _, g := range groups {
		if !extract.ValidPlace(g) {
			return false
		}
	}
	return true
}

// DefaultRules is evaluated top to bottom against the lower-cased message;
// the first match wins.
var DefaultRules = []Rule{
	{Name: "greeting", SmallTalk: true,
		Pattern: regexp.MustCompile(`^\s*(hi|hello|hey|hiya|howdy|greetings|good (morning|afternoon|evening)|thanks|thank you)(\s+there)?\s*[!.,?]*\s*$`)},
	{Name: "capabilities", SmallTalk: true,
		Pattern: regexp.MustCompile(`\b(what can you do|what do you do|how can you help|what can you help( me)? with|who are you|how are you)\b`)},
	{Name: "help", SmallTalk: true,
		Pattern: regexp.MustCompile(`^\s*help\s*[!.?]*\s*$`)},

	{Name: "booking-verb", Category: CategoryBooking, Confidence: ConfidenceBooking,
		Pattern: regexp.MustCompile(`\b(book|reserve|purchase)\b`)},

	{Name: "flight-noun", Category: CategoryFlight, Confidence: ConfidenceFlight,
		Pattern: regexp.MustCompile(`\b(flights?|fly|flying|plane|airport|airfare|airline)\b`)},
	{Name: "from-to", Category: CategoryFlight, Confidence: ConfidenceFlight, Accept: placesOnly,
		Pattern: regexp.MustCompile(`\bfrom\s+([a-z][a-z .'-]*?)\s+to\s+([a-z][a-z'-]*)`)},

	{Name: "hotel-noun", Category: CategoryHotel, Confidence: ConfidenceHotel,
		Pattern: regexp.MustCompile(`\b(hotels?|accommodations?|lodging|motels?|hostels?|resorts?|inns?)\b.*?\b(in|at|near|around)\b`)},

	{Name: "points-of-interest", Category: CategoryPointOfInterest, Confidence: ConfidencePOI,
		Pattern: regexp.MustCompile(`\b(things to do|what to see|attractions?|points? of interest|sights|sightseeing|landmarks?|museums?|places to visit)\b`)},

	{Name: "itinerary", Category: CategoryItinerary, Confidence: ConfidenceItinerary,
		Pattern: regexp.MustCompile(`\b(itinerary|day[- ]trip|\d+[- ]days?\s+(trip|in|plan)|plan (a|my|our) (trip|vacation|holiday|visit))\b`)},

	{Name: "loose-hotel", Category: CategoryHotel, Confidence: ConfidenceLoose,
		Pattern: regexp.MustCompile(`\b(stay|room|hotels?|check[- ]in)\b`)},
	{Name: "loose-flight", Category: CategoryFlight, Confidence: ConfidenceLoose,
		Pattern: regexp.MustCompile(`\b(tickets?|departures?|layovers?|round[- ]trip|one[- ]way)\b`)},

	{Name: "general-travel", Category: CategoryGeneral, Confidence: ConfidenceGeneral,
		Pattern: regexp.MustCompile(`\b(travel|trip|vacation|holiday|visit|destination)\b`)},
}
