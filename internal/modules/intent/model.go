// README: Travel intent categories and the routing artifact produced per user turn.
package intent

type Category string

const (
	CategoryFlight          Category = "flight"
	CategoryHotel           Category = "hotel"
	CategoryPointOfInterest Category = "pointOfInterest"
	CategoryItinerary       Category = "itinerary"
	CategoryBooking         Category = "booking"
	CategoryGeneral         Category = "general"
)

// Intent is a routing decision for one user turn. It is never persisted.
type Intent struct {
	Category   Category
	Confidence float64
	// ExtractedText is the fragment of the message that matched the rule.
	ExtractedText string
}

// Confidence constants reflect pattern specificity.
const (
	ConfidenceBooking   = 0.95
	ConfidenceFlight    = 0.90
	ConfidenceHotel     = 0.85
	ConfidencePOI       = 0.80
	ConfidenceItinerary = 0.75
	ConfidenceLoose     = 0.60
	ConfidenceGeneral   = 0.50
)

// DefaultThreshold separates dispatch to a handler from open-ended generation.
const DefaultThreshold = 0.65
