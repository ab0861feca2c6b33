package assistant

import (
	"fmt"
	"strings"

	"wayfarer/internal/modules/extract"
)

const GreetingReply = "Hi, I'm Wayfarer, your travel assistant! I can search flights and hotels, " +
	"suggest things to do, plan a short itinerary and book a flight you like. " +
	"Try \"Find flights from New York to London on June 15th\"."

// CannedReply is the last tier: a static answer keyed on coarse keywords.
// It never fails and never returns an empty string.
func CannedReply(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "flight") || strings.Contains(lower, "fly"):
		p := extract.ExtractFlightParams(message)
		if p.Origin != "" && p.Destination != "" {
			return fmt.Sprintf("I'm having trouble searching flights from %s to %s right now. "+
				"Please try again in a few minutes, or try different dates.", p.Origin, p.Destination)
		}
		return "I'm having trouble searching flights right now. Please try again in a few minutes, " +
			"and include where you're flying from, where to, and the date."
	case strings.Contains(lower, "hotel"):
		return "I'm having trouble searching hotels right now. Please try again in a few minutes, " +
			"and include the city and your check-in date."
	default:
		return "Sorry, I couldn't put together an answer just now. I can help with flights, hotels, " +
			"things to do and short itineraries. What would you like to plan?"
	}
}
