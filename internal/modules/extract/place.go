package extract

import (
	"regexp"
)

// Itinerary length bounds.
const (
	DefaultDays = 3
	MaxDays     = 7
)

var placePatterns = []*regexp.Regexp{
	re(`\b(?:in|at|around|near)\s+` + placeExpr + placeEnd),
	re(`\b(?:visit|visiting|explore|exploring|see|seeing)\s+` + placeExpr + placeEnd),
	re(`\b(?:to|for)\s+` + placeExpr + placeEnd),
	regexp.MustCompile(`\b([A-Z][A-Za-z'-]*(?:\s+[A-Z][A-Za-z'-]*)*)\s+(?i:itinerary|trip|attractions|sights|landmarks)\b`),
}

// ExtractPlace finds the city a points-of-interest or itinerary request is
// about.
func ExtractPlace(text string) string {
	return firstPlace(text, placePatterns)
}

var (
	daysPattern    = re(`\b` + countExpr + `[- ]days?\b`)
	weekPattern    = re(`\b(?:a|one)\s+week\b`)
	weekendPattern = re(`\bweekend\b`)
)

// ExtractDays returns the itinerary length, defaulting to DefaultDays and
// capped at MaxDays.
func ExtractDays(text string) int {
	if m := daysPattern.FindStringSubmatch(text); m != nil {
		n, ok := parseCount(m[1])
		switch {
		case !ok || n < 1:
			return DefaultDays
		case n > MaxDays:
			return MaxDays
		default:
			return n
		}
	}
	if weekPattern.MatchString(text) {
		return MaxDays
	}
	if weekendPattern.MatchString(text) {
		return 2
	}
	return DefaultDays
}
