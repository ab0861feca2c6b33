package extract

import "regexp"

// Cabin classes understood by the provider.
const (
	CabinEconomy        = "ECONOMY"
	CabinPremiumEconomy = "PREMIUM_ECONOMY"
	CabinBusiness       = "BUSINESS"
	CabinFirst          = "FIRST"
)

// FlightParams holds what could be read from a flight request. Dates are
// kept as written; callers run them through NormalizeDate.
type FlightParams struct {
	Origin      string
	Destination string
	DepartDate  string
	ReturnDate  string
	Adults      int
	CabinClass  string
}

// Missing lists the required fields that are still empty.
func (p FlightParams) Missing() []string {
	var out []string
	if p.Origin == "" {
		out = append(out, "departure city")
	}
	if p.Destination == "" {
		out = append(out, "destination")
	}
	if p.DepartDate == "" {
		out = append(out, "travel date")
	}
	return out
}

type routePattern struct {
	re          *regexp.Regexp
	origin      int
	destination int
}

var routePatterns = []routePattern{
	{re(`\bfrom\s+` + placeExpr + `\s+to\s+` + placeExpr + placeEnd), 1, 2},
	{re(`\bto\s+` + placeExpr + `\s+from\s+` + placeExpr + placeEnd), 2, 1},
	{re(`\b(?:fly|flying|flights?|go|going|travel|travell?ing|trip|tickets?)\s+to\s+` + placeExpr + placeEnd), 0, 1},
	{re(`\b(?:flights?|fly|flying|leaving|departing)\s+(?:out\s+)?(?:from|of)\s+` + placeExpr + placeEnd), 1, 0},
}

var departPatterns = []*regexp.Regexp{
	re(`\b(?:departing|leaving|depart|outbound)\s+(?:on\s+)?(` + dateExpr + `)`),
	re(`\b(?:on|for)\s+(` + dateExpr + `)`),
	re(`\bbetween\s+(` + dateExpr + `)\s+and\s+` + dateExpr),
	re(`\b(` + dateExpr + `)`),
}

var returnPatterns = []*regexp.Regexp{
	re(`\b(?:return|returning|back|coming\s+back)\s+(?:on\s+)?(` + dateExpr + `)`),
	re(`\bbetween\s+` + dateExpr + `\s+and\s+(` + dateExpr + `)`),
}

var adultPatterns = []*regexp.Regexp{
	re(`\b` + countExpr + `\s+(?:adults?|people|persons?|passengers?|travell?ers?|guests?|tickets?|pax)\b`),
	re(`\bparty\s+of\s+` + countExpr + `\b`),
}

var cabinPatterns = []struct {
	re    *regexp.Regexp
	cabin string
}{
	{re(`\bpremium\s+economy\b`), CabinPremiumEconomy},
	{re(`\bbusiness(?:\s+class)?\b`), CabinBusiness},
	{re(`\bfirst\s+class\b`), CabinFirst},
	{re(`\b(?:economy|coach)\b`), CabinEconomy},
}

// ExtractFlightParams reads route, dates, party size and cabin from text.
// The first route alternative that matches supplies both ends.
func ExtractFlightParams(text string) FlightParams {
	p := FlightParams{Adults: ExtractAdults(text), CabinClass: extractCabin(text)}
	for _, rp := range routePatterns {
		m := rp.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		origin, dest := "", ""
		if rp.origin > 0 {
			origin = m[rp.origin]
		}
		if rp.destination > 0 {
			dest = m[rp.destination]
		}
		if (origin != "" && !validPlace(origin)) || (dest != "" && !validPlace(dest)) {
			continue
		}
		if origin != "" {
			p.Origin = NormalizePlace(origin)
		}
		if dest != "" {
			p.Destination = NormalizePlace(dest)
		}
		break
	}
	p.DepartDate = firstGroup(text, departPatterns)
	p.ReturnDate = firstGroup(text, returnPatterns)
	return p
}

// ExtractAdults returns the party size in [1, 9], falling back to 1.
func ExtractAdults(text string) int {
	raw := firstGroup(text, adultPatterns)
	n, ok := parseCount(raw)
	if !ok {
		return 1
	}
	return clamp(n, 1, 9, 1)
}

func extractCabin(text string) string {
	for _, c := range cabinPatterns {
		if c.re.MatchString(text) {
			return c.cabin
		}
	}
	return CabinEconomy
}
