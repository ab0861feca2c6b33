package extract

import "regexp"

// HotelParams holds what could be read from a hotel request. CheckOut may be
// empty, in which case Nights (when given) or a single night applies.
type HotelParams struct {
	City     string
	CheckIn  string
	CheckOut string
	Nights   int
	Adults   int
}

// Missing lists the required fields that are still empty.
func (p HotelParams) Missing() []string {
	var out []string
	if p.City == "" {
		out = append(out, "city")
	}
	if p.CheckIn == "" {
		out = append(out, "check-in date")
	}
	return out
}

const hotelNoun = `(?:hotels?|motels?|hostels?|resorts?|accommodations?|lodging|rooms?|places?\s+to\s+stay|stay(?:ing)?)`

var hotelCityPatterns = []*regexp.Regexp{
	re(`\b` + hotelNoun + `\s+(?:in|at|near|around)\s+` + placeExpr + placeEnd),
	re(`\bin\s+` + placeExpr + placeEnd),
}

var stayRangePattern = re(`\b(?:from|between)\s+(` + dateExpr + `)\s+(?:to|until|till|through|and|-)\s+(` + dateExpr + `)`)

var checkInPatterns = []*regexp.Regexp{
	re(`\bcheck(?:ing)?[- ]?in\s+(?:on\s+)?(` + dateExpr + `)`),
	re(`\b(?:arriving|arrive|on|for|starting)\s+(?:on\s+)?(` + dateExpr + `)`),
}

var checkOutPatterns = []*regexp.Regexp{
	re(`\bcheck(?:ing)?[- ]?out\s+(?:on\s+)?(` + dateExpr + `)`),
	re(`\b(?:leaving|departing|until|till)\s+(?:on\s+)?(` + dateExpr + `)`),
}

var nightsPattern = re(`\b` + countExpr + `\s+nights?\b`)

// ExtractHotelParams reads city, stay dates and party size from text.
func ExtractHotelParams(text string) HotelParams {
	p := HotelParams{
		City:   firstPlace(text, hotelCityPatterns),
		Adults: ExtractAdults(text),
	}
	if m := stayRangePattern.FindStringSubmatch(text); m != nil {
		p.CheckIn, p.CheckOut = m[1], m[2]
	} else {
		p.CheckIn = firstGroup(text, checkInPatterns)
		p.CheckOut = firstGroup(text, checkOutPatterns)
	}
	if m := nightsPattern.FindStringSubmatch(text); m != nil {
		if n, ok := parseCount(m[1]); ok {
			p.Nights = clamp(n, 1, 30, 0)
		}
	}
	return p
}
