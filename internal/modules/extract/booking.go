package extract

import (
	"regexp"
	"strings"
)

// BookingRequest identifies which shown offer to book and for whom.
type BookingRequest struct {
	Option    int
	FirstName string
	LastName  string
	Email     string
}

// Missing lists the required fields that are still empty.
func (r BookingRequest) Missing() []string {
	var out []string
	if r.Option == 0 {
		out = append(out, "option number")
	}
	if r.FirstName == "" || r.LastName == "" {
		out = append(out, "traveler name")
	}
	if r.Email == "" {
		out = append(out, "email address")
	}
	return out
}

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
}

var (
	optionPattern  = re(`(?:\b(?:option|offer|number|no\.?)|#)\s*` + countExpr + `\b`)
	ordinalPattern = re(`\bthe\s+(first|second|third|fourth|fifth)\s+(?:one|option|offer|flight)\b`)
	emailPattern   = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	namePatterns   = []*regexp.Regexp{
		re(`\bname\s+is\s+([a-z][a-z'-]*)\s+([a-z][a-z'-]*)`),
		regexp.MustCompile(`\b(?:[Ff]or|[Pp]assenger|[Tt]raveler)\s+([A-Z][a-z'-]+)\s+([A-Z][a-z'-]+)\b`),
	}
)

// ExtractBookingRequest reads the option number, traveler name and email.
func ExtractBookingRequest(text string) BookingRequest {
	var r BookingRequest
	if m := optionPattern.FindStringSubmatch(text); m != nil {
		if n, ok := parseCount(m[1]); ok && n > 0 {
			r.Option = n
		}
	} else if m := ordinalPattern.FindStringSubmatch(text); m != nil {
		r.Option = ordinalWords[strings.ToLower(m[1])]
	}
	for _, p := range namePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			r.FirstName, r.LastName = titleCase(m[1]), titleCase(m[2])
			break
		}
	}
	r.Email = emailPattern.FindString(text)
	return r
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
