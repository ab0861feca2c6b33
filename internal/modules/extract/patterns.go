package extract

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	monthExpr = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

	// dateExpr matches the date shapes NormalizeDate understands.
	dateExpr = `(?:` +
		monthExpr + `\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?` +
		`|\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthExpr + `(?:,?\s+\d{4})?` +
		`|\d{4}-\d{2}-\d{2}` +
		`|\d{1,2}/\d{1,2}(?:/\d{2,4})?` +
		`|today|tomorrow)`

	placeExpr = `([a-z][a-z .'-]*?)`

	// placeEnd closes a lazily matched place name.
	placeEnd = `(?:\s+(?:on|for|in|departing|leaving|returning|return|next|this|around|at|with|from|and|under|tomorrow|today|economy|business|first|premium|checking|check|` + monthExpr + `)\b|\s+\d|\s*[,!?;]|\.(?:\s|$)|\s*$)`

	countExpr = `(\d+|one|two|three|four|five|six|seven|eight|nine|ten)`
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var monthOnly = regexp.MustCompile(`(?i)^` + monthExpr + `$`)

// dateWord matches captures that name a day rather than a place.
var dateWord = regexp.MustCompile(`(?i)^(?:(?:next|this|coming|last)\s+)?(?:(?:mon|tues|tue|wednes|wed|thurs|thu|fri|satur|sat|sun)(?:day)?|today|tomorrow|tonight|weekend|week|month)$`)

func re(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// parseCount reads a digit string or number word; ok is false otherwise.
func parseCount(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// clamp returns n when it lies in [lo, hi] and fallback otherwise.
func clamp(n, lo, hi, fallback int) int {
	if n < lo || n > hi {
		return fallback
	}
	return n
}

// validPlace rejects captures that are really dates or numbers.
func validPlace(s string) bool {
	s = cleanPlace(s)
	if s == "" || monthOnly.MatchString(s) || dateWord.MatchString(s) {
		return false
	}
	return s[0] < '0' || s[0] > '9'
}

// ValidPlace reports whether s can name a place: it is not empty, a number,
// a month, a weekday or a relative day such as "tomorrow".
func ValidPlace(s string) bool { return validPlace(s) }

// firstPlace returns the normalized place from the first alternative that
// yields a capture passing validation. Later matches of the same alternative
// are tried before moving on, so "in June ... in Rome" still finds Rome.
func firstPlace(text string, alternatives []*regexp.Regexp) string {
	for _, alt := range alternatives {
		for _, m := range alt.FindAllStringSubmatch(text, -1) {
			if validPlace(m[1]) {
				return NormalizePlace(m[1])
			}
		}
	}
	return ""
}

// firstGroup returns capture group 1 of the first matching alternative.
func firstGroup(text string, alternatives []*regexp.Regexp) string {
	for _, alt := range alternatives {
		if m := alt.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
