package extract

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"wayfarer/internal/types"
)

var ErrUnparsableDate = errors.New("extract: unparsable date")

var (
	ordinalSuffix = regexp.MustCompile(`(?i)(\d)(st|nd|rd|th)\b`)
	ofWord        = regexp.MustCompile(`(?i)\bof\b`)
	septAbbrev    = regexp.MustCompile(`(?i)\bsept\b`)
	spaces        = regexp.MustCompile(`\s+`)
)

var datedLayouts = []string{
	types.DateLayout,
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"1/2/2006",
	"1/2/06",
}

var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
	"1/2",
}

// NormalizeDate turns a user-written date into YYYY-MM-DD. A missing year
// defaults to the year of now, and anything before now's day becomes
// tomorrow. Feeding the output back in returns the same value.
func NormalizeDate(raw string, now time.Time) (string, error) {
	s := cleanDate(raw)
	if s == "" {
		return "", ErrUnparsableDate
	}
	loc := now.Location()
	switch s {
	case "today":
		return types.Day(now).Format(types.DateLayout), nil
	case "tomorrow":
		return types.Tomorrow(now).Format(types.DateLayout), nil
	}

	for _, layout := range datedLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return types.NotPast(t, now).Format(types.DateLayout), nil
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
			return types.NotPast(t, now).Format(types.DateLayout), nil
		}
	}
	return "", ErrUnparsableDate
}

func cleanDate(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = ofWord.ReplaceAllString(s, " ")
	s = septAbbrev.ReplaceAllString(s, "sep")
	s = strings.NewReplacer(",", " ", ".", " ").Replace(s)
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
