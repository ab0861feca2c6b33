package provider

import (
	"fmt"
	"time"

	"wayfarer/internal/types"
)

// leniencyDates applies the date policy: a start in the past becomes
// tomorrow, and an end before the start becomes start+bump. With sameDay
// false an end equal to the start is bumped too. An empty end stays empty
// unless required.
func leniencyDates(start, end string, bump int, required, sameDay bool, now time.Time) (string, string, error) {
	loc := now.Location()
	s, err := types.ParseDate(start, loc)
	if err != nil {
		return "", "", fmt.Errorf("start date %q: %w", start, err)
	}
	s = types.NotPast(s, now)

	if end == "" && !required {
		return s.Format(types.DateLayout), "", nil
	}
	e := s.AddDate(0, 0, bump)
	if end != "" {
		parsed, err := types.ParseDate(end, loc)
		if err != nil {
			return "", "", fmt.Errorf("end date %q: %w", end, err)
		}
		if parsed.After(s) || (sameDay && parsed.Equal(s)) {
			e = parsed
		}
	}
	return s.Format(types.DateLayout), e.Format(types.DateLayout), nil
}
