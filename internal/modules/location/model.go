// README: Location codes and where a resolution came from.
package location

import (
	"errors"
	"regexp"
)

// ErrResolution is returned when no tier can produce a code.
var ErrResolution = errors.New("location: could not resolve place")

var codePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidCode reports whether code is exactly three upper-case ASCII letters.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Source names the tier that produced a code.
type Source string

const (
	SourceCache       Source = "cache"
	SourceProvider    Source = "provider"
	SourceTable       Source = "table"
	SourceSynthesized Source = "synthesized"
)

type Resolution struct {
	Place  string
	Code   string
	Source Source
}
