package extract

import (
	"fmt"
	"strings"
)

// IncompleteError reports required fields a message did not supply. It is
// an expected outcome that the caller turns into a clarifying question.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("extract: missing %s", strings.Join(e.Missing, ", "))
}

// Check returns an *IncompleteError listing missing, or nil when nothing is.
func Check(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return &IncompleteError{Missing: missing}
}
