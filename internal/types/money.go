// README: Common money value object used across modules.
package types

import "fmt"

// Money is a provider price. Amounts are kept as float64 because the
// travel-commerce API returns decimal strings and only tolerance-based
// comparisons are performed on them.
type Money struct {
	Amount   float64
	Currency string
}

func (m Money) String() string {
	if m.Currency == "" {
		return fmt.Sprintf("%.2f", m.Amount)
	}
	return fmt.Sprintf("%.2f %s", m.Amount, m.Currency)
}
