// README: Monthly generation quota per conversation owner.
package aiusage

import "errors"

// ErrQuotaExhausted is returned when an owner has no generations left this month.
var ErrQuotaExhausted = errors.New("ai quota exhausted")

// DefaultMonthlyQuota is the number of LLM generations granted per month.
const DefaultMonthlyQuota = 100

// Usage is an owner's quota for the month it was last reset in.
type Usage struct {
	Owner     string
	Remaining int
	Month     string
}
