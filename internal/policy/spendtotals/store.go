// Package spendtotals tracks per-account running spend totals for
// dependent-role ceiling enforcement. The reserve operation checks the
// ceiling and increments the total atomically so two concurrent swaps from
// the same account cannot both pass against a stale total.
package spendtotals

import (
	"context"
	"time"
)

// Store is the per-account running-total table keyed by (account, period).
type Store interface {
	// ReserveSpend atomically adds amount to the account's total for the
	// period if the result stays within ceiling. It returns whether the
	// reservation succeeded and the total before the attempt.
	ReserveSpend(ctx context.Context, accountToken, period string, amount, ceiling int64) (ok bool, total int64, err error)

	// ReleaseSpend subtracts amount from the account's total for the
	// period, used when a reserved swap terminates in failure.
	ReleaseSpend(ctx context.Context, accountToken, period string, amount int64) error
}

// DayKey returns the daily accounting period for t in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
