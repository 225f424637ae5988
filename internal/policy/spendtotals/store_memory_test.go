package spendtotals

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_ReserveSpend(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	ok, total, err := store.ReserveSpend(ctx, "acct", "2026-08-31", 30_000, 50_000)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(0), total)

	ok, total, err = store.ReserveSpend(ctx, "acct", "2026-08-31", 30_000, 50_000)
	require.NoError(t, err)
	assert.False(t, ok, "second reservation would exceed the ceiling")
	assert.Equal(t, int64(30_000), total)

	// Same amount under a fresh period is unaffected.
	ok, _, err = store.ReserveSpend(ctx, "acct", "2026-09-01", 30_000, 50_000)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryStore_ReleaseSpend(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, _, err := store.ReserveSpend(ctx, "acct", "2026-08-31", 20_000, 50_000)
	require.NoError(t, err)
	require.NoError(t, store.ReleaseSpend(ctx, "acct", "2026-08-31", 20_000))

	ok, total, err := store.ReserveSpend(ctx, "acct", "2026-08-31", 50_000, 50_000)
	require.NoError(t, err)
	assert.True(t, ok, "released amount no longer counts against the ceiling")
	assert.Equal(t, int64(0), total)

	// Releasing more than reserved clamps at zero.
	require.NoError(t, store.ReleaseSpend(ctx, "other", "2026-08-31", 5_000))
	ok, total, err = store.ReserveSpend(ctx, "other", "2026-08-31", 1_000, 1_000)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(0), total)
}

// Two concurrent reservations against the same account must not both pass a
// ceiling only one of them fits under.
func TestInMemoryStore_ConcurrentReservationsSerialize(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	const workers = 20
	var wg sync.WaitGroup
	passed := make(chan int64, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := store.ReserveSpend(ctx, "acct", "2026-08-31", 10_000, 50_000)
			require.NoError(t, err)
			if ok {
				passed <- 10_000
			}
		}()
	}
	wg.Wait()
	close(passed)

	var reserved int64
	for amount := range passed {
		reserved += amount
	}
	assert.Equal(t, int64(50_000), reserved, "exactly five of twenty reservations fit")
}

func TestDayKey(t *testing.T) {
	// The period boundary is UTC regardless of the local zone.
	loc := time.FixedZone("UTC+14", 14*3600)
	ts := time.Date(2026, 8, 31, 10, 0, 0, 0, loc)
	assert.Equal(t, "2026-08-30", DayKey(ts))
}
