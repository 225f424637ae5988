package swap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedbridge/internal/mintregistry"
	"fedbridge/pkg/platform/sentinel"
)

func storeFixture(swapID, account string) (*Record, LogEntry) {
	created := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	record := &Record{
		SwapID:              swapID,
		SourceProtocol:      mintregistry.ProtocolFedimint,
		DestinationProtocol: mintregistry.ProtocolCashu,
		SourceAccount:       account,
		DestinationAccount:  account,
		Amount:              1_000,
		Status:              StatusValidation,
		Steps:               1,
		CreatedAt:           created,
	}
	first := LogEntry{
		SwapID:    swapID,
		Step:      1,
		StepName:  StatusValidation,
		Status:    StepCompleted,
		Message:   "validated",
		Timestamp: created,
	}
	return record, first
}

func TestInMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	record, first := storeFixture("swap-1", "acct-1")

	require.NoError(t, store.Create(ctx, record, first))

	got, err := store.Get(ctx, "swap-1")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	log, err := store.ListLog(ctx, "swap-1")
	require.NoError(t, err)
	assert.Equal(t, []LogEntry{first}, log)
}

func TestInMemoryStore_CreateDuplicateConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	record, first := storeFixture("swap-1", "acct-1")

	require.NoError(t, store.Create(ctx, record, first))
	err := store.Create(ctx, record, first)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestInMemoryStore_GetUnknown(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = store.ListLog(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_UpdateAppendsLog(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	record, first := storeFixture("swap-1", "acct-1")
	require.NoError(t, store.Create(ctx, record, first))

	record.Status = StatusSourceLock
	record.Steps = 2
	entry := LogEntry{SwapID: "swap-1", Step: 2, StepName: StatusSourceLock, Status: StepCompleted, Message: "locked", Timestamp: record.CreatedAt}
	require.NoError(t, store.Update(ctx, record, entry))

	got, err := store.Get(ctx, "swap-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSourceLock, got.Status)

	log, err := store.ListLog(ctx, "swap-1")
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, StatusSourceLock, log[1].StepName)

	missing, _ := storeFixture("missing", "acct-1")
	assert.ErrorIs(t, store.Update(ctx, missing, entry), sentinel.ErrNotFound)
}

func TestInMemoryStore_ListByAccountNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	older, firstOlder := storeFixture("swap-old", "acct-1")
	newer, firstNewer := storeFixture("swap-new", "acct-1")
	newer.CreatedAt = older.CreatedAt.Add(time.Minute)
	other, firstOther := storeFixture("swap-other", "acct-2")

	require.NoError(t, store.Create(ctx, older, firstOlder))
	require.NoError(t, store.Create(ctx, newer, firstNewer))
	require.NoError(t, store.Create(ctx, other, firstOther))

	records, err := store.ListByAccount(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "swap-new", records[0].SwapID)
	assert.Equal(t, "swap-old", records[1].SwapID)
}

func TestInMemoryStore_HandsOutCopies(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	record, first := storeFixture("swap-1", "acct-1")
	require.NoError(t, store.Create(ctx, record, first))

	// Mutating what the caller holds must not touch stored state.
	record.Amount = 999_999
	got, err := store.Get(ctx, "swap-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), got.Amount)

	got.Status = StatusFailed
	again, err := store.Get(ctx, "swap-1")
	require.NoError(t, err)
	assert.Equal(t, StatusValidation, again.Status)
}
