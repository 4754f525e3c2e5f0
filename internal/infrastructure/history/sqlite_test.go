package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrypal/backend/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entries := []domain.ResolutionEntry{
		{Barcode: "111", Outcome: domain.OutcomeFound, Name: "Whole Milk"},
		{Barcode: "0000000000000", Outcome: domain.OutcomeNotFound, Name: domain.UnknownProductName},
		{Barcode: "222", Outcome: domain.OutcomeError, Name: domain.UnknownProductName},
	}
	for _, e := range entries {
		require.NoError(t, store.Record(ctx, e))
	}

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first.
	assert.Equal(t, "222", got[0].Barcode)
	assert.Equal(t, domain.OutcomeError, got[0].Outcome)
	assert.Equal(t, "111", got[2].Barcode)
	assert.WithinDuration(t, time.Now().UTC(), got[0].CreatedAt, time.Minute)
}

func TestRecent_LimitAndEmpty(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	got, err := store.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.Record(ctx, domain.ResolutionEntry{
			Barcode: "123", Outcome: domain.OutcomeFound, Name: "x",
		}))
	}

	got, err = store.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
