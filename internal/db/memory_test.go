package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Assets)
	assert.Equal(t, 0, store.Saves())

	want := sampleSnapshot()
	require.NoError(t, store.Save(ctx, want))
	assert.Equal(t, 1, store.Saves())

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// stored copy is isolated from the caller
	*got.Reservations[0].ActualEndDate = "2030-01-01"
	got.Assets[0].Status = "RENTED"
	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15", *again.Reservations[0].ActualEndDate)
	assert.Equal(t, "AVAILABLE", again.Assets[0].Status)
}

func TestNewMemoryStoreWith(t *testing.T) {
	store := NewMemoryStoreWith(sampleSnapshot())

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Assets, 2)
	assert.Len(t, got.RetiredAssets, 1)
}
