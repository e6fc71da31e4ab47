package rental

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-rental/internal/db"
	"github.com/ukydev/fleet-rental/internal/models"
)

func fleetSnapshot() models.Snapshot {
	snap := models.EmptySnapshot()
	snap.Assets = []models.AssetRecord{
		{ID: 1, Brand: "Toyota", Model: "Corolla", Class: "economy", DailyRate: 40, Status: "AVAILABLE"},
		{ID: 2, Brand: "BMW", Model: "X5", Class: "suv", DailyRate: 120, Status: "AVAILABLE"},
		{ID: 3, Brand: "Kia", Model: "Rio", Class: "economy", DailyRate: 30, Status: "MAINTENANCE"},
		{ID: 4, Brand: "Hyundai", Model: "Tucson", Class: "suv", DailyRate: 80, Status: "AVAILABLE"},
		{ID: 5, Brand: "Skoda", Model: "Octavia", Class: "economy", DailyRate: 45, Status: "AVAILABLE"},
	}
	snap.Customers = []models.CustomerRecord{{ID: 1, Name: "Ivan", LicenseNumber: "AB1234567"}}
	return snap
}

func TestIsAvailable(t *testing.T) {
	ctx := context.Background()
	e, err := New(ctx, db.NewMemoryStoreWith(fleetSnapshot()))
	require.NoError(t, err)

	_, err = e.Reserve(ctx, 1, 1, day("2025-01-10"), day("2025-01-15"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"identical", "2025-01-10", "2025-01-15", false},
		{"overlaps tail", "2025-01-14", "2025-01-20", false},
		{"overlaps head", "2025-01-05", "2025-01-11", false},
		{"contained", "2025-01-11", "2025-01-12", false},
		{"covering", "2025-01-01", "2025-01-31", false},
		{"ends at start", "2025-01-05", "2025-01-10", true},
		{"starts at end", "2025-01-15", "2025-01-16", true},
		{"disjoint", "2025-02-01", "2025-02-10", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.IsAvailable(1, day(tt.start), day(tt.end))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = e.IsAvailable(1, day("2025-03-01"), day("2025-03-01"))
	assert.ErrorIs(t, err, ErrInvalidInterval)
	_, err = e.IsAvailable(99, day("2025-03-01"), day("2025-03-02"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsAvailable_AssetStatus(t *testing.T) {
	ctx := context.Background()
	e, err := New(ctx, db.NewMemoryStoreWith(fleetSnapshot()))
	require.NoError(t, err)

	ok, err := e.IsAvailable(3, day("2025-01-10"), day("2025-01-12"))
	require.NoError(t, err)
	assert.False(t, ok, "maintenance asset")
	_, err = e.Reserve(ctx, 1, 3, day("2025-01-10"), day("2025-01-12"))
	assert.ErrorIs(t, err, ErrUnavailable)

	// a rented asset cannot take further bookings until it is returned
	r, err := e.Reserve(ctx, 1, 2, day("2025-01-10"), day("2025-01-12"))
	require.NoError(t, err)
	ok, err = e.IsAvailable(2, day("2025-02-01"), day("2025-02-03"))
	require.NoError(t, err)
	assert.True(t, ok, "reserved asset accepts disjoint bookings")

	_, err = e.StartRental(ctx, r.ID)
	require.NoError(t, err)
	ok, err = e.IsAvailable(2, day("2025-02-01"), day("2025-02-03"))
	require.NoError(t, err)
	assert.False(t, ok, "rented asset")

	_, err = e.ReturnAsset(ctx, r.ID, day("2025-01-12"), true, false)
	require.NoError(t, err)
	ok, err = e.IsAvailable(2, day("2025-02-01"), day("2025-02-03"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func assetIDs(assets []models.Asset) []int64 {
	ids := make([]int64, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestFindAvailable(t *testing.T) {
	ctx := context.Background()
	e, err := New(ctx, db.NewMemoryStoreWith(fleetSnapshot()))
	require.NoError(t, err)
	_, err = e.Reserve(ctx, 1, 4, day("2025-01-10"), day("2025-01-15"))
	require.NoError(t, err)

	maxRate := rate("45")
	tests := []struct {
		name   string
		start  string
		end    string
		filter AvailabilityFilter
		want   []int64
	}{
		{"any", "2025-01-12", "2025-01-13", AvailabilityFilter{}, []int64{1, 2, 5}},
		{"after booking", "2025-01-15", "2025-01-16", AvailabilityFilter{}, []int64{1, 2, 4, 5}},
		{"class", "2025-01-12", "2025-01-13", AvailabilityFilter{Class: "economy"}, []int64{1, 5}},
		{"max rate inclusive", "2025-01-12", "2025-01-13", AvailabilityFilter{MaxRate: &maxRate}, []int64{1, 5}},
		{"class and rate", "2025-01-16", "2025-01-17", AvailabilityFilter{Class: "suv", MaxRate: &maxRate}, []int64{}},
		{"unknown class", "2025-01-12", "2025-01-13", AvailabilityFilter{Class: "limo"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.FindAvailable(day(tt.start), day(tt.end), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, assetIDs(got))
		})
	}
}

func TestFindAvailable_InvalidInterval(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.FindAvailable(day("2025-01-10"), day("2025-01-09"), AvailabilityFilter{})
	assert.ErrorIs(t, err, ErrInvalidInterval, "checked even with an empty fleet")

	got, err := e.FindAvailable(day("2025-01-10"), day("2025-01-11"), AvailabilityFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
