package rental

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-rental/internal/db"
	"github.com/ukydev/fleet-rental/internal/models"
)

func TestNew_EmptyGateway(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Empty(t, e.ListAssets())
	assert.Empty(t, e.ListCustomers())
	assert.Empty(t, e.ActiveReservations())
	assert.Equal(t, models.EmptySnapshot(), e.Snapshot())
}

func TestNew_CorruptSnapshot(t *testing.T) {
	booked := func(id, asset, customer int64, start, end string) models.ReservationRecord {
		return models.ReservationRecord{ID: id, AssetID: asset, CustomerID: customer, StartDate: start, EndDate: end, Status: "BOOKED"}
	}
	tests := []struct {
		name   string
		mutate func(s *models.Snapshot)
	}{
		{"duplicate asset id", func(s *models.Snapshot) {
			s.Assets = append(s.Assets, s.Assets[0])
		}},
		{"duplicate customer id", func(s *models.Snapshot) {
			s.Customers = append(s.Customers, s.Customers[0])
		}},
		{"duplicate reservation id", func(s *models.Snapshot) {
			s.Reservations = append(s.Reservations, booked(1, 1, 1, "2025-01-01", "2025-01-02"), booked(1, 2, 1, "2025-01-01", "2025-01-02"))
		}},
		{"unknown asset status", func(s *models.Snapshot) {
			s.Assets[0].Status = "BROKEN"
		}},
		{"lower case asset status", func(s *models.Snapshot) {
			s.Assets[0].Status = "available"
		}},
		{"non-positive rate", func(s *models.Snapshot) {
			s.Assets[0].DailyRate = 0
		}},
		{"unknown reservation status", func(s *models.Snapshot) {
			r := booked(1, 1, 1, "2025-01-01", "2025-01-02")
			r.Status = "PENDING"
			s.Reservations = append(s.Reservations, r)
		}},
		{"unknown asset reference", func(s *models.Snapshot) {
			s.Reservations = append(s.Reservations, booked(1, 42, 1, "2025-01-01", "2025-01-02"))
		}},
		{"unknown customer reference", func(s *models.Snapshot) {
			s.Reservations = append(s.Reservations, booked(1, 1, 42, "2025-01-01", "2025-01-02"))
		}},
		{"bad start date", func(s *models.Snapshot) {
			s.Reservations = append(s.Reservations, booked(1, 1, 1, "01/01/2025", "2025-01-02"))
		}},
		{"bad actual end date", func(s *models.Snapshot) {
			r := booked(1, 1, 1, "2025-01-01", "2025-01-02")
			r.Status = "COMPLETED"
			bad := "yesterday"
			r.ActualEndDate = &bad
			s.Reservations = append(s.Reservations, r)
		}},
		{"end before start", func(s *models.Snapshot) {
			s.Reservations = append(s.Reservations, booked(1, 1, 1, "2025-01-02", "2025-01-02"))
		}},
		{"overlapping live reservations", func(s *models.Snapshot) {
			s.Reservations = append(s.Reservations,
				booked(1, 1, 1, "2025-01-01", "2025-01-05"),
				booked(2, 1, 1, "2025-01-04", "2025-01-06"))
		}},
		{"live reservation on retired asset", func(s *models.Snapshot) {
			s.RetiredAssets = []models.AssetRecord{{ID: 9, Brand: "Lada", Model: "Niva", Class: "suv", DailyRate: 20, Status: "AVAILABLE"}}
			s.Reservations = append(s.Reservations, booked(1, 9, 1, "2025-01-01", "2025-01-02"))
		}},
		{"retired id reused", func(s *models.Snapshot) {
			s.RetiredAssets = []models.AssetRecord{s.Assets[0]}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := fleetSnapshot()
			tt.mutate(&snap)
			_, err := New(context.Background(), db.NewMemoryStoreWith(snap))
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
		})
	}
}

func TestNew_AcceptsHistoryOnRetiredAsset(t *testing.T) {
	snap := fleetSnapshot()
	returned := "2025-01-03"
	snap.RetiredAssets = []models.AssetRecord{{ID: 9, Brand: "Lada", Model: "Niva", Class: "suv", DailyRate: 20, Status: "AVAILABLE"}}
	snap.Reservations = []models.ReservationRecord{
		{ID: 4, AssetID: 9, CustomerID: 1, StartDate: "2025-01-01", EndDate: "2025-01-03", ActualEndDate: &returned,
			Status: "COMPLETED", BaseFee: 40, TotalAmount: 40},
		{ID: 7, AssetID: 1, CustomerID: 1, StartDate: "2025-01-01", EndDate: "2025-01-05", Status: "CANCELLED"},
		{ID: 8, AssetID: 1, CustomerID: 1, StartDate: "2025-01-02", EndDate: "2025-01-04", Status: "BOOKED"},
	}

	ctx := context.Background()
	e, err := New(ctx, db.NewMemoryStoreWith(snap))
	require.NoError(t, err)

	history, err := e.RentalHistory(1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(4), history[0].ID)
	assert.Equal(t, int64(7), history[1].ID)

	a, err := e.AddAsset(ctx, "Kia", "Rio", "economy", rate("30"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), a.ID)

	r, err := e.Reserve(ctx, 1, 1, day("2025-02-01"), day("2025-02-02"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), r.ID)
}

func TestStoreCloneIsolation(t *testing.T) {
	s, err := storeFromSnapshot(fleetSnapshot())
	require.NoError(t, err)

	c := s.clone()
	a, err := c.asset(1)
	require.NoError(t, err)
	a.Status = models.AssetRented
	c.nextAssetID = 100

	orig, err := s.asset(1)
	require.NoError(t, err)
	assert.Equal(t, models.AssetAvailable, orig.Status)
	assert.Equal(t, int64(6), s.nextAssetID)
}
