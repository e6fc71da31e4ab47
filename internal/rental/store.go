package rental

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukydev/fleet-rental/internal/models"
)

// store holds the entity collections in creation order. It is not safe for
// concurrent use; the Engine serialises access.
type store struct {
	assets       []models.Asset
	retired      []models.Asset
	customers    []models.Customer
	reservations []models.Reservation

	nextAssetID       int64
	nextCustomerID    int64
	nextReservationID int64
}

func newStore() *store {
	return &store{nextAssetID: 1, nextCustomerID: 1, nextReservationID: 1}
}

// clone returns a working copy that can be mutated without affecting s.
func (s *store) clone() *store {
	c := *s
	c.assets = append([]models.Asset(nil), s.assets...)
	c.retired = append([]models.Asset(nil), s.retired...)
	c.customers = append([]models.Customer(nil), s.customers...)
	c.reservations = make([]models.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		c.reservations = append(c.reservations, r.Clone())
	}
	return &c
}

func (s *store) asset(id int64) (*models.Asset, error) {
	for i := range s.assets {
		if s.assets[i].ID == id {
			return &s.assets[i], nil
		}
	}
	return nil, fmt.Errorf("asset %d: %w", id, ErrNotFound)
}

func (s *store) customer(id int64) (*models.Customer, error) {
	for i := range s.customers {
		if s.customers[i].ID == id {
			return &s.customers[i], nil
		}
	}
	return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
}

func (s *store) reservation(id int64) (*models.Reservation, error) {
	for i := range s.reservations {
		if s.reservations[i].ID == id {
			return &s.reservations[i], nil
		}
	}
	return nil, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
}

// liveReservations returns the booked or active reservations of an asset.
func (s *store) liveReservations(assetID int64) []*models.Reservation {
	var out []*models.Reservation
	for i := range s.reservations {
		r := &s.reservations[i]
		if r.AssetID == assetID && r.Status.Live() {
			out = append(out, r)
		}
	}
	return out
}

func (s *store) assetCounts() map[string]int {
	counts := map[string]int{
		string(models.AssetAvailable):   0,
		string(models.AssetReserved):    0,
		string(models.AssetRented):      0,
		string(models.AssetMaintenance): 0,
	}
	for _, a := range s.assets {
		counts[string(a.Status)]++
	}
	return counts
}

func (s *store) snapshot() models.Snapshot {
	snap := models.EmptySnapshot()
	for _, a := range s.assets {
		snap.Assets = append(snap.Assets, assetRecord(a))
	}
	for _, a := range s.retired {
		snap.RetiredAssets = append(snap.RetiredAssets, assetRecord(a))
	}
	for _, c := range s.customers {
		snap.Customers = append(snap.Customers, models.CustomerRecord{
			ID:            c.ID,
			Name:          c.Name,
			LicenseNumber: c.LicenseNumber,
			ContactInfo:   c.ContactInfo,
		})
	}
	for _, r := range s.reservations {
		rec := models.ReservationRecord{
			ID:          r.ID,
			AssetID:     r.AssetID,
			CustomerID:  r.CustomerID,
			StartDate:   models.FormatDate(r.StartDate),
			EndDate:     models.FormatDate(r.EndDate),
			Status:      string(r.Status),
			BaseFee:     r.BaseFee.InexactFloat64(),
			LateFee:     r.LateFee.InexactFloat64(),
			FuelPenalty: r.FuelPenalty.InexactFloat64(),
			DamageFee:   r.DamageFee.InexactFloat64(),
			TotalAmount: r.TotalAmount.InexactFloat64(),
		}
		if r.ActualEndDate != nil {
			d := models.FormatDate(*r.ActualEndDate)
			rec.ActualEndDate = &d
		}
		snap.Reservations = append(snap.Reservations, rec)
	}
	return snap
}

func assetRecord(a models.Asset) models.AssetRecord {
	return models.AssetRecord{
		ID:        a.ID,
		Brand:     a.Brand,
		Model:     a.Model,
		Class:     a.Class,
		DailyRate: a.DailyRate.InexactFloat64(),
		Status:    string(a.Status),
	}
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrCorruptSnapshot)
}

// storeFromSnapshot rebuilds a store, resolving every id reference.
func storeFromSnapshot(snap models.Snapshot) (*store, error) {
	s := newStore()
	assetIDs := make(map[int64]bool)
	liveAssets := make(map[int64]bool)

	decodeAsset := func(rec models.AssetRecord) (models.Asset, error) {
		if assetIDs[rec.ID] {
			return models.Asset{}, corrupt("duplicate asset id %d", rec.ID)
		}
		status := models.AssetStatus(rec.Status)
		if !models.IsValidAssetStatus(status) {
			return models.Asset{}, corrupt("asset %d has unknown status %q", rec.ID, rec.Status)
		}
		if rec.DailyRate <= 0 {
			return models.Asset{}, corrupt("asset %d has non-positive daily rate", rec.ID)
		}
		assetIDs[rec.ID] = true
		if rec.ID >= s.nextAssetID {
			s.nextAssetID = rec.ID + 1
		}
		return models.Asset{
			ID:        rec.ID,
			Brand:     rec.Brand,
			Model:     rec.Model,
			Class:     rec.Class,
			DailyRate: decimal.NewFromFloat(rec.DailyRate),
			Status:    status,
		}, nil
	}

	for _, rec := range snap.Assets {
		a, err := decodeAsset(rec)
		if err != nil {
			return nil, err
		}
		liveAssets[a.ID] = true
		s.assets = append(s.assets, a)
	}
	for _, rec := range snap.RetiredAssets {
		a, err := decodeAsset(rec)
		if err != nil {
			return nil, err
		}
		s.retired = append(s.retired, a)
	}

	customerIDs := make(map[int64]bool)
	for _, rec := range snap.Customers {
		if customerIDs[rec.ID] {
			return nil, corrupt("duplicate customer id %d", rec.ID)
		}
		customerIDs[rec.ID] = true
		if rec.ID >= s.nextCustomerID {
			s.nextCustomerID = rec.ID + 1
		}
		s.customers = append(s.customers, models.Customer{
			ID:            rec.ID,
			Name:          rec.Name,
			LicenseNumber: rec.LicenseNumber,
			ContactInfo:   rec.ContactInfo,
		})
	}

	reservationIDs := make(map[int64]bool)
	for _, rec := range snap.Reservations {
		r, err := decodeReservation(rec)
		if err != nil {
			return nil, err
		}
		if reservationIDs[r.ID] {
			return nil, corrupt("duplicate reservation id %d", r.ID)
		}
		if !assetIDs[r.AssetID] {
			return nil, corrupt("reservation %d references unknown asset %d", r.ID, r.AssetID)
		}
		if !customerIDs[r.CustomerID] {
			return nil, corrupt("reservation %d references unknown customer %d", r.ID, r.CustomerID)
		}
		if r.Status.Live() {
			if !liveAssets[r.AssetID] {
				return nil, corrupt("live reservation %d references removed asset %d", r.ID, r.AssetID)
			}
			for _, other := range s.liveReservations(r.AssetID) {
				if other.Overlaps(r.StartDate, r.EndDate) {
					return nil, corrupt("reservations %d and %d overlap on asset %d", other.ID, r.ID, r.AssetID)
				}
			}
		}
		reservationIDs[r.ID] = true
		if r.ID >= s.nextReservationID {
			s.nextReservationID = r.ID + 1
		}
		s.reservations = append(s.reservations, r)
	}
	return s, nil
}

func decodeReservation(rec models.ReservationRecord) (models.Reservation, error) {
	start, err := models.ParseDate(rec.StartDate)
	if err != nil {
		return models.Reservation{}, corrupt("reservation %d start date: %v", rec.ID, err)
	}
	end, err := models.ParseDate(rec.EndDate)
	if err != nil {
		return models.Reservation{}, corrupt("reservation %d end date: %v", rec.ID, err)
	}
	if !end.After(start) {
		return models.Reservation{}, corrupt("reservation %d ends on or before its start", rec.ID)
	}
	status := models.ReservationStatus(rec.Status)
	if !models.IsValidReservationStatus(status) {
		return models.Reservation{}, corrupt("reservation %d has unknown status %q", rec.ID, rec.Status)
	}
	var actualEnd *time.Time
	if rec.ActualEndDate != nil {
		d, err := models.ParseDate(*rec.ActualEndDate)
		if err != nil {
			return models.Reservation{}, corrupt("reservation %d actual end date: %v", rec.ID, err)
		}
		actualEnd = &d
	}
	return models.Reservation{
		ID:            rec.ID,
		AssetID:       rec.AssetID,
		CustomerID:    rec.CustomerID,
		StartDate:     start,
		EndDate:       end,
		Status:        status,
		ActualEndDate: actualEnd,
		BaseFee:       decimal.NewFromFloat(rec.BaseFee),
		LateFee:       decimal.NewFromFloat(rec.LateFee),
		FuelPenalty:   decimal.NewFromFloat(rec.FuelPenalty),
		DamageFee:     decimal.NewFromFloat(rec.DamageFee),
		TotalAmount:   decimal.NewFromFloat(rec.TotalAmount),
	}, nil
}
