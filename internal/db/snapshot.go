package db

import "github.com/ukydev/fleet-rental/internal/models"

// normalize replaces nil sequences with empty ones so callers never see a nil collection.
func normalize(snap models.Snapshot) models.Snapshot {
	if snap.Assets == nil {
		snap.Assets = []models.AssetRecord{}
	}
	if snap.Customers == nil {
		snap.Customers = []models.CustomerRecord{}
	}
	if snap.Reservations == nil {
		snap.Reservations = []models.ReservationRecord{}
	}
	return snap
}

// clone deep-copies a snapshot.
func clone(snap models.Snapshot) models.Snapshot {
	out := models.Snapshot{
		Assets:       append([]models.AssetRecord{}, snap.Assets...),
		Customers:    append([]models.CustomerRecord{}, snap.Customers...),
		Reservations: make([]models.ReservationRecord, 0, len(snap.Reservations)),
	}
	if snap.RetiredAssets != nil {
		out.RetiredAssets = append([]models.AssetRecord{}, snap.RetiredAssets...)
	}
	for _, r := range snap.Reservations {
		if r.ActualEndDate != nil {
			d := *r.ActualEndDate
			r.ActualEndDate = &d
		}
		out.Reservations = append(out.Reservations, r)
	}
	return out
}
