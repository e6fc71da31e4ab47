package rental

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukydev/fleet-rental/internal/models"
)

// AvailabilityFilter narrows FindAvailable. Zero values match every asset.
type AvailabilityFilter struct {
	Class   string
	MaxRate *decimal.Decimal
}

func (f AvailabilityFilter) matches(a *models.Asset) bool {
	if f.Class != "" && a.Class != f.Class {
		return false
	}
	if f.MaxRate != nil && a.DailyRate.GreaterThan(*f.MaxRate) {
		return false
	}
	return true
}

func validateInterval(start, end time.Time) error {
	if !end.After(start) {
		return fmt.Errorf("%s to %s: %w", models.FormatDate(start), models.FormatDate(end), ErrInvalidInterval)
	}
	return nil
}

// isAvailable reports whether [start, end) can be granted on the asset: no
// booked or active reservation may overlap it and the asset itself must be
// available or reserved.
func (s *store) isAvailable(a *models.Asset, start, end time.Time) (bool, error) {
	if err := validateInterval(start, end); err != nil {
		return false, err
	}
	for _, r := range s.liveReservations(a.ID) {
		if r.Overlaps(start, end) {
			return false, nil
		}
	}
	return a.Status.Bookable(), nil
}

func (s *store) findAvailable(start, end time.Time, filter AvailabilityFilter) ([]models.Asset, error) {
	if err := validateInterval(start, end); err != nil {
		return nil, err
	}
	result := []models.Asset{}
	for i := range s.assets {
		a := &s.assets[i]
		if !filter.matches(a) {
			continue
		}
		ok, err := s.isAvailable(a, start, end)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, *a)
		}
	}
	return result, nil
}
