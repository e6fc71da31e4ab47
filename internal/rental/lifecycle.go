package rental

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-rental/internal/events"
	"github.com/ukydev/fleet-rental/internal/models"
)

// AddAsset registers a new asset in AVAILABLE status.
func (e *Engine) AddAsset(ctx context.Context, brand, model, class string, dailyRate decimal.Decimal) (models.Asset, error) {
	if !dailyRate.IsPositive() {
		return models.Asset{}, fmt.Errorf("daily rate must be positive: %w", ErrInvalidArgument)
	}
	if !dailyRate.Equal(dailyRate.Round(centPlaces)) {
		return models.Asset{}, fmt.Errorf("daily rate %s has more than %d decimal places: %w", dailyRate, centPlaces, ErrInvalidArgument)
	}

	var created models.Asset
	err := e.mutate(ctx, "add_asset", func(s *store) (events.Event, error) {
		created = models.Asset{
			ID:        s.nextAssetID,
			Brand:     brand,
			Model:     model,
			Class:     class,
			DailyRate: dailyRate,
			Status:    models.AssetAvailable,
		}
		s.nextAssetID++
		s.assets = append(s.assets, created)
		return events.Event{Type: events.AssetAdded, AssetID: created.ID, Status: string(created.Status)}, nil
	})
	if err != nil {
		return models.Asset{}, err
	}

	e.log.WithFields(log.Fields{"asset_id": created.ID, "class": class}).Info("Asset added")
	return created, nil
}

// RemoveAsset retires an asset. Completed and cancelled history keeps
// referencing it; booked or active reservations block removal.
func (e *Engine) RemoveAsset(ctx context.Context, assetID int64) error {
	err := e.mutate(ctx, "remove_asset", func(s *store) (events.Event, error) {
		a, err := s.asset(assetID)
		if err != nil {
			return events.Event{}, err
		}
		if live := s.liveReservations(assetID); len(live) > 0 {
			return events.Event{}, fmt.Errorf("asset %d has %d live reservations: %w", assetID, len(live), ErrAssetInUse)
		}

		s.retired = append(s.retired, *a)
		for i := range s.assets {
			if s.assets[i].ID == assetID {
				s.assets = append(s.assets[:i], s.assets[i+1:]...)
				break
			}
		}
		return events.Event{Type: events.AssetRemoved, AssetID: assetID}, nil
	})
	if err != nil {
		return err
	}

	e.log.WithField("asset_id", assetID).Info("Asset removed")
	return nil
}

// RegisterCustomer adds a customer. Name and license number are required.
func (e *Engine) RegisterCustomer(ctx context.Context, name, licenseNumber, contactInfo string) (models.Customer, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(licenseNumber) == "" {
		return models.Customer{}, fmt.Errorf("name and license number are required: %w", ErrInvalidArgument)
	}

	var created models.Customer
	err := e.mutate(ctx, "register_customer", func(s *store) (events.Event, error) {
		created = models.Customer{
			ID:            s.nextCustomerID,
			Name:          name,
			LicenseNumber: licenseNumber,
			ContactInfo:   contactInfo,
		}
		s.nextCustomerID++
		s.customers = append(s.customers, created)
		return events.Event{Type: events.CustomerRegistered, CustomerID: created.ID}, nil
	})
	if err != nil {
		return models.Customer{}, err
	}

	e.log.WithField("customer_id", created.ID).Info("Customer registered")
	return created, nil
}

// Reserve books [start, end) on an asset for a customer. The reservation
// starts BOOKED and the asset becomes RESERVED.
func (e *Engine) Reserve(ctx context.Context, customerID, assetID int64, start, end time.Time) (models.Reservation, error) {
	start, end = models.DateOf(start), models.DateOf(end)

	var created models.Reservation
	err := e.mutate(ctx, "reserve", func(s *store) (events.Event, error) {
		if _, err := s.customer(customerID); err != nil {
			return events.Event{}, err
		}
		a, err := s.asset(assetID)
		if err != nil {
			return events.Event{}, err
		}
		ok, err := s.isAvailable(a, start, end)
		if err != nil {
			return events.Event{}, err
		}
		if !ok {
			return events.Event{}, fmt.Errorf("asset %d from %s to %s: %w",
				assetID, models.FormatDate(start), models.FormatDate(end), ErrUnavailable)
		}

		created = models.Reservation{
			ID:         s.nextReservationID,
			AssetID:    assetID,
			CustomerID: customerID,
			StartDate:  start,
			EndDate:    end,
			Status:     models.ReservationBooked,
		}
		s.nextReservationID++
		s.reservations = append(s.reservations, created)
		a.Status = models.AssetReserved
		return reservationEvent(events.Reserved, &created), nil
	})
	if err != nil {
		return models.Reservation{}, err
	}

	e.log.WithFields(log.Fields{
		"reservation_id": created.ID,
		"asset_id":       assetID,
		"customer_id":    customerID,
		"start_date":     models.FormatDate(start),
		"end_date":       models.FormatDate(end),
	}).Info("Reservation booked")
	return created, nil
}

// StartRental hands the asset over: BOOKED -> ACTIVE, asset -> RENTED.
func (e *Engine) StartRental(ctx context.Context, reservationID int64) (models.Reservation, error) {
	var updated models.Reservation
	err := e.mutate(ctx, "start_rental", func(s *store) (events.Event, error) {
		r, a, err := s.transitionTargets(reservationID, models.ReservationBooked)
		if err != nil {
			return events.Event{}, err
		}
		r.Status = models.ReservationActive
		a.Status = models.AssetRented
		updated = r.Clone()
		return reservationEvent(events.Started, r), nil
	})
	if err != nil {
		return models.Reservation{}, err
	}

	e.log.WithFields(log.Fields{"reservation_id": reservationID, "asset_id": updated.AssetID}).Info("Rental started")
	return updated, nil
}

// ReturnAsset closes an active rental: fees are computed once, the
// reservation becomes COMPLETED and the asset AVAILABLE. It returns the total amount.
func (e *Engine) ReturnAsset(ctx context.Context, reservationID int64, actualEnd time.Time, fuelOK, damaged bool) (decimal.Decimal, error) {
	var updated models.Reservation
	err := e.mutate(ctx, "return_asset", func(s *store) (events.Event, error) {
		r, a, err := s.transitionTargets(reservationID, models.ReservationActive)
		if err != nil {
			return events.Event{}, err
		}
		if _, err := ComputeFee(r, a.DailyRate, actualEnd, fuelOK, damaged, e.policy); err != nil {
			return events.Event{}, err
		}
		r.Status = models.ReservationCompleted
		a.Status = models.AssetAvailable
		updated = r.Clone()
		return reservationEvent(events.Returned, r), nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	e.log.WithFields(log.Fields{
		"reservation_id": reservationID,
		"asset_id":       updated.AssetID,
		"total_amount":   updated.TotalAmount.StringFixed(2),
		"late_fee":       updated.LateFee.StringFixed(2),
	}).Info("Asset returned")
	return updated.TotalAmount, nil
}

// CancelReservation drops a booking that has not started: BOOKED -> CANCELLED, asset -> AVAILABLE.
func (e *Engine) CancelReservation(ctx context.Context, reservationID int64) (models.Reservation, error) {
	var updated models.Reservation
	err := e.mutate(ctx, "cancel_reservation", func(s *store) (events.Event, error) {
		r, a, err := s.transitionTargets(reservationID, models.ReservationBooked)
		if err != nil {
			return events.Event{}, err
		}
		r.Status = models.ReservationCancelled
		a.Status = models.AssetAvailable
		updated = r.Clone()
		return reservationEvent(events.Cancelled, r), nil
	})
	if err != nil {
		return models.Reservation{}, err
	}

	e.log.WithFields(log.Fields{"reservation_id": reservationID, "asset_id": updated.AssetID}).Info("Reservation cancelled")
	return updated, nil
}

// transitionTargets resolves a reservation that must be in status from, and its asset.
func (s *store) transitionTargets(reservationID int64, from models.ReservationStatus) (*models.Reservation, *models.Asset, error) {
	r, err := s.reservation(reservationID)
	if err != nil {
		return nil, nil, err
	}
	if r.Status != from {
		return nil, nil, fmt.Errorf("reservation %d is %s, expected %s: %w", reservationID, r.Status, from, ErrInvalidTransition)
	}
	a, err := s.asset(r.AssetID)
	if err != nil {
		return nil, nil, fmt.Errorf("reservation %d asset: %v: %w", reservationID, err, ErrCorruptSnapshot)
	}
	return r, a, nil
}

func reservationEvent(eventType string, r *models.Reservation) events.Event {
	ev := events.Event{
		Type:          eventType,
		ReservationID: r.ID,
		AssetID:       r.AssetID,
		CustomerID:    r.CustomerID,
		Status:        string(r.Status),
	}
	if r.Status == models.ReservationCompleted {
		ev.TotalAmount = r.TotalAmount.StringFixed(2)
	}
	return ev
}
