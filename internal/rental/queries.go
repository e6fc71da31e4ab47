package rental

import (
	"time"

	"github.com/ukydev/fleet-rental/internal/models"
)

// GetAsset returns an asset of the current fleet.
func (e *Engine) GetAsset(id int64) (models.Asset, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, err := e.store.asset(id)
	if err != nil {
		return models.Asset{}, err
	}
	return *a, nil
}

// GetCustomer returns a customer by id.
func (e *Engine) GetCustomer(id int64) (models.Customer, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, err := e.store.customer(id)
	if err != nil {
		return models.Customer{}, err
	}
	return *c, nil
}

// GetReservation returns a reservation by id.
func (e *Engine) GetReservation(id int64) (models.Reservation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, err := e.store.reservation(id)
	if err != nil {
		return models.Reservation{}, err
	}
	return r.Clone(), nil
}

// ListAssets returns the fleet in registration order.
func (e *Engine) ListAssets() []models.Asset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.Asset{}, e.store.assets...)
}

// ListCustomers returns customers in registration order.
func (e *Engine) ListCustomers() []models.Customer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.Customer{}, e.store.customers...)
}

// IsAvailable reports whether [start, end) can be booked on the asset.
func (e *Engine) IsAvailable(assetID int64, start, end time.Time) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, err := e.store.asset(assetID)
	if err != nil {
		return false, err
	}
	return e.store.isAvailable(a, models.DateOf(start), models.DateOf(end))
}

// FindAvailable returns, in fleet order, the assets bookable for [start, end) that match filter.
func (e *Engine) FindAvailable(start, end time.Time, filter AvailabilityFilter) ([]models.Asset, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.findAvailable(models.DateOf(start), models.DateOf(end), filter)
}

// ActiveReservations returns booked and active reservations in creation order.
func (e *Engine) ActiveReservations() []models.Reservation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := []models.Reservation{}
	for _, r := range e.store.reservations {
		if r.Status.Live() {
			out = append(out, r.Clone())
		}
	}
	return out
}

// RentalHistory returns the completed and cancelled reservations of a customer in creation order.
func (e *Engine) RentalHistory(customerID int64) ([]models.Reservation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, err := e.store.customer(customerID); err != nil {
		return nil, err
	}
	out := []models.Reservation{}
	for _, r := range e.store.reservations {
		if r.CustomerID == customerID && r.Status.Terminal() {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}
