package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationBooked    ReservationStatus = "BOOKED"
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// IsValidReservationStatus checks if a status is one of the known reservation states
func IsValidReservationStatus(status ReservationStatus) bool {
	switch status {
	case ReservationBooked, ReservationActive, ReservationCompleted, ReservationCancelled:
		return true
	default:
		return false
	}
}

// Live reports whether the reservation still holds its asset interval.
func (s ReservationStatus) Live() bool {
	return s == ReservationBooked || s == ReservationActive
}

// Terminal reports whether no further transition is possible.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCompleted || s == ReservationCancelled
}

// Reservation is a claim on an asset for a customer over the half-open
// interval [StartDate, EndDate). Asset and customer are referenced by id.
type Reservation struct {
	ID            int64             `json:"id"`
	AssetID       int64             `json:"asset_id"`
	CustomerID    int64             `json:"customer_id"`
	StartDate     time.Time         `json:"start_date"`
	EndDate       time.Time         `json:"end_date"`
	Status        ReservationStatus `json:"status"`
	ActualEndDate *time.Time        `json:"actual_end_date,omitempty"`

	BaseFee     decimal.Decimal `json:"base_fee"`
	LateFee     decimal.Decimal `json:"late_fee"`
	FuelPenalty decimal.Decimal `json:"fuel_penalty"`
	DamageFee   decimal.Decimal `json:"damage_fee"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Clone returns a copy that shares no memory with r.
func (r Reservation) Clone() Reservation {
	if r.ActualEndDate != nil {
		d := *r.ActualEndDate
		r.ActualEndDate = &d
	}
	return r
}

// Overlaps reports whether [start, end) intersects the reservation interval.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return start.Before(r.EndDate) && r.StartDate.Before(end)
}
