package models

import "errors"

// ErrCorruptSnapshot is returned when persisted data cannot be turned back into a consistent store.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Snapshot is the full persisted state of the rental store. Records reference
// each other by id only.
type Snapshot struct {
	Assets        []AssetRecord       `json:"assets" bson:"assets"`
	Customers     []CustomerRecord    `json:"customers" bson:"customers"`
	Reservations  []ReservationRecord `json:"reservations" bson:"reservations"`
	RetiredAssets []AssetRecord       `json:"retired_assets,omitempty" bson:"retired_assets,omitempty"`
}

// EmptySnapshot returns a snapshot with three empty, non-nil sequences.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Assets:       []AssetRecord{},
		Customers:    []CustomerRecord{},
		Reservations: []ReservationRecord{},
	}
}

// AssetRecord is the persisted form of an Asset.
type AssetRecord struct {
	ID        int64   `json:"id" bson:"id"`
	Brand     string  `json:"brand" bson:"brand"`
	Model     string  `json:"model" bson:"model"`
	Class     string  `json:"class" bson:"class"`
	DailyRate float64 `json:"daily_rate" bson:"daily_rate"`
	Status    string  `json:"status" bson:"status"`
}

// CustomerRecord is the persisted form of a Customer.
type CustomerRecord struct {
	ID            int64  `json:"id" bson:"id"`
	Name          string `json:"name" bson:"name"`
	LicenseNumber string `json:"license_number" bson:"license_number"`
	ContactInfo   string `json:"contact_info" bson:"contact_info"`
}

// ReservationRecord is the persisted form of a Reservation. Dates are YYYY-MM-DD.
type ReservationRecord struct {
	ID            int64   `json:"id" bson:"id"`
	AssetID       int64   `json:"asset_id" bson:"asset_id"`
	CustomerID    int64   `json:"customer_id" bson:"customer_id"`
	StartDate     string  `json:"start_date" bson:"start_date"`
	EndDate       string  `json:"end_date" bson:"end_date"`
	ActualEndDate *string `json:"actual_end_date" bson:"actual_end_date"`
	Status        string  `json:"status" bson:"status"`
	BaseFee       float64 `json:"base_fee" bson:"base_fee"`
	LateFee       float64 `json:"late_fee" bson:"late_fee"`
	FuelPenalty   float64 `json:"fuel_penalty" bson:"fuel_penalty"`
	DamageFee     float64 `json:"damage_fee" bson:"damage_fee"`
	TotalAmount   float64 `json:"total_amount" bson:"total_amount"`
}
