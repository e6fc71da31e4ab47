package models

import "github.com/shopspring/decimal"

// AssetStatus is the rental state of a fleet asset.
type AssetStatus string

const (
	AssetAvailable   AssetStatus = "AVAILABLE"
	AssetReserved    AssetStatus = "RESERVED"
	AssetRented      AssetStatus = "RENTED"
	AssetMaintenance AssetStatus = "MAINTENANCE"
)

// IsValidAssetStatus checks if a status is one of the known asset states
func IsValidAssetStatus(status AssetStatus) bool {
	switch status {
	case AssetAvailable, AssetReserved, AssetRented, AssetMaintenance:
		return true
	default:
		return false
	}
}

// Bookable reports whether an asset in this state may be offered for a new reservation.
func (s AssetStatus) Bookable() bool {
	return s == AssetAvailable || s == AssetReserved
}

// Asset represents a rentable fleet vehicle.
type Asset struct {
	ID        int64           `json:"id"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Class     string          `json:"class"` // "economy", "business", ...
	DailyRate decimal.Decimal `json:"daily_rate"`
	Status    AssetStatus     `json:"status"`
}
