package rental

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukydev/fleet-rental/internal/models"
)

// centPlaces is the precision of every stored amount.
const centPlaces = 2

// FeePolicy holds the return-time billing constants.
type FeePolicy struct {
	LateMultiplier decimal.Decimal // applied to the daily rate per late day
	FuelPenalty    decimal.Decimal // flat, when the tank is not returned full
	DamageFee      decimal.Decimal // flat, when damage is reported
}

// DefaultFeePolicy returns 150% of the daily rate per late day, 50 for fuel and 200 for damage.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		LateMultiplier: decimal.RequireFromString("1.5"),
		FuelPenalty:    decimal.NewFromInt(50),
		DamageFee:      decimal.NewFromInt(200),
	}
}

// ComputeFee bills a reservation at return time and stores every component,
// the total and the actual return date on r. Each component is rounded to
// cents and the total is their sum. Early returns are billed for the full
// planned period. r is left untouched when an error is returned.
func ComputeFee(r *models.Reservation, dailyRate decimal.Decimal, actualEnd time.Time, fuelOK, damaged bool, policy FeePolicy) (decimal.Decimal, error) {
	plannedDays := models.DaysBetween(r.StartDate, r.EndDate)
	if plannedDays <= 0 {
		return decimal.Zero, fmt.Errorf("reservation %d: %w", r.ID, ErrInvalidInterval)
	}

	baseFee := dailyRate.Mul(decimal.NewFromInt(int64(plannedDays))).Round(centPlaces)

	lateFee := decimal.Zero
	if lateDays := models.DaysBetween(r.EndDate, actualEnd); lateDays > 0 {
		lateFee = dailyRate.Mul(decimal.NewFromInt(int64(lateDays))).Mul(policy.LateMultiplier).Round(centPlaces)
	}

	fuelPenalty := decimal.Zero
	if !fuelOK {
		fuelPenalty = policy.FuelPenalty.Round(centPlaces)
	}

	damageFee := decimal.Zero
	if damaged {
		damageFee = policy.DamageFee.Round(centPlaces)
	}

	total := baseFee.Add(lateFee).Add(fuelPenalty).Add(damageFee)

	returned := models.DateOf(actualEnd)
	r.ActualEndDate = &returned
	r.BaseFee = baseFee
	r.LateFee = lateFee
	r.FuelPenalty = fuelPenalty
	r.DamageFee = damageFee
	r.TotalAmount = total
	return total, nil
}
