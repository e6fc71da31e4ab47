package rental

import (
	"errors"

	"github.com/ukydev/fleet-rental/internal/models"
)

var (
	ErrInvalidInterval   = errors.New("end date must be after start date")
	ErrNotFound          = errors.New("not found")
	ErrUnavailable       = errors.New("asset is not available for the requested dates")
	ErrInvalidTransition = errors.New("invalid reservation state transition")
	ErrAssetInUse        = errors.New("asset has booked or active reservations")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrCorruptSnapshot   = models.ErrCorruptSnapshot
)

// errorKinds labels each error kind for operation metrics.
var errorKinds = map[error]string{
	ErrInvalidInterval:   "invalid_interval",
	ErrNotFound:          "not_found",
	ErrUnavailable:       "unavailable",
	ErrInvalidTransition: "invalid_transition",
	ErrAssetInUse:        "asset_in_use",
	ErrInvalidArgument:   "invalid_argument",
	ErrCorruptSnapshot:   "corrupt_snapshot",
}
