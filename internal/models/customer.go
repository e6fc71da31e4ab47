package models

// Customer represents a registered renter.
type Customer struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LicenseNumber string `json:"license_number"`
	ContactInfo   string `json:"contact_info"`
}
