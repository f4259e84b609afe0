package models

import "time"

// Vehicle represents a vehicle in a user's garage. Odometer is stored in
// kilometers; display conversion happens at the API layer.
type Vehicle struct {
	ID           int64     `db:"id" json:"id"`
	OwnerID      int64     `db:"owner_id" json:"owner_id"`
	VIN          string    `db:"vin" json:"vin"`
	Nickname     string    `db:"nickname" json:"nickname"`
	Make         string    `db:"make" json:"make"`
	Model        string    `db:"model" json:"model"`
	Year         int       `db:"year" json:"year"`
	LicensePlate string    `db:"license_plate" json:"license_plate"`
	OdometerKm   float64   `db:"odometer_km" json:"odometer_km"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
