package models

import "time"

// Unit system preference values stored on the user row.
const (
	UnitSystemMetric   = "metric"
	UnitSystemImperial = "imperial"
)

// User represents an account holder.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	UnitSystem   string    `db:"unit_system" json:"unit_system"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
