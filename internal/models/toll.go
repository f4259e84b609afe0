package models

import "time"

// TollTag is a transponder that can be assigned to a vehicle.
type TollTag struct {
	ID        int64     `db:"id" json:"id"`
	OwnerID   int64     `db:"owner_id" json:"owner_id"`
	VehicleID int64     `db:"vehicle_id" json:"vehicle_id"`
	TagSerial string    `db:"tag_serial" json:"tag_serial"`
	Issuer    string    `db:"issuer" json:"issuer"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TollTransaction is a single toll charge. Amount is in cents to avoid
// floating-point money.
type TollTransaction struct {
	ID          int64     `db:"id" json:"id"`
	TagID       int64     `db:"tag_id" json:"tag_id"`
	Plaza       string    `db:"plaza" json:"plaza"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	OccurredAt  time.Time `db:"occurred_at" json:"occurred_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TollMonthlySummary aggregates charges for one calendar month.
type TollMonthlySummary struct {
	Month      string `db:"month" json:"month"`
	Count      int64  `db:"count" json:"count"`
	TotalCents int64  `db:"total_cents" json:"total_cents"`
}
