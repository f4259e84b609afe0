package models

import "time"

// Recall is a safety recall campaign attached to a vehicle.
type Recall struct {
	ID             int64     `db:"id" json:"id"`
	VehicleID      int64     `db:"vehicle_id" json:"vehicle_id"`
	CampaignNumber string    `db:"campaign_number" json:"campaign_number"`
	Component      string    `db:"component" json:"component"`
	Summary        string    `db:"summary" json:"summary"`
	Remedy         string    `db:"remedy" json:"remedy"`
	IssuedAt       time.Time `db:"issued_at" json:"issued_at"`
	Acknowledged   bool      `db:"acknowledged" json:"acknowledged"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// TSB is a technical service bulletin attached to a vehicle.
type TSB struct {
	ID             int64     `db:"id" json:"id"`
	VehicleID      int64     `db:"vehicle_id" json:"vehicle_id"`
	BulletinNumber string    `db:"bulletin_number" json:"bulletin_number"`
	Component      string    `db:"component" json:"component"`
	Summary        string    `db:"summary" json:"summary"`
	IssuedAt       time.Time `db:"issued_at" json:"issued_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
