package models

import "time"

// Attachment is a file (service record, photo) linked to a vehicle. Bytes
// live on disk under the data directory; this row is the metadata.
type Attachment struct {
	ID          int64     `db:"id" json:"id"`
	VehicleID   int64     `db:"vehicle_id" json:"vehicle_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	SHA256      string    `db:"sha256" json:"sha256"`
	StoragePath string    `db:"storage_path" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
