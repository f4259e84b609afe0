package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mygarage/internal/models"
)

// ErrDeviceNotFound indicates a missing LiveLink device row.
var ErrDeviceNotFound = errors.New("livelink device not found")

// LiveLinkRepository persists device registrations and telemetry readings.
type LiveLinkRepository struct {
	db *sql.DB
}

// NewLiveLinkRepository returns repository.
func NewLiveLinkRepository(db *sql.DB) *LiveLinkRepository {
	return &LiveLinkRepository{db: db}
}

// RegisterDevice inserts a device or rebinds an existing one to a vehicle.
func (r *LiveLinkRepository) RegisterDevice(ctx context.Context, device *models.LiveLinkDevice) error {
	const query = `
		INSERT INTO livelink_devices (device_id, token, vehicle_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (device_id) DO UPDATE SET
			token = EXCLUDED.token,
			vehicle_id = EXCLUDED.vehicle_id
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		device.DeviceID,
		device.Token,
		device.VehicleID,
	).Scan(&device.ID, &device.CreatedAt)
}

// GetDevice fetches a device by its external identifier.
func (r *LiveLinkRepository) GetDevice(ctx context.Context, deviceID string) (*models.LiveLinkDevice, error) {
	const query = `
		SELECT id, device_id, token, vehicle_id, created_at
		FROM livelink_devices
		WHERE device_id = $1
		LIMIT 1
	`
	var d models.LiveLinkDevice
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&d.ID,
		&d.DeviceID,
		&d.Token,
		&d.VehicleID,
		&d.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// InsertReading stores a single telemetry sample.
func (r *LiveLinkRepository) InsertReading(ctx context.Context, reading *models.TelemetryReading) error {
	const query = `
		INSERT INTO telemetry_readings (vehicle_id, param_key, value, unit, recorded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		reading.VehicleID,
		reading.ParamKey,
		reading.Value,
		reading.Unit,
		reading.RecordedAt,
	).Scan(&reading.ID, &reading.CreatedAt)
}

// ListReadings returns stored samples for one parameter, newest first.
func (r *LiveLinkRepository) ListReadings(ctx context.Context, vehicleID int64, paramKey string, since time.Time, limit int) ([]models.TelemetryReading, error) {
	if limit <= 0 {
		limit = 500
	}
	const query = `
		SELECT id, vehicle_id, param_key, value, unit, recorded_at, created_at
		FROM telemetry_readings
		WHERE vehicle_id = $1
		  AND param_key = $2
		  AND recorded_at >= $3
		ORDER BY recorded_at DESC
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleID, paramKey, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.TelemetryReading
	for rows.Next() {
		var reading models.TelemetryReading
		if err := rows.Scan(
			&reading.ID,
			&reading.VehicleID,
			&reading.ParamKey,
			&reading.Value,
			&reading.Unit,
			&reading.RecordedAt,
			&reading.CreatedAt,
		); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}
