package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"mygarage/internal/models"
)

// ErrVehicleNotFound indicates a missing vehicle row.
var ErrVehicleNotFound = errors.New("vehicle not found")

const vehicleColumns = `id, owner_id, vin, nickname, make, model, year, license_plate, odometer_km, created_at, updated_at`

// VehicleRepository handles persistence of vehicles.
type VehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository returns repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create inserts a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.VIN = strings.ToUpper(strings.TrimSpace(vehicle.VIN))
	const query = `
		INSERT INTO vehicles (owner_id, vin, nickname, make, model, year, license_plate, odometer_km, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		vehicle.OwnerID,
		vehicle.VIN,
		vehicle.Nickname,
		vehicle.Make,
		vehicle.Model,
		vehicle.Year,
		vehicle.LicensePlate,
		vehicle.OdometerKm,
	).Scan(&vehicle.ID, &vehicle.CreatedAt, &vehicle.UpdatedAt)
}

// GetByID fetches a single vehicle.
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	const query = `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE id = $1
		LIMIT 1
	`
	var v models.Vehicle
	if err := scanVehicle(r.db.QueryRowContext(ctx, query, id), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListAccessible returns vehicles the user owns plus vehicles owned by users
// whose family the user belongs to.
func (r *VehicleRepository) ListAccessible(ctx context.Context, userID int64) ([]models.Vehicle, error) {
	const query = `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE owner_id = $1
		   OR owner_id IN (SELECT owner_id FROM family_members WHERE member_id = $1)
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := scanVehicleRows(rows, &v); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Update stores mutable vehicle fields.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	const query = `
		UPDATE vehicles
		SET nickname = $2,
		    license_plate = $3,
		    odometer_km = $4,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		vehicle.ID,
		vehicle.Nickname,
		vehicle.LicensePlate,
		vehicle.OdometerKm,
	).Scan(&vehicle.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVehicleNotFound
	}
	return err
}

// Delete removes a vehicle.
func (r *VehicleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

// TransferOwnership reassigns the vehicle to a new owner.
func (r *VehicleRepository) TransferOwnership(ctx context.Context, vehicleID, newOwnerID int64) error {
	const query = `
		UPDATE vehicles
		SET owner_id = $2,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, vehicleID, newOwnerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

func scanVehicle(row *sql.Row, v *models.Vehicle) error {
	err := row.Scan(
		&v.ID,
		&v.OwnerID,
		&v.VIN,
		&v.Nickname,
		&v.Make,
		&v.Model,
		&v.Year,
		&v.LicensePlate,
		&v.OdometerKm,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVehicleNotFound
	}
	return err
}

func scanVehicleRows(rows *sql.Rows, v *models.Vehicle) error {
	return rows.Scan(
		&v.ID,
		&v.OwnerID,
		&v.VIN,
		&v.Nickname,
		&v.Make,
		&v.Model,
		&v.Year,
		&v.LicensePlate,
		&v.OdometerKm,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
}
