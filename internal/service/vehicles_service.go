package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"mygarage/internal/models"
	"mygarage/internal/repository"
)

var (
	// ErrForbidden is returned when a user touches a vehicle outside their garage.
	ErrForbidden = errors.New("service: access denied")
	// ErrInvalidVehicle rejects malformed vehicle payloads.
	ErrInvalidVehicle = errors.New("service: invalid vehicle")
)

// SnapshotDropper invalidates cached telemetry for a vehicle.
type SnapshotDropper interface {
	Delete(ctx context.Context, vehicleID int64) error
}

// VehiclesService owns vehicle CRUD and the access rules shared by the other
// domain services (tolls, attachments, telemetry all defer to Authorize).
type VehiclesService struct {
	vehicles  *repository.VehicleRepository
	family    *repository.FamilyRepository
	snapshots SnapshotDropper
	logger    *zap.Logger
}

// NewVehiclesService builds service. snapshots may be nil.
func NewVehiclesService(vehicles *repository.VehicleRepository, family *repository.FamilyRepository, snapshots SnapshotDropper, logger *zap.Logger) *VehiclesService {
	return &VehiclesService{
		vehicles:  vehicles,
		family:    family,
		snapshots: snapshots,
		logger:    logger,
	}
}

// CreateVehicleInput carries fields accepted at creation.
type CreateVehicleInput struct {
	VIN          string
	Nickname     string
	Make         string
	Model        string
	Year         int
	LicensePlate string
	OdometerKm   float64
}

// Create registers a vehicle in the user's garage.
func (s *VehiclesService) Create(ctx context.Context, ownerID int64, input CreateVehicleInput) (*models.Vehicle, error) {
	if strings.TrimSpace(input.VIN) == "" {
		return nil, ErrInvalidVehicle
	}
	if input.Year < 1900 || input.Year > 2100 {
		return nil, ErrInvalidVehicle
	}

	vehicle := &models.Vehicle{
		OwnerID:      ownerID,
		VIN:          input.VIN,
		Nickname:     strings.TrimSpace(input.Nickname),
		Make:         strings.TrimSpace(input.Make),
		Model:        strings.TrimSpace(input.Model),
		Year:         input.Year,
		LicensePlate: strings.TrimSpace(input.LicensePlate),
		OdometerKm:   input.OdometerKm,
	}
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, err
	}

	s.logger.Info("vehicle created",
		zap.Int64("vehicle_id", vehicle.ID),
		zap.Int64("owner_id", ownerID),
		zap.String("vin", vehicle.VIN))
	return vehicle, nil
}

// List returns vehicles the user owns or can see through family sharing.
func (s *VehiclesService) List(ctx context.Context, userID int64) ([]models.Vehicle, error) {
	return s.vehicles.ListAccessible(ctx, userID)
}

// Get loads a vehicle the user can access.
func (s *VehiclesService) Get(ctx context.Context, userID, vehicleID int64) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	ok, err := s.canAccess(ctx, userID, vehicle)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return vehicle, nil
}

// UpdateVehicleInput carries mutable fields.
type UpdateVehicleInput struct {
	Nickname     string
	LicensePlate string
	OdometerKm   float64
}

// Update stores mutable fields; owner-only.
func (s *VehiclesService) Update(ctx context.Context, userID, vehicleID int64, input UpdateVehicleInput) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.OwnerID != userID {
		return nil, ErrForbidden
	}

	vehicle.Nickname = strings.TrimSpace(input.Nickname)
	vehicle.LicensePlate = strings.TrimSpace(input.LicensePlate)
	vehicle.OdometerKm = input.OdometerKm
	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// Delete removes a vehicle; owner-only.
func (s *VehiclesService) Delete(ctx context.Context, userID, vehicleID int64) error {
	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return err
	}
	if vehicle.OwnerID != userID {
		return ErrForbidden
	}
	if err := s.vehicles.Delete(ctx, vehicleID); err != nil {
		return err
	}
	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, vehicleID); err != nil {
			s.logger.Warn("failed to drop live snapshot", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		}
	}
	return nil
}

// Authorize loads a vehicle and checks read access for the user. Owner-only
// operations should compare OwnerID themselves.
func (s *VehiclesService) Authorize(ctx context.Context, userID, vehicleID int64) (*models.Vehicle, error) {
	return s.Get(ctx, userID, vehicleID)
}

func (s *VehiclesService) canAccess(ctx context.Context, userID int64, vehicle *models.Vehicle) (bool, error) {
	if vehicle.OwnerID == userID {
		return true, nil
	}
	return s.family.IsMember(ctx, vehicle.OwnerID, userID)
}
