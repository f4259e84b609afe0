package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"mygarage/internal/models"
	"mygarage/internal/repository"
)

var (
	// ErrInvalidTollImport rejects malformed import rows.
	ErrInvalidTollImport = errors.New("service: invalid toll import row")
	// ErrInvalidTollTag rejects transponders without a serial.
	ErrInvalidTollTag = errors.New("service: tag serial required")
)

// TollService manages transponders and imported toll charges.
type TollService struct {
	repo     *repository.TollRepository
	vehicles *VehiclesService
	logger   *zap.Logger
}

// NewTollService builds service.
func NewTollService(repo *repository.TollRepository, vehicles *VehiclesService, logger *zap.Logger) *TollService {
	return &TollService{
		repo:     repo,
		vehicles: vehicles,
		logger:   logger,
	}
}

// CreateTagInput carries fields for registering a transponder.
type CreateTagInput struct {
	TagSerial string
	Issuer    string
	VehicleID int64
}

// CreateTag registers a transponder, optionally bound to a vehicle.
func (s *TollService) CreateTag(ctx context.Context, ownerID int64, input CreateTagInput) (*models.TollTag, error) {
	if strings.TrimSpace(input.TagSerial) == "" {
		return nil, ErrInvalidTollTag
	}
	if input.VehicleID != 0 {
		vehicle, err := s.vehicles.Authorize(ctx, ownerID, input.VehicleID)
		if err != nil {
			return nil, err
		}
		if vehicle.OwnerID != ownerID {
			return nil, ErrForbidden
		}
	}

	tag := &models.TollTag{
		OwnerID:   ownerID,
		VehicleID: input.VehicleID,
		TagSerial: strings.TrimSpace(input.TagSerial),
		Issuer:    strings.TrimSpace(input.Issuer),
		Active:    true,
	}
	if err := s.repo.CreateTag(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags returns the user's transponders.
func (s *TollService) ListTags(ctx context.Context, ownerID int64) ([]models.TollTag, error) {
	return s.repo.ListTagsByOwner(ctx, ownerID)
}

// AssignTag binds a tag to one of the owner's vehicles.
func (s *TollService) AssignTag(ctx context.Context, ownerID, tagID, vehicleID int64) error {
	tag, err := s.repo.GetTagByID(ctx, tagID)
	if err != nil {
		return err
	}
	if tag.OwnerID != ownerID {
		return ErrForbidden
	}
	vehicle, err := s.vehicles.Authorize(ctx, ownerID, vehicleID)
	if err != nil {
		return err
	}
	if vehicle.OwnerID != ownerID {
		return ErrForbidden
	}
	return s.repo.AssignTag(ctx, tagID, vehicleID)
}

// ImportRow is one toll charge from a statement export.
type ImportRow struct {
	TagSerial   string    `json:"tag_serial"`
	Plaza       string    `json:"plaza"`
	AmountCents int64     `json:"amount_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ImportTransactions records statement rows against the owner's tags.
// Rows referencing unknown tags fail the import; partial writes are accepted
// because rows are independent charges.
func (s *TollService) ImportTransactions(ctx context.Context, ownerID int64, rows []ImportRow) (int, error) {
	imported := 0
	for _, row := range rows {
		if strings.TrimSpace(row.TagSerial) == "" || row.OccurredAt.IsZero() {
			return imported, ErrInvalidTollImport
		}
		tag, err := s.repo.GetTagBySerial(ctx, ownerID, strings.TrimSpace(row.TagSerial))
		if err != nil {
			return imported, err
		}
		tx := &models.TollTransaction{
			TagID:       tag.ID,
			Plaza:       strings.TrimSpace(row.Plaza),
			AmountCents: row.AmountCents,
			OccurredAt:  row.OccurredAt,
		}
		if err := s.repo.InsertTransaction(ctx, tx); err != nil {
			return imported, err
		}
		imported++
	}

	s.logger.Info("toll transactions imported", zap.Int64("owner_id", ownerID), zap.Int("rows", imported))
	return imported, nil
}

// ListTransactions returns charges for an accessible vehicle within the range.
// Zero times default to the last 90 days.
func (s *TollService) ListTransactions(ctx context.Context, userID, vehicleID int64, from, to time.Time) ([]models.TollTransaction, error) {
	if _, err := s.vehicles.Authorize(ctx, userID, vehicleID); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -90)
	}
	return s.repo.ListTransactionsByVehicle(ctx, vehicleID, from, to)
}

// MonthlySummary aggregates charges per month for an accessible vehicle.
func (s *TollService) MonthlySummary(ctx context.Context, userID, vehicleID int64) ([]models.TollMonthlySummary, error) {
	if _, err := s.vehicles.Authorize(ctx, userID, vehicleID); err != nil {
		return nil, err
	}
	return s.repo.MonthlySummary(ctx, vehicleID)
}
