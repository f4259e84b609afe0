package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mygarage/internal/models"
)

var (
	// ErrTransferNotPending is returned when resolving an already settled transfer.
	ErrTransferNotPending = errors.New("service: transfer is not pending")
	// ErrTransferToSelf rejects transfers to the current owner.
	ErrTransferToSelf = errors.New("service: cannot transfer vehicle to its owner")
)

// TransferStore defines the transfer persistence contract.
type TransferStore interface {
	Create(ctx context.Context, transfer *models.Transfer) error
	GetByID(ctx context.Context, id int64) (*models.Transfer, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Transfer, error)
	UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus string, resolvedAt time.Time) error
}

// TransferVehicleStore is the slice of vehicle persistence the workflow needs.
type TransferVehicleStore interface {
	GetByID(ctx context.Context, id int64) (*models.Vehicle, error)
	TransferOwnership(ctx context.Context, vehicleID, newOwnerID int64) error
}

// TransferService drives the vehicle hand-over workflow. The only legal
// transitions are pending -> accepted, pending -> declined and
// pending -> canceled; acceptance is what actually moves ownership.
type TransferService struct {
	transfers TransferStore
	vehicles  TransferVehicleStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewTransferService builds service.
func NewTransferService(transfers TransferStore, vehicles TransferVehicleStore, logger *zap.Logger) *TransferService {
	return &TransferService{
		transfers: transfers,
		vehicles:  vehicles,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Initiate opens a pending transfer of the vehicle to another user.
func (s *TransferService) Initiate(ctx context.Context, ownerID, vehicleID, toUserID int64) (*models.Transfer, error) {
	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if toUserID == ownerID {
		return nil, ErrTransferToSelf
	}

	transfer := &models.Transfer{
		VehicleID:  vehicleID,
		FromUserID: ownerID,
		ToUserID:   toUserID,
		Status:     models.TransferStatusPending,
	}
	if err := s.transfers.Create(ctx, transfer); err != nil {
		return nil, err
	}

	s.logger.Info("transfer initiated",
		zap.Int64("transfer_id", transfer.ID),
		zap.Int64("vehicle_id", vehicleID),
		zap.Int64("to_user_id", toUserID))
	return transfer, nil
}

// List returns transfers where the user is either party.
func (s *TransferService) List(ctx context.Context, userID int64) ([]models.Transfer, error) {
	return s.transfers.ListByUser(ctx, userID)
}

// Accept settles a pending transfer and moves ownership to the recipient.
func (s *TransferService) Accept(ctx context.Context, userID, transferID int64) error {
	transfer, err := s.transfers.GetByID(ctx, transferID)
	if err != nil {
		return err
	}
	if transfer.ToUserID != userID {
		return ErrForbidden
	}
	if transfer.Status != models.TransferStatusPending {
		return ErrTransferNotPending
	}

	// Ownership moves first. If settling the status fails afterwards the
	// transfer is still pending and Accept can simply be retried; the other
	// order could settle the transfer without ever moving the vehicle.
	if err := s.vehicles.TransferOwnership(ctx, transfer.VehicleID, transfer.ToUserID); err != nil {
		return err
	}
	if err := s.transfers.UpdateStatus(ctx, transferID, models.TransferStatusPending, models.TransferStatusAccepted, s.now()); err != nil {
		return err
	}

	s.logger.Info("transfer accepted",
		zap.Int64("transfer_id", transferID),
		zap.Int64("vehicle_id", transfer.VehicleID),
		zap.Int64("new_owner_id", transfer.ToUserID))
	return nil
}

// Decline settles a pending transfer without moving ownership. Recipient-only.
func (s *TransferService) Decline(ctx context.Context, userID, transferID int64) error {
	transfer, err := s.transfers.GetByID(ctx, transferID)
	if err != nil {
		return err
	}
	if transfer.ToUserID != userID {
		return ErrForbidden
	}
	if transfer.Status != models.TransferStatusPending {
		return ErrTransferNotPending
	}
	return s.transfers.UpdateStatus(ctx, transferID, models.TransferStatusPending, models.TransferStatusDeclined, s.now())
}

// Cancel withdraws a pending transfer. Initiator-only.
func (s *TransferService) Cancel(ctx context.Context, userID, transferID int64) error {
	transfer, err := s.transfers.GetByID(ctx, transferID)
	if err != nil {
		return err
	}
	if transfer.FromUserID != userID {
		return ErrForbidden
	}
	if transfer.Status != models.TransferStatusPending {
		return ErrTransferNotPending
	}
	return s.transfers.UpdateStatus(ctx, transferID, models.TransferStatusPending, models.TransferStatusCanceled, s.now())
}
