package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mygarage/internal/models"
)

// ErrTransferNotFound indicates a missing transfer row.
var ErrTransferNotFound = errors.New("transfer not found")

// TransferRepository persists vehicle ownership transfers.
type TransferRepository struct {
	db *sql.DB
}

// NewTransferRepository returns repository.
func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create inserts a pending transfer.
func (r *TransferRepository) Create(ctx context.Context, transfer *models.Transfer) error {
	const query = `
		INSERT INTO transfers (vehicle_id, from_user_id, to_user_id, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		transfer.VehicleID,
		transfer.FromUserID,
		transfer.ToUserID,
		transfer.Status,
	).Scan(&transfer.ID, &transfer.CreatedAt)
}

// GetByID fetches a single transfer.
func (r *TransferRepository) GetByID(ctx context.Context, id int64) (*models.Transfer, error) {
	const query = `
		SELECT id, vehicle_id, from_user_id, to_user_id, status, created_at, COALESCE(resolved_at, 'epoch'::timestamptz)
		FROM transfers
		WHERE id = $1
		LIMIT 1
	`
	var t models.Transfer
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.VehicleID,
		&t.FromUserID,
		&t.ToUserID,
		&t.Status,
		&t.CreatedAt,
		&t.ResolvedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransferNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByUser returns transfers where the user is sender or recipient.
func (r *TransferRepository) ListByUser(ctx context.Context, userID int64) ([]models.Transfer, error) {
	const query = `
		SELECT id, vehicle_id, from_user_id, to_user_id, status, created_at, COALESCE(resolved_at, 'epoch'::timestamptz)
		FROM transfers
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []models.Transfer
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(
			&t.ID,
			&t.VehicleID,
			&t.FromUserID,
			&t.ToUserID,
			&t.Status,
			&t.CreatedAt,
			&t.ResolvedAt,
		); err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transfers, nil
}

// UpdateStatus resolves a transfer, guarded on the current status so two
// concurrent resolutions cannot both win.
func (r *TransferRepository) UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus string, resolvedAt time.Time) error {
	const query = `
		UPDATE transfers
		SET status = $3,
		    resolved_at = $4
		WHERE id = $1 AND status = $2
	`
	result, err := r.db.ExecContext(ctx, query, id, fromStatus, toStatus, resolvedAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTransferNotFound
	}
	return nil
}
