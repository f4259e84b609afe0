package repository

import (
	"context"
	"database/sql"
	"errors"

	"mygarage/internal/models"
)

// ErrAttachmentNotFound indicates a missing attachment row.
var ErrAttachmentNotFound = errors.New("attachment not found")

// AttachmentRepository persists attachment metadata. File bytes live on disk.
type AttachmentRepository struct {
	db *sql.DB
}

// NewAttachmentRepository returns repository.
func NewAttachmentRepository(db *sql.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create inserts attachment metadata.
func (r *AttachmentRepository) Create(ctx context.Context, att *models.Attachment) error {
	const query = `
		INSERT INTO attachments (vehicle_id, file_name, content_type, size_bytes, sha256, storage_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		att.VehicleID,
		att.FileName,
		att.ContentType,
		att.SizeBytes,
		att.SHA256,
		att.StoragePath,
	).Scan(&att.ID, &att.CreatedAt)
}

// GetByID fetches attachment metadata.
func (r *AttachmentRepository) GetByID(ctx context.Context, id int64) (*models.Attachment, error) {
	const query = `
		SELECT id, vehicle_id, file_name, content_type, size_bytes, sha256, storage_path, created_at
		FROM attachments
		WHERE id = $1
		LIMIT 1
	`
	var att models.Attachment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&att.ID,
		&att.VehicleID,
		&att.FileName,
		&att.ContentType,
		&att.SizeBytes,
		&att.SHA256,
		&att.StoragePath,
		&att.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// ListByVehicle returns attachment metadata for a vehicle.
func (r *AttachmentRepository) ListByVehicle(ctx context.Context, vehicleID int64) ([]models.Attachment, error) {
	const query = `
		SELECT id, vehicle_id, file_name, content_type, size_bytes, sha256, storage_path, created_at
		FROM attachments
		WHERE vehicle_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		var att models.Attachment
		if err := rows.Scan(
			&att.ID,
			&att.VehicleID,
			&att.FileName,
			&att.ContentType,
			&att.SizeBytes,
			&att.SHA256,
			&att.StoragePath,
			&att.CreatedAt,
		); err != nil {
			return nil, err
		}
		attachments = append(attachments, att)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attachments, nil
}

// CountBySHA256 counts rows referencing a content digest. Duplicate uploads
// share one file on disk, so the bytes may only go once this reaches zero.
func (r *AttachmentRepository) CountBySHA256(ctx context.Context, digest string) (int64, error) {
	const query = `SELECT COUNT(*) FROM attachments WHERE sha256 = $1`
	var count int64
	err := r.db.QueryRowContext(ctx, query, digest).Scan(&count)
	return count, err
}

// Delete removes attachment metadata.
func (r *AttachmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}
