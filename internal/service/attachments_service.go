package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"mygarage/internal/models"
)

// ErrInvalidAttachment rejects uploads without a file name.
var ErrInvalidAttachment = errors.New("service: invalid attachment")

// AttachmentStore defines the attachment metadata persistence contract.
type AttachmentStore interface {
	Create(ctx context.Context, att *models.Attachment) error
	GetByID(ctx context.Context, id int64) (*models.Attachment, error)
	ListByVehicle(ctx context.Context, vehicleID int64) ([]models.Attachment, error)
	Delete(ctx context.Context, id int64) error
	CountBySHA256(ctx context.Context, digest string) (int64, error)
}

// VehicleAuthorizer checks that a user can access a vehicle.
type VehicleAuthorizer interface {
	Authorize(ctx context.Context, userID, vehicleID int64) (*models.Vehicle, error)
}

// AttachmentsService stores attachment bytes on disk under the data directory
// and metadata in Postgres. Files are laid out by content digest so duplicate
// uploads share bytes.
type AttachmentsService struct {
	repo     AttachmentStore
	vehicles VehicleAuthorizer
	dataDir  string
	logger   *zap.Logger
}

// NewAttachmentsService builds service.
func NewAttachmentsService(repo AttachmentStore, vehicles VehicleAuthorizer, dataDir string, logger *zap.Logger) *AttachmentsService {
	return &AttachmentsService{
		repo:     repo,
		vehicles: vehicles,
		dataDir:  dataDir,
		logger:   logger,
	}
}

// Upload writes the file to disk and records its metadata.
func (s *AttachmentsService) Upload(ctx context.Context, userID, vehicleID int64, fileName, contentType string, body io.Reader) (*models.Attachment, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrInvalidAttachment
	}
	if _, err := s.vehicles.Authorize(ctx, userID, vehicleID); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dataDir, "upload-*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), body)
	if err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	relPath := filepath.Join(digest[:2], digest)
	fullPath := filepath.Join(s.dataDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return nil, err
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	att := &models.Attachment{
		VehicleID:   vehicleID,
		FileName:    filepath.Base(fileName),
		ContentType: contentType,
		SizeBytes:   size,
		SHA256:      digest,
		StoragePath: relPath,
	}
	if err := s.repo.Create(ctx, att); err != nil {
		return nil, err
	}

	s.logger.Info("attachment stored",
		zap.Int64("attachment_id", att.ID),
		zap.Int64("vehicle_id", vehicleID),
		zap.Int64("size_bytes", size))
	return att, nil
}

// List returns attachment metadata for an accessible vehicle.
func (s *AttachmentsService) List(ctx context.Context, userID, vehicleID int64) ([]models.Attachment, error) {
	if _, err := s.vehicles.Authorize(ctx, userID, vehicleID); err != nil {
		return nil, err
	}
	return s.repo.ListByVehicle(ctx, vehicleID)
}

// Open returns metadata and a reader over the stored bytes. The caller closes
// the reader.
func (s *AttachmentsService) Open(ctx context.Context, userID, attachmentID int64) (*models.Attachment, io.ReadCloser, error) {
	att, err := s.repo.GetByID(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.vehicles.Authorize(ctx, userID, att.VehicleID); err != nil {
		return nil, nil, err
	}

	file, err := os.Open(filepath.Join(s.dataDir, att.StoragePath))
	if err != nil {
		return nil, nil, fmt.Errorf("attachment %d: open bytes: %w", att.ID, err)
	}
	return att, file, nil
}

// Delete removes metadata and, when no other row references the same digest,
// the bytes as well.
func (s *AttachmentsService) Delete(ctx context.Context, userID, attachmentID int64) error {
	att, err := s.repo.GetByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	vehicle, err := s.vehicles.Authorize(ctx, userID, att.VehicleID)
	if err != nil {
		return err
	}
	if vehicle.OwnerID != userID {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, attachmentID); err != nil {
		return err
	}

	remaining, err := s.repo.CountBySHA256(ctx, att.SHA256)
	if err != nil {
		// Keep the bytes when in doubt; another row may still reference them.
		s.logger.Warn("failed to count digest references", zap.String("sha256", att.SHA256), zap.Error(err))
		return nil
	}
	if remaining > 0 {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dataDir, att.StoragePath)); err != nil && !os.IsNotExist(err) {
		// Metadata is already gone; orphaned bytes are reclaimed on the next
		// upload of the same digest.
		s.logger.Warn("failed to remove attachment bytes", zap.Int64("attachment_id", attachmentID), zap.Error(err))
	}
	return nil
}
