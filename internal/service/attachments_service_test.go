package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"mygarage/internal/models"
)

type fakeAttachmentStore struct {
	attachments map[int64]*models.Attachment
	nextID      int64
}

func newFakeAttachmentStore() *fakeAttachmentStore {
	return &fakeAttachmentStore{attachments: make(map[int64]*models.Attachment), nextID: 1}
}

func (f *fakeAttachmentStore) Create(_ context.Context, att *models.Attachment) error {
	att.ID = f.nextID
	f.nextID++
	att.CreatedAt = time.Now().UTC()
	stored := *att
	f.attachments[att.ID] = &stored
	return nil
}

func (f *fakeAttachmentStore) GetByID(_ context.Context, id int64) (*models.Attachment, error) {
	att, ok := f.attachments[id]
	if !ok {
		return nil, errors.New("attachment not found")
	}
	copied := *att
	return &copied, nil
}

func (f *fakeAttachmentStore) ListByVehicle(_ context.Context, vehicleID int64) ([]models.Attachment, error) {
	var result []models.Attachment
	for _, att := range f.attachments {
		if att.VehicleID == vehicleID {
			result = append(result, *att)
		}
	}
	return result, nil
}

func (f *fakeAttachmentStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.attachments[id]; !ok {
		return errors.New("attachment not found")
	}
	delete(f.attachments, id)
	return nil
}

func (f *fakeAttachmentStore) CountBySHA256(_ context.Context, digest string) (int64, error) {
	var count int64
	for _, att := range f.attachments {
		if att.SHA256 == digest {
			count++
		}
	}
	return count, nil
}

type fakeVehicleAuthorizer struct {
	vehicles map[int64]*models.Vehicle
}

func (f *fakeVehicleAuthorizer) Authorize(_ context.Context, userID, vehicleID int64) (*models.Vehicle, error) {
	vehicle, ok := f.vehicles[vehicleID]
	if !ok {
		return nil, ErrForbidden
	}
	return vehicle, nil
}

func newAttachmentFixture(t *testing.T) (*AttachmentsService, *fakeAttachmentStore, string) {
	t.Helper()
	dataDir := t.TempDir()
	store := newFakeAttachmentStore()
	vehicles := &fakeVehicleAuthorizer{vehicles: map[int64]*models.Vehicle{
		10: {ID: 10, OwnerID: 1},
	}}
	return NewAttachmentsService(store, vehicles, dataDir, zap.NewNop()), store, dataDir
}

func TestAttachmentUploadStoresByDigest(t *testing.T) {
	svc, _, dataDir := newAttachmentFixture(t)

	att, err := svc.Upload(context.Background(), 1, 10, "invoice.pdf", "application/pdf", strings.NewReader("service record"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if att.SizeBytes != int64(len("service record")) {
		t.Errorf("size = %d, want %d", att.SizeBytes, len("service record"))
	}
	if att.StoragePath != filepath.Join(att.SHA256[:2], att.SHA256) {
		t.Errorf("storage path = %q, want digest-derived", att.StoragePath)
	}

	data, err := os.ReadFile(filepath.Join(dataDir, att.StoragePath))
	if err != nil {
		t.Fatalf("read stored bytes: %v", err)
	}
	if string(data) != "service record" {
		t.Errorf("stored bytes = %q", data)
	}
}

func TestAttachmentUploadRequiresFileName(t *testing.T) {
	svc, _, _ := newAttachmentFixture(t)

	if _, err := svc.Upload(context.Background(), 1, 10, "  ", "", strings.NewReader("x")); !errors.Is(err, ErrInvalidAttachment) {
		t.Fatalf("error = %v, want ErrInvalidAttachment", err)
	}
}

func TestAttachmentDeleteKeepsSharedBytes(t *testing.T) {
	svc, _, dataDir := newAttachmentFixture(t)

	// Two rows, identical content, one file on disk.
	first, err := svc.Upload(context.Background(), 1, 10, "front.jpg", "image/jpeg", strings.NewReader("same bytes"))
	if err != nil {
		t.Fatalf("Upload first: %v", err)
	}
	second, err := svc.Upload(context.Background(), 1, 10, "copy.jpg", "image/jpeg", strings.NewReader("same bytes"))
	if err != nil {
		t.Fatalf("Upload second: %v", err)
	}
	if first.StoragePath != second.StoragePath {
		t.Fatalf("storage paths differ: %q vs %q", first.StoragePath, second.StoragePath)
	}

	if err := svc.Delete(context.Background(), 1, first.ID); err != nil {
		t.Fatalf("Delete first: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, second.StoragePath)); err != nil {
		t.Fatalf("shared bytes gone after deleting one of two rows: %v", err)
	}

	att, reader, err := svc.Open(context.Background(), 1, second.ID)
	if err != nil {
		t.Fatalf("Open survivor: %v", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read survivor: %v", err)
	}
	if string(data) != "same bytes" {
		t.Errorf("survivor bytes = %q, attachment %d", data, att.ID)
	}

	// Deleting the last reference reclaims the file.
	if err := svc.Delete(context.Background(), 1, second.ID); err != nil {
		t.Fatalf("Delete second: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, second.StoragePath)); !os.IsNotExist(err) {
		t.Errorf("bytes still on disk after last reference removed, stat err = %v", err)
	}
}

func TestAttachmentDeleteOwnerOnly(t *testing.T) {
	svc, store, _ := newAttachmentFixture(t)

	att, err := svc.Upload(context.Background(), 1, 10, "photo.jpg", "image/jpeg", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.Delete(context.Background(), 2, att.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
	if _, err := store.GetByID(context.Background(), att.ID); err != nil {
		t.Error("metadata removed by non-owner delete")
	}
}
