package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"mygarage/internal/models"
)

type fakeTransferStore struct {
	transfers map[int64]*models.Transfer
	nextID    int64
}

func newFakeTransferStore() *fakeTransferStore {
	return &fakeTransferStore{transfers: make(map[int64]*models.Transfer), nextID: 1}
}

func (f *fakeTransferStore) Create(_ context.Context, transfer *models.Transfer) error {
	transfer.ID = f.nextID
	f.nextID++
	transfer.CreatedAt = time.Now().UTC()
	stored := *transfer
	f.transfers[transfer.ID] = &stored
	return nil
}

func (f *fakeTransferStore) GetByID(_ context.Context, id int64) (*models.Transfer, error) {
	transfer, ok := f.transfers[id]
	if !ok {
		return nil, errors.New("transfer not found")
	}
	copied := *transfer
	return &copied, nil
}

func (f *fakeTransferStore) ListByUser(_ context.Context, userID int64) ([]models.Transfer, error) {
	var result []models.Transfer
	for _, transfer := range f.transfers {
		if transfer.FromUserID == userID || transfer.ToUserID == userID {
			result = append(result, *transfer)
		}
	}
	return result, nil
}

func (f *fakeTransferStore) UpdateStatus(_ context.Context, id int64, fromStatus, toStatus string, resolvedAt time.Time) error {
	transfer, ok := f.transfers[id]
	if !ok {
		return errors.New("transfer not found")
	}
	if transfer.Status != fromStatus {
		return errors.New("status moved underneath us")
	}
	transfer.Status = toStatus
	transfer.ResolvedAt = resolvedAt
	return nil
}

type fakeTransferVehicles struct {
	vehicles    map[int64]*models.Vehicle
	transfers   []struct{ vehicleID, newOwnerID int64 }
	transferErr error
}

func newFakeTransferVehicles(vehicles ...*models.Vehicle) *fakeTransferVehicles {
	store := &fakeTransferVehicles{vehicles: make(map[int64]*models.Vehicle)}
	for _, v := range vehicles {
		store.vehicles[v.ID] = v
	}
	return store
}

func (f *fakeTransferVehicles) GetByID(_ context.Context, id int64) (*models.Vehicle, error) {
	vehicle, ok := f.vehicles[id]
	if !ok {
		return nil, errors.New("vehicle not found")
	}
	return vehicle, nil
}

func (f *fakeTransferVehicles) TransferOwnership(_ context.Context, vehicleID, newOwnerID int64) error {
	if f.transferErr != nil {
		return f.transferErr
	}
	vehicle, ok := f.vehicles[vehicleID]
	if !ok {
		return errors.New("vehicle not found")
	}
	vehicle.OwnerID = newOwnerID
	f.transfers = append(f.transfers, struct{ vehicleID, newOwnerID int64 }{vehicleID, newOwnerID})
	return nil
}

func newTransferFixture(t *testing.T) (*TransferService, *fakeTransferStore, *fakeTransferVehicles) {
	t.Helper()
	transfers := newFakeTransferStore()
	vehicles := newFakeTransferVehicles(&models.Vehicle{ID: 10, OwnerID: 1})
	svc := NewTransferService(transfers, vehicles, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) }
	return svc, transfers, vehicles
}

func TestTransferInitiate(t *testing.T) {
	svc, transfers, _ := newTransferFixture(t)

	transfer, err := svc.Initiate(context.Background(), 1, 10, 2)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if transfer.Status != models.TransferStatusPending {
		t.Errorf("status = %q, want pending", transfer.Status)
	}

	stored, err := transfers.GetByID(context.Background(), transfer.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.FromUserID != 1 || stored.ToUserID != 2 || stored.VehicleID != 10 {
		t.Errorf("unexpected stored transfer %+v", stored)
	}
}

func TestTransferInitiateRejectsNonOwner(t *testing.T) {
	svc, _, _ := newTransferFixture(t)

	if _, err := svc.Initiate(context.Background(), 99, 10, 2); !errors.Is(err, ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestTransferInitiateRejectsSelf(t *testing.T) {
	svc, _, _ := newTransferFixture(t)

	if _, err := svc.Initiate(context.Background(), 1, 10, 1); !errors.Is(err, ErrTransferToSelf) {
		t.Fatalf("error = %v, want ErrTransferToSelf", err)
	}
}

func TestTransferAcceptMovesOwnership(t *testing.T) {
	svc, transfers, vehicles := newTransferFixture(t)

	transfer, err := svc.Initiate(context.Background(), 1, 10, 2)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	if err := svc.Accept(context.Background(), 2, transfer.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	stored, _ := transfers.GetByID(context.Background(), transfer.ID)
	if stored.Status != models.TransferStatusAccepted {
		t.Errorf("status = %q, want accepted", stored.Status)
	}
	if stored.ResolvedAt.IsZero() {
		t.Error("resolved at not set")
	}
	if vehicles.vehicles[10].OwnerID != 2 {
		t.Errorf("vehicle owner = %d, want 2", vehicles.vehicles[10].OwnerID)
	}
}

func TestTransferAcceptStaysPendingWhenOwnershipFails(t *testing.T) {
	svc, transfers, vehicles := newTransferFixture(t)

	transfer, err := svc.Initiate(context.Background(), 1, 10, 2)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	vehicles.transferErr = errors.New("vehicles table unavailable")
	if err := svc.Accept(context.Background(), 2, transfer.ID); err == nil {
		t.Fatal("Accept succeeded despite ownership write failure")
	}

	stored, _ := transfers.GetByID(context.Background(), transfer.ID)
	if stored.Status != models.TransferStatusPending {
		t.Errorf("status = %q, want still pending after failed accept", stored.Status)
	}
	if vehicles.vehicles[10].OwnerID != 1 {
		t.Errorf("vehicle owner = %d, want unchanged 1", vehicles.vehicles[10].OwnerID)
	}

	// Once the store recovers the same accept goes through.
	vehicles.transferErr = nil
	if err := svc.Accept(context.Background(), 2, transfer.ID); err != nil {
		t.Fatalf("retried Accept: %v", err)
	}
	stored, _ = transfers.GetByID(context.Background(), transfer.ID)
	if stored.Status != models.TransferStatusAccepted {
		t.Errorf("status = %q, want accepted", stored.Status)
	}
	if vehicles.vehicles[10].OwnerID != 2 {
		t.Errorf("vehicle owner = %d, want 2", vehicles.vehicles[10].OwnerID)
	}
}

func TestTransferAcceptOnlyByRecipient(t *testing.T) {
	svc, _, vehicles := newTransferFixture(t)

	transfer, err := svc.Initiate(context.Background(), 1, 10, 2)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	if err := svc.Accept(context.Background(), 1, transfer.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
	if len(vehicles.transfers) != 0 {
		t.Error("ownership must not move on forbidden accept")
	}
}

func TestTransferSettledTransfersStayPut(t *testing.T) {
	tests := []struct {
		name    string
		settle  func(svc *TransferService, userID, transferID int64) error
		settler int64
	}{
		{"declined", func(svc *TransferService, userID, transferID int64) error {
			return svc.Decline(context.Background(), userID, transferID)
		}, 2},
		{"canceled", func(svc *TransferService, userID, transferID int64) error {
			return svc.Cancel(context.Background(), userID, transferID)
		}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, vehicles := newTransferFixture(t)
			transfer, err := svc.Initiate(context.Background(), 1, 10, 2)
			if err != nil {
				t.Fatalf("Initiate: %v", err)
			}

			if err := tc.settle(svc, tc.settler, transfer.ID); err != nil {
				t.Fatalf("settle: %v", err)
			}

			// Every further transition is rejected.
			if err := svc.Accept(context.Background(), 2, transfer.ID); !errors.Is(err, ErrTransferNotPending) {
				t.Errorf("Accept after settle: %v, want ErrTransferNotPending", err)
			}
			if err := svc.Decline(context.Background(), 2, transfer.ID); !errors.Is(err, ErrTransferNotPending) {
				t.Errorf("Decline after settle: %v, want ErrTransferNotPending", err)
			}
			if err := svc.Cancel(context.Background(), 1, transfer.ID); !errors.Is(err, ErrTransferNotPending) {
				t.Errorf("Cancel after settle: %v, want ErrTransferNotPending", err)
			}
			if vehicles.vehicles[10].OwnerID != 1 {
				t.Errorf("vehicle owner = %d, want unchanged 1", vehicles.vehicles[10].OwnerID)
			}
		})
	}
}

func TestTransferCancelOnlyByInitiator(t *testing.T) {
	svc, _, _ := newTransferFixture(t)

	transfer, err := svc.Initiate(context.Background(), 1, 10, 2)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	if err := svc.Cancel(context.Background(), 2, transfer.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestTransferList(t *testing.T) {
	svc, _, _ := newTransferFixture(t)

	if _, err := svc.Initiate(context.Background(), 1, 10, 2); err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	for _, userID := range []int64{1, 2} {
		transfers, err := svc.List(context.Background(), userID)
		if err != nil {
			t.Fatalf("List(%d): %v", userID, err)
		}
		if len(transfers) != 1 {
			t.Errorf("List(%d) = %d transfers, want 1", userID, len(transfers))
		}
	}

	transfers, err := svc.List(context.Background(), 3)
	if err != nil {
		t.Fatalf("List(3): %v", err)
	}
	if len(transfers) != 0 {
		t.Errorf("List(3) = %d transfers, want 0", len(transfers))
	}
}
