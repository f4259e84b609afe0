package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mygarage/internal/repository"
	"mygarage/internal/service"
)

func TestWriteServiceErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"vehicle not found", repository.ErrVehicleNotFound, http.StatusNotFound},
		{"attachment not found", repository.ErrAttachmentNotFound, http.StatusNotFound},
		{"transfer not pending", service.ErrTransferNotPending, http.StatusBadRequest},
		{"blank device id", service.ErrInvalidDeviceID, http.StatusBadRequest},
		{"blank tag serial", service.ErrInvalidTollTag, http.StatusBadRequest},
		{"wrapped sentinel", errors.Join(errors.New("creating tag"), service.ErrInvalidTollTag), http.StatusBadRequest},
		{"unknown", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tc.err)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}

func TestWriteServiceErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, errors.New("pq: password authentication failed"))

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "internal error" {
		t.Errorf("body error = %q, must not leak the cause", body["error"])
	}
}
