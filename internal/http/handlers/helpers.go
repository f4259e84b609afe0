package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mygarage/internal/http/middleware"
	"mygarage/internal/repository"
	"mygarage/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps well-known service/repository sentinels onto HTTP
// statuses; everything else is a 500 with a generic message.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, repository.ErrVehicleNotFound),
		errors.Is(err, repository.ErrRecallNotFound),
		errors.Is(err, repository.ErrTollTagNotFound),
		errors.Is(err, repository.ErrAttachmentNotFound),
		errors.Is(err, repository.ErrTransferNotFound),
		errors.Is(err, repository.ErrFamilyMemberNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTransferNotPending),
		errors.Is(err, service.ErrTransferToSelf),
		errors.Is(err, service.ErrCannotShareWithSelf),
		errors.Is(err, service.ErrInvalidVehicle),
		errors.Is(err, service.ErrInvalidUnitSystem),
		errors.Is(err, service.ErrInvalidTollImport),
		errors.Is(err, service.ErrInvalidTollTag),
		errors.Is(err, service.ErrInvalidAttachment),
		errors.Is(err, service.ErrInvalidDeviceID):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// requireUser extracts the authenticated user id set by the auth middleware.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return 0, false
	}
	return userID, true
}

// pathID parses a numeric path parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
