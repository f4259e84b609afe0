package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mygarage/internal/service"
	"mygarage/internal/units"
)

// LiveLinkHandlers holds telemetry read endpoints and device registration.
type LiveLinkHandlers struct {
	telemetry *service.TelemetryService
	auth      *service.AuthService
	logger    *zap.Logger
}

// NewLiveLinkHandlers builds handler set.
func NewLiveLinkHandlers(telemetry *service.TelemetryService, auth *service.AuthService, logger *zap.Logger) *LiveLinkHandlers {
	return &LiveLinkHandlers{telemetry: telemetry, auth: auth, logger: logger}
}

// HandleRegisterDevice handles POST /api/vehicles/{id}/livelink/devices.
func (h *LiveLinkHandlers) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		DeviceID string `json:"device_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	device, err := h.telemetry.RegisterDevice(r.Context(), userID, vehicleID, req.DeviceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// The token is returned exactly once, at registration.
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"device": device,
		"token":  device.Token,
	})
}

// HandleLive handles GET /api/vehicles/{id}/livelink/live.
// The unit system comes from the ?units= query parameter, falling back to the
// user's stored preference.
func (h *LiveLinkHandlers) HandleLive(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	system, err := h.unitSystem(r, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	values, err := h.telemetry.LiveSnapshot(r.Context(), userID, vehicleID, system)
	if err != nil {
		h.logger.Error("live snapshot failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"unit_system": system,
		"values":      values,
	})
}

// HandleHistory handles GET /api/vehicles/{id}/livelink/history?key=...
func (h *LiveLinkHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	paramKey := r.URL.Query().Get("key")
	if paramKey == "" {
		writeError(w, http.StatusBadRequest, "key query parameter is required")
		return
	}

	system, err := h.unitSystem(r, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		if parsed, parseErr := time.Parse(time.RFC3339, raw); parseErr == nil {
			since = parsed
		}
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	points, err := h.telemetry.History(r.Context(), userID, vehicleID, paramKey, since, limit, system)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":          paramKey,
		"display_name": units.DisplayName(paramKey, ""),
		"unit_system":  system,
		"points":       points,
	})
}

func (h *LiveLinkHandlers) unitSystem(r *http.Request, userID int64) (units.System, error) {
	if raw := r.URL.Query().Get("units"); raw != "" {
		return units.ParseSystem(raw), nil
	}
	user, err := h.auth.GetUser(r.Context(), userID)
	if err != nil {
		return units.SystemMetric, err
	}
	return units.ParseSystem(user.UnitSystem), nil
}
