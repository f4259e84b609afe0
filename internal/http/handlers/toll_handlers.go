package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mygarage/internal/service"
)

// TollHandlers holds toll tag and transaction endpoints.
type TollHandlers struct {
	tolls  *service.TollService
	logger *zap.Logger
}

// NewTollHandlers builds handler set.
func NewTollHandlers(tolls *service.TollService, logger *zap.Logger) *TollHandlers {
	return &TollHandlers{tolls: tolls, logger: logger}
}

// HandleListTags handles GET /api/tolltags.
func (h *TollHandlers) HandleListTags(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tags, err := h.tolls.ListTags(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"toll_tags": tags})
}

// HandleCreateTag handles POST /api/tolltags.
func (h *TollHandlers) HandleCreateTag(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		TagSerial string `json:"tag_serial"`
		Issuer    string `json:"issuer"`
		VehicleID int64  `json:"vehicle_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tag, err := h.tolls.CreateTag(r.Context(), userID, service.CreateTagInput{
		TagSerial: req.TagSerial,
		Issuer:    req.Issuer,
		VehicleID: req.VehicleID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// HandleAssignTag handles POST /api/tolltags/{id}/assign.
func (h *TollHandlers) HandleAssignTag(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tagID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		VehicleID int64 `json:"vehicle_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.tolls.AssignTag(r.Context(), userID, tagID, req.VehicleID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

// HandleImport handles POST /api/tolls/import.
func (h *TollHandlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Rows []service.ImportRow `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "rows are required")
		return
	}

	imported, err := h.tolls.ImportTransactions(r.Context(), userID, req.Rows)
	if err != nil {
		h.logger.Error("toll import failed", zap.Int("imported", imported), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
}

// HandleListTransactions handles GET /api/vehicles/{id}/tolls.
func (h *TollHandlers) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	from, to := parseTimeRange(r)
	txs, err := h.tolls.ListTransactions(r.Context(), userID, vehicleID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

// HandleMonthlySummary handles GET /api/vehicles/{id}/tolls/summary.
func (h *TollHandlers) HandleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	summary, err := h.tolls.MonthlySummary(r.Context(), userID, vehicleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"months": summary})
}

func parseTimeRange(r *http.Request) (time.Time, time.Time) {
	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			from = parsed
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			to = parsed
		}
	}
	return from, to
}
