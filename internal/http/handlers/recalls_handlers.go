package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"mygarage/internal/service"
)

// RecallsHandlers holds recall and TSB endpoints.
type RecallsHandlers struct {
	recalls *service.RecallsService
	logger  *zap.Logger
}

// NewRecallsHandlers builds handler set.
func NewRecallsHandlers(recalls *service.RecallsService, logger *zap.Logger) *RecallsHandlers {
	return &RecallsHandlers{recalls: recalls, logger: logger}
}

// HandleList handles GET /api/vehicles/{id}/recalls.
func (h *RecallsHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	recalls, err := h.recalls.ListRecalls(r.Context(), userID, vehicleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"recalls": recalls})
}

// HandleListTSBs handles GET /api/vehicles/{id}/tsbs.
func (h *RecallsHandlers) HandleListTSBs(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	tsbs, err := h.recalls.ListTSBs(r.Context(), userID, vehicleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tsbs": tsbs})
}

// HandleSync handles POST /api/vehicles/{id}/recalls/sync.
func (h *RecallsHandlers) HandleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.recalls.Sync(r.Context(), userID, vehicleID)
	if err != nil {
		h.logger.Error("recall sync failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleAcknowledge handles POST /api/recalls/{id}/ack.
func (h *RecallsHandlers) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	recallID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.recalls.Acknowledge(r.Context(), userID, recallID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}
