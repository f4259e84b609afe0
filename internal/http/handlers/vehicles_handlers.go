package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"mygarage/internal/service"
)

// VehiclesHandlers holds vehicle CRUD endpoints.
type VehiclesHandlers struct {
	vehicles *service.VehiclesService
	logger   *zap.Logger
}

// NewVehiclesHandlers builds handler set.
func NewVehiclesHandlers(vehicles *service.VehiclesService, logger *zap.Logger) *VehiclesHandlers {
	return &VehiclesHandlers{vehicles: vehicles, logger: logger}
}

// HandleList handles GET /api/vehicles.
func (h *VehiclesHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicles, err := h.vehicles.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("list vehicles failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vehicles": vehicles})
}

// HandleCreate handles POST /api/vehicles.
func (h *VehiclesHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		VIN          string  `json:"vin"`
		Nickname     string  `json:"nickname"`
		Make         string  `json:"make"`
		Model        string  `json:"model"`
		Year         int     `json:"year"`
		LicensePlate string  `json:"license_plate"`
		OdometerKm   float64 `json:"odometer_km"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	vehicle, err := h.vehicles.Create(r.Context(), userID, service.CreateVehicleInput{
		VIN:          req.VIN,
		Nickname:     req.Nickname,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		LicensePlate: req.LicensePlate,
		OdometerKm:   req.OdometerKm,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

// HandleGet handles GET /api/vehicles/{id}.
func (h *VehiclesHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	vehicle, err := h.vehicles.Get(r.Context(), userID, vehicleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// HandleUpdate handles PUT /api/vehicles/{id}.
func (h *VehiclesHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Nickname     string  `json:"nickname"`
		LicensePlate string  `json:"license_plate"`
		OdometerKm   float64 `json:"odometer_km"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	vehicle, err := h.vehicles.Update(r.Context(), userID, vehicleID, service.UpdateVehicleInput{
		Nickname:     req.Nickname,
		LicensePlate: req.LicensePlate,
		OdometerKm:   req.OdometerKm,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// HandleDelete handles DELETE /api/vehicles/{id}.
func (h *VehiclesHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.vehicles.Delete(r.Context(), userID, vehicleID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
