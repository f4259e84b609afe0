package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mygarage/internal/service"
)

// FamilyHandlers holds family sharing and transfer endpoints.
type FamilyHandlers struct {
	family    *service.FamilyService
	transfers *service.TransferService
	auth      *service.AuthService
	logger    *zap.Logger
}

// NewFamilyHandlers builds handler set.
func NewFamilyHandlers(family *service.FamilyService, transfers *service.TransferService, auth *service.AuthService, logger *zap.Logger) *FamilyHandlers {
	return &FamilyHandlers{
		family:    family,
		transfers: transfers,
		auth:      auth,
		logger:    logger,
	}
}

// HandleListMembers handles GET /api/family.
func (h *FamilyHandlers) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	members, err := h.family.ListMembers(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

// HandleAddMember handles POST /api/family.
func (h *FamilyHandlers) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	member, err := h.family.AddMember(r.Context(), userID, req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// HandleRemoveMember handles DELETE /api/family/{id}.
func (h *FamilyHandlers) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	membershipID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.family.RemoveMember(r.Context(), userID, membershipID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// HandleListTransfers handles GET /api/transfers.
func (h *FamilyHandlers) HandleListTransfers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	transfers, err := h.transfers.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transfers": transfers})
}

// HandleInitiateTransfer handles POST /api/transfers. The recipient is named
// by email so owners do not need to know internal user ids.
func (h *FamilyHandlers) HandleInitiateTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		VehicleID int64  `json:"vehicle_id"`
		ToEmail   string `json:"to_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.VehicleID == 0 || strings.TrimSpace(req.ToEmail) == "" {
		writeError(w, http.StatusBadRequest, "vehicle_id and to_email are required")
		return
	}

	recipient, err := h.auth.FindUserByEmail(r.Context(), req.ToEmail)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	transfer, err := h.transfers.Initiate(r.Context(), userID, req.VehicleID, recipient.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transfer)
}

// HandleAcceptTransfer handles POST /api/transfers/{id}/accept.
func (h *FamilyHandlers) HandleAcceptTransfer(w http.ResponseWriter, r *http.Request) {
	h.resolveTransfer(w, r, h.transfers.Accept, "accepted")
}

// HandleDeclineTransfer handles POST /api/transfers/{id}/decline.
func (h *FamilyHandlers) HandleDeclineTransfer(w http.ResponseWriter, r *http.Request) {
	h.resolveTransfer(w, r, h.transfers.Decline, "declined")
}

// HandleCancelTransfer handles POST /api/transfers/{id}/cancel.
func (h *FamilyHandlers) HandleCancelTransfer(w http.ResponseWriter, r *http.Request) {
	h.resolveTransfer(w, r, h.transfers.Cancel, "canceled")
}

func (h *FamilyHandlers) resolveTransfer(w http.ResponseWriter, r *http.Request, resolve func(ctx context.Context, userID, transferID int64) error, status string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	transferID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := resolve(r.Context(), userID, transferID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}
