package handlers

import (
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"mygarage/internal/service"
)

const maxUploadBytes = 32 << 20 // 32 MiB

// AttachmentsHandlers holds attachment endpoints.
type AttachmentsHandlers struct {
	attachments *service.AttachmentsService
	logger      *zap.Logger
}

// NewAttachmentsHandlers builds handler set.
func NewAttachmentsHandlers(attachments *service.AttachmentsService, logger *zap.Logger) *AttachmentsHandlers {
	return &AttachmentsHandlers{attachments: attachments, logger: logger}
}

// HandleUpload handles POST /api/vehicles/{id}/attachments (multipart form,
// field "file").
func (h *AttachmentsHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	att, err := h.attachments.Upload(r.Context(), userID, vehicleID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.logger.Error("attachment upload failed", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, att)
}

// HandleList handles GET /api/vehicles/{id}/attachments.
func (h *AttachmentsHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	attachments, err := h.attachments.List(r.Context(), userID, vehicleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attachments": attachments})
}

// HandleDownload handles GET /api/attachments/{id}.
func (h *AttachmentsHandlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	attachmentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	att, reader, err := h.attachments.Open(r.Context(), userID, attachmentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(att.SizeBytes, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+att.FileName+`"`)
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("attachment download interrupted", zap.Int64("attachment_id", attachmentID), zap.Error(err))
	}
}

// HandleDelete handles DELETE /api/attachments/{id}.
func (h *AttachmentsHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	attachmentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.attachments.Delete(r.Context(), userID, attachmentID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
