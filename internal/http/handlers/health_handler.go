package handlers

import (
	"net/http"
)

// DeviceCounter reports the number of live device connections.
type DeviceCounter interface {
	Count() int
}

// NewHealthHandler returns GET /health handler.
func NewHealthHandler(devices DeviceCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]interface{}{"status": "ok"}
		if devices != nil {
			payload["livelink_devices"] = devices.Count()
		}
		writeJSON(w, http.StatusOK, payload)
	}
}
