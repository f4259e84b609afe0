package httpserver

import (
	"net/http"

	"mygarage/internal/http/handlers"
)

// Routes groups handler sets.
type Routes struct {
	Auth        *handlers.AuthHandlers
	Vehicles    *handlers.VehiclesHandlers
	Recalls     *handlers.RecallsHandlers
	Tolls       *handlers.TollHandlers
	Attachments *handlers.AttachmentsHandlers
	Family      *handlers.FamilyHandlers
	LiveLink    *handlers.LiveLinkHandlers
	LiveLinkWS  http.HandlerFunc
	Health      http.HandlerFunc
}

// NewRouter registers endpoints. Everything under /api/ sits behind the auth
// middleware; /auth/*, /health and the device WebSocket do not.
func NewRouter(routes Routes, auth func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health)
	}
	if routes.Auth != nil {
		mux.HandleFunc("POST /auth/signup", routes.Auth.HandleSignup)
		mux.HandleFunc("POST /auth/login", routes.Auth.HandleLogin)
	}
	if routes.LiveLinkWS != nil {
		mux.HandleFunc("GET /livelink/ws", routes.LiveLinkWS)
	}

	api := http.NewServeMux()
	if routes.Auth != nil {
		api.HandleFunc("GET /api/me/preferences", routes.Auth.HandleGetPreferences)
		api.HandleFunc("PUT /api/me/preferences", routes.Auth.HandleUpdatePreferences)
	}
	if routes.Vehicles != nil {
		api.HandleFunc("GET /api/vehicles", routes.Vehicles.HandleList)
		api.HandleFunc("POST /api/vehicles", routes.Vehicles.HandleCreate)
		api.HandleFunc("GET /api/vehicles/{id}", routes.Vehicles.HandleGet)
		api.HandleFunc("PUT /api/vehicles/{id}", routes.Vehicles.HandleUpdate)
		api.HandleFunc("DELETE /api/vehicles/{id}", routes.Vehicles.HandleDelete)
	}
	if routes.Recalls != nil {
		api.HandleFunc("GET /api/vehicles/{id}/recalls", routes.Recalls.HandleList)
		api.HandleFunc("POST /api/vehicles/{id}/recalls/sync", routes.Recalls.HandleSync)
		api.HandleFunc("GET /api/vehicles/{id}/tsbs", routes.Recalls.HandleListTSBs)
		api.HandleFunc("POST /api/recalls/{id}/ack", routes.Recalls.HandleAcknowledge)
	}
	if routes.Tolls != nil {
		api.HandleFunc("GET /api/tolltags", routes.Tolls.HandleListTags)
		api.HandleFunc("POST /api/tolltags", routes.Tolls.HandleCreateTag)
		api.HandleFunc("POST /api/tolltags/{id}/assign", routes.Tolls.HandleAssignTag)
		api.HandleFunc("POST /api/tolls/import", routes.Tolls.HandleImport)
		api.HandleFunc("GET /api/vehicles/{id}/tolls", routes.Tolls.HandleListTransactions)
		api.HandleFunc("GET /api/vehicles/{id}/tolls/summary", routes.Tolls.HandleMonthlySummary)
	}
	if routes.Attachments != nil {
		api.HandleFunc("GET /api/vehicles/{id}/attachments", routes.Attachments.HandleList)
		api.HandleFunc("POST /api/vehicles/{id}/attachments", routes.Attachments.HandleUpload)
		api.HandleFunc("GET /api/attachments/{id}", routes.Attachments.HandleDownload)
		api.HandleFunc("DELETE /api/attachments/{id}", routes.Attachments.HandleDelete)
	}
	if routes.Family != nil {
		api.HandleFunc("GET /api/family", routes.Family.HandleListMembers)
		api.HandleFunc("POST /api/family", routes.Family.HandleAddMember)
		api.HandleFunc("DELETE /api/family/{id}", routes.Family.HandleRemoveMember)
		api.HandleFunc("GET /api/transfers", routes.Family.HandleListTransfers)
		api.HandleFunc("POST /api/transfers", routes.Family.HandleInitiateTransfer)
		api.HandleFunc("POST /api/transfers/{id}/accept", routes.Family.HandleAcceptTransfer)
		api.HandleFunc("POST /api/transfers/{id}/decline", routes.Family.HandleDeclineTransfer)
		api.HandleFunc("POST /api/transfers/{id}/cancel", routes.Family.HandleCancelTransfer)
	}
	if routes.LiveLink != nil {
		api.HandleFunc("POST /api/vehicles/{id}/livelink/devices", routes.LiveLink.HandleRegisterDevice)
		api.HandleFunc("GET /api/vehicles/{id}/livelink/live", routes.LiveLink.HandleLive)
		api.HandleFunc("GET /api/vehicles/{id}/livelink/history", routes.LiveLink.HandleHistory)
	}

	mux.Handle("/api/", auth(api))
	return mux
}
