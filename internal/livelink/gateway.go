package livelink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mygarage/internal/service"
)

const defaultWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Devices connect directly, not from browsers.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// readingBatch is the wire format devices send.
type readingBatch struct {
	Readings []service.ReadingInput `json:"readings"`
}

// Gateway upgrades device connections and feeds their readings into the
// telemetry service.
type Gateway struct {
	telemetry *service.TelemetryService
	manager   *Manager
	logger    *zap.Logger
}

// NewGateway builds gateway.
func NewGateway(telemetry *service.TelemetryService, manager *Manager, logger *zap.Logger) *Gateway {
	return &Gateway{
		telemetry: telemetry,
		manager:   manager,
		logger:    logger,
	}
}

// Process implements ReadingSink: decode a batch and hand it to the service.
func (g *Gateway) Process(ctx context.Context, vehicleID int64, raw []byte) error {
	var batch readingBatch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return err
	}
	if len(batch.Readings) == 0 {
		return errors.New("livelink: empty reading batch")
	}
	return g.telemetry.Ingest(ctx, vehicleID, batch.Readings)
}

// HandleWS handles GET /livelink/ws?device_id=...&token=...
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	token := r.URL.Query().Get("token")
	if deviceID == "" || token == "" {
		http.Error(w, "device_id and token are required", http.StatusBadRequest)
		return
	}

	device, err := g.telemetry.AuthenticateDevice(r.Context(), deviceID, token)
	if err != nil {
		if errors.Is(err, service.ErrDeviceAuthFailed) {
			http.Error(w, "device authentication failed", http.StatusUnauthorized)
			return
		}
		g.logger.Error("device lookup failed", zap.String("device_id", deviceID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.String("device_id", deviceID), zap.Error(err))
		return
	}

	conn := NewConnection(device.DeviceID, device.VehicleID, ws, g, defaultWriteTimeout, g.logger, g.manager.Remove)
	g.manager.Add(conn)
	g.logger.Info("livelink device connected",
		zap.String("device_id", device.DeviceID),
		zap.Int64("vehicle_id", device.VehicleID))

	// Run the pumps on the request goroutine; it lives until the device
	// disconnects or the server shuts down.
	conn.Start(r.Context())
}
