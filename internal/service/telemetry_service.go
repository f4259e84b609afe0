package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"mygarage/internal/models"
	"mygarage/internal/redisstore"
	"mygarage/internal/repository"
	"mygarage/internal/units"
)

var (
	// ErrDeviceAuthFailed is returned for unknown devices or bad tokens.
	ErrDeviceAuthFailed = errors.New("service: device authentication failed")
	// ErrInvalidDeviceID rejects registrations without a device id.
	ErrInvalidDeviceID = errors.New("service: device id required")
)

// ReadingInput is one sample as sent by a LiveLink device, metric units.
type ReadingInput struct {
	Key        string    `json:"key"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"ts"`
}

// LiveValue is one snapshot parameter prepared for display: converted into
// the requested unit system, formatted, and labeled.
type LiveValue struct {
	Key         string    `json:"key"`
	DisplayName string    `json:"display_name"`
	Value       float64   `json:"value"`
	Unit        string    `json:"unit"`
	Formatted   string    `json:"formatted"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// HistoryPoint is one stored sample converted for display.
type HistoryPoint struct {
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TelemetryService ingests LiveLink readings (WebSocket and MQTT paths both
// land here) and serves the converted live/history views.
type TelemetryService struct {
	repo      *repository.LiveLinkRepository
	snapshots *redisstore.Store
	vehicles  *VehiclesService
	logger    *zap.Logger
}

// NewTelemetryService builds service.
func NewTelemetryService(repo *repository.LiveLinkRepository, snapshots *redisstore.Store, vehicles *VehiclesService, logger *zap.Logger) *TelemetryService {
	return &TelemetryService{
		repo:      repo,
		snapshots: snapshots,
		vehicles:  vehicles,
		logger:    logger,
	}
}

// RegisterDevice creates or rebinds a dongle for one of the user's vehicles
// and returns the device with its freshly issued token.
func (s *TelemetryService) RegisterDevice(ctx context.Context, userID, vehicleID int64, deviceID string) (*models.LiveLinkDevice, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, ErrInvalidDeviceID
	}
	vehicle, err := s.vehicles.Authorize(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.OwnerID != userID {
		return nil, ErrForbidden
	}

	token, err := newDeviceToken()
	if err != nil {
		return nil, err
	}
	device := &models.LiveLinkDevice{
		DeviceID:  deviceID,
		Token:     token,
		VehicleID: vehicleID,
	}
	if err := s.repo.RegisterDevice(ctx, device); err != nil {
		return nil, err
	}

	s.logger.Info("livelink device registered",
		zap.String("device_id", deviceID),
		zap.Int64("vehicle_id", vehicleID))
	return device, nil
}

// AuthenticateDevice resolves a device and checks its token.
func (s *TelemetryService) AuthenticateDevice(ctx context.Context, deviceID, token string) (*models.LiveLinkDevice, error) {
	device, err := s.repo.GetDevice(ctx, strings.TrimSpace(deviceID))
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return nil, ErrDeviceAuthFailed
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(device.Token), []byte(token)) != 1 {
		return nil, ErrDeviceAuthFailed
	}
	return device, nil
}

// Ingest persists a batch of readings and mirrors the latest value per
// parameter into the redis snapshot. Snapshot failures are logged, not
// surfaced: the durable write already succeeded.
func (s *TelemetryService) Ingest(ctx context.Context, vehicleID int64, readings []ReadingInput) error {
	for _, input := range readings {
		if strings.TrimSpace(input.Key) == "" {
			continue
		}
		recordedAt := input.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = time.Now().UTC()
		}

		reading := &models.TelemetryReading{
			VehicleID:  vehicleID,
			ParamKey:   input.Key,
			Value:      input.Value,
			Unit:       input.Unit,
			RecordedAt: recordedAt,
		}
		if err := s.repo.InsertReading(ctx, reading); err != nil {
			return err
		}

		if s.snapshots != nil {
			err := s.snapshots.Save(ctx, vehicleID, input.Key, redisstore.SnapshotEntry{
				Value:      input.Value,
				Unit:       input.Unit,
				RecordedAt: recordedAt,
			})
			if err != nil {
				s.logger.Warn("failed to update live snapshot",
					zap.Int64("vehicle_id", vehicleID),
					zap.String("param_key", input.Key),
					zap.Error(err))
			}
		}
	}
	return nil
}

// LiveSnapshot returns the latest value per parameter for an accessible
// vehicle, converted into the requested unit system.
func (s *TelemetryService) LiveSnapshot(ctx context.Context, userID, vehicleID int64, system units.System) ([]LiveValue, error) {
	if _, err := s.vehicles.Authorize(ctx, userID, vehicleID); err != nil {
		return nil, err
	}

	snapshot, err := s.snapshots.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return liveValues(snapshot, system), nil
}

// liveValues converts a snapshot hash into display values in stable key
// order; the hash itself iterates randomly.
func liveValues(snapshot map[string]redisstore.SnapshotEntry, system units.System) []LiveValue {
	values := make([]LiveValue, 0, len(snapshot))
	for key, entry := range snapshot {
		converted := units.Convert(entry.Value, key, entry.Unit, system)
		values = append(values, LiveValue{
			Key:         key,
			DisplayName: units.DisplayName(key, ""),
			Value:       converted.Value,
			Unit:        converted.Unit,
			Formatted:   units.FormatValue(converted.Value, key),
			RecordedAt:  entry.RecordedAt,
		})
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Key < values[j].Key })
	return values
}

// History returns stored samples for one parameter, converted for display.
func (s *TelemetryService) History(ctx context.Context, userID, vehicleID int64, paramKey string, since time.Time, limit int, system units.System) ([]HistoryPoint, error) {
	if _, err := s.vehicles.Authorize(ctx, userID, vehicleID); err != nil {
		return nil, err
	}
	if since.IsZero() {
		since = time.Now().UTC().Add(-24 * time.Hour)
	}

	readings, err := s.repo.ListReadings(ctx, vehicleID, paramKey, since, limit)
	if err != nil {
		return nil, err
	}

	points := make([]HistoryPoint, 0, len(readings))
	for _, reading := range readings {
		converted := units.Convert(reading.Value, reading.ParamKey, reading.Unit, system)
		points = append(points, HistoryPoint{
			Value:      converted.Value,
			Unit:       converted.Unit,
			RecordedAt: reading.RecordedAt,
		})
	}
	return points, nil
}

func newDeviceToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
