package livelink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"mygarage/internal/service"
)

const (
	readingsTopicFilter = "garage/livelink/+/readings"
	connectTimeout      = 10 * time.Second
)

// mqttEnvelope is the wire format agents publish. The device token rides in
// the payload so the same credential works on both ingest paths.
type mqttEnvelope struct {
	Token    string                 `json:"token"`
	Readings []service.ReadingInput `json:"readings"`
}

// MQTTIngest subscribes to the LiveLink readings topics and feeds batches
// into the telemetry service.
type MQTTIngest struct {
	broker    string
	clientID  string
	client    mqtt.Client
	telemetry *service.TelemetryService
	logger    *zap.Logger
}

// NewMQTTIngest builds the subscriber; call Start to connect.
func NewMQTTIngest(broker, clientID string, telemetry *service.TelemetryService, logger *zap.Logger) *MQTTIngest {
	return &MQTTIngest{
		broker:    broker,
		clientID:  clientID,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Start connects to the broker and subscribes. Reconnects and resubscribes
// are handled by paho through the OnConnect hook.
func (m *MQTTIngest) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(m.broker)
	opts.SetClientID(m.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		m.logger.Info("connected to mqtt broker", zap.String("broker", m.broker))
		token := client.Subscribe(readingsTopicFilter, 1, func(_ mqtt.Client, msg mqtt.Message) {
			m.handleMessage(ctx, msg)
		})
		token.Wait()
		if err := token.Error(); err != nil {
			m.logger.Error("mqtt subscribe failed", zap.Error(err))
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		m.logger.Warn("mqtt connection lost", zap.Error(err))
	})

	m.client = mqtt.NewClient(opts)
	token := m.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt: connect to %s timed out", m.broker)
	}
	return token.Error()
}

// Stop disconnects from the broker.
func (m *MQTTIngest) Stop() {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(250)
	}
}

func (m *MQTTIngest) handleMessage(ctx context.Context, msg mqtt.Message) {
	deviceID, ok := deviceIDFromTopic(msg.Topic())
	if !ok {
		m.logger.Warn("unexpected mqtt topic", zap.String("topic", msg.Topic()))
		return
	}

	var envelope mqttEnvelope
	if err := json.Unmarshal(msg.Payload(), &envelope); err != nil {
		m.logger.Warn("malformed mqtt payload", zap.String("device_id", deviceID), zap.Error(err))
		return
	}

	device, err := m.telemetry.AuthenticateDevice(ctx, deviceID, envelope.Token)
	if err != nil {
		m.logger.Warn("mqtt device rejected", zap.String("device_id", deviceID), zap.Error(err))
		return
	}

	if err := m.telemetry.Ingest(ctx, device.VehicleID, envelope.Readings); err != nil {
		m.logger.Error("mqtt ingest failed",
			zap.String("device_id", deviceID),
			zap.Int64("vehicle_id", device.VehicleID),
			zap.Error(err))
	}
}

// deviceIDFromTopic extracts the device segment of garage/livelink/<id>/readings.
func deviceIDFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "garage" || parts[1] != "livelink" || parts[3] != "readings" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
