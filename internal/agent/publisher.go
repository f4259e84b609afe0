package agent

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"mygarage/internal/obd"
)

const publishTimeout = 10 * time.Second

// envelope mirrors the server's ingest wire format: the device token rides in
// the payload.
type envelope struct {
	Token    string        `json:"token"`
	Readings []obd.Reading `json:"readings"`
}

// Publisher ships reading batches to the LiveLink readings topic.
type Publisher struct {
	client mqtt.Client
	topic  string
	token  string
	logger *zap.Logger
}

// NewPublisher builds the MQTT publisher for one device; call Connect before
// publishing.
func NewPublisher(broker, deviceID, token string, logger *zap.Logger) *Publisher {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(fmt.Sprintf("livelink-agent-%s", deviceID))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(publishTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("connected to mqtt broker", zap.String("broker", broker))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	return &Publisher{
		client: mqtt.NewClient(opts),
		topic:  fmt.Sprintf("garage/livelink/%s/readings", deviceID),
		token:  token,
		logger: logger,
	}
}

// Connect starts the connection attempt. With retry enabled paho keeps
// dialing in the background, so a broker that is down at startup is not
// fatal.
func (p *Publisher) Connect() error {
	token := p.client.Connect()
	token.WaitTimeout(publishTimeout)
	return token.Error()
}

// Connected reports whether the broker link is up.
func (p *Publisher) Connected() bool {
	return p.client.IsConnectionOpen()
}

// Publish ships one batch at QoS 1 and waits for the ack.
func (p *Publisher) Publish(batch []obd.Reading) error {
	payload, err := json.Marshal(envelope{Token: p.token, Readings: batch})
	if err != nil {
		return fmt.Errorf("publisher: marshal batch: %w", err)
	}

	token := p.client.Publish(p.topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publisher: publish to %s timed out", p.topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
