package agent

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	platformconfig "mygarage/internal/platform/config"
)

// Config defines livelink-agent configuration.
type Config struct {
	Serial struct {
		Device string `yaml:"device" env:"LIVELINK_SERIAL_DEVICE"`
		Baud   int    `yaml:"baud" env:"LIVELINK_SERIAL_BAUD"`
	} `yaml:"serial"`
	MQTT struct {
		Broker string `yaml:"broker" env:"LIVELINK_MQTT_BROKER"`
	} `yaml:"mqtt"`
	Device struct {
		ID    string `yaml:"id" env:"LIVELINK_DEVICE_ID"`
		Token string `yaml:"token" env:"LIVELINK_DEVICE_TOKEN"`
	} `yaml:"device"`
	SpoolPath string        `yaml:"spoolPath" env:"LIVELINK_SPOOL_PATH"`
	Poll      time.Duration `yaml:"poll" env:"LIVELINK_POLL"`
	PIDs      string        `yaml:"pids" env:"LIVELINK_PIDS"`
}

// LoadConfig reads agent configuration via the shared helper.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.Serial.Device = "/dev/ttyUSB0"
	cfg.Serial.Baud = 38400
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.SpoolPath = "./livelink-spool.db"
	cfg.Poll = 5 * time.Second

	if err := platformconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Device.ID) == "" {
		return nil, errors.New("config: device id required")
	}
	if strings.TrimSpace(cfg.Device.Token) == "" {
		return nil, errors.New("config: device token required")
	}
	return cfg, nil
}

// PollInterval returns the poll period, clamped to a sane floor.
func (c *Config) PollInterval() time.Duration {
	if c.Poll < time.Second {
		return 5 * time.Second
	}
	return c.Poll
}

// PollSet parses the comma-separated hex PID list, e.g. "0C,0D,05".
// An empty list means the default rotation.
func (c *Config) PollSet() ([]byte, error) {
	raw := strings.TrimSpace(c.PIDs)
	if raw == "" {
		return nil, nil
	}

	var pids []byte
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		decoded, err := hex.DecodeString(part)
		if err != nil || len(decoded) != 1 {
			return nil, fmt.Errorf("config: bad pid %q", part)
		}
		pids = append(pids, decoded[0])
	}
	return pids, nil
}
