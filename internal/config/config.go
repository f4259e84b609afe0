package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	platformconfig "mygarage/internal/platform/config"
)

// Config defines mygarage server configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"MYGARAGE_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"MYGARAGE_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"MYGARAGE_REDIS_ADDR"`
		Password string `yaml:"password" env:"MYGARAGE_REDIS_PASSWORD"`
		TTL      int    `yaml:"ttlSeconds" env:"MYGARAGE_SNAPSHOT_TTL"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret  string `yaml:"jwtSecret" env:"MYGARAGE_JWT_SECRET"`
		TokenTTL   int    `yaml:"tokenTTLSeconds" env:"MYGARAGE_TOKEN_TTL"`
		BcryptCost int    `yaml:"bcryptCost" env:"MYGARAGE_BCRYPT_COST"`
	} `yaml:"auth"`
	Storage struct {
		DataDir string `yaml:"dataDir" env:"MYGARAGE_DATA_DIR"`
	} `yaml:"storage"`
	RecallFeed struct {
		BaseURL  string `yaml:"baseUrl" env:"MYGARAGE_RECALL_FEED_URL"`
		CacheTTL int    `yaml:"cacheTTLSeconds" env:"MYGARAGE_RECALL_CACHE_TTL"`
	} `yaml:"recallFeed"`
	MQTT struct {
		Enabled  bool   `yaml:"enabled" env:"MYGARAGE_MQTT_ENABLED"`
		Broker   string `yaml:"broker" env:"MYGARAGE_MQTT_BROKER"`
		ClientID string `yaml:"clientId" env:"MYGARAGE_MQTT_CLIENT_ID"`
	} `yaml:"mqtt"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTL = 300
	cfg.Auth.TokenTTL = 86400
	cfg.Storage.DataDir = "./data"
	cfg.RecallFeed.BaseURL = "https://api.nhtsa.gov"
	cfg.RecallFeed.CacheTTL = 21600
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "mygarage-server"

	if err := platformconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// SnapshotTTL returns the live snapshot ttl as duration.
func (c *Config) SnapshotTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Redis.TTL) * time.Second
}

// TokenTTL returns the JWT lifetime as duration.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Auth.TokenTTL) * time.Second
}

// RecallCacheTTL returns the feed cache ttl as duration.
func (c *Config) RecallCacheTTL() time.Duration {
	if c.RecallFeed.CacheTTL <= 0 {
		return 6 * time.Hour
	}
	return time.Duration(c.RecallFeed.CacheTTL) * time.Second
}
