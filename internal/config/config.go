// Package config reads the server configuration from the environment. A .env
// file in the working directory is loaded first when present; variables that
// are already set take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-rental/internal/rental"
)

// Snapshot backends.
const (
	BackendFile   = "file"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config is the complete server configuration.
type Config struct {
	Port string

	SnapshotBackend string
	SnapshotPath    string

	MongoURI        string
	MongoDB         string
	MongoCollection string

	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string

	LogLevel  string
	LogFormat string

	LateFeeMultiplier decimal.Decimal
	FuelPenalty       decimal.Decimal
	DamageFee         decimal.Decimal

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	defaults := rental.DefaultFeePolicy()
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		SnapshotBackend: strings.ToLower(getEnv("SNAPSHOT_BACKEND", BackendFile)),
		SnapshotPath:    getEnv("SNAPSHOT_PATH", "rental_db.json"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDB:         getEnv("MONGO_DB", "fleet_rental"),
		MongoCollection: getEnv("MONGO_COLLECTION", "snapshots"),
		MQTTBroker:      os.Getenv("MQTT_BROKER"),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "fleet-rental"),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "fleet/reservations"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.LateFeeMultiplier, err = getDecimal("LATE_FEE_MULTIPLIER", defaults.LateMultiplier); err != nil {
		return nil, err
	}
	if cfg.FuelPenalty, err = getDecimal("FUEL_PENALTY", defaults.FuelPenalty); err != nil {
		return nil, err
	}
	if cfg.DamageFee, err = getDecimal("DAMAGE_FEE", defaults.DamageFee); err != nil {
		return nil, err
	}
	if cfg.RateLimitRequests, err = getInt("RATE_LIMIT_REQUESTS", 100); err != nil {
		return nil, err
	}
	window, err := getInt("RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitWindow = time.Duration(window) * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be caught while parsing.
func (c *Config) Validate() error {
	switch c.SnapshotBackend {
	case BackendFile:
		if c.SnapshotPath == "" {
			return errors.New("SNAPSHOT_PATH is required for the file backend")
		}
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unknown SNAPSHOT_BACKEND %q", c.SnapshotBackend)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.LateFeeMultiplier.IsNegative() || c.FuelPenalty.IsNegative() || c.DamageFee.IsNegative() {
		return errors.New("fee settings must not be negative")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("rate limit settings must be positive")
	}
	return nil
}

// FeePolicy returns the billing constants as a rental.FeePolicy.
func (c *Config) FeePolicy() rental.FeePolicy {
	return rental.FeePolicy{
		LateMultiplier: c.LateFeeMultiplier,
		FuelPenalty:    c.FuelPenalty,
		DamageFee:      c.DamageFee,
	}
}

// ConfigureLogger applies the level and format to the standard logrus logger.
func (c *Config) ConfigureLogger() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDecimal(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
