package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Primary backend and local snapshot. An empty DatabaseURL serves from
	// the snapshot alone; an empty SnapshotPath disables snapshots.
	DatabaseURL  string
	SnapshotPath string

	// Change feed configuration.
	KafkaEnabled            bool
	KafkaBrokers            []string
	KafkaChangesTopic       string
	KafkaNotificationsTopic string
	KafkaGroupID            string

	BatchSize          int
	BatchFlushInterval time.Duration

	// Mapbox geocoding configuration.
	MapboxToken       string
	MapboxEnabled     bool
	MapboxTimeout     time.Duration
	MapboxCacheSize   int
	MapboxLanguage    string
	MapboxResultLimit int

	// Search behavior.
	ServiceArea    domain.BoundingBox
	FallbackOrigin domain.Coordinates
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	resultLimit, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAPBOX_RESULT_LIMIT", "5"))
	if err != nil || resultLimit < 1 || resultLimit > 10 {
		return nil, errors.New("invalid MAPBOX_RESULT_LIMIT: must be between 1 and 10")
	}

	area, err := parseBoundingBox(sharedcfg.EnvOrDefault("SERVICE_AREA_BBOX", "-35.05,-8.25,-34.80,-7.90"))
	if err != nil {
		return nil, err
	}

	origin, err := parseCoordinates(sharedcfg.EnvOrDefault("FALLBACK_ORIGIN", "-8.0578,-34.8829"))
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SnapshotPath: snapshotPath(),

		KafkaEnabled:            sharedcfg.EnvOrDefault("KAFKA_ENABLED", "true") == "true",
		KafkaBrokers:            sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaChangesTopic:       sharedcfg.EnvOrDefault("KAFKA_CHANGES_TOPIC", "beach-changes"),
		KafkaNotificationsTopic: sharedcfg.EnvOrDefault("KAFKA_NOTIFICATIONS_TOPIC", "beach-status-notifications"),
		KafkaGroupID:            sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "beach-safety-search"),
		BatchSize:               batchSize,
		BatchFlushInterval:      flushInterval,

		MapboxToken:       mapboxToken,
		MapboxEnabled:     mapboxEnabled,
		MapboxTimeout:     mapboxTimeout,
		MapboxCacheSize:   parseMapboxCacheSize(),
		MapboxLanguage:    sharedcfg.EnvOrDefault("MAPBOX_LANGUAGE", "pt"),
		MapboxResultLimit: resultLimit,

		ServiceArea:    area,
		FallbackOrigin: origin,
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaChangesTopic == "" {
			return nil, errors.New("KAFKA_CHANGES_TOPIC is required")
		}
		if cfg.KafkaNotificationsTopic == "" {
			return nil, errors.New("KAFKA_NOTIFICATIONS_TOPIC is required")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.DatabaseURL == "" && cfg.SnapshotPath == "" {
		return nil, errors.New("one of DATABASE_URL or SNAPSHOT_PATH is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// snapshotPath distinguishes an unset SNAPSHOT_PATH (use the default) from
// an explicitly empty one (snapshots disabled).
func snapshotPath() string {
	if v, ok := os.LookupEnv("SNAPSHOT_PATH"); ok {
		return v
	}
	return "beaches-snapshot.db"
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

// parseBoundingBox reads "minLng,minLat,maxLng,maxLat", the order Mapbox uses
// for its bbox parameter.
func parseBoundingBox(s string) (domain.BoundingBox, error) {
	vals, err := parseFloats(s, 4)
	if err != nil {
		return domain.BoundingBox{}, fmt.Errorf("invalid SERVICE_AREA_BBOX: %w", err)
	}
	box := domain.BoundingBox{MinLng: vals[0], MinLat: vals[1], MaxLng: vals[2], MaxLat: vals[3]}
	if box.MinLng >= box.MaxLng || box.MinLat >= box.MaxLat {
		return domain.BoundingBox{}, errors.New("invalid SERVICE_AREA_BBOX: min must be less than max")
	}
	if !validLat(box.MinLat) || !validLat(box.MaxLat) || !validLng(box.MinLng) || !validLng(box.MaxLng) {
		return domain.BoundingBox{}, errors.New("invalid SERVICE_AREA_BBOX: out of range")
	}
	return box, nil
}

// parseCoordinates reads "lat,lng".
func parseCoordinates(s string) (domain.Coordinates, error) {
	vals, err := parseFloats(s, 2)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("invalid FALLBACK_ORIGIN: %w", err)
	}
	if !validLat(vals[0]) || !validLng(vals[1]) {
		return domain.Coordinates{}, errors.New("invalid FALLBACK_ORIGIN: out of range")
	}
	return domain.Coordinates{Lat: vals[0], Lng: vals[1]}, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated values, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func validLat(v float64) bool { return v >= -90 && v <= 90 }
func validLng(v float64) bool { return v >= -180 && v <= 180 }
