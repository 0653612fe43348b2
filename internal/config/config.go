package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataFile     string
	DataSheet    string
	BoundaryFile string

	MapCenterLat float64
	MapCenterLon float64
	MapZoom      int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Mapbox geocoding configuration for the map search box.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Report publishing; disabled when KafkaBrokers is empty.
	KafkaBrokers     []string
	KafkaReportTopic string
}

// PublishEnabled reports whether selection reports go to Kafka.
func (c *Config) PublishEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	lat, lon, err := parseMapCenter(sharedcfg.EnvOrDefault("MAP_CENTER", "34.052235,-118.243683"))
	if err != nil {
		return nil, err
	}

	zoom, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAP_ZOOM", "9"))
	if err != nil || zoom < 1 || zoom > 18 {
		return nil, errors.New("invalid MAP_ZOOM: must be an integer between 1 and 18")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		DataFile:     sharedcfg.EnvOrDefault("DATA_FILE", "data/2020_NEI_LACounty_Facilities.xlsx"),
		DataSheet:    os.Getenv("DATA_SHEET"),
		BoundaryFile: boundaryFile(),

		MapCenterLat: lat,
		MapCenterLon: lon,
		MapZoom:      zoom,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		KafkaBrokers:     brokers,
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "emissions-reports"),
	}

	if cfg.DataFile == "" {
		return nil, errors.New("DATA_FILE is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.PublishEnabled() && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// parseMapCenter parses "lat,lon" in decimal degrees.
func parseMapCenter(s string) (float64, float64, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid MAP_CENTER %q: want \"lat,lon\"", s)
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("invalid MAP_CENTER %q: want \"lat,lon\"", s)
	}
	return lat, lon, nil
}

// boundaryFile returns BOUNDARY_FILE, where an explicitly empty value
// disables the boundary layer.
func boundaryFile() string {
	if v, ok := os.LookupEnv("BOUNDARY_FILE"); ok {
		return strings.TrimSpace(v)
	}
	return "data/County_Boundary.geojson"
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
