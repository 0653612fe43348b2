package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/2020_NEI_LACounty_Facilities.xlsx", cfg.DataFile)
	assert.Empty(t, cfg.DataSheet)
	assert.Equal(t, "data/County_Boundary.geojson", cfg.BoundaryFile)
	assert.InDelta(t, 34.052235, cfg.MapCenterLat, 1e-9)
	assert.InDelta(t, -118.243683, cfg.MapCenterLon, 1e-9)
	assert.Equal(t, 9, cfg.MapZoom)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.PublishEnabled())
	assert.Equal(t, "emissions-reports", cfg.KafkaReportTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATA_FILE", "/srv/nei.csv")
	t.Setenv("DATA_SHEET", "Facilities")
	t.Setenv("BOUNDARY_FILE", "")
	t.Setenv("MAP_CENTER", "37.7749, -122.4194")
	t.Setenv("MAP_ZOOM", "11")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_REPORT_TOPIC", "custom-reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/nei.csv", cfg.DataFile)
	assert.Equal(t, "Facilities", cfg.DataSheet)
	assert.Empty(t, cfg.BoundaryFile)
	assert.InDelta(t, 37.7749, cfg.MapCenterLat, 1e-9)
	assert.InDelta(t, -122.4194, cfg.MapCenterLon, 1e-9)
	assert.Equal(t, 11, cfg.MapZoom)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.PublishEnabled())
	assert.Equal(t, "custom-reports", cfg.KafkaReportTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidMapboxTimeout(t *testing.T) {
	t.Setenv("MAPBOX_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TIMEOUT")
}

func TestLoad_InvalidMapCenter(t *testing.T) {
	for _, v := range []string{"34.05", "north,west", "95,-118", "34,-190"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("MAP_CENTER", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "MAP_CENTER")
		})
	}
}

func TestLoad_InvalidMapZoom(t *testing.T) {
	for _, v := range []string{"0", "19", "close"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("MAP_ZOOM", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "MAP_ZOOM")
		})
	}
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_InvalidCacheSizeFallsBack(t *testing.T) {
	t.Setenv("MAPBOX_CACHE_SIZE", "-5")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}
