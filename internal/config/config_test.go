package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMockURL = "http://127.0.0.1:8081/records"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultHydroURL, cfg.HydroURL)
	assert.Equal(t, DefaultNuclearURL, cfg.NuclearURL)
	assert.Equal(t, DefaultThermalURL, cfg.ThermalURL)
	assert.Equal(t, "carte_complete.html", cfg.OutputPath)
	assert.Equal(t, time.Duration(0), cfg.FetchTimeout)
	assert.Equal(t, 46.6034, cfg.CenterLat)
	assert.Equal(t, 1.8883, cfg.CenterLon)
	assert.Equal(t, 6, cfg.Zoom)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Empty(t, cfg.RefreshSchedule)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "edf-power-plants", cfg.KafkaTopic)
	assert.False(t, cfg.Serving())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HYDRO_URL", testMockURL)
	t.Setenv("NUCLEAR_URL", testMockURL)
	t.Setenv("THERMAL_URL", testMockURL)
	t.Setenv("OUTPUT_PATH", "out/map.html")
	t.Setenv("FETCH_TIMEOUT", "15s")
	t.Setenv("MAP_CENTER_LAT", "45.75")
	t.Setenv("MAP_CENTER_LON", "4.85")
	t.Setenv("MAP_ZOOM", "8")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("REFRESH_SCHEDULE", "@daily")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "plants")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testMockURL, cfg.HydroURL)
	assert.Equal(t, testMockURL, cfg.NuclearURL)
	assert.Equal(t, testMockURL, cfg.ThermalURL)
	assert.Equal(t, "out/map.html", cfg.OutputPath)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 45.75, cfg.CenterLat)
	assert.Equal(t, 4.85, cfg.CenterLon)
	assert.Equal(t, 8, cfg.Zoom)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "@daily", cfg.RefreshSchedule)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "plants", cfg.KafkaTopic)
	assert.True(t, cfg.Serving())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		errVar string
	}{
		{"bad hydro url", map[string]string{"HYDRO_URL": "not a url"}, "HYDRO_URL"},
		{"bad fetch timeout", map[string]string{"FETCH_TIMEOUT": "soon"}, "FETCH_TIMEOUT"},
		{"negative fetch timeout", map[string]string{"FETCH_TIMEOUT": "-1s"}, "FETCH_TIMEOUT"},
		{"bad latitude", map[string]string{"MAP_CENTER_LAT": "north"}, "MAP_CENTER_LAT"},
		{"latitude out of range", map[string]string{"MAP_CENTER_LAT": "120"}, "MAP_CENTER_LAT"},
		{"zoom out of range", map[string]string{"MAP_ZOOM": "25"}, "MAP_ZOOM"},
		{"bad zoom", map[string]string{"MAP_ZOOM": "six"}, "MAP_ZOOM"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"schedule without server", map[string]string{"REFRESH_SCHEDULE": "@hourly"}, "HTTP_ADDR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errVar)
		})
	}
}

func TestValidate_CrossField(t *testing.T) {
	base := func() *Config {
		return &Config{
			HydroURL:   testMockURL,
			NuclearURL: testMockURL,
			ThermalURL: testMockURL,
			OutputPath: DefaultOutputPath,
			Zoom:       6,
			LogLevel:   "info",
			LogFormat:  "text",
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.OutputPath = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OUTPUT_PATH")

	cfg = base()
	cfg.KafkaEnabled = true
	cfg.KafkaBrokers = []string{"localhost:9092"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_TOPIC")

	cfg.KafkaBrokers = nil
	cfg.KafkaTopic = "plants"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
