package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
)

// Default EDF Opendatasoft endpoints.
const (
	DefaultHydroURL   = "https://opendata.edf.fr/api/explore/v2.1/catalog/datasets/centrales-de-production-hydraulique-de-edf-sa/records"
	DefaultNuclearURL = "https://opendata.edf.fr/api/explore/v2.1/catalog/datasets/centrales-de-production-nucleaire-edf/records"
	DefaultThermalURL = "https://opendata.edf.fr/api/explore/v2.1/catalog/datasets/centrales-de-production-thermique-a-flamme-d-edf-sa-fioul-gaz-charbon/records"

	DefaultOutputPath = "carte_complete.html"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	HydroURL   string `validate:"required,url"`
	NuclearURL string `validate:"required,url"`
	ThermalURL string `validate:"required,url"`
	OutputPath string `validate:"required"`

	// FetchTimeout bounds each HTTP request. Zero keeps the transport default.
	FetchTimeout time.Duration `validate:"gte=0"`

	// Map viewport.
	CenterLat float64 `validate:"gte=-90,lte=90"`
	CenterLon float64 `validate:"gte=-180,lte=180"`
	Zoom      int     `validate:"gte=0,lte=19"`

	LogLevel  string `validate:"oneof=debug info warn warning error"`
	LogFormat string `validate:"oneof=json text"`

	// Serve mode: when HTTPAddr is set the map is served over HTTP and
	// regenerated on RefreshSchedule.
	HTTPAddr        string
	RefreshSchedule string
	ShutdownTimeout time.Duration

	// Optional export of normalized records.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "0s")
	if err != nil {
		return nil, err
	}

	centerLat, err := parseFloat("MAP_CENTER_LAT", 46.6034)
	if err != nil {
		return nil, err
	}
	centerLon, err := parseFloat("MAP_CENTER_LON", 1.8883)
	if err != nil {
		return nil, err
	}
	zoom, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAP_ZOOM", "6"))
	if err != nil {
		return nil, errors.New("invalid MAP_ZOOM")
	}

	kafkaEnabled := os.Getenv("KAFKA_ENABLED") == "true"

	cfg := &Config{
		HydroURL:   sharedcfg.EnvOrDefault("HYDRO_URL", DefaultHydroURL),
		NuclearURL: sharedcfg.EnvOrDefault("NUCLEAR_URL", DefaultNuclearURL),
		ThermalURL: sharedcfg.EnvOrDefault("THERMAL_URL", DefaultThermalURL),
		OutputPath: sharedcfg.EnvOrDefault("OUTPUT_PATH", DefaultOutputPath),

		FetchTimeout: fetchTimeout,
		CenterLat:    centerLat,
		CenterLon:    centerLon,
		Zoom:         zoom,

		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "edf-power-plants"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fieldError(verrs[0])
		}
		return err
	}
	if c.RefreshSchedule != "" && c.HTTPAddr == "" {
		return errors.New("REFRESH_SCHEDULE requires HTTP_ADDR")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}
	return nil
}

// Serving reports whether the process runs as a long-lived map server.
func (c *Config) Serving() bool {
	return c.HTTPAddr != ""
}

// envNames maps struct fields to the variables that populate them.
var envNames = map[string]string{
	"HydroURL":     "HYDRO_URL",
	"NuclearURL":   "NUCLEAR_URL",
	"ThermalURL":   "THERMAL_URL",
	"OutputPath":   "OUTPUT_PATH",
	"FetchTimeout": "FETCH_TIMEOUT",
	"CenterLat":    "MAP_CENTER_LAT",
	"CenterLon":    "MAP_CENTER_LON",
	"Zoom":         "MAP_ZOOM",
	"LogLevel":     "LOG_LEVEL",
	"LogFormat":    "LOG_FORMAT",
}

func fieldError(fe validator.FieldError) error {
	name, ok := envNames[fe.Field()]
	if !ok {
		name = fe.Field()
	}
	if fe.Param() != "" {
		return fmt.Errorf("invalid %s: failed %s=%s", name, fe.Tag(), fe.Param())
	}
	return fmt.Errorf("invalid %s: failed %s", name, fe.Tag())
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}
