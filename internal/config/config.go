package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	// Input lists and prepared products.
	ModelList       string   // text file listing model output files, one per line
	SatelliteList   string   // text file listing gridded altimeter files (satellite mode)
	GridInfoPath    string   // prepared grid-mask file
	CycloneMapPaths []string // prepared cyclone map files, merged along time

	// Data structure of the model list.
	Forecast       bool // each listed file is one forecast cycle
	ForecastCycles int  // optional explicit cycle count; raised automatically when too small

	// Time tolerances.
	ModelObsTolerance time.Duration
	CycloneTolerance  time.Duration

	// Join toggles. Defaults follow whether the corresponding product was
	// supplied at all.
	JoinGrid    bool
	JoinCyclone bool

	// Buoy archives (buoy mode). Tried in order: NDBC, then Copernicus.
	NDBCPath       string
	CopernicusPath string

	// Sinks.
	OutputDir    string
	KafkaBrokers []string
	KafkaTopic   string

	// Run services.
	HTTPAddr  string // empty disables the health/metrics endpoint
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	modelObsTol, err := parseDuration("MODEL_OBS_TOLERANCE", "30m")
	if err != nil {
		return nil, err
	}
	cycloneTol, err := parseDuration("CYCLONE_TOLERANCE", "90m")
	if err != nil {
		return nil, err
	}
	forecastCycles, err := parseInt("FORECAST_CYCLES", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ModelList:       os.Getenv("MODEL_LIST"),
		SatelliteList:   os.Getenv("SATELLITE_LIST"),
		GridInfoPath:    os.Getenv("GRID_INFO"),
		CycloneMapPaths: splitList(os.Getenv("CYCLONE_MAPS")),

		Forecast:       envBool("FORECAST", false) || forecastCycles > 0,
		ForecastCycles: forecastCycles,

		ModelObsTolerance: modelObsTol,
		CycloneTolerance:  cycloneTol,

		NDBCPath:       os.Getenv("NDBC_PATH"),
		CopernicusPath: os.Getenv("COPERNICUS_PATH"),

		OutputDir:    envOrDefault("OUTPUT_DIR", "."),
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "wave-matchups"),

		HTTPAddr:  os.Getenv("HTTP_ADDR"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "text"),
	}

	cfg.JoinGrid = envBool("JOIN_GRID", cfg.GridInfoPath != "")
	cfg.JoinCyclone = envBool("JOIN_CYCLONE", len(cfg.CycloneMapPaths) > 0)

	if cfg.ModelList == "" {
		return nil, errors.New("MODEL_LIST is required")
	}
	if cfg.ModelObsTolerance <= 0 {
		return nil, errors.New("MODEL_OBS_TOLERANCE must be positive")
	}
	if cfg.CycloneTolerance <= 0 {
		return nil, errors.New("CYCLONE_TOLERANCE must be positive")
	}
	if cfg.ForecastCycles < 0 {
		return nil, errors.New("FORECAST_CYCLES must not be negative")
	}
	if cfg.JoinGrid && cfg.GridInfoPath == "" {
		return nil, errors.New("JOIN_GRID is true but GRID_INFO is not set")
	}
	if cfg.JoinCyclone && len(cfg.CycloneMapPaths) == 0 {
		return nil, errors.New("JOIN_CYCLONE is true but CYCLONE_MAPS is not set")
	}
	if cfg.JoinCyclone && !cfg.JoinGrid {
		return nil, errors.New("JOIN_CYCLONE requires JOIN_GRID: cyclone maps share the prepared grid")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func parseInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	v := envOrDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

// splitList splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
