// Package config provides configuration management functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/pricecast/internal/utils"
	"github.com/joho/godotenv"
)

// Price sources understood by PRICE_SOURCE
const (
	PriceSourceSQLite   = "sqlite"
	PriceSourcePostgres = "postgres"
)

// DefaultCollectorAssets maps CoinGecko coin ids onto the asset ids stored in the price table
const DefaultCollectorAssets = "bitcoin:btc,ethereum:eth,cardano:ada,solana:sol,ripple:xrp,litecoin:ltc"

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for the price database and all artifacts (always absolute)
	LogLevel  string
	LogPretty bool
	Port      int
	DevMode   bool

	Pipeline  PipelineConfig
	Prices    PriceSourceConfig
	Collector CollectorConfig
	Mirror    MirrorConfig
}

// PipelineConfig holds the feature/train/forecast policy values
type PipelineConfig struct {
	CycleSchedule      string        // cron spec, e.g. "@every 30s"
	SamplingStep       time.Duration // forecast horizon, one step ahead
	ShortWindow        int
	LongWindow         int
	MinTrainingSamples int
	TestFraction       float64
	RidgeLambda        float64
	ReconcileTolerance time.Duration
	DisplayTimezone    *time.Location
}

// PriceSourceConfig selects the upstream price store
type PriceSourceConfig struct {
	Source      string // sqlite or postgres
	PostgresDSN string
}

// CollectorConfig controls the optional CoinGecko poll at the start of each cycle
type CollectorConfig struct {
	Enabled bool
	BaseURL string
	Assets  map[string]string // coin id -> asset id
}

// MirrorConfig controls the optional artifact upload to an S3-compatible bucket
type MirrorConfig struct {
	Enabled         bool
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("PRICECAST_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tzName := getEnv("DISPLAY_TIMEZONE", "UTC")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", tzName, err)
	}

	assets, err := ParseAssetMapping(getEnv("COLLECTOR_ASSETS", DefaultCollectorAssets))
	if err != nil {
		return nil, fmt.Errorf("invalid COLLECTOR_ASSETS: %w", err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
		Port:      getEnvAsInt("PORT", 8000),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		Pipeline: PipelineConfig{
			CycleSchedule:      getEnv("CYCLE_SCHEDULE", "@every 30s"),
			SamplingStep:       getEnvAsDuration("SAMPLING_STEP", time.Hour),
			ShortWindow:        getEnvAsInt("SHORT_WINDOW", 3),
			LongWindow:         getEnvAsInt("LONG_WINDOW", 6),
			MinTrainingSamples: getEnvAsInt("MIN_TRAINING_SAMPLES", 10),
			TestFraction:       getEnvAsFloat("TEST_FRACTION", 0.2),
			RidgeLambda:        getEnvAsFloat("RIDGE_LAMBDA", 1e-6),
			ReconcileTolerance: getEnvAsDuration("RECONCILE_TOLERANCE", 10*time.Minute),
			DisplayTimezone:    tz,
		},
		Prices: PriceSourceConfig{
			Source:      strings.ToLower(getEnv("PRICE_SOURCE", PriceSourceSQLite)),
			PostgresDSN: getEnv("POSTGRES_DSN", ""),
		},
		Collector: CollectorConfig{
			Enabled: getEnvAsBool("COLLECTOR_ENABLED", false),
			BaseURL: getEnv("COLLECTOR_BASE_URL", "https://api.coingecko.com/api/v3"),
			Assets:  assets,
		},
		Mirror: MirrorConfig{
			Enabled:         getEnvAsBool("MIRROR_ENABLED", false),
			Bucket:          getEnv("MIRROR_BUCKET", ""),
			Endpoint:        getEnv("MIRROR_ENDPOINT", ""),
			Region:          getEnv("MIRROR_REGION", "auto"),
			AccessKeyID:     getEnv("MIRROR_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("MIRROR_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("MIRROR_PREFIX", "pricecast"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.ShortWindow < 1 || p.LongWindow < 1 {
		return errors.New("moving average windows must be positive")
	}
	if p.ShortWindow > p.LongWindow {
		return fmt.Errorf("short window (%d) must not exceed long window (%d)", p.ShortWindow, p.LongWindow)
	}
	if p.SamplingStep <= 0 {
		return errors.New("SAMPLING_STEP must be positive")
	}
	if p.TestFraction <= 0 || p.TestFraction >= 1 {
		return fmt.Errorf("TEST_FRACTION must be in (0, 1), got %v", p.TestFraction)
	}
	if p.MinTrainingSamples < 2 {
		return errors.New("MIN_TRAINING_SAMPLES must be at least 2")
	}
	if p.RidgeLambda < 0 {
		return errors.New("RIDGE_LAMBDA must not be negative")
	}
	if p.ReconcileTolerance < 0 {
		return errors.New("RECONCILE_TOLERANCE must not be negative")
	}

	switch c.Prices.Source {
	case PriceSourceSQLite:
	case PriceSourcePostgres:
		if c.Prices.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when PRICE_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("unknown PRICE_SOURCE %q", c.Prices.Source)
	}

	if c.Mirror.Enabled && c.Mirror.Bucket == "" {
		return errors.New("MIRROR_BUCKET is required when MIRROR_ENABLED=true")
	}

	return nil
}

// ParseAssetMapping parses "coin:asset,coin:asset" pairs.
// Empty entries between commas are ignored; asset ids are normalized.
func ParseAssetMapping(raw string) (map[string]string, error) {
	mapping := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		coin, asset, ok := strings.Cut(pair, ":")
		coin, asset = strings.TrimSpace(coin), strings.TrimSpace(asset)
		if !ok || coin == "" || asset == "" {
			return nil, fmt.Errorf("malformed pair %q, expected coin:asset", pair)
		}
		mapping[coin] = utils.NormalizeAssetID(asset)
	}
	return mapping, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
