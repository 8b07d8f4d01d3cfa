package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// AppConfig holds everything the fetch job and the server read from the
// environment.
type AppConfig struct {
	OpenWeatherAPIKey string

	// Worker group size and fetch windows.
	WorkerCount  int `validate:"min=1"`
	HistoryDays  int `validate:"min=1"`
	ForecastDays int `validate:"min=1"`

	// Snapshot file written by the job and served by the server.
	OutputPath string `validate:"required"`

	// Per-phase HTTP client timeouts. Temporal lookups get more time
	// because the timemachine endpoint is slower than current weather.
	CurrentFetchTimeout  time.Duration `validate:"gt=0"`
	TemporalFetchTimeout time.Duration `validate:"gt=0"`

	// Server settings.
	Port       string        `validate:"required"`
	RefreshTTL time.Duration `validate:"gt=0"`
	JobCommand string        `validate:"required"`
}

var validate = validator.New()

// Load reads configuration from the environment with sensible defaults.
// The API key may be empty here; the fetch job checks it before doing
// any work.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")

	cfg.WorkerCount = getenvInt("WORKER_COUNT", 5)
	cfg.HistoryDays = getenvInt("HISTORY_DAYS", 7)
	cfg.ForecastDays = getenvInt("FORECAST_DAYS", 7)

	cfg.OutputPath = getenvDefault("OUTPUT_PATH", "data/weather.json")

	var err error
	if cfg.CurrentFetchTimeout, err = getenvDuration("CURRENT_FETCH_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.TemporalFetchTimeout, err = getenvDuration("TEMPORAL_FETCH_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	if cfg.RefreshTTL, err = getenvDuration("REFRESH_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	cfg.JobCommand = getenvDefault("JOB_COMMAND", "weatherjob")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
