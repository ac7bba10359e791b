package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config is the gateway's runtime configuration, read from the environment
// with an optional .env file underneath.
type Config struct {
	HTTPPort        string
	WarehouseAPIURL string
	AuthRefreshURL  string
	RefreshToken    string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	RatesPath       string
}

// Load reads the configuration. A missing .env file is fine; explicit
// environment variables always win over file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		WarehouseAPIURL: getEnv("WAREHOUSE_API_URL", "http://localhost:9000"),
		AuthRefreshURL:  getEnv("AUTH_REFRESH_URL", "http://localhost:9000/auth/refresh"),
		RefreshToken:    os.Getenv("AUTH_REFRESH_TOKEN"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RatesPath:       os.Getenv("CURRENCY_RATES_PATH"),
	}

	if cfg.WarehouseAPIURL == "" {
		return nil, fmt.Errorf("WAREHOUSE_API_URL must not be empty")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
