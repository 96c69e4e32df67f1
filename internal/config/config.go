package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	DevelopmentAPIURL = "http://localhost:8000/api"
	ProductionAPIURL  = "https://urbanscore-api.herokuapp.com/api"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	APIURL                string
	DBPath                string
	DBDriver              string
	RedisAddr             string
	GRPCPort              int
	GRPCReflectionEnabled bool
	MetricsPort           int
	RankingLimit          int
	DataSourceTimeout     time.Duration
	DataSourceRPS         float64
	CatalogCacheTTL       time.Duration
	SessionTTL            time.Duration
}

// IsProduction reports whether APP_ENV selects the production environment.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LoadFromEnv loads configuration from environment variables.
// Malformed numeric values fall back to their defaults.
func LoadFromEnv() *Config {
	appEnv := getEnv("APP_ENV", "development")

	// URBANSCORE_API_URL only applies in production; development always targets
	// the local data source.
	apiURL := DevelopmentAPIURL
	if appEnv == "production" {
		apiURL = getEnv("URBANSCORE_API_URL", ProductionAPIURL)
	}

	return &Config{
		AppEnv:                appEnv,
		APIURL:                apiURL,
		DBPath:                getEnv("DB_PATH", "./data/urbanscore.db"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		GRPCPort:              getInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getBool("GRPC_REFLECTION_ENABLED", false),
		MetricsPort:           getInt("METRICS_PORT", 9090),
		RankingLimit:          getInt("RANKING_LIMIT", 20),
		DataSourceTimeout:     getDuration("DATA_SOURCE_TIMEOUT", 10*time.Second),
		DataSourceRPS:         getFloat("DATA_SOURCE_RPS", 0),
		CatalogCacheTTL:       getDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		SessionTTL:            getDuration("SESSION_TTL", 30*time.Minute),
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
