package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/pkg/storage"
)

// DefaultLogoURL is the Makopo Industrial logo shown on every page
const DefaultLogoURL = "https://makopoindustrial.com/wp-content/uploads/2025/01/cropped-cropped-makopo_industrial_logo-removebg-preview-AQEy5BpLvjsDq6E1.png"

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Session       SessionConfig
	Storage       storage.Config
	Artifacts     ArtifactConfig
	Observability ObservabilityConfig
	Branding      BrandingConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	MaxUploadBytes     int64
	AllowedOrigins     []string
}

type SessionConfig struct {
	Secret string
}

type ArtifactConfig struct {
	TTL           time.Duration
	SweepSchedule string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	LogLevel       slog.Level
}

type BrandingConfig struct {
	LogoURL string
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment variables
// take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 10),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 20),
			MaxUploadBytes:     int64(getEnvAsInt("SERVER_MAX_UPLOAD_BYTES", 10<<20)),
			AllowedOrigins:     getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", ""),
		},
		Storage: storage.Config{
			Type:      storage.StorageType(getEnv("STORAGE_TYPE", string(storage.StorageTypeMemory))),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./artifacts"),
		},
		Artifacts: ArtifactConfig{
			TTL:           getEnvAsDuration("ARTIFACT_TTL", 15*time.Minute),
			SweepSchedule: getEnv("ARTIFACT_SWEEP_SCHEDULE", "*/5 * * * *"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			LogLevel:       getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
		},
		Branding: BrandingConfig{
			LogoURL: getEnv("BRANDING_LOGO_URL", DefaultLogoURL),
		},
	}

	if cfg.Session.Secret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}

	if len(cfg.Session.Secret) < 32 {
		return nil, errors.New("SESSION_SECRET must be at least 32 bytes")
	}

	if cfg.Server.MaxUploadBytes <= 0 {
		return nil, errors.New("SERVER_MAX_UPLOAD_BYTES must be positive")
	}

	if cfg.Artifacts.TTL <= 0 {
		return nil, errors.New("ARTIFACT_TTL must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv(key))); err == nil {
		return level
	}
	return defaultValue
}
