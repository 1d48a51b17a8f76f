// Package config reads server settings from the environment, layered over an
// optional YAML file named by CONFIG_FILE.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string

	Storage      string
	TickInterval time.Duration
	Location     *time.Location
	LogLevel     string
	LogFormat    string

	ResetCountsAsAbandoned bool
	HapticsSupported       bool
	NotificationsSupported bool
}

// fileConfig mirrors the YAML file. Every field is optional.
type fileConfig struct {
	Port                   string   `yaml:"port"`
	DBPath                 string   `yaml:"db_path"`
	JWTSecret              string   `yaml:"jwt_secret"`
	TokenTTLHours          int      `yaml:"token_ttl_hours"`
	CORSOrigins            []string `yaml:"cors_origins"`
	MigrationsDir          string   `yaml:"migrations_dir"`
	Storage                string   `yaml:"storage"`
	TickIntervalMs         int      `yaml:"tick_interval_ms"`
	Timezone               string   `yaml:"timezone"`
	LogLevel               string   `yaml:"log_level"`
	LogFormat              string   `yaml:"log_format"`
	ResetCountsAsAbandoned bool     `yaml:"reset_counts_as_abandoned"`
	HapticsSupported       bool     `yaml:"haptics_supported"`
	NotificationsSupported bool     `yaml:"notifications_supported"`
}

func defaults() fileConfig {
	return fileConfig{
		Port:                   "8080",
		DBPath:                 "./data/guardian.db",
		JWTSecret:              "change-this-secret",
		TokenTTLHours:          72,
		CORSOrigins:            []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		Storage:                StorageSQLite,
		TickIntervalMs:         1000,
		Timezone:               "Local",
		LogLevel:               "info",
		LogFormat:              "text",
		HapticsSupported:       true,
		NotificationsSupported: true,
	}
}

// Load resolves the configuration: environment variables win over the YAML
// file, which wins over built-in defaults.
func Load() (Config, error) {
	file := defaults()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:          getEnv("PORT", file.Port),
		DBPath:        getEnv("DB_PATH", file.DBPath),
		JWTSecret:     getEnv("JWT_SECRET", file.JWTSecret),
		TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_HOURS", file.TokenTTLHours)) * time.Hour,
		CORSOrigins:   getEnvList("CORS_ORIGINS", file.CORSOrigins),
		MigrationsDir: getEnv("MIGRATIONS_DIR", file.MigrationsDir),

		Storage:      strings.ToLower(getEnv("STORAGE", file.Storage)),
		TickInterval: time.Duration(getEnvInt("TICK_INTERVAL_MS", file.TickIntervalMs)) * time.Millisecond,
		LogLevel:     getEnv("LOG_LEVEL", file.LogLevel),
		LogFormat:    getEnv("LOG_FORMAT", file.LogFormat),

		ResetCountsAsAbandoned: getEnvBool("RESET_COUNTS_AS_ABANDONED", file.ResetCountsAsAbandoned),
		HapticsSupported:       getEnvBool("HAPTICS_SUPPORTED", file.HapticsSupported),
		NotificationsSupported: getEnvBool("NOTIFICATIONS_SUPPORTED", file.NotificationsSupported),
	}

	switch cfg.Storage {
	case StorageSQLite, StorageMemory:
	default:
		return Config{}, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
	if cfg.TickInterval <= 0 {
		return Config{}, fmt.Errorf("tick interval must be positive, got %s", cfg.TickInterval)
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", file.Timezone))
	if err != nil {
		return Config{}, fmt.Errorf("loading timezone: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
