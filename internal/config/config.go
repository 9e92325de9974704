package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath    = "CONFIG_PATH"
	EnvDBConnection  = "DB_CONNECTION"
	EnvJWTSecret     = "JWT_SECRET"
	EnvJWTExpiry     = "JWT_EXPIRY"
	EnvBackendOrigin = "BACKEND_ORIGIN"
	EnvServiceToken  = "BACKEND_SERVICE_TOKEN"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// ErrMissingBackendOrigin indicates no backend origin is configured.
var ErrMissingBackendOrigin = errors.New("missing backend origin (set `backend.origin` in config file)")

// JWTConfig holds JWT secret and expiry settings for console sessions.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// BackendConfig holds settings for the remote FinSim backend API.
type BackendConfig struct {
	Origin       string        `yaml:"origin"`        // Base origin, e.g. https://api.finsim.example
	ServiceToken string        `yaml:"service-token"` // Fixed X-CSRFTOKEN credential.
	Timeout      time.Duration `yaml:"timeout"`       // Per-request HTTP timeout.
}

// RedisConfig holds optional shared-cache settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// PollConfig holds the auto-refresh intervals for cached list reads.
type PollConfig struct {
	ListInterval   time.Duration `yaml:"list-interval"`
	DetailInterval time.Duration `yaml:"detail-interval"`
}

// LoadDatabaseDSN reads the session database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}

// defaultBackendTimeout bounds a single backend request.
const defaultBackendTimeout = 15 * time.Second

// LoadBackendConfig loads remote backend settings from the YAML config file.
func LoadBackendConfig(configPath string) (BackendConfig, error) {
	// fileConfig maps the YAML fields needed for backend settings.
	type fileConfig struct {
		Backend BackendConfig `yaml:"backend"`
	}

	result := BackendConfig{Timeout: defaultBackendTimeout}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.Backend
		}
	}

	if origin := strings.TrimSpace(os.Getenv(EnvBackendOrigin)); origin != "" {
		result.Origin = origin
	}
	if token := strings.TrimSpace(os.Getenv(EnvServiceToken)); token != "" {
		result.ServiceToken = token
	}

	result.Origin = strings.TrimRight(strings.TrimSpace(result.Origin), "/")
	if result.Origin == "" {
		return BackendConfig{}, ErrMissingBackendOrigin
	}
	if result.Timeout <= 0 {
		result.Timeout = defaultBackendTimeout
	}
	return result, nil
}

// Default auto-refresh intervals: list screens every 10s, a selected
// ticket every 5s, matching the dashboard's staleness tolerance.
const (
	defaultListInterval   = 10 * time.Second
	defaultDetailInterval = 5 * time.Second
)

// LoadPollConfig loads cache auto-refresh intervals from the YAML config file.
func LoadPollConfig(configPath string) PollConfig {
	// fileConfig maps the YAML fields needed for polling settings.
	type fileConfig struct {
		Poll PollConfig `yaml:"poll"`
	}

	result := PollConfig{
		ListInterval:   defaultListInterval,
		DetailInterval: defaultDetailInterval,
	}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			if cfg.Poll.ListInterval > 0 {
				result.ListInterval = cfg.Poll.ListInterval
			}
			if cfg.Poll.DetailInterval > 0 {
				result.DetailInterval = cfg.Poll.DetailInterval
			}
		}
	}
	return result
}

// LoadRedisConfig loads optional redis cache settings from the YAML config
// file. A zero Addr disables the redis mirror.
func LoadRedisConfig(configPath string) RedisConfig {
	// fileConfig maps the YAML fields needed for redis settings.
	type fileConfig struct {
		Redis RedisConfig `yaml:"redis"`
	}

	var result RedisConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.Redis
		}
	}

	result.Addr = strings.TrimSpace(result.Addr)
	if result.DB < 0 {
		result.DB = 0
	}
	if strings.TrimSpace(result.Prefix) == "" {
		result.Prefix = "finsim:console"
	}
	return result
}
