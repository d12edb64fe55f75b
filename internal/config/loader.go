package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "planforge.yaml"

// DefaultEnvFile is the dotenv file loaded into the process environment.
// Variables already set in the environment are never overwritten.
const DefaultEnvFile = ".env"

// Load returns a Config using the hierarchy: defaults < .env < YAML < ENV.
// Both files are optional; missing files are not an error.
func Load() (*Config, error) {
	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv reads KEY=VALUE pairs from path into the process environment.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Port, "PLANFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "CORS_ORIGIN")
	setString(&cfg.Server.CORSOrigin, "PLANFORGE_CORS_ORIGIN")
	setInt64(&cfg.Server.BodyLimit, "PLANFORGE_BODY_LIMIT")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "PLANFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "PLANFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "PLANFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "PLANFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "PLANFORGE_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")
	setBool(&cfg.NATS.Enabled, "PLANFORGE_NATS_ENABLED")
	setDuration(&cfg.NATS.IdempotencyTTL, "PLANFORGE_NATS_IDEMPOTENCY_TTL")

	setString(&cfg.LLM.Provider, "PLANFORGE_LLM_PROVIDER")
	setString(&cfg.LLM.URL, "LITELLM_URL")
	setString(&cfg.LLM.APIKey, "LITELLM_MASTER_KEY")
	setString(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	setString(&cfg.LLM.APIKey, "PLANFORGE_LLM_API_KEY")
	setString(&cfg.LLM.Model, "PLANFORGE_LLM_MODEL")
	setFloat64(&cfg.LLM.Temperature, "PLANFORGE_LLM_TEMPERATURE")
	setInt(&cfg.LLM.MaxTokens, "PLANFORGE_LLM_MAX_TOKENS")
	setDuration(&cfg.LLM.Timeout, "PLANFORGE_LLM_TIMEOUT")
	setInt(&cfg.LLM.MaxConcurrent, "PLANFORGE_LLM_MAX_CONCURRENT")

	setInt(&cfg.Planner.DefaultHorizonDays, "PLANFORGE_DEFAULT_HORIZON_DAYS")
	setInt(&cfg.Planner.ListLimit, "PLANFORGE_LIST_LIMIT")

	setInt64(&cfg.Cache.MaxCostBytes, "PLANFORGE_CACHE_MAX_COST_BYTES")
	setDuration(&cfg.Cache.TTL, "PLANFORGE_CACHE_TTL")
	setDuration(&cfg.Cache.SharedTTL, "PLANFORGE_CACHE_SHARED_TTL")

	setString(&cfg.Logging.Level, "PLANFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PLANFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PLANFORGE_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "PLANFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PLANFORGE_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "PLANFORGE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "PLANFORGE_RATE_BURST")

	setBool(&cfg.OTEL.Enabled, "PLANFORGE_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "PLANFORGE_OTEL_INSECURE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.BodyLimit < 1 {
		return errors.New("server.body_limit must be >= 1")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.NATS.Enabled && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when nats.enabled is set")
	}
	switch strings.ToLower(cfg.LLM.Provider) {
	case "litellm", "gemini", "none":
	default:
		return fmt.Errorf("llm.provider %q is not one of litellm, gemini, none", cfg.LLM.Provider)
	}
	if cfg.Planner.DefaultHorizonDays < 1 || cfg.Planner.DefaultHorizonDays > 365 {
		return errors.New("planner.default_horizon_days must be between 1 and 365")
	}
	if cfg.Planner.ListLimit < 1 {
		return errors.New("planner.list_limit must be >= 1")
	}
	if cfg.LLM.MaxConcurrent < 1 {
		return errors.New("llm.max_concurrent must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
