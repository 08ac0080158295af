package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8000"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	RedisHost    string        `env:"REDIS_HOST" default:"localhost"`
	RedisPort    int           `env:"REDIS_PORT" default:"6379"`
	RedisDB      int           `env:"REDIS_DB" default:"0"`
	RedisTimeout time.Duration `env:"REDIS_TIMEOUT" default:"2s"`

	QRSize int `env:"QR_SIZE" default:"256"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" default:"5"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" default:"20"`

	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC" default:"survey-events"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// RedisAddr returns the host:port address of the store.
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisHost, strconv.Itoa(c.RedisPort))
}

// Brokers returns the configured Kafka brokers, or nil when events are disabled.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func validate(cfg *Config) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", cfg.Port)
	}

	if cfg.RedisHost == "" {
		return errors.New("REDIS_HOST is required")
	}
	if cfg.RedisPort < 1 || cfg.RedisPort > 65535 {
		return fmt.Errorf("REDIS_PORT must be between 1 and 65535, got %d", cfg.RedisPort)
	}
	if cfg.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative, got %d", cfg.RedisDB)
	}
	if cfg.RedisTimeout <= 0 {
		return errors.New("REDIS_TIMEOUT must be positive")
	}

	if cfg.QRSize < 64 || cfg.QRSize > 2048 {
		return fmt.Errorf("QR_SIZE must be between 64 and 2048, got %d", cfg.QRSize)
	}

	if cfg.RateLimitPerSecond <= 0 || cfg.RateLimitBurst < 1 {
		return errors.New("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if cfg.KafkaBrokers != "" && cfg.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return nil
}
