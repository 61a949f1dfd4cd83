package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Database    DatabaseConfig
	Meilisearch MeilisearchConfig
	Queue       QueueConfig
	HTTP        HTTPConfig
	Auth        AuthConfig
	Uploads     UploadsConfig
	SMTP        SMTPConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timeout  time.Duration
}

// MeilisearchConfig configures the search backend. An empty Host means
// no engine is configured: search degrades to a disabled feature, it
// is not an error.
type MeilisearchConfig struct {
	Host    string
	APIKey  string
	Timeout time.Duration
}

func (c MeilisearchConfig) Enabled() bool {
	return c.Host != ""
}

// QueueConfig configures the Redis Streams task queue. Mode "inline"
// swaps the durable queue for synchronous in-place execution, used by
// tests and single-process development setups.
type QueueConfig struct {
	Mode            string // "redis" or "inline"
	RedisURL        string
	StreamKey       string
	GroupName       string
	ConsumerName    string
	BatchSize       int64
	BlockTimeout    time.Duration
	MaxDeliveries   int64
	ReclaimMinIdle  time.Duration
	ReclaimInterval time.Duration
	DedupTTL        time.Duration
}

func (c QueueConfig) Inline() bool {
	return c.Mode == "inline"
}

type HTTPConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	// PublicBaseURL is the externally visible origin, used when
	// composing links in outbound mail.
	PublicBaseURL string
}

type AuthConfig struct {
	JWTSecret     string
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
}

type UploadsConfig struct {
	Dir string
}

// SMTPConfig configures outbound mail. An empty Host disables mail
// delivery; reset-mail tasks then log and complete.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnvRequired("DB_HOST"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			Name:     getEnvRequired("DB_NAME"),
			User:     getEnvRequired("INKWELL_DB_USER"),
			Password: getEnvRequired("INKWELL_DB_PASSWORD"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "prefer"),
			Timeout:  10 * time.Second,
		},
		Meilisearch: MeilisearchConfig{
			Host:    getEnvOrDefault("MEILISEARCH_HOST", ""),
			APIKey:  getEnvOrDefault("MEILISEARCH_API_KEY", ""),
			Timeout: 15 * time.Second,
		},
		Queue: QueueConfig{
			Mode:            getEnvOrDefault("TASK_QUEUE_MODE", "redis"),
			RedisURL:        getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
			StreamKey:       getEnvOrDefault("TASK_STREAM_KEY", "inkwell:tasks"),
			GroupName:       getEnvOrDefault("TASK_GROUP_NAME", "inkwell-workers"),
			ConsumerName:    getEnvOrDefault("TASK_CONSUMER_NAME", defaultConsumerName()),
			BatchSize:       getEnvInt64("TASK_BATCH_SIZE", 10),
			BlockTimeout:    5 * time.Second,
			MaxDeliveries:   getEnvInt64("TASK_MAX_DELIVERIES", 5),
			ReclaimMinIdle:  time.Minute,
			ReclaimInterval: time.Minute,
			DedupTTL:        time.Hour,
		},
		HTTP: HTTPConfig{
			Addr:              getEnvOrDefault("HTTP_ADDR", ":9400"),
			ReadHeaderTimeout: 5 * time.Second,
			PublicBaseURL:     getEnvOrDefault("HTTP_PUBLIC_BASE_URL", "http://localhost:9400"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnvRequired("INKWELL_JWT_SECRET"),
			SessionTTL:    24 * time.Hour,
			ResetTokenTTL: 30 * time.Minute,
		},
		Uploads: UploadsConfig{
			Dir: getEnvOrDefault("UPLOADS_DIR", "static/profile_pics"),
		},
		SMTP: SMTPConfig{
			Host:     getEnvOrDefault("SMTP_HOST", ""),
			Port:     getEnvOrDefault("SMTP_PORT", "587"),
			Username: getEnvOrDefault("SMTP_USERNAME", ""),
			Password: getEnvOrDefault("SMTP_PASSWORD", ""),
			From:     getEnvOrDefault("SMTP_FROM", "noreply@inkwell.local"),
		},
	}

	if err := cfg.Database.validateSSLMode(); err != nil {
		return nil, fmt.Errorf("database configuration error: %w", err)
	}
	if cfg.Queue.Mode != "redis" && cfg.Queue.Mode != "inline" {
		return nil, fmt.Errorf("invalid TASK_QUEUE_MODE: %s", cfg.Queue.Mode)
	}

	slog.Info("Configuration loaded",
		"db_host", cfg.Database.Host,
		"db_sslmode", cfg.Database.SSLMode,
		"meilisearch_enabled", cfg.Meilisearch.Enabled(),
		"queue_mode", cfg.Queue.Mode,
	)

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func (c *DatabaseConfig) validateSSLMode() error {
	switch c.SSLMode {
	case "allow", "prefer", "require", "verify-ca", "verify-full":
		return nil
	case "disable":
		return fmt.Errorf("SSL disable mode is not allowed")
	default:
		return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
	}
}

func defaultConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "inkwell-worker"
	}
	return host
}

func getEnvRequired(key string) string {
	// Check for _FILE suffix (Docker secrets)
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return value
}

func getEnvOrDefault(key, defaultValue string) string {
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		slog.Warn("invalid integer environment variable, using default", "key", key)
	}
	return defaultValue
}
