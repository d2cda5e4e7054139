package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string   `yaml:"service_name"`
	HTTPPort     string   `yaml:"http_port"`
	PostgresDSN  string   `yaml:"postgres_dsn"`
	KafkaBrokers []string `yaml:"kafka_brokers"`

	BatchChunkSize     int           `yaml:"batch_chunk_size"`
	BatchChunkTimeout  time.Duration `yaml:"batch_chunk_timeout"`
	IdempotencyTTL     time.Duration `yaml:"idempotency_ttl"`
	PublishRepairTTL   time.Duration `yaml:"publish_repair_window"`
	OutboxBatchSize    int           `yaml:"outbox_batch_size"`
	OutboxPollInterval time.Duration `yaml:"outbox_poll_interval"`
	EnableOutboxRelay  bool          `yaml:"enable_outbox_relay"`
}

func defaults() Config {
	return Config{
		ServiceName:        "sponsordesk",
		HTTPPort:           "8080",
		KafkaBrokers:       []string{"localhost:9092"},
		BatchChunkSize:     10,
		BatchChunkTimeout:  10 * time.Second,
		IdempotencyTTL:     24 * time.Hour,
		PublishRepairTTL:   5 * time.Second,
		OutboxBatchSize:    100,
		OutboxPollInterval: 2 * time.Second,
		EnableOutboxRelay:  true,
	}
}

func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile reads an optional YAML file and then applies environment
// overrides. Environment values always win over the file.
func LoadFile(path string) (Config, error) {
	cfg := defaults()
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.ServiceName = envString("SERVICE_NAME", cfg.ServiceName)
	cfg.HTTPPort = envString("HTTP_PORT", cfg.HTTPPort)
	cfg.PostgresDSN = envString("POSTGRES_DSN", cfg.PostgresDSN)

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) > 0 {
		cfg.KafkaBrokers = brokers
	}

	cfg.BatchChunkSize = envInt("BATCH_CHUNK_SIZE", cfg.BatchChunkSize)
	cfg.BatchChunkTimeout = envDuration("BATCH_CHUNK_TIMEOUT", cfg.BatchChunkTimeout)
	cfg.IdempotencyTTL = envDuration("IDEMPOTENCY_TTL", cfg.IdempotencyTTL)
	cfg.PublishRepairTTL = envDuration("PUBLISH_REPAIR_WINDOW", cfg.PublishRepairTTL)
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxPollInterval = envDuration("OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	cfg.EnableOutboxRelay = envBool("ENABLE_OUTBOX_RELAY", cfg.EnableOutboxRelay)

	if cfg.BatchChunkSize <= 0 {
		return Config{}, fmt.Errorf("batch chunk size must be positive, got %d", cfg.BatchChunkSize)
	}
	return cfg, nil
}

func envString(name string, fallback string) string {
	if raw := strings.TrimSpace(os.Getenv(name)); raw != "" {
		return raw
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
