package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 10, cfg.BatchChunkSize)
	assert.Equal(t, 10*time.Second, cfg.BatchChunkTimeout)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.EnableOutboxRelay)
}

func TestLoadFileEnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("http_port: \"9090\"\nbatch_chunk_size: 25\nkafka_brokers:\n  - kafka-a:9092\n  - kafka-b:9092\nenable_outbox_relay: false\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv("BATCH_CHUNK_SIZE", "5")
	t.Setenv("IDEMPOTENCY_TTL", "1h")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 5, cfg.BatchChunkSize)
	assert.Equal(t, time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, []string{"kafka-a:9092", "kafka-b:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.EnableOutboxRelay)
}

func TestLoadFileRejectsBadInput(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch_chunk_size: [1"), 0o600))
	_, err = LoadFile(path)
	require.Error(t, err)

	t.Setenv("BATCH_CHUNK_SIZE", "0")
	_, err = Load()
	require.Error(t, err)
}

func TestEnvBoolFallback(t *testing.T) {
	t.Setenv("ENABLE_OUTBOX_RELAY", "maybe")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.EnableOutboxRelay)
}
