package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestValidate(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "postgres")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "70000")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("default secret rejected in production", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		_, err := Load()
		assert.Error(t, err)

		t.Setenv("JWT_SECRET", "real-secret")
		_, err = Load()
		assert.NoError(t, err)
	})
}
