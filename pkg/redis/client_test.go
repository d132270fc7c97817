package redis

import (
	"context"
	"testing"
	"time"

	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestClient_ConnectRejectsInvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{
			name:   "empty addresses",
			mutate: func(cfg *Config) { cfg.Addrs = nil },
		},
		{
			name:   "unknown mode",
			mutate: func(cfg *Config) { cfg.Mode = "sentinel" },
		},
		{
			name:   "zero connect timeout",
			mutate: func(cfg *Config) { cfg.ConnectTimeout = 0 },
		},
		{
			name:   "zero pool size",
			mutate: func(cfg *Config) { cfg.PoolSize = 0 },
		},
		{
			name:   "negative min idle",
			mutate: func(cfg *Config) { cfg.MinIdleConns = -1 },
		},
		{
			name:   "zero pool timeout",
			mutate: func(cfg *Config) { cfg.PoolTimeout = 0 },
		},
		{
			name:   "negative retries",
			mutate: func(cfg *Config) { cfg.MaxRetries = -1 },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Addrs = []string{"localhost:6379"}
			tc.mutate(cfg)

			c := NewClient(logger.NewNopLogger(), cfg)
			err := c.Connect(context.Background())

			assert.True(t, errors.HasCode(err, errors.RedisConfigError))
		})
	}
}

func TestClient_ConnectNilConfig(t *testing.T) {
	c := NewClient(logger.NewNopLogger(), nil)
	err := c.Connect(context.Background())
	assert.True(t, errors.HasCode(err, errors.RedisConfigError))
}

func TestClient_Key(t *testing.T) {
	cfg := DefaultConfig()
	c := NewClient(logger.NewNopLogger(), cfg)
	assert.Equal(t, "market-simulator:dedupe:42", c.Key("dedupe", "42"))

	cfg.PrefixKey = ""
	assert.Equal(t, "ledger:7", c.Key("ledger", "7"))
}

func TestClient_DisconnectBeforeConnect(t *testing.T) {
	c := NewClient(logger.NewNopLogger(), DefaultConfig())
	assert.NoError(t, c.Disconnect(context.Background()))
}

func TestClient_ReconnectCancelled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinRetryBackoff = time.Hour
	cfg.MaxRetryBackoff = time.Hour
	c := NewClient(logger.NewNopLogger(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, c.Reconnect(ctx))
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("POOL_SIZE", "99")
	t.Setenv("MODE", "cluster")

	cfg := DefaultConfig()

	assert.Equal(t, Standalone, cfg.Mode)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, []string{"localhost:6379"}, cfg.Addrs)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "market-simulator:", cfg.PrefixKey)
	assert.NoError(t, cfg.Validate())
}
