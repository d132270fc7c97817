package redis

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
)

// Mode represents the mode of the Redis client.
type Mode string

const (
	// Standalone Mode is for a single Redis instance.
	Standalone Mode = "standalone"
	// Cluster Mode is for a Redis cluster setup.
	Cluster Mode = "cluster"
)

// Config holds the configuration for the Redis client. The envDefault tags are the
// single source of defaults, for both REDIS_* loading and DefaultConfig.
type Config struct {
	Mode     Mode   `env:"MODE" envDefault:"standalone"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`

	Addrs []string `env:"ADDRS" envDefault:"localhost:6379"`

	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
	MaxRetries      int           `env:"MAX_RETRIES" envDefault:"3"`
	MinRetryBackoff time.Duration `env:"MIN_RETRY_BACKOFF" envDefault:"100ms"`
	MaxRetryBackoff time.Duration `env:"MAX_RETRY_BACKOFF" envDefault:"2s"`
	PoolSize        int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns    int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"10m"`
	PoolTimeout     time.Duration `env:"POOL_TIMEOUT" envDefault:"4s"`

	// PrefixKey namespaces every key the simulator writes (dedupe marks, ledger
	// documents, broker snapshots).
	PrefixKey string `env:"PREFIX_KEY" envDefault:"market-simulator:"`

	ReconnectMaxRetries int `env:"RECONNECT_MAX_RETRIES" envDefault:"3"`
}

// DefaultConfig returns the configuration described by the envDefault tags, ignoring
// the process environment.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		// only reachable if a tag above is malformed
		panic(err)
	}
	return cfg
}

// Validate reports the first setting the client cannot work with.
func (c *Config) Validate() error {
	invalid := func(message, field string) error {
		return errors.NewErrorDetails(message, string(errors.RedisConfigError), field)
	}

	switch {
	case len(c.Addrs) == 0:
		return invalid("Redis addresses are empty", "addrs")
	case c.Mode != Standalone && c.Mode != Cluster:
		return invalid("Invalid Redis mode", "mode")
	case c.ConnectTimeout <= 0:
		return invalid("Invalid Redis connect timeout", "connect_timeout")
	case c.PoolSize <= 0:
		return invalid("Invalid Redis pool size", "pool_size")
	case c.MinIdleConns < 0:
		return invalid("Invalid Redis min idle connections", "min_idle_conns")
	case c.MaxIdleConns < 0:
		return invalid("Invalid Redis max idle connections", "max_idle_conns")
	case c.ConnMaxLifetime <= 0:
		return invalid("Invalid Redis connection max lifetime", "conn_max_lifetime")
	case c.ConnMaxIdleTime <= 0:
		return invalid("Invalid Redis connection max idle time", "conn_max_idle_time")
	case c.PoolTimeout <= 0:
		return invalid("Invalid Redis pool timeout", "pool_timeout")
	case c.MaxRetries < 0:
		return invalid("Invalid Redis max retries", "max_retries")
	case c.MinRetryBackoff < 0:
		return invalid("Invalid Redis minimum retry backoff", "min_retry_backoff")
	case c.MaxRetryBackoff < 0:
		return invalid("Invalid Redis maximum retry backoff", "max_retry_backoff")
	}
	return nil
}
