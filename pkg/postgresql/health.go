package postgresql

import (
	"context"
	"time"

	"github.com/muhammadchandra19/market-simulator/pkg/errors"
)

// Health is a point-in-time view of the server and the connection pool.
type Health struct {
	Healthy       bool
	ResponseTime  time.Duration
	AcquiredConns int32
	IdleConns     int32
	MaxConns      int32
	ServerVersion string
	Err           error
}

// Health pings the server, reads its version and samples the pool.
func (c *Client) Health(ctx context.Context) Health {
	start := time.Now()

	stats := c.Stats()
	h := Health{
		AcquiredConns: stats.AcquiredConns(),
		IdleConns:     stats.IdleConns(),
		MaxConns:      stats.MaxConns(),
	}

	if err := c.Ping(ctx); err != nil {
		h.Err = errors.NewTracer("postgres ping failed").Wrap(err)
		h.ResponseTime = time.Since(start)
		return h
	}

	if err := c.QueryRow(ctx, "SHOW server_version").Scan(&h.ServerVersion); err != nil {
		h.Err = errors.NewTracer("postgres version query failed").Wrap(err)
		h.ResponseTime = time.Since(start)
		return h
	}

	h.Healthy = true
	h.ResponseTime = time.Since(start)
	return h
}

// Check returns the error of a failed health probe, shaped for readiness endpoints.
func (c *Client) Check(ctx context.Context) error {
	return c.Health(ctx).Err
}
