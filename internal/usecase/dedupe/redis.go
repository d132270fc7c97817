package dedupe

import (
	"context"
	"time"

	dedupev1 "github.com/muhammadchandra19/market-simulator/internal/domain/dedupe/v1"
	"github.com/muhammadchandra19/market-simulator/pkg/errors"
	"github.com/muhammadchandra19/market-simulator/pkg/redis"
)

var _ dedupev1.Gate = (*Redis)(nil)

// Redis is a Gate shared by every process pointing at the same Redis, backed by SETNX.
type Redis struct {
	client redis.Client
	ttl    time.Duration
}

// NewRedis returns a gate whose marks expire after ttl. A zero ttl keeps marks forever.
func NewRedis(client redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// MarkIfNew implements dedupev1.Gate.
func (r *Redis) MarkIfNew(ctx context.Context, orderID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.client.Key("settled", orderID), time.Now().UnixMilli(), r.ttl)
	if err != nil {
		return false, errors.NewTracer("failed to mark settlement").Wrap(err)
	}
	return ok, nil
}
