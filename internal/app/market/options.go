package market

import "time"

// Options represents configuration options for the Engine.
type Options struct {
	// SnapshotInterval is how often broker snapshots are stored. Zero disables periodic snapshots.
	SnapshotInterval time.Duration
	// RetryDelay is the pause after a failed read from a settlement topic and before an order
	// deferred by an unreachable store is settled again.
	RetryDelay time.Duration
}

// DefaultEngineOptions returns the default engine options.
func DefaultEngineOptions() *Options {
	return &Options{
		SnapshotInterval: 10 * time.Second,
		RetryDelay:       500 * time.Millisecond,
	}
}
