package settlement

import "time"

// Options represents configuration options for the Engine.
type Options struct {
	CycleInterval time.Duration
	RetryDelay    time.Duration
}

// DefaultEngineOptions returns the default engine options.
func DefaultEngineOptions() *Options {
	return &Options{
		CycleInterval: time.Second,
		RetryDelay:    500 * time.Millisecond,
	}
}
