package transport

import "time"

// Config defines transport timing and reliability behavior.
type Config struct {
	// WarmupDelay is waited after open before the first write so the
	// embedded side can finish its boot/reset sequence.
	WarmupDelay time.Duration
	// ReadTimeout bounds each drain read so cancellation is observed
	// between bytes.
	ReadTimeout time.Duration
	// WriteAttempts bounds retries of a single byte write. When exhausted
	// the in-flight frame is abandoned and the failure reported.
	WriteAttempts int
	// ErrorBuffer is the capacity of the transient-error report channel.
	// Reports beyond capacity are dropped, never blocked on.
	ErrorBuffer int
	Backoff     BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		WarmupDelay:   2 * time.Second,
		ReadTimeout:   100 * time.Millisecond,
		WriteAttempts: 5,
		ErrorBuffer:   64,
		Backoff: BackoffConfig{
			InitialDelay: 10 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     500 * time.Millisecond,
			Jitter:       true,
		},
	}
}
