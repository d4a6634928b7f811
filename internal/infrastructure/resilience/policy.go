package resilience

import "time"

// Config controls retries and the per-operation circuit breaker. A single
// attempt (no retry) is the default for the files API.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    1,
		RetryInitialBackoff: 200 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      5,
		BreakerFailureRatio:     0.6,
		BreakerOpenTimeout:      20 * time.Second,
		BreakerHalfOpenMaxCalls: 1,
	}
}

// Retries reports whether a failed call may be attempted again.
func (c Config) Retries() bool {
	return c.RetryMaxAttempts > 1
}

// normalize fills unset or out-of-range fields from DefaultConfig.
func (c Config) normalize() Config {
	def := DefaultConfig()
	out := Config{
		RetryMaxAttempts:        positiveOr(c.RetryMaxAttempts, def.RetryMaxAttempts),
		RetryInitialBackoff:     positiveOr(c.RetryInitialBackoff, def.RetryInitialBackoff),
		RetryMaxBackoff:         positiveOr(c.RetryMaxBackoff, def.RetryMaxBackoff),
		RetryMultiplier:         c.RetryMultiplier,
		BreakerEnabled:          c.BreakerEnabled,
		BreakerMinRequests:      positiveOr(c.BreakerMinRequests, def.BreakerMinRequests),
		BreakerFailureRatio:     c.BreakerFailureRatio,
		BreakerOpenTimeout:      positiveOr(c.BreakerOpenTimeout, def.BreakerOpenTimeout),
		BreakerHalfOpenMaxCalls: positiveOr(c.BreakerHalfOpenMaxCalls, def.BreakerHalfOpenMaxCalls),
	}
	out.RetryMaxBackoff = max(out.RetryMaxBackoff, out.RetryInitialBackoff)
	if out.RetryMultiplier < 1 {
		out.RetryMultiplier = def.RetryMultiplier
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	return out
}

func positiveOr[T int | uint32 | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}
