package llm

import "time"

// RetryConfig holds the retry policy for LLM requests. It is the single
// place where time-based suspension between attempts is described; the
// client consults it, everything above the client stays synchronous.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per call (1 = no retry).
	MaxAttempts int

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64

	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns sensible retry defaults for LLM requests.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       4, // initial attempt + 3 retries
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}
