package retry

import (
	"math"
	"math/rand"
	"time"
)

// Backoff handles exponential backoff calculations.
type Backoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Factor    float64
	Jitter    float64 // 0.0-1.0, fraction of jitter to add
}

// DefaultBackoff returns the reconnect backoff used by the subscriber
// client: base * 2^attempt, capped at 30 seconds, no jitter so delays
// stay deterministic.
func DefaultBackoff() *Backoff {
	return &Backoff{
		BaseDelay: 1 * time.Second,
		MaxDelay:  30 * time.Second,
		Factor:    2.0,
	}
}

// NextDelay calculates the delay before the given attempt (0-based).
func (b *Backoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(b.BaseDelay) * math.Pow(b.Factor, float64(attempt))
	if delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}

	if b.Jitter > 0 {
		jitterRange := delay * b.Jitter
		jitter := (rand.Float64() * 2 * jitterRange) - jitterRange
		delay += jitter
		if delay > float64(b.MaxDelay) {
			delay = float64(b.MaxDelay)
		}
	}

	if delay < float64(b.BaseDelay) {
		delay = float64(b.BaseDelay)
	}

	return time.Duration(delay)
}
