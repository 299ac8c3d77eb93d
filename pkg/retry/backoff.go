package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	errs "postscraper/pkg/errors"
)

// BackoffStrategy defines the interface for different backoff strategies
type BackoffStrategy interface {
	// NextDelay returns the delay before retry number attempt (1-based)
	NextDelay(attempt int) time.Duration
	// Reset resets the backoff strategy to initial state
	Reset()
}

// ErrorAwareBackoff is implemented by strategies that pick a delay based on
// the error that caused the retry. Do prefers it over NextDelay.
type ErrorAwareBackoff interface {
	BackoffStrategy
	DelayForError(err error, attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	// BaseDelay is the initial delay duration
	BaseDelay time.Duration
	// MaxDelay caps the delay; zero means no cap
	MaxDelay time.Duration
	// Multiplier is the factor by which delay increases
	Multiplier float64
	// JitterFactor adds randomness (0.0 to 1.0)
	JitterFactor float64
}

// DefaultExponentialBackoff returns a backoff with sensible defaults
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NewExponentialBackoff builds an exponential backoff, falling back to the
// defaults for zero values
func NewExponentialBackoff(base, max time.Duration, multiplier, jitter float64) *ExponentialBackoff {
	b := DefaultExponentialBackoff()
	if base > 0 {
		b.BaseDelay = base
	}
	if max > 0 {
		b.MaxDelay = max
	}
	if multiplier >= 1 {
		b.Multiplier = multiplier
	}
	b.JitterFactor = jitter
	return b
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	return withJitter(delay, eb.JitterFactor)
}

// Reset is a no-op; the delay depends only on the attempt number
func (eb *ExponentialBackoff) Reset() {}

// LinearBackoff implements linear backoff strategy
type LinearBackoff struct {
	// BaseDelay is the delay before the first retry
	BaseDelay time.Duration
	// MaxDelay caps the delay; zero means no cap
	MaxDelay time.Duration
	// Increment is the amount to increase delay by each attempt
	Increment time.Duration
	// JitterFactor adds randomness (0.0 to 1.0)
	JitterFactor float64
}

// NextDelay calculates the next delay with linear backoff
func (lb *LinearBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(lb.BaseDelay + lb.Increment*time.Duration(attempt-1))
	if lb.MaxDelay > 0 && delay > float64(lb.MaxDelay) {
		delay = float64(lb.MaxDelay)
	}

	return withJitter(delay, lb.JitterFactor)
}

func (lb *LinearBackoff) Reset() {}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

func (cb *ConstantBackoff) Reset() {}

// PaddedBackoff adds a fixed floor to every delay of the wrapped strategy.
// The crawler uses it so a retry never comes sooner than the pause between
// requests.
type PaddedBackoff struct {
	Floor   time.Duration
	Backoff BackoffStrategy
}

// NextDelay returns Floor plus the wrapped strategy's delay
func (pb *PaddedBackoff) NextDelay(attempt int) time.Duration {
	if pb.Backoff == nil {
		return pb.Floor
	}
	return pb.Floor + pb.Backoff.NextDelay(attempt)
}

// DelayForError returns Floor plus the wrapped strategy's delay for err
func (pb *PaddedBackoff) DelayForError(err error, attempt int) time.Duration {
	if pb.Backoff == nil {
		return pb.Floor
	}
	return pb.Floor + delayFor(pb.Backoff, err, attempt)
}

func (pb *PaddedBackoff) Reset() {
	if pb.Backoff != nil {
		pb.Backoff.Reset()
	}
}

// ErrorTypeBackoff provides different backoff strategies based on error types
type ErrorTypeBackoff struct {
	// NetworkErrorBackoff for network-related errors and timeouts
	NetworkErrorBackoff BackoffStrategy
	// RateLimitBackoff for rate limit errors (typically longer delays)
	RateLimitBackoff BackoffStrategy
	// ServerErrorBackoff for 5xx errors
	ServerErrorBackoff BackoffStrategy
	// DefaultBackoff for other retryable errors
	DefaultBackoff BackoffStrategy
}

// NewErrorTypeBackoff creates an error-type based backoff around base.
// Rate limit responses back off from a longer base delay.
func NewErrorTypeBackoff(base *ExponentialBackoff) *ErrorTypeBackoff {
	if base == nil {
		base = DefaultExponentialBackoff()
	}
	rateLimit := *base
	rateLimit.BaseDelay = 10 * base.BaseDelay
	if rateLimit.MaxDelay > 0 && rateLimit.MaxDelay < 5*time.Minute {
		rateLimit.MaxDelay = 5 * time.Minute
	}

	return &ErrorTypeBackoff{
		NetworkErrorBackoff: base,
		RateLimitBackoff:    &rateLimit,
		ServerErrorBackoff:  base,
		DefaultBackoff:      base,
	}
}

// GetBackoffForError returns the appropriate backoff strategy for the error type
func (etb *ErrorTypeBackoff) GetBackoffForError(errorType errs.ErrorType) BackoffStrategy {
	switch errorType {
	case errs.ErrorTypeNetwork, errs.ErrorTypeTimeout:
		return etb.NetworkErrorBackoff
	case errs.ErrorTypeRateLimit:
		return etb.RateLimitBackoff
	case errs.ErrorTypeServerError:
		return etb.ServerErrorBackoff
	default:
		return etb.DefaultBackoff
	}
}

// NextDelay uses the default strategy
func (etb *ErrorTypeBackoff) NextDelay(attempt int) time.Duration {
	return etb.DefaultBackoff.NextDelay(attempt)
}

// DelayForError picks the strategy matching err's type
func (etb *ErrorTypeBackoff) DelayForError(err error, attempt int) time.Duration {
	var e *errs.Error
	if errors.As(err, &e) {
		return etb.GetBackoffForError(e.Type).NextDelay(attempt)
	}
	return etb.DefaultBackoff.NextDelay(attempt)
}

func (etb *ErrorTypeBackoff) Reset() {
	etb.NetworkErrorBackoff.Reset()
	etb.RateLimitBackoff.Reset()
	etb.ServerErrorBackoff.Reset()
	etb.DefaultBackoff.Reset()
}

func delayFor(b BackoffStrategy, err error, attempt int) time.Duration {
	if eb, ok := b.(ErrorAwareBackoff); ok {
		return eb.DelayForError(err, attempt)
	}
	return b.NextDelay(attempt)
}

// withJitter spreads delay by up to ±factor of itself
func withJitter(delay, factor float64) time.Duration {
	if factor > 0 {
		jitter := delay * factor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
