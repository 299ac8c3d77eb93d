// Package ratelimit caps how many page requests are made per time window.
//
// The crawler already pauses a fixed delay between requests. A Limiter is an
// optional second bound, expressed as requests per minute.
//
// Implementations:
//   - SlidingWindow tracks request times inside a moving window (default)
//   - TokenBucket refills to capacity once per period, allowing bursts
//
// Usage:
//
//	limiter, err := ratelimit.New(ratelimit.StrategySlidingWindow, 20)
//	if err != nil {
//	    return err
//	}
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // ctx ended
//	}
package ratelimit
