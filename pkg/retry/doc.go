// Package retry provides backoff strategies and a retry loop for transient
// page failures.
//
// Strategies:
//   - ExponentialBackoff, LinearBackoff, ConstantBackoff
//   - PaddedBackoff adds a fixed floor, such as the pause between requests
//   - ErrorTypeBackoff backs off longer on rate limit responses
//
// Basic usage:
//
//	err := retry.Do(func() error {
//		return fetchPage(ctx, page)
//	}, &retry.Config{
//		MaxAttempts: 5,
//		Backoff:     &retry.PaddedBackoff{Floor: 2 * time.Second, Backoff: retry.DefaultExponentialBackoff()},
//		Context:     ctx,
//	})
//	if errors.Is(err, retry.ErrMaxAttemptsExceeded) {
//		// give up on this page
//	}
//
// MaxAttempts of 0 retries until the operation succeeds or the context ends.
package retry
