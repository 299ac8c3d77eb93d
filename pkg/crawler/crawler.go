package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "postscraper/pkg/errors"
	"postscraper/pkg/logger"
	"postscraper/pkg/models"
	"postscraper/pkg/ratelimit"
	"postscraper/pkg/retry"
)

// ErrInterrupted is returned by Run when the context ends before the crawl
// does. The report still holds everything collected so far.
var ErrInterrupted = errors.New("crawl interrupted")

// Options holds the optional collaborators of a Crawler
type Options struct {
	Logger   logger.Logger
	Observer Observer
	// Limiter is an extra requests-per-minute cap; nil means none
	Limiter ratelimit.Limiter
	// Backoff is added on top of the inter-request delay before a retry
	Backoff retry.BackoffStrategy
	// MaxAttempts per page before it is skipped; 0 retries until success
	MaxAttempts int
	// SkipPermanent skips a page at once on a fetch error that retrying
	// cannot fix, such as 404 or 403
	SkipPermanent bool
}

// DefaultOptions returns options with bounded retry and exponential backoff
func DefaultOptions() Options {
	return Options{
		Backoff:     retry.DefaultExponentialBackoff(),
		MaxAttempts: 5,
	}
}

// Crawler walks listing pages 1..MaxPages in order, one request at a time
type Crawler struct {
	cfg       models.RunConfig
	fetcher   PageFetcher
	extractor PageExtractor
	opts      Options
	logger    logger.Logger
	observer  Observer

	// wait pauses between pages
	wait func(ctx context.Context, d time.Duration) error
}

// New creates a Crawler. cfg is validated here.
func New(cfg models.RunConfig, fetcher PageFetcher, extractor PageExtractor, opts Options) (*Crawler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}
	if fetcher == nil || extractor == nil {
		return nil, errors.New("fetcher and extractor are required")
	}
	if opts.MaxAttempts < 0 {
		return nil, fmt.Errorf("max attempts cannot be negative: %d", opts.MaxAttempts)
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	if opts.Backoff == nil {
		opts.Backoff = &retry.ConstantBackoff{}
	}

	return &Crawler{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		opts:      opts,
		logger:    log,
		observer:  observer,
		wait:      retry.Wait,
	}, nil
}

// Run crawls until a page has no next-page marker or MaxPages pages were
// visited. A page that keeps failing is retried, then skipped once
// MaxAttempts is reached. When ctx ends, Run stops at the next attempt
// boundary or delay and returns the partial report with ErrInterrupted.
// An in-flight request is never cut short; it is bounded by the request
// timeout instead.
func (c *Crawler) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{Result: models.CrawlResult{}}

	c.logger.InfoWithFields("Starting crawl", map[string]interface{}{
		"base_url":     c.cfg.BaseURL,
		"max_pages":    c.cfg.MaxPages,
		"max_attempts": c.opts.MaxAttempts,
		"delay":        c.cfg.InterRequestDelay,
	})

	finish := func(reason StopReason) {
		report.StopReason = reason
		report.Duration = time.Since(start)
		logger.LogCrawlSummary(c.logger, report.PagesVisited(), report.Result.Len(),
			report.FailedAttempts, report.Skipped, string(reason), report.Duration)
	}

	for page := 1; page <= c.cfg.MaxPages; page++ {
		stat, outcome, err := c.visit(ctx, page)
		report.FailedAttempts += stat.Failures

		if errors.Is(err, ErrInterrupted) {
			if stat.Attempts > 0 {
				report.Pages = append(report.Pages, stat)
			}
			finish(StopInterrupted)
			return report, ErrInterrupted
		}

		if err != nil {
			stat.Skipped = true
			stat.Err = err
			report.Skipped = append(report.Skipped, page)
			c.logger.WithError(err).ErrorWithFields("Giving up on page", map[string]interface{}{
				"page":     page,
				"attempts": stat.Attempts,
			})
			c.observer.PageSkipped(page, err)
		} else {
			report.Result = append(report.Result, outcome.Posts...)
			stat.Posts = len(outcome.Posts)
			stat.HasNext = outcome.HasNext
			c.observer.PageDone(page, stat.Posts, stat.HasNext)

			if stat.Posts == 0 && outcome.HasNext {
				c.logger.WarnWithFields("No posts found on page but a next page exists; selectors may be out of date", map[string]interface{}{
					"page": page,
				})
			}
		}
		report.Pages = append(report.Pages, stat)

		// The pause follows every page, the last one included
		if err := c.wait(ctx, c.cfg.InterRequestDelay); err != nil {
			finish(StopInterrupted)
			return report, ErrInterrupted
		}

		if err == nil && !outcome.HasNext {
			finish(StopNoNextPage)
			return report, nil
		}
	}

	finish(StopPageBudget)
	return report, nil
}

// visit makes up to MaxAttempts attempts at one page. It returns nil once an
// attempt succeeds, an error wrapping ErrInterrupted when ctx ended, or the
// failure that made it give up on the page.
func (c *Crawler) visit(ctx context.Context, page int) (PageStat, models.PageOutcome, error) {
	stat := PageStat{Page: page}
	var outcome models.PageOutcome

	op := func() error {
		if c.opts.Limiter != nil {
			if err := c.opts.Limiter.Wait(ctx); err != nil {
				return fmt.Errorf("%w: %w", ErrInterrupted, err)
			}
		}

		stat.Attempts++
		c.observer.PageStarted(page, stat.Attempts)

		start := time.Now()
		var err error
		outcome, err = c.attempt(ctx, page)
		if err != nil {
			stat.Failures++
			logger.LogPageFailed(c.logger, page, stat.Attempts, err)
			c.observer.PageFailed(page, stat.Attempts, err)
			return err
		}

		logger.LogPageFetched(c.logger, page, len(outcome.Posts), outcome.HasNext, time.Since(start))
		return nil
	}

	err := retry.Do(op, &retry.Config{
		MaxAttempts: c.opts.MaxAttempts,
		Backoff: &retry.PaddedBackoff{
			Floor:   c.cfg.InterRequestDelay,
			Backoff: c.opts.Backoff,
		},
		RetryIf: c.shouldRetry,
		Context: ctx,
		Logger:  c.logger,
	})

	switch {
	case err == nil:
		return stat, outcome, nil
	case errors.Is(err, ErrInterrupted), ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return stat, models.PageOutcome{}, fmt.Errorf("%w: %w", ErrInterrupted, err)
	default:
		return stat, models.PageOutcome{}, err
	}
}

// attempt fetches and extracts one page. The fetch is detached from ctx
// cancellation so an interrupt never cuts a response in half.
func (c *Crawler) attempt(ctx context.Context, page int) (models.PageOutcome, error) {
	body, err := c.fetcher.Fetch(context.WithoutCancel(ctx), page)
	if err != nil {
		return models.PageOutcome{}, err
	}

	outcome, err := c.extractor.Extract(body)
	if err != nil {
		return models.PageOutcome{}, errs.NewExtractionError(page, err)
	}
	return outcome, nil
}

func (c *Crawler) shouldRetry(err error) bool {
	if errors.Is(err, ErrInterrupted) {
		return false
	}
	if c.opts.SkipPermanent && errs.IsKind(err, errs.KindFetch) {
		var e *errs.Error
		if errors.As(err, &e) && !errs.IsRetryable(e.Type) {
			return false
		}
	}
	return true
}
