// Package crawler walks a paginated listing site page by page and collects
// the posts found on each page.
//
// The Crawler coordinates a PageFetcher (usually *site.Client), a
// PageExtractor (usually *extract.Extractor), optional rate limiting and the
// retry loop from package retry.
//
// Termination:
//
// A crawl ends at the first page without a next-page marker, after MaxPages
// page numbers, or when the context is cancelled. A page that keeps failing
// is retried with backoff and skipped once Options.MaxAttempts is reached;
// a skipped page never stops the crawl.
//
// Usage:
//
//	c, err := crawler.New(cfg.RunConfig(), site.NewClient(cfg.RunConfig(), log), extractor, crawler.Options{
//	    Logger:      log,
//	    Backoff:     retry.DefaultExponentialBackoff(),
//	    MaxAttempts: 5,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := c.Run(ctx)
//	if errors.Is(err, crawler.ErrInterrupted) {
//	    // report holds the partial result
//	}
//
// The pause between requests follows every page, including the last one.
// Retries wait for that pause plus the backoff delay.
package crawler
