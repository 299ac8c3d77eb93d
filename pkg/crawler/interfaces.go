package crawler

import (
	"context"

	"postscraper/pkg/models"
)

// PageFetcher retrieves the raw body of a numbered listing page
type PageFetcher interface {
	Fetch(ctx context.Context, page int) ([]byte, error)
}

// PageExtractor reads posts and the next-page marker from a page body
type PageExtractor interface {
	Extract(body []byte) (models.PageOutcome, error)
}

// Observer is told about page-level progress. Calls happen on the crawl
// goroutine, in order.
type Observer interface {
	PageStarted(page, attempt int)
	PageDone(page, posts int, hasNext bool)
	PageFailed(page, attempt int, err error)
	PageSkipped(page int, err error)
}

type nopObserver struct{}

func (nopObserver) PageStarted(int, int)       {}
func (nopObserver) PageDone(int, int, bool)    {}
func (nopObserver) PageFailed(int, int, error) {}
func (nopObserver) PageSkipped(int, error)     {}
