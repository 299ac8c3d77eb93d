package crawler

import (
	"time"

	"postscraper/pkg/models"
)

// StopReason records why a crawl ended
type StopReason string

const (
	// StopNoNextPage means a page had no next-page marker
	StopNoNextPage StopReason = "no_next_page"
	// StopPageBudget means MaxPages pages were visited
	StopPageBudget StopReason = "page_budget"
	// StopInterrupted means the context was cancelled
	StopInterrupted StopReason = "interrupted"
)

// PageStat describes what happened to one page number
type PageStat struct {
	Page     int
	Posts    int
	Attempts int
	Failures int
	HasNext  bool
	// Skipped is set when the page was given up on; Err holds the last failure
	Skipped bool
	Err     error
}

// Report summarises a crawl
type Report struct {
	Result         models.CrawlResult
	Pages          []PageStat
	FailedAttempts int
	Skipped        []int
	StopReason     StopReason
	Duration       time.Duration
}

// PagesVisited returns how many distinct page numbers were requested
func (r *Report) PagesVisited() int {
	return len(r.Pages)
}
