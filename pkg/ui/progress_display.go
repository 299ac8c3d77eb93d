package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ProgressDisplay renders crawl progress on a single terminal line. It
// satisfies crawler.Observer.
type ProgressDisplay struct {
	mu      sync.Mutex
	w       io.Writer
	tracker *StatusTracker
	attempt int
	isDebug bool
}

// NewProgressDisplay creates a display for a crawl of at most maxPages pages.
// With debug set every event gets its own line instead.
func NewProgressDisplay(w io.Writer, maxPages int, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		w:       w,
		tracker: NewStatusTracker(maxPages),
		isDebug: debug,
	}
}

// PageStarted marks the start of an attempt at page
func (p *ProgressDisplay) PageStarted(page, attempt int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracker.Page = page
	p.attempt = attempt

	if p.isDebug {
		fmt.Fprintf(p.w, "%s Fetching page %d (attempt %d)\n", Magenta("→"), page, attempt)
		return
	}
	p.printProgress()
}

// PageDone records a successfully extracted page
func (p *ProgressDisplay) PageDone(page, posts int, hasNext bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracker.Posts += posts

	if p.isDebug {
		line := fmt.Sprintf("%s Page %d • %d posts", Green("✓"), page, posts)
		if !hasNext {
			line += " • " + Dim("last page")
		}
		fmt.Fprintln(p.w, line)
		return
	}
	p.printProgress()
}

// PageFailed records a failed attempt
func (p *ProgressDisplay) PageFailed(page, attempt int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracker.Failures++

	if p.isDebug {
		fmt.Fprintf(p.w, "%s Page %d attempt %d failed: %v\n", Red("✗"), page, attempt, err)
		return
	}
	p.printProgress()
}

// PageSkipped records a page that was given up on
func (p *ProgressDisplay) PageSkipped(page int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracker.Skipped++

	if p.isDebug {
		fmt.Fprintf(p.w, "%s Skipped page %d: %v\n", Yellow("⚠"), page, err)
		return
	}
	p.printProgress()
}

// printProgress redraws the progress line
func (p *ProgressDisplay) printProgress() {
	line := fmt.Sprintf("%s %s • %d posts • %.1f pages/min",
		Cyan("page"),
		p.tracker.GetPageProgress(),
		p.tracker.Posts,
		p.tracker.GetPageRate(),
	)

	if p.attempt > 1 {
		line += fmt.Sprintf(" • attempt %d", p.attempt)
	}
	if p.tracker.Failures > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d errors", p.tracker.Failures)))
	}
	if p.tracker.Skipped > 0 {
		line += fmt.Sprintf(" • %s", Yellow(fmt.Sprintf("%d skipped", p.tracker.Skipped)))
	}

	fmt.Fprintf(p.w, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

// Complete ends the progress line
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isDebug {
		fmt.Fprintln(p.w)
	}
	fmt.Fprintf(p.w, "%s Collected %d posts from %d pages in %s\n",
		Green("✓"),
		p.tracker.Posts,
		p.tracker.Page,
		formatDuration(p.tracker.GetElapsedTime()),
	)
}
