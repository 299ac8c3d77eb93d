package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "━"
	ProgressEmpty = "─"
	barWidth      = 20
)

// StatusTracker keeps the running totals of a crawl
type StatusTracker struct {
	MaxPages  int
	Page      int
	Posts     int
	Failures  int
	Skipped   int
	StartTime time.Time
}

// NewStatusTracker creates a tracker for a crawl of at most maxPages pages
func NewStatusTracker(maxPages int) *StatusTracker {
	return &StatusTracker{
		MaxPages:  maxPages,
		StartTime: time.Now(),
	}
}

// GetPageProgress returns a bar of visited pages against the page budget.
// The crawl may end early, so the bar is an upper bound.
func (st *StatusTracker) GetPageProgress() string {
	filled := 0
	if st.MaxPages > 0 {
		filled = st.Page * barWidth / st.MaxPages
	}
	if filled > barWidth {
		filled = barWidth
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, barWidth-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.Page, st.MaxPages)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetPageRate returns pages visited per minute
func (st *StatusTracker) GetPageRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Page) / elapsed
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
