package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogPageFetched logs a page that was fetched and extracted
func LogPageFetched(l Logger, page, posts int, hasNext bool, duration time.Duration) {
	l.InfoWithFields("Successfully scraped page", map[string]interface{}{
		"page":     page,
		"posts":    posts,
		"has_next": hasNext,
		"duration": duration,
	})
}

// LogPageFailed logs a failed attempt at a page
func LogPageFailed(l Logger, page, attempt int, err error) {
	l.WithError(err).ErrorWithFields("An error occurred while scraping page", map[string]interface{}{
		"page":    page,
		"attempt": attempt,
	})
}

// LogCrawlSummary logs the totals of a finished crawl
func LogCrawlSummary(l Logger, pages, posts, failures int, skipped []int, reason string, duration time.Duration) {
	fields := map[string]interface{}{
		"pages":           pages,
		"posts":           posts,
		"failed_attempts": failures,
		"stop_reason":     reason,
		"duration":        duration,
	}
	if len(skipped) > 0 {
		fields["skipped_pages"] = skipped
	}
	l.InfoWithFields("Crawl finished", fields)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
