package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postscraper/pkg/crawler"
	"postscraper/pkg/models"
)

func plain(t *testing.T) {
	t.Helper()
	SetColor(false)
	t.Cleanup(func() { SetColor(true) })
}

func TestColorize(t *testing.T) {
	assert.Equal(t, "\033[31mboom\033[0m", Red("boom"))

	plain(t)
	assert.Equal(t, "boom", Red("boom"))
}

func TestPrintHelpers(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	PrintError("Save failed", errors.New("disk full"))
	PrintWarning("Careful")
	PrintSuccess("Done")
	PrintInfo("Posts", "12")

	assert.Equal(t, "Save failed: disk full\nCareful\nDone\nPosts: 12\n", buf.String())
}

func TestStatusTrackerProgress(t *testing.T) {
	st := NewStatusTracker(4)
	st.Page = 2
	assert.Equal(t, "["+strings.Repeat(ProgressBar, 10)+strings.Repeat(ProgressEmpty, 10)+"] 2/4", st.GetPageProgress())

	st.Page = 9
	assert.Contains(t, st.GetPageProgress(), strings.Repeat(ProgressBar, barWidth))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
}

func TestProgressDisplayObservesCrawl(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	var observer crawler.Observer = NewProgressDisplay(&buf, 3, false)
	p := observer.(*ProgressDisplay)

	p.PageStarted(1, 1)
	p.PageDone(1, 4, true)
	p.PageStarted(2, 1)
	p.PageFailed(2, 1, errors.New("timeout"))
	p.PageStarted(2, 2)
	p.PageDone(2, 3, false)
	p.Complete()

	out := buf.String()
	assert.Contains(t, out, "7 posts")
	assert.Contains(t, out, "1 errors")
	assert.Contains(t, out, "attempt 2")
	assert.Contains(t, out, "Collected 7 posts from 2 pages")
}

func TestProgressDisplayDebug(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, 3, true)

	p.PageStarted(1, 1)
	p.PageFailed(1, 1, errors.New("status 503"))
	p.PageSkipped(1, errors.New("max retry attempts exceeded"))
	p.PageStarted(2, 1)
	p.PageDone(2, 5, false)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "→ Fetching page 1 (attempt 1)", lines[0])
	assert.Equal(t, "✗ Page 1 attempt 1 failed: status 503", lines[1])
	assert.Equal(t, "⚠ Skipped page 1: max retry attempts exceeded", lines[2])
	assert.Equal(t, "✓ Page 2 • 5 posts • last page", lines[4])
}

func TestPrintSummary(t *testing.T) {
	plain(t)
	report := &crawler.Report{
		Result: models.CrawlResult{{Title: "A", URL: "u1"}, {Title: "B", URL: "u2"}, {Title: "C", URL: "u3"}},
		Pages: []crawler.PageStat{
			{Page: 1, Posts: 2, Attempts: 1, HasNext: true},
			{Page: 2, Attempts: 3, Failures: 3, Skipped: true},
			{Page: 3, Posts: 1, Attempts: 2, Failures: 1},
		},
		FailedAttempts: 4,
		Skipped:        []int{2},
		StopReason:     crawler.StopNoNextPage,
		Duration:       75 * time.Second,
	}

	var buf bytes.Buffer
	PrintSummary(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "Page")
	assert.Contains(t, out, "Attempts")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "ok (last)")
	assert.Contains(t, out, "pages visited: 3")
	assert.Contains(t, out, "posts: 3")
	assert.Contains(t, out, "failed attempts: 4")
	assert.Contains(t, out, "skipped pages: 2")
	assert.Contains(t, out, "stopped: no next page")
	assert.Contains(t, out, "duration: 1m15s")
}

type fakeSender struct {
	titles []string
	err    error
}

func (f *fakeSender) Send(title, message string) error {
	f.titles = append(f.titles, title)
	return f.err
}

func TestNotifier(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	sender := &fakeSender{err: errors.New("no display")}
	n := NewNotifierWithSender(&buf, sender)

	n.SendSuccess("Scrape complete", "12 posts saved")
	n.SendError("Scrape failed", "disk full")

	assert.Equal(t, []string{"Scrape complete", "Scrape failed"}, sender.titles)
	assert.Contains(t, buf.String(), "Scrape complete: 12 posts saved")
	assert.Contains(t, buf.String(), "Scrape failed: disk full")
}

func TestNotifierWithoutDesktop(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	n := NewNotifier(&buf, false)
	assert.Nil(t, n.sender)

	n.SendNotification("Nothing to save", "no posts found")
	assert.Equal(t, "\nNothing to save: no posts found\n", buf.String())
}

func TestAppleScriptQuote(t *testing.T) {
	assert.Equal(t, `"say \"hi\""`, appleScriptQuote(`say "hi"`))
}

func TestWindowsToastScriptEscapes(t *testing.T) {
	script := windowsToastScript("Scrape failed", "write C:\\out\\a&b.csv: <denied>\n'@ \"$env:HOME\"")

	assert.Contains(t, script, `a&amp;b.csv: &lt;denied&gt;`)
	assert.Contains(t, script, `&#39;@ &#34;$env:HOME&#34;`)
	assert.NotContains(t, script, "<denied>")
	assert.Equal(t, 1, strings.Count(script, "\n'@"), "message must not close the here-string")
	assert.Contains(t, script, `<text id="1">Scrape failed</text>`)
}
