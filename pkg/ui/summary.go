package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/rodaine/table"

	"postscraper/pkg/crawler"
)

// PrintSummary writes a per-page table of the crawl followed by the totals
func PrintSummary(w io.Writer, report *crawler.Report) {
	headerFmt := func(format string, vals ...interface{}) string {
		return Cyan(fmt.Sprintf(format, vals...))
	}

	tbl := table.New("Page", "Posts", "Attempts", "Status").
		WithWriter(w).
		WithHeaderFormatter(headerFmt)

	for _, stat := range report.Pages {
		tbl.AddRow(stat.Page, stat.Posts, stat.Attempts, pageStatus(stat))
	}
	tbl.Print()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d\n", Dim("pages visited:"), report.PagesVisited())
	fmt.Fprintf(w, "%s %d\n", Dim("posts:"), report.Result.Len())
	fmt.Fprintf(w, "%s %d\n", Dim("failed attempts:"), report.FailedAttempts)
	if len(report.Skipped) > 0 {
		pages := make([]string, len(report.Skipped))
		for i, p := range report.Skipped {
			pages[i] = fmt.Sprint(p)
		}
		fmt.Fprintf(w, "%s %s\n", Dim("skipped pages:"), strings.Join(pages, ", "))
	}
	fmt.Fprintf(w, "%s %s\n", Dim("stopped:"), describeStop(report.StopReason))
	fmt.Fprintf(w, "%s %s\n", Dim("duration:"), formatDuration(report.Duration))
}

func pageStatus(stat crawler.PageStat) string {
	switch {
	case stat.Skipped:
		return "skipped"
	case stat.Failures == stat.Attempts:
		return "interrupted"
	case stat.HasNext:
		return "ok"
	default:
		return "ok (last)"
	}
}

func describeStop(reason crawler.StopReason) string {
	switch reason {
	case crawler.StopNoNextPage:
		return "no next page"
	case crawler.StopPageBudget:
		return "page limit reached"
	case crawler.StopInterrupted:
		return "interrupted"
	default:
		return string(reason)
	}
}
