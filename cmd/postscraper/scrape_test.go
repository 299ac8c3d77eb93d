package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pageOne = `<h2 class="post-title entry-title"><a href="https://example.com/a/">A, first</a></h2>
			<a class="nextpostslink" rel="next" href="/page/2">»</a>`
	pageTwo = `<h2 class="post-title entry-title"><a href="https://example.com/b/">B</a></h2>`
)

// listingServer serves pageOne and pageTwo and records the requested paths
type listingServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
	onHit    func()
}

func newListingServer(t *testing.T) *listingServer {
	t.Helper()

	pages := map[string]string{"/page/1": pageOne, "/page/2": pageTwo}
	ls := &listingServer{}
	ls.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ls.mu.Lock()
		ls.requests = append(ls.requests, r.URL.Path)
		onHit := ls.onHit
		ls.mu.Unlock()
		if onHit != nil {
			onHit()
		}

		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ls.Close)
	return ls
}

func (ls *listingServer) Requests() []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]string(nil), ls.requests...)
}

// executeCommand runs the root command with fresh flag values
func executeCommand(t *testing.T, ctx context.Context, in io.Reader, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	scrapeCmd.Flags().VisitAll(reset)
	// cobra only propagates the root context to a subcommand whose context is unset
	scrapeCmd.SetContext(ctx)

	var out bytes.Buffer
	rootCmd.SetIn(in)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func stubInteractive(t *testing.T, interactive bool) {
	t.Helper()
	prev := isInteractive
	isInteractive = func() bool { return interactive }
	t.Cleanup(func() { isInteractive = prev })
}

func outputPaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "posts.json"), filepath.Join(dir, "posts.csv")
}

func writeExisting(t *testing.T, jsonPath, csvPath string) {
	t.Helper()
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"title":"old","url":"https://old/"}]`), 0o644))
	require.NoError(t, os.WriteFile(csvPath, []byte("Title,URL\nold,https://old/\n"), 0o644))
}

func TestScrapeCommandSavesResults(t *testing.T) {
	srv := newListingServer(t)
	jsonPath, csvPath := outputPaths(t)

	_, err := executeCommand(t, context.Background(), strings.NewReader(""),
		"scrape", "--quiet", "--no-color",
		"--pages", "5",
		"--delay", "0s",
		"--base-url", srv.URL+"/page/",
		"--json", jsonPath,
		"--csv", csvPath,
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"/page/1", "/page/2"}, srv.Requests())

	csvData, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "Title,URL\n\"A, first\",https://example.com/a/\nB,https://example.com/b/\n", string(csvData))
	assert.FileExists(t, jsonPath)
}

func TestScrapeCommandDeclinedOverwriteKeepsFiles(t *testing.T) {
	stubInteractive(t, true)
	srv := newListingServer(t)
	jsonPath, csvPath := outputPaths(t)
	writeExisting(t, jsonPath, csvPath)

	jsonBefore, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	csvBefore, err := os.ReadFile(csvPath)
	require.NoError(t, err)

	out, err := executeCommand(t, context.Background(), strings.NewReader("n\n"),
		"scrape", "--quiet", "--no-color",
		"--pages", "2",
		"--delay", "0s",
		"--base-url", srv.URL+"/page/",
		"--json", jsonPath,
		"--csv", csvPath,
	)
	require.NoError(t, err)

	// The question is shown even in quiet mode
	assert.Contains(t, out, "Do you want to overwrite them? (y/n)")
	assert.Empty(t, srv.Requests())

	jsonAfter, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	csvAfter, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, jsonBefore, jsonAfter)
	assert.Equal(t, csvBefore, csvAfter)
}

func TestScrapeCommandExistingFilesNeedYesWhenNotInteractive(t *testing.T) {
	stubInteractive(t, false)
	srv := newListingServer(t)
	jsonPath, csvPath := outputPaths(t)
	writeExisting(t, jsonPath, csvPath)

	_, err := executeCommand(t, context.Background(), strings.NewReader("y\n"),
		"scrape", "--quiet", "--no-color",
		"--pages", "2",
		"--delay", "0s",
		"--base-url", srv.URL+"/page/",
		"--json", jsonPath,
		"--csv", csvPath,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.Empty(t, srv.Requests())
}

func TestScrapeCommandPagesRequiredWhenNotInteractive(t *testing.T) {
	stubInteractive(t, false)
	srv := newListingServer(t)
	jsonPath, csvPath := outputPaths(t)

	_, err := executeCommand(t, context.Background(), strings.NewReader("3\n"),
		"scrape", "--quiet", "--no-color",
		"--base-url", srv.URL+"/page/",
		"--json", jsonPath,
		"--csv", csvPath,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--pages")
	assert.Empty(t, srv.Requests())
}

func TestScrapeCommandInterruptedCrawlWritesNothing(t *testing.T) {
	srv := newListingServer(t)
	jsonPath, csvPath := outputPaths(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.onHit = cancel

	_, err := executeCommand(t, ctx, strings.NewReader(""),
		"scrape", "--quiet", "--no-color",
		"--pages", "5",
		"--delay", "0s",
		"--base-url", srv.URL+"/page/",
		"--json", jsonPath,
		"--csv", csvPath,
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"/page/1"}, srv.Requests())
	assert.NoFileExists(t, jsonPath)
	assert.NoFileExists(t, csvPath)
}

func TestScrapeCommandInterruptedWhileAsking(t *testing.T) {
	stubInteractive(t, true)
	srv := newListingServer(t)
	jsonPath, csvPath := outputPaths(t)

	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	out, err := executeCommand(t, ctx, pr,
		"scrape", "--quiet", "--no-color",
		"--delay", "0s",
		"--base-url", srv.URL+"/page/",
		"--json", jsonPath,
		"--csv", csvPath,
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Enter the number of pages you wish to scrape: ")
	assert.Empty(t, srv.Requests())
	assert.NoFileExists(t, jsonPath)
	assert.NoFileExists(t, csvPath)
}
