package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"postscraper/internal/prompt"
	"postscraper/pkg/config"
	"postscraper/pkg/crawler"
	"postscraper/pkg/extract"
	"postscraper/pkg/logger"
	"postscraper/pkg/models"
	"postscraper/pkg/ratelimit"
	"postscraper/pkg/retry"
	"postscraper/pkg/site"
	"postscraper/pkg/storage"
	"postscraper/pkg/ui"
)

var (
	// Scrape command flags
	pages         int
	assumeYes     bool
	baseURL       string
	delay         time.Duration
	timeout       time.Duration
	maxAttempts   int
	jsonFile      string
	csvFile       string
	skipPermanent bool
	rateLimit     int
	notify        bool
)

// isInteractive reports whether questions can be asked on stdin
var isInteractive = func() bool { return prompt.IsInteractive(os.Stdin) }

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Crawl the listing pages and save the posts",
	Long: `Crawl listing pages 1, 2, 3, ... of the configured site and save the title
and URL of every post to a JSON and a CSV file.

The crawl stops at the first page without a next-page link or after --pages
pages. When --pages is not given and no max_pages is configured, the number
of pages is asked for. Existing output files are only replaced after
confirmation or with --yes.

Pressing Ctrl+C stops the crawl and leaves the output files untouched.`,
	Example: `  # Ask for the number of pages
  postscraper scrape

  # Crawl at most 10 pages and replace existing files without asking
  postscraper scrape --pages 10 --yes

  # Crawl another site with a slower pace
  postscraper scrape --base-url https://example.com/page/ --delay 5s --pages 3

  # Give up on a page after 3 attempts and write to custom files
  postscraper scrape --pages 20 --max-attempts 3 --json posts.json --csv posts.csv`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().IntVarP(&pages, "pages", "n", 0, "maximum number of pages to crawl (asked for when unset)")
	scrapeCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "overwrite existing output files without asking")
	scrapeCmd.Flags().StringVar(&baseURL, "base-url", "", "listing URL prefix; the page number is appended")
	scrapeCmd.Flags().DurationVar(&delay, "delay", 2*time.Second, "pause after every request")
	scrapeCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout of a single request")
	scrapeCmd.Flags().IntVar(&maxAttempts, "max-attempts", 5, "attempts per page before it is skipped (0 retries forever)")
	scrapeCmd.Flags().StringVar(&jsonFile, "json", "", "JSON output file (default scraped_data.json)")
	scrapeCmd.Flags().StringVar(&csvFile, "csv", "", "CSV output file (default scraped_data.csv)")
	scrapeCmd.Flags().BoolVar(&skipPermanent, "skip-permanent", false, "skip a page at once on errors such as 404")
	scrapeCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute cap on top of --delay (0 disables)")
	scrapeCmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when done")
}

// scrapeFlags collects the flags the user set
func scrapeFlags(cmd *cobra.Command) map[string]interface{} {
	flags := globalFlags(cmd)
	f := cmd.Flags()

	if f.Changed("pages") {
		flags["pages"] = pages
	}
	if f.Changed("yes") {
		flags["yes"] = assumeYes
	}
	if f.Changed("base-url") {
		flags["base-url"] = baseURL
	}
	if f.Changed("delay") {
		flags["delay"] = delay
	}
	if f.Changed("timeout") {
		flags["timeout"] = timeout
	}
	if f.Changed("max-attempts") {
		flags["max-attempts"] = maxAttempts
	}
	if f.Changed("json") {
		flags["json"] = jsonFile
	}
	if f.Changed("csv") {
		flags["csv"] = csvFile
	}
	if f.Changed("skip-permanent") {
		flags["skip-permanent"] = skipPermanent
	}
	if f.Changed("rate-limit") {
		flags["rpm"] = rateLimit
	}
	if f.Changed("notify") {
		flags["notify"] = notify
	}
	return flags
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, scrapeFlags(cmd))
	if err != nil {
		return err
	}
	ui.SetColor(!cfg.Logging.NoColor)

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	out := cmd.OutOrStdout()
	if quiet {
		out = io.Discard
	}
	ui.SetOutput(out)

	// Questions are shown even in quiet mode
	interactive := isInteractive()
	prompter := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout(), log)

	maxPages := cfg.Crawl.MaxPages
	if maxPages == 0 {
		if !interactive {
			return errors.New("--pages is required when stdin is not a terminal")
		}
		maxPages, err = prompter.PageCount(cmd.Context())
		if errors.Is(err, prompt.ErrInterrupted) {
			log.Info("Interrupted before the crawl started")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read page count: %w", err)
		}
	}

	if storage.Exists(cfg.Output.JSONFile, cfg.Output.CSVFile) && !cfg.Output.AssumeYes {
		if !interactive {
			return errors.New("output files already exist; pass --yes to overwrite them")
		}
		ok, err := prompter.ConfirmOverwrite(cmd.Context())
		if errors.Is(err, prompt.ErrInterrupted) {
			log.Info("Interrupted before the crawl started")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !ok {
			ui.PrintWarning("Aborted, existing files were left untouched")
			return nil
		}
	}

	runCfg := cfg.RunConfig()
	runCfg.MaxPages = maxPages

	c, display, err := newCrawler(cfg, runCfg, out, log)
	if err != nil {
		return err
	}

	if !quiet {
		ui.PrintInfo("Target", runCfg.BaseURL)
		ui.PrintInfo("Pages", fmt.Sprintf("up to %d", maxPages))
	}

	report, err := c.Run(cmd.Context())
	if display != nil {
		display.Complete()
	}
	if errors.Is(err, crawler.ErrInterrupted) {
		log.InfoWithFields("Crawl interrupted, results were not saved", map[string]interface{}{
			"posts": report.Result.Len(),
		})
		return nil
	}
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintln(out)
		ui.PrintSummary(out, report)
	}

	notifier := ui.NewNotifier(out, cfg.Notifications.Enabled)
	outcome, err := storage.NewResultStore(log).Save(report.Result, cfg.Output.JSONFile, cfg.Output.CSVFile)
	if err != nil {
		notifier.SendError("Scrape failed", err.Error())
		return err
	}

	switch outcome {
	case storage.OutcomeNothingToSave:
		notifier.SendNotification("Nothing to save", "No posts were found")
	case storage.OutcomeSaved:
		notifier.SendSuccess("Scrape complete", fmt.Sprintf("%d posts saved to %s and %s",
			report.Result.Len(), cfg.Output.JSONFile, cfg.Output.CSVFile))
	}
	return nil
}

// newCrawler wires the fetcher, extractor, limiter and backoff from cfg.
// The returned display is nil in quiet mode.
func newCrawler(cfg *config.Config, runCfg models.RunConfig, out io.Writer, log logger.Logger) (*crawler.Crawler, *ui.ProgressDisplay, error) {
	extractor, err := extract.New(extract.Selectors{
		Post:   cfg.Site.Selectors.Post,
		Anchor: cfg.Site.Selectors.Anchor,
		Next:   cfg.Site.Selectors.Next,
	})
	if err != nil {
		return nil, nil, err
	}

	limiter, err := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.RequestsPerMinute)
	if err != nil {
		return nil, nil, err
	}

	opts := crawler.Options{
		Logger:  log,
		Limiter: limiter,
		Backoff: retry.NewErrorTypeBackoff(retry.NewExponentialBackoff(
			cfg.Retry.BaseDelay, cfg.Retry.MaxDelay, cfg.Retry.Multiplier, cfg.Retry.JitterFactor)),
		MaxAttempts:   cfg.Crawl.MaxAttempts,
		SkipPermanent: cfg.Crawl.SkipPermanentErrors,
	}

	var display *ui.ProgressDisplay
	if !quiet {
		display = ui.NewProgressDisplay(out, runCfg.MaxPages, verbose)
		opts.Observer = display
	}

	c, err := crawler.New(runCfg, site.NewClient(runCfg, log), extractor, opts)
	if err != nil {
		return nil, nil, err
	}
	return c, display, nil
}
