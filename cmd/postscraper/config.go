package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"postscraper/pkg/config"
	"postscraper/pkg/extract"
	"postscraper/pkg/ratelimit"
	"postscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage postscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (POSTSCRAPER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default settings",
	Long: `Create a configuration file holding every option with its current value.

The file is created as '.postscraper.yaml' in the current directory unless a
different path is given with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from all sources and check it.

This command checks:
  - YAML syntax
  - Required fields and value ranges
  - CSS selector syntax
  - Rate limit strategy`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".postscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	// Only defaults and environment; a missing --config file is the target
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	if err := cfg.Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Edit the site URL and selectors for the site you want to crawl")
	fmt.Fprintln(out, "2. Run 'postscraper config validate' to check the configuration")
	fmt.Fprintln(out, "3. Start crawling with 'postscraper scrape --pages 5'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Magenta("Current Configuration"))
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))

	fmt.Fprintln(out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "2. Environment variables (POSTSCRAPER_*)")
	fmt.Fprintln(out, "3. .env and ~/.postscraper.env")
	if configFile != "" {
		fmt.Fprintf(out, "4. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "4. Configuration file: (searched in default locations)")
	}
	fmt.Fprintln(out, "5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return err
	}

	var problems []error
	if _, err := extract.New(extract.Selectors{
		Post:   cfg.Site.Selectors.Post,
		Anchor: cfg.Site.Selectors.Anchor,
		Next:   cfg.Site.Selectors.Next,
	}); err != nil {
		problems = append(problems, err)
	}
	if _, err := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.RequestsPerMinute); err != nil {
		problems = append(problems, err)
	}
	if err := errors.Join(problems...); err != nil {
		return fmt.Errorf("configuration has errors: %w", err)
	}

	if cfg.Crawl.InterRequestDelay == 0 {
		ui.PrintWarning("inter_request_delay is 0, requests will not be paced")
	}
	if cfg.Crawl.MaxAttempts == 0 {
		ui.PrintWarning("max_attempts is 0, a failing page is retried forever")
	}

	ui.PrintSuccess("Configuration is valid")

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Base URL: %s\n", cfg.Site.BaseURL)
	fmt.Fprintf(out, "  Delay: %s\n", cfg.Crawl.InterRequestDelay)
	fmt.Fprintf(out, "  Request timeout: %s\n", cfg.Crawl.RequestTimeout)
	fmt.Fprintf(out, "  Max attempts: %d\n", cfg.Crawl.MaxAttempts)
	fmt.Fprintf(out, "  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Fprintf(out, "  Output: %s, %s\n", cfg.Output.JSONFile, cfg.Output.CSVFile)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
