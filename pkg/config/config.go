package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"postscraper/pkg/models"
)

const envPrefix = "POSTSCRAPER_"

// Config holds all configuration options for postscraper
type Config struct {
	// Target site and markup
	Site SiteConfig `yaml:"site" json:"site"`

	// Page budget, pacing and retry bounds
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Backoff between retries of a failed page
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Optional requests-per-minute cap on top of the fixed delay
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output files
	Output OutputConfig `yaml:"output" json:"output"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig describes the listing site being crawled
type SiteConfig struct {
	BaseURL   string            `yaml:"base_url" json:"base_url"`
	UserAgent string            `yaml:"user_agent" json:"user_agent"`
	Headers   map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Selectors SelectorConfig    `yaml:"selectors" json:"selectors"`
}

// SelectorConfig holds the CSS selectors used to read a listing page
type SelectorConfig struct {
	Post   string `yaml:"post" json:"post"`
	Anchor string `yaml:"anchor" json:"anchor"`
	Next   string `yaml:"next" json:"next"`
}

// CrawlConfig holds the crawl loop settings
type CrawlConfig struct {
	// MaxPages of 0 means the operator is asked
	MaxPages            int           `yaml:"max_pages" json:"max_pages"`
	RequestTimeout      time.Duration `yaml:"request_timeout" json:"request_timeout"`
	InterRequestDelay   time.Duration `yaml:"inter_request_delay" json:"inter_request_delay"`
	MaxAttempts         int           `yaml:"max_attempts" json:"max_attempts"`
	SkipPermanentErrors bool          `yaml:"skip_permanent_errors" json:"skip_permanent_errors"`
}

// RetryConfig holds backoff settings
type RetryConfig struct {
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerMinute of 0 disables the limiter
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	// Strategy is "sliding_window" or "token_bucket"
	Strategy string `yaml:"strategy" json:"strategy"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	JSONFile  string `yaml:"json_file" json:"json_file"`
	CSVFile   string `yaml:"csv_file" json:"csv_file"`
	AssumeYes bool   `yaml:"assume_yes" json:"assume_yes"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultUserAgent is sent when no other User-Agent is configured
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:   "https://psa.wf/page/",
			UserAgent: DefaultUserAgent,
			Selectors: SelectorConfig{
				Post:   ".post-title.entry-title",
				Anchor: "a",
				Next:   `a.nextpostslink[rel~="next"]`,
			},
		},
		Crawl: CrawlConfig{
			MaxPages:          0,
			RequestTimeout:    30 * time.Second,
			InterRequestDelay: 2 * time.Second,
			MaxAttempts:       5,
		},
		Retry: RetryConfig{
			BaseDelay:    time.Second,
			MaxDelay:     time.Minute,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RateLimit: RateLimitConfig{
			Strategy: "sliding_window",
		},
		Output: OutputConfig{
			JSONFile: "scraped_data.json",
			CSVFile:  "scraped_data.csv",
		},
		Notifications: NotificationConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from POSTSCRAPER_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := getenv("BASE_URL"); v != "" {
		c.Site.BaseURL = v
	}
	if v := getenv("USER_AGENT"); v != "" {
		c.Site.UserAgent = v
	}

	if v := getenv("MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_PAGES: %w", envPrefix, err))
		} else {
			c.Crawl.MaxPages = n
		}
	}
	if v := getenv("MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_ATTEMPTS: %w", envPrefix, err))
		} else {
			c.Crawl.MaxAttempts = n
		}
	}
	if v := getenv("DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDELAY: %w", envPrefix, err))
		} else {
			c.Crawl.InterRequestDelay = d
		}
	}
	if v := getenv("TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMEOUT: %w", envPrefix, err))
		} else {
			c.Crawl.RequestTimeout = d
		}
	}

	if v := getenv("REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREQUESTS_PER_MINUTE: %w", envPrefix, err))
		} else {
			c.RateLimit.RequestsPerMinute = n
		}
	}

	if v := getenv("JSON_FILE"); v != "" {
		c.Output.JSONFile = v
	}
	if v := getenv("CSV_FILE"); v != "" {
		c.Output.CSVFile = v
	}

	if v := getenv("NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

func getenv(key string) string {
	return os.Getenv(envPrefix + key)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".postscraper.yaml",
		".postscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "postscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "postscraper", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Site.BaseURL)
	if c.Site.BaseURL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base URL %q must be an absolute URL", c.Site.BaseURL))
	}
	if c.Site.Selectors.Post == "" || c.Site.Selectors.Anchor == "" || c.Site.Selectors.Next == "" {
		errs = append(errs, errors.New("post, anchor and next selectors are required"))
	}

	if c.Crawl.MaxPages < 0 {
		errs = append(errs, errors.New("max pages cannot be negative"))
	}
	if c.Crawl.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Crawl.InterRequestDelay < 0 {
		errs = append(errs, errors.New("inter-request delay cannot be negative"))
	}
	if c.Crawl.MaxAttempts < 0 {
		errs = append(errs, errors.New("max attempts cannot be negative"))
	}

	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < 0 {
		errs = append(errs, errors.New("retry delays cannot be negative"))
	}
	if c.Retry.Multiplier != 0 && c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		errs = append(errs, errors.New("jitter factor must be between 0 and 1"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	switch c.RateLimit.Strategy {
	case "", "sliding_window", "token_bucket":
	default:
		errs = append(errs, fmt.Errorf("unknown rate limit strategy %q", c.RateLimit.Strategy))
	}

	if c.Output.JSONFile == "" || c.Output.CSVFile == "" {
		errs = append(errs, errors.New("json and csv output files are required"))
	} else if filepath.Clean(c.Output.JSONFile) == filepath.Clean(c.Output.CSVFile) {
		errs = append(errs, errors.New("json and csv output files must differ"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Headers returns the request headers, with the User-Agent taking precedence
// over any User-Agent entry in Site.Headers
func (c *Config) Headers() map[string]string {
	headers := make(map[string]string, len(c.Site.Headers)+1)
	for k, v := range c.Site.Headers {
		headers[k] = v
	}
	if c.Site.UserAgent != "" {
		headers["User-Agent"] = c.Site.UserAgent
	}
	return headers
}

// RunConfig derives the immutable settings of a single crawl
func (c *Config) RunConfig() models.RunConfig {
	return models.RunConfig{
		MaxPages:          c.Crawl.MaxPages,
		BaseURL:           c.Site.BaseURL,
		Headers:           c.Headers(),
		RequestTimeout:    c.Crawl.RequestTimeout,
		InterRequestDelay: c.Crawl.InterRequestDelay,
	}
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.Site.BaseURL = v
	}
	if v, ok := flags["pages"].(int); ok {
		c.Crawl.MaxPages = v
	}
	if v, ok := flags["delay"].(time.Duration); ok {
		c.Crawl.InterRequestDelay = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok {
		c.Crawl.RequestTimeout = v
	}
	if v, ok := flags["max-attempts"].(int); ok {
		c.Crawl.MaxAttempts = v
	}
	if v, ok := flags["skip-permanent"].(bool); ok {
		c.Crawl.SkipPermanentErrors = v
	}
	if v, ok := flags["rpm"].(int); ok {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["json"].(string); ok && v != "" {
		c.Output.JSONFile = v
	}
	if v, ok := flags["csv"].(string); ok && v != "" {
		c.Output.CSVFile = v
	}
	if v, ok := flags["yes"].(bool); ok {
		c.Output.AssumeYes = v
	}
	if v, ok := flags["notify"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["no-color"].(bool); ok {
		c.Logging.NoColor = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".postscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
