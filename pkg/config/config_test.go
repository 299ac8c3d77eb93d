package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://psa.wf/page/", cfg.Site.BaseURL)
	assert.Equal(t, ".post-title.entry-title", cfg.Site.Selectors.Post)
	assert.Equal(t, 30*time.Second, cfg.Crawl.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.Crawl.InterRequestDelay)
	assert.Equal(t, 5, cfg.Crawl.MaxAttempts)
	assert.Equal(t, 0, cfg.Crawl.MaxPages)
	assert.Equal(t, "scraped_data.json", cfg.Output.JSONFile)
	assert.Equal(t, "scraped_data.csv", cfg.Output.CSVFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("POSTSCRAPER_BASE_URL", "http://localhost:8080/page/")
	t.Setenv("POSTSCRAPER_MAX_PAGES", "7")
	t.Setenv("POSTSCRAPER_MAX_ATTEMPTS", "0")
	t.Setenv("POSTSCRAPER_DELAY", "500ms")
	t.Setenv("POSTSCRAPER_TIMEOUT", "5s")
	t.Setenv("POSTSCRAPER_REQUESTS_PER_MINUTE", "20")
	t.Setenv("POSTSCRAPER_JSON_FILE", "out/posts.json")
	t.Setenv("POSTSCRAPER_NOTIFICATIONS_ENABLED", "TRUE")
	t.Setenv("POSTSCRAPER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "http://localhost:8080/page/", cfg.Site.BaseURL)
	assert.Equal(t, 7, cfg.Crawl.MaxPages)
	assert.Equal(t, 0, cfg.Crawl.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Crawl.InterRequestDelay)
	assert.Equal(t, 5*time.Second, cfg.Crawl.RequestTimeout)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "out/posts.json", cfg.Output.JSONFile)
	assert.Equal(t, "scraped_data.csv", cfg.Output.CSVFile)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("POSTSCRAPER_MAX_PAGES", "ten")
	t.Setenv("POSTSCRAPER_DELAY", "2 seconds")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTSCRAPER_MAX_PAGES")
	assert.Contains(t, err.Error(), "POSTSCRAPER_DELAY")
	assert.Equal(t, 2*time.Second, cfg.Crawl.InterRequestDelay)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
site:
  base_url: https://example.com/blog/page/
  user_agent: test-agent
  headers:
    Accept-Language: en
  selectors:
    post: article h2
    anchor: a.title
    next: a.next
crawl:
  max_pages: 3
  request_timeout: 10s
  inter_request_delay: 1500ms
  max_attempts: 2
  skip_permanent_errors: true
retry:
  base_delay: 500ms
  max_delay: 1m30s
  multiplier: 1.5
rate_limit:
  requests_per_minute: 12
output:
  json_file: posts.json
  csv_file: posts.csv
logging:
  level: warn
  no_color: true
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(configPath))

		assert.Equal(t, "https://example.com/blog/page/", cfg.Site.BaseURL)
		assert.Equal(t, "en", cfg.Site.Headers["Accept-Language"])
		assert.Equal(t, "article h2", cfg.Site.Selectors.Post)
		assert.Equal(t, "a.next", cfg.Site.Selectors.Next)
		assert.Equal(t, 3, cfg.Crawl.MaxPages)
		assert.Equal(t, 10*time.Second, cfg.Crawl.RequestTimeout)
		assert.Equal(t, 1500*time.Millisecond, cfg.Crawl.InterRequestDelay)
		assert.True(t, cfg.Crawl.SkipPermanentErrors)
		assert.Equal(t, 90*time.Second, cfg.Retry.MaxDelay)
		assert.Equal(t, 1.5, cfg.Retry.Multiplier)
		assert.Equal(t, 12, cfg.RateLimit.RequestsPerMinute)
		assert.Equal(t, "posts.csv", cfg.Output.CSVFile)
		assert.True(t, cfg.Logging.NoColor)
		// Untouched keys keep their defaults
		assert.Equal(t, 0.1, cfg.Retry.JitterFactor)
	})

	t.Run("missing file", func(t *testing.T) {
		err := DefaultConfig().LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("crawl: [unclosed"), 0644))

		err := DefaultConfig().LoadFromFile(configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"relative base url", func(c *Config) { c.Site.BaseURL = "/page/" }, "absolute URL"},
		{"empty selector", func(c *Config) { c.Site.Selectors.Next = "" }, "selectors are required"},
		{"negative pages", func(c *Config) { c.Crawl.MaxPages = -1 }, "max pages"},
		{"zero timeout", func(c *Config) { c.Crawl.RequestTimeout = 0 }, "request timeout"},
		{"negative delay", func(c *Config) { c.Crawl.InterRequestDelay = -time.Second }, "inter-request delay"},
		{"negative attempts", func(c *Config) { c.Crawl.MaxAttempts = -2 }, "max attempts"},
		{"bad multiplier", func(c *Config) { c.Retry.Multiplier = 0.5 }, "multiplier"},
		{"bad jitter", func(c *Config) { c.Retry.JitterFactor = 2 }, "jitter"},
		{"same outputs", func(c *Config) { c.Output.CSVFile = "./scraped_data.json" }, "must differ"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Crawl.MaxAttempts = -1
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max attempts")
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestRunConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Crawl.MaxPages = 4
	cfg.Site.Headers = map[string]string{"User-Agent": "ignored", "Accept": "text/html"}

	rc := cfg.RunConfig()

	assert.Equal(t, 4, rc.MaxPages)
	assert.Equal(t, cfg.Site.BaseURL, rc.BaseURL)
	assert.Equal(t, DefaultUserAgent, rc.Headers["User-Agent"])
	assert.Equal(t, "text/html", rc.Headers["Accept"])
	assert.Equal(t, 30*time.Second, rc.RequestTimeout)
	assert.Equal(t, 2*time.Second, rc.InterRequestDelay)
	assert.NoError(t, rc.Validate())
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := DefaultConfig()
	original.Crawl.MaxPages = 9
	original.Crawl.InterRequestDelay = 750 * time.Millisecond
	require.NoError(t, original.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "inter_request_delay: 750ms")

	var loaded Config
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, original.Crawl, loaded.Crawl)
	assert.Equal(t, original.Site.Selectors, loaded.Site.Selectors)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"base-url":     "http://127.0.0.1/page/",
		"pages":        2,
		"delay":        time.Duration(0),
		"max-attempts": 1,
		"json":         "a.json",
		"yes":          true,
		"log-level":    "error",
		"unknown":      "ignored",
	})

	assert.Equal(t, "http://127.0.0.1/page/", cfg.Site.BaseURL)
	assert.Equal(t, 2, cfg.Crawl.MaxPages)
	assert.Equal(t, time.Duration(0), cfg.Crawl.InterRequestDelay)
	assert.Equal(t, 1, cfg.Crawl.MaxAttempts)
	assert.Equal(t, "a.json", cfg.Output.JSONFile)
	assert.Equal(t, "scraped_data.csv", cfg.Output.CSVFile)
	assert.True(t, cfg.Output.AssumeYes)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad(t *testing.T) {
	t.Run("precedence order", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
crawl:
  max_pages: 3
  max_attempts: 4
output:
  json_file: file.json
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		t.Setenv("POSTSCRAPER_MAX_ATTEMPTS", "6")
		t.Setenv("POSTSCRAPER_JSON_FILE", "env.json")

		cfg, err := Load(configPath, map[string]interface{}{"json": "flag.json"})
		require.NoError(t, err)

		assert.Equal(t, 3, cfg.Crawl.MaxPages)            // file
		assert.Equal(t, 6, cfg.Crawl.MaxAttempts)         // env over file
		assert.Equal(t, "flag.json", cfg.Output.JSONFile) // flag over env
	})

	t.Run("validation failure", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		assert.Error(t, err)
		assert.Nil(t, cfg)

		cfg, err = Load("", map[string]interface{}{"max-attempts": -1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
		assert.Nil(t, cfg)
	})

	t.Run("loads .env file", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(tempDir))
		t.Setenv("HOME", tempDir)

		// t.Setenv restores the variable after the test; godotenv never
		// overrides a variable that is already set, so clear it first.
		t.Setenv("POSTSCRAPER_CSV_FILE", "")
		os.Unsetenv("POSTSCRAPER_CSV_FILE")

		require.NoError(t, os.WriteFile(".env", []byte("POSTSCRAPER_CSV_FILE=dotenv.csv\n"), 0644))

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "dotenv.csv", cfg.Output.CSVFile)
	})
}
