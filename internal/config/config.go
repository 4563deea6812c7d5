package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BackendConfig describes how to reach the HR/safety entity REST API.
type BackendConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:8081".
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Token is sent as "Authorization: Bearer <token>" when non-empty.
	Token string `yaml:"token" json:"token"`
	// TimeoutSeconds bounds a single backend call. Zero means no timeout.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	// PageSize is passed as ?size= on read-all calls.
	PageSize int `yaml:"page_size" json:"page_size"`
	// CacheDir enables the conditional-GET disk cache when non-empty.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
}

// CalendarConfig holds calendar view options.
type CalendarConfig struct {
	// ExpandRecurring adds derived occurrences for trainings with a validity period.
	ExpandRecurring bool `yaml:"expand_recurring" json:"expand_recurring"`
}

// DashboardConfig holds dashboard widget options.
type DashboardConfig struct {
	// TopN caps every list widget.
	TopN int `yaml:"top_n" json:"top_n"`
}

// CaptureConfig controls the headless Chromium snapshot of the month page.
type CaptureConfig struct {
	OutputPath     string `yaml:"output_path" json:"output_path"`
	Width          int    `yaml:"width" json:"width"`
	Height         int    `yaml:"height" json:"height"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	// Cron, if set, captures periodically while serving.
	Cron string `yaml:"cron" json:"cron"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used to turn backend timestamps into calendar dates.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Locale is the default UI locale ("ru" or "en"); requests may override it.
	Locale string `yaml:"locale" json:"locale"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a cron-style schedule string (e.g. "*/5 * * * *")
	// used for periodic re-aggregation.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// PrefillTTLMinutes is how long an unread creation prefill is kept.
	PrefillTTLMinutes int `yaml:"prefill_ttl_minutes" json:"prefill_ttl_minutes"`

	Backend   BackendConfig   `yaml:"backend" json:"backend"`
	Calendar  CalendarConfig  `yaml:"calendar" json:"calendar"`
	Dashboard DashboardConfig `yaml:"dashboard" json:"dashboard"`
	Capture   CaptureConfig   `yaml:"capture" json:"capture"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8080",
		Timezone:          "Europe/Moscow",
		Locale:            "ru",
		LogLevel:          "info",
		RefreshCron:       "*/5 * * * *",
		PrefillTTLMinutes: 30,
		Backend: BackendConfig{
			BaseURL:  "http://127.0.0.1:8081",
			PageSize: 1000,
		},
		Calendar: CalendarConfig{
			ExpandRecurring: true,
		},
		Dashboard: DashboardConfig{
			TopN: 5,
		},
		Capture: CaptureConfig{
			OutputPath:     "./var/preview.png",
			Width:          1280,
			Height:         960,
			TimeoutSeconds: 30,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch c.Locale {
	case "ru", "en":
	default:
		c.Locale = def.Locale
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.PrefillTTLMinutes <= 0 {
		c.PrefillTTLMinutes = def.PrefillTTLMinutes
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = def.Backend.BaseURL
	}
	if c.Backend.PageSize <= 0 {
		c.Backend.PageSize = def.Backend.PageSize
	}
	if c.Backend.TimeoutSeconds < 0 {
		c.Backend.TimeoutSeconds = 0
	}
	if c.Dashboard.TopN <= 0 {
		c.Dashboard.TopN = def.Dashboard.TopN
	}
	if c.Capture.OutputPath == "" {
		c.Capture.OutputPath = def.Capture.OutputPath
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = def.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = def.Capture.Height
	}
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = def.Capture.TimeoutSeconds
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// BackendTimeout returns the per-call backend timeout; zero means none.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// PrefillTTL returns how long prefill payloads live.
func (c *Config) PrefillTTL() time.Duration {
	return time.Duration(c.PrefillTTLMinutes) * time.Minute
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file in the same directory, then rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".safetycal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
