// Package config provides configuration management for the scraper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoSources                = errors.New("at least one source is required")
	ErrNoEnabledSources         = errors.New("at least one source must be enabled")
	ErrSourceMissingURL         = errors.New("request url is required")
	ErrInvalidMethod            = errors.New("request method must be GET or POST")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidJitter            = errors.New("retry.jitter must be between 0 and 1")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrMissingOutputDir         = errors.New("output.dir is required")
	ErrInvalidWorkers           = errors.New("translation.workers must be at least 1")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete scraper configuration.
type Config struct {
	Scraper ScraperConfig            `yaml:"scraper"`
	Sources map[string]*SourceConfig `yaml:"sources"`
}

// ScraperConfig contains settings shared by every source.
type ScraperConfig struct {
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	Retry       RetryPolicy       `yaml:"retry"`
	Translation TranslationConfig `yaml:"translation"`
}

// OutputConfig defines where spreadsheets go.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	PreviewRows int    `yaml:"preview_rows"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RetryPolicy defines retry behavior. Jitter is nil when unset; an
// explicit 0 disables randomization.
type RetryPolicy struct {
	MaxAttempts       int      `yaml:"max_attempts"`
	InitialDelayMs    int      `yaml:"initial_delay_ms"`
	MaxDelayMs        int      `yaml:"max_delay_ms"`
	BackoffMultiplier float64  `yaml:"backoff_multiplier"`
	Jitter            *float64 `yaml:"jitter,omitempty"`
	TimeoutSec        int      `yaml:"timeout_sec"`
}

// TranslationConfig configures the machine translation backend.
type TranslationConfig struct {
	Endpoint string            `yaml:"endpoint"`
	Workers  int               `yaml:"workers"`
	Headers  map[string]string `yaml:"headers"`
	Retry    RetryPolicy       `yaml:"retry"`
}

// SourceConfig is the per-source request data. Anything left empty falls
// back to the source's built-in defaults.
type SourceConfig struct {
	Name             string            `yaml:"-"`
	Enabled          bool              `yaml:"enabled"`
	OutputName       string            `yaml:"output_name"`
	Requests         []RequestConfig   `yaml:"requests"`
	Headers          map[string]string `yaml:"headers"`
	Cookies          map[string]string `yaml:"cookies"`
	DelayMs          int               `yaml:"delay_ms"`
	MaxTasks         int               `yaml:"max_tasks"`
	CloudflareBypass bool              `yaml:"cloudflare_bypass"`
	Date             *DateConfig       `yaml:"date"`
	Translate        *SourceTranslate  `yaml:"translate"`
}

// RequestConfig is one start request.
type RequestConfig struct {
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method"`
	Body    string            `yaml:"body"`
	Headers map[string]string `yaml:"headers"`
}

// DateConfig overrides a source's date format.
type DateConfig struct {
	Separator    string   `yaml:"separator"`
	TakeLast     bool     `yaml:"take_last"`
	RemoveSpaces bool     `yaml:"remove_spaces"`
	Layouts      []string `yaml:"layouts"`
}

// SourceTranslate overrides a source's translation settings.
type SourceTranslate struct {
	From    string   `yaml:"from"`
	To      string   `yaml:"to"`
	Columns []string `yaml:"columns"`
	Headers bool     `yaml:"headers"`
	Workers int      `yaml:"workers"`
}

// LocalPath returns the override file that sits next to path:
// configs/regscrape.yaml -> configs/regscrape.local.yaml.
func LocalPath(path string) string {
	ext := filepath.Ext(path)

	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// LoadConfig loads configuration from a YAML file, merging the sibling
// .local file over it when one exists.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(LocalPath(path)); statErr == nil {
		override, err := readFile(LocalPath(path))
		if err != nil {
			return nil, err
		}

		if err := mergo.Merge(cfg, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge local overrides: %w", err)
		}
	}

	cfg.ApplyDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}

	return &cfg, nil
}

// Default returns a configuration with every shared default filled in and
// no sources.
func Default() *Config {
	cfg := &Config{Sources: map[string]*SourceConfig{}}
	cfg.ApplyDefaults()

	return cfg
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Scraper.Output.Dir == "" {
		c.Scraper.Output.Dir = "files"
	}

	if c.Scraper.Output.PreviewRows == 0 {
		c.Scraper.Output.PreviewRows = 5
	}

	if c.Scraper.Logging.Level == "" {
		c.Scraper.Logging.Level = "info"
	}

	c.Scraper.Retry.applyDefaults(RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    500,
		MaxDelayMs:        30000,
		BackoffMultiplier: 2.0,
		TimeoutSec:        30,
	})

	if c.Scraper.Translation.Endpoint == "" {
		c.Scraper.Translation.Endpoint = "https://translate.google.com/m"
	}

	if c.Scraper.Translation.Workers == 0 {
		c.Scraper.Translation.Workers = 5
	}

	c.Scraper.Translation.Retry.applyDefaults(RetryPolicy{
		MaxAttempts:       5,
		InitialDelayMs:    2000,
		MaxDelayMs:        20000,
		BackoffMultiplier: 1.5,
		Jitter:            Ptr(0.5),
		TimeoutSec:        20,
	})

	if c.Sources == nil {
		c.Sources = map[string]*SourceConfig{}
	}

	for name, src := range c.Sources {
		if src == nil {
			src = &SourceConfig{}
			c.Sources[name] = src
		}

		src.Name = name
	}
}

func (rp *RetryPolicy) applyDefaults(def RetryPolicy) {
	if rp.MaxAttempts == 0 {
		rp.MaxAttempts = def.MaxAttempts
	}

	if rp.InitialDelayMs == 0 {
		rp.InitialDelayMs = def.InitialDelayMs
	}

	if rp.MaxDelayMs == 0 {
		rp.MaxDelayMs = def.MaxDelayMs
	}

	if rp.BackoffMultiplier == 0 {
		rp.BackoffMultiplier = def.BackoffMultiplier
	}

	if rp.Jitter == nil && def.Jitter != nil {
		rp.Jitter = Ptr(*def.Jitter)
	}

	if rp.TimeoutSec == 0 {
		rp.TimeoutSec = def.TimeoutSec
	}
}

// Overrides are command-line values layered over the loaded file.
type Overrides struct {
	LogLevel  string
	OutputDir string
}

// ApplyOverrides sets the non-empty overrides and validates the result.
func (c *Config) ApplyOverrides(o Overrides) error {
	if o.LogLevel != "" {
		c.Scraper.Logging.Level = o.LogLevel
	}

	if o.OutputDir != "" {
		c.Scraper.Output.Dir = o.OutputDir
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid command-line override: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}

	enabledCount := 0

	for _, name := range c.SourceNames() {
		src := c.Sources[name]

		for i, req := range src.Requests {
			if req.URL == "" {
				return fmt.Errorf("%w: sources.%s.requests[%d]", ErrSourceMissingURL, name, i)
			}

			switch strings.ToUpper(req.Method) {
			case "", "GET", "POST":
			default:
				return fmt.Errorf("%w: sources.%s.requests[%d]", ErrInvalidMethod, name, i)
			}
		}

		if src.Enabled {
			enabledCount++
		}
	}

	if enabledCount == 0 {
		return ErrNoEnabledSources
	}

	for _, rp := range []RetryPolicy{c.Scraper.Retry, c.Scraper.Translation.Retry} {
		if err := rp.Validate(); err != nil {
			return err
		}
	}

	if c.Scraper.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	if c.Scraper.Translation.Workers < 1 {
		return ErrInvalidWorkers
	}

	// Validate logging config
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Scraper.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// Validate checks a single retry policy.
func (rp *RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if rp.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if rp.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if j := rp.JitterFactor(); j < 0 || j > 1 {
		return ErrInvalidJitter
	}

	if rp.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	return nil
}

// SourceNames returns every configured source name, sorted.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// GetEnabledSources returns only enabled sources, sorted by name.
func (c *Config) GetEnabledSources() []*SourceConfig {
	var enabled []*SourceConfig

	for _, name := range c.SourceNames() {
		if src := c.Sources[name]; src.Enabled {
			enabled = append(enabled, src)
		}
	}

	return enabled
}

// Source returns the named source configuration.
func (c *Config) Source(name string) (*SourceConfig, bool) {
	src, ok := c.Sources[name]

	return src, ok
}

// JitterFactor returns the configured jitter, or 0 when unset.
func (rp *RetryPolicy) JitterFactor() float64 {
	if rp.Jitter == nil {
		return 0
	}

	return *rp.Jitter
}

// Ptr returns a pointer to v, for optional config values.
func Ptr[T any](v T) *T {
	return &v
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 2; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// InitialDelay returns the first backoff interval.
func (rp *RetryPolicy) InitialDelay() time.Duration {
	return time.Duration(rp.InitialDelayMs) * time.Millisecond
}

// MaxDelay returns the backoff cap.
func (rp *RetryPolicy) MaxDelay() time.Duration {
	return time.Duration(rp.MaxDelayMs) * time.Millisecond
}

// GetOutputPath follows the structure {dir}/{prefix}{name}_{YYYYMMDD}.xlsx.
func (c *Config) GetOutputPath(prefix, name string, at time.Time) string {
	return filepath.Join(c.Scraper.Output.Dir, fmt.Sprintf("%s%s_%s.xlsx", prefix, name, at.Format("20060102")))
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Sources: %d, Enabled: %d, MaxAttempts: %d, Output: %s}",
		len(c.Sources),
		len(c.GetEnabledSources()),
		c.Scraper.Retry.MaxAttempts,
		c.Scraper.Output.Dir,
	)
}
