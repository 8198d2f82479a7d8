// Package config loads pathmend configuration from YAML with environment
// variable overrides. Precedence, lowest to highest: hardcoded defaults,
// pathmend.yaml (or .pathmend.yaml) in the working directory, PATHMEND_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pathmend/pathmend/internal/router"
	"github.com/pathmend/pathmend/internal/similarity"
	"github.com/pathmend/pathmend/internal/sitemap"
	"github.com/pathmend/pathmend/internal/synonyms"
	"github.com/pathmend/pathmend/internal/xerrors"
)

// Config is the complete pathmend configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Router  RouterConfig  `yaml:"router" json:"router"`
	Matcher MatcherConfig `yaml:"matcher" json:"matcher"`
	Sitemap SitemapConfig `yaml:"sitemap" json:"sitemap"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Synonyms extends the built-in dictionary with site-specific groups.
	Synonyms []SynonymGroup `yaml:"synonyms" json:"synonyms"`
}

// ServerConfig configures the HTTP host surface.
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	// CORSOrigins lists allowed origins for browser callers. Empty means
	// same-origin only.
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
}

// RouterConfig configures the resolution state machine. Durations are
// strings ("200ms") so the YAML stays human-editable.
type RouterConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"`
	MaxLatency          string  `yaml:"max_latency" json:"max_latency"`
	EnableLearning      *bool   `yaml:"enable_learning" json:"enable_learning"`
	AliasThreshold      int     `yaml:"alias_threshold" json:"alias_threshold"`
}

// MatcherConfig configures path similarity scoring.
type MatcherConfig struct {
	MinConfidence   float64 `yaml:"min_confidence" json:"min_confidence"`
	MaxEditDistance int     `yaml:"max_edit_distance" json:"max_edit_distance"`
	FuzzyCredit     float64 `yaml:"fuzzy_credit" json:"fuzzy_credit"`
}

// SitemapConfig configures route ingestion.
type SitemapConfig struct {
	// URLs are sitemap endpoints fetched at startup and on refresh.
	URLs []string `yaml:"urls" json:"urls"`
	// Manifest is a local sitemap XML file, an alternative to URLs.
	Manifest        string `yaml:"manifest" json:"manifest"`
	Concurrency     int    `yaml:"concurrency" json:"concurrency"`
	FetchTimeout    string `yaml:"fetch_timeout" json:"fetch_timeout"`
	MaxDepth        int    `yaml:"max_depth" json:"max_depth"`
	RefreshInterval string `yaml:"refresh_interval" json:"refresh_interval"`
	CacheSize       int    `yaml:"cache_size" json:"cache_size"`
	CacheTTL        string `yaml:"cache_ttl" json:"cache_ttl"`
}

// LogConfig configures application logging.
type LogConfig struct {
	Level     string `yaml:"level" json:"level"`
	FilePath  string `yaml:"file_path" json:"file_path"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
	Stderr    bool   `yaml:"stderr" json:"stderr"`
}

// StorageConfig configures durable state.
type StorageConfig struct {
	// LogDB is the sqlite file for the hallucination log. Empty keeps the
	// log in memory.
	LogDB string `yaml:"log_db" json:"log_db"`
}

// SynonymGroup mirrors a dictionary group in YAML form.
type SynonymGroup struct {
	Canonical string   `yaml:"canonical" json:"canonical"`
	Members   []string `yaml:"members" json:"members"`
	Weight    float64  `yaml:"weight" json:"weight"`
}

// NewConfig creates a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8970,
		},
		Router: RouterConfig{
			ConfidenceThreshold: router.DefaultConfidenceThreshold,
			MaxLatency:          "200ms",
			AliasThreshold:      router.DefaultAliasThreshold,
		},
		Matcher: MatcherConfig{
			MinConfidence:   similarity.DefaultMinConfidence,
			MaxEditDistance: similarity.DefaultMaxEditDistance,
			FuzzyCredit:     synonyms.DefaultGroupWeight,
		},
		Sitemap: SitemapConfig{
			Concurrency:  5,
			FetchTimeout: "10s",
			MaxDepth:     3,
			CacheSize:    64,
			CacheTTL:     "5m",
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
	}
}

// Load loads configuration from dir, applying file and environment
// overrides on top of defaults.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, xerrors.ConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// loadFromFile tries pathmend.yaml, then .pathmend.yaml. A missing file
// is fine.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{"pathmend.yaml", ".pathmend.yaml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Server.Host != "" {
		c.Server.Host = other.Server.Host
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if len(other.Server.CORSOrigins) > 0 {
		c.Server.CORSOrigins = other.Server.CORSOrigins
	}

	if other.Router.ConfidenceThreshold != 0 {
		c.Router.ConfidenceThreshold = other.Router.ConfidenceThreshold
	}
	if other.Router.MaxLatency != "" {
		c.Router.MaxLatency = other.Router.MaxLatency
	}
	if other.Router.EnableLearning != nil {
		c.Router.EnableLearning = other.Router.EnableLearning
	}
	if other.Router.AliasThreshold != 0 {
		c.Router.AliasThreshold = other.Router.AliasThreshold
	}

	if other.Matcher.MinConfidence != 0 {
		c.Matcher.MinConfidence = other.Matcher.MinConfidence
	}
	if other.Matcher.MaxEditDistance != 0 {
		c.Matcher.MaxEditDistance = other.Matcher.MaxEditDistance
	}
	if other.Matcher.FuzzyCredit != 0 {
		c.Matcher.FuzzyCredit = other.Matcher.FuzzyCredit
	}

	if len(other.Sitemap.URLs) > 0 {
		c.Sitemap.URLs = other.Sitemap.URLs
	}
	if other.Sitemap.Manifest != "" {
		c.Sitemap.Manifest = other.Sitemap.Manifest
	}
	if other.Sitemap.Concurrency != 0 {
		c.Sitemap.Concurrency = other.Sitemap.Concurrency
	}
	if other.Sitemap.FetchTimeout != "" {
		c.Sitemap.FetchTimeout = other.Sitemap.FetchTimeout
	}
	if other.Sitemap.MaxDepth != 0 {
		c.Sitemap.MaxDepth = other.Sitemap.MaxDepth
	}
	if other.Sitemap.RefreshInterval != "" {
		c.Sitemap.RefreshInterval = other.Sitemap.RefreshInterval
	}
	if other.Sitemap.CacheSize != 0 {
		c.Sitemap.CacheSize = other.Sitemap.CacheSize
	}
	if other.Sitemap.CacheTTL != "" {
		c.Sitemap.CacheTTL = other.Sitemap.CacheTTL
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.FilePath != "" {
		c.Log.FilePath = other.Log.FilePath
	}
	if other.Log.MaxSizeMB != 0 {
		c.Log.MaxSizeMB = other.Log.MaxSizeMB
	}
	if other.Log.MaxFiles != 0 {
		c.Log.MaxFiles = other.Log.MaxFiles
	}
	if other.Log.Stderr {
		c.Log.Stderr = true
	}

	if other.Storage.LogDB != "" {
		c.Storage.LogDB = other.Storage.LogDB
	}

	if len(other.Synonyms) > 0 {
		c.Synonyms = other.Synonyms
	}
}

// applyEnvOverrides applies PATHMEND_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PATHMEND_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PATHMEND_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("PATHMEND_CONFIDENCE_THRESHOLD"); v != "" {
		if t, err := parseFloat64(v); err == nil && t > 0 && t <= 1 {
			c.Router.ConfidenceThreshold = t
		}
	}
	if v := os.Getenv("PATHMEND_MAX_LATENCY"); v != "" {
		if _, err := time.ParseDuration(v); err == nil {
			c.Router.MaxLatency = v
		}
	}
	if v := os.Getenv("PATHMEND_ENABLE_LEARNING"); v != "" {
		b := strings.ToLower(v) == "true" || v == "1"
		c.Router.EnableLearning = &b
	}
	if v := os.Getenv("PATHMEND_SITEMAP_URL"); v != "" {
		c.Sitemap.URLs = []string{v}
	}
	if v := os.Getenv("PATHMEND_MANIFEST"); v != "" {
		c.Sitemap.Manifest = v
	}
	if v := os.Getenv("PATHMEND_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PATHMEND_LOG_DB"); v != "" {
		c.Storage.LogDB = v
	}
}

// parseFloat64 parses a string to float64, used for config parsing.
func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Router.ConfidenceThreshold <= 0 || c.Router.ConfidenceThreshold > 1 {
		return fmt.Errorf("router.confidence_threshold must be in (0, 1], got %f", c.Router.ConfidenceThreshold)
	}
	if d, err := time.ParseDuration(c.Router.MaxLatency); err != nil || d <= 0 {
		return fmt.Errorf("router.max_latency must be a positive duration, got %q", c.Router.MaxLatency)
	}
	if c.Router.AliasThreshold < 0 {
		return fmt.Errorf("router.alias_threshold must be non-negative, got %d", c.Router.AliasThreshold)
	}

	if c.Matcher.MinConfidence < 0 || c.Matcher.MinConfidence > 1 {
		return fmt.Errorf("matcher.min_confidence must be in [0, 1], got %f", c.Matcher.MinConfidence)
	}
	if c.Matcher.FuzzyCredit < 0 || c.Matcher.FuzzyCredit > 1 {
		return fmt.Errorf("matcher.fuzzy_credit must be in [0, 1], got %f", c.Matcher.FuzzyCredit)
	}
	if c.Matcher.MaxEditDistance < 0 {
		return fmt.Errorf("matcher.max_edit_distance must be non-negative, got %d", c.Matcher.MaxEditDistance)
	}

	if c.Sitemap.Concurrency < 1 {
		return fmt.Errorf("sitemap.concurrency must be at least 1, got %d", c.Sitemap.Concurrency)
	}
	if d, err := time.ParseDuration(c.Sitemap.FetchTimeout); err != nil || d <= 0 {
		return fmt.Errorf("sitemap.fetch_timeout must be a positive duration, got %q", c.Sitemap.FetchTimeout)
	}
	if c.Sitemap.MaxDepth < 1 {
		return fmt.Errorf("sitemap.max_depth must be at least 1, got %d", c.Sitemap.MaxDepth)
	}
	if c.Sitemap.RefreshInterval != "" {
		if d, err := time.ParseDuration(c.Sitemap.RefreshInterval); err != nil || d <= 0 {
			return fmt.Errorf("sitemap.refresh_interval must be a positive duration, got %q", c.Sitemap.RefreshInterval)
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	for i, g := range c.Synonyms {
		if g.Canonical == "" {
			return fmt.Errorf("synonyms[%d]: canonical term is required", i)
		}
		if g.Weight < 0 || g.Weight > 1 {
			return fmt.Errorf("synonyms[%d]: weight must be in [0, 1], got %f", i, g.Weight)
		}
	}

	return nil
}

// RouterConfig converts the YAML form into the router's runtime config.
// Call after Validate; parse failures fall back to defaults.
func (c *Config) RouterConfig() router.Config {
	maxLatency, err := time.ParseDuration(c.Router.MaxLatency)
	if err != nil {
		maxLatency = router.DefaultMaxLatency
	}
	learning := true
	if c.Router.EnableLearning != nil {
		learning = *c.Router.EnableLearning
	}
	return router.Config{
		ConfidenceThreshold: c.Router.ConfidenceThreshold,
		MaxLatency:          maxLatency,
		EnableLearning:      learning,
		AliasThreshold:      c.Router.AliasThreshold,
	}
}

// MatcherOptions converts the YAML form into matcher options.
func (c *Config) MatcherOptions() similarity.MatcherConfig {
	return similarity.MatcherConfig{
		MinConfidence:   c.Matcher.MinConfidence,
		MaxEditDistance: c.Matcher.MaxEditDistance,
		FuzzyCredit:     c.Matcher.FuzzyCredit,
	}
}

// FetchConfig converts the YAML form into fetcher options.
func (c *Config) FetchConfig() sitemap.FetchConfig {
	fetchTimeout, err := time.ParseDuration(c.Sitemap.FetchTimeout)
	if err != nil {
		fetchTimeout = 10 * time.Second
	}
	cacheTTL, err := time.ParseDuration(c.Sitemap.CacheTTL)
	if err != nil {
		cacheTTL = 5 * time.Minute
	}
	return sitemap.FetchConfig{
		Concurrency: c.Sitemap.Concurrency,
		Timeout:     fetchTimeout,
		MaxDepth:    c.Sitemap.MaxDepth,
		CacheSize:   c.Sitemap.CacheSize,
		CacheTTL:    cacheTTL,
	}
}

// RefreshInterval returns the parsed refresh interval, zero when unset.
func (c *Config) RefreshInterval() time.Duration {
	if c.Sitemap.RefreshInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Sitemap.RefreshInterval)
	if err != nil {
		return 0
	}
	return d
}

// Dictionary builds the synonym dictionary: built-in groups plus any
// configured site-specific groups.
func (c *Config) Dictionary() *synonyms.Dictionary {
	d := synonyms.New()
	for _, g := range c.Synonyms {
		w := g.Weight
		if w == 0 {
			w = synonyms.DefaultGroupWeight
		}
		d.AddWeighted(g.Canonical, g.Members, w)
	}
	return d
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
