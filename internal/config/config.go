package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// MediaPages holds per-site artist page paths for the fixed-site scrapers.
type MediaPages struct {
	Natalie string `yaml:"natalie,omitempty"`
	Barks   string `yaml:"barks,omitempty"`
}

// Artist describes one tracked artist. Read-only for the whole pipeline.
type Artist struct {
	Name           string     `yaml:"name"`
	NameJa         string     `yaml:"name_ja,omitempty"`
	Aliases        []string   `yaml:"aliases,omitempty"`
	Genre          string     `yaml:"genre,omitempty"`
	Disambiguation string     `yaml:"disambiguation,omitempty"`
	MediaPages     MediaPages `yaml:"media_pages,omitempty"`
	Feeds          []string   `yaml:"feeds,omitempty"`
	ExcludeTerms   []string   `yaml:"exclude_terms,omitempty"`
}

// QueryNames returns the names worth searching for: the canonical name,
// the Japanese name, and any aliases, deduplicated.
func (a Artist) QueryNames() []string {
	var names []string
	seen := map[string]bool{}
	for _, n := range append([]string{a.Name, a.NameJa}, a.Aliases...) {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names
}

type SearchConfig struct {
	BraveAPIKey      string `yaml:"brave_api_key,omitempty"`
	PerplexityAPIKey string `yaml:"perplexity_api_key,omitempty"`
	ResultBudget     int    `yaml:"result_budget,omitempty"`
}

type AIConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
	Model  string `yaml:"model,omitempty"`
	Images bool   `yaml:"images"`
}

type StoreConfig struct {
	Backend   string `yaml:"backend,omitempty"` // "json" or "sqlite"
	Path      string `yaml:"path,omitempty"`
	Retention string `yaml:"retention,omitempty"`
}

type Config struct {
	Search  SearchConfig `yaml:"search"`
	AI      AIConfig     `yaml:"ai"`
	Store   StoreConfig  `yaml:"store"`
	Artists []Artist     `yaml:"artists"`
}

// BraveKey returns the Brave Search key (config or env var).
func (c *Config) BraveKey() string {
	if c.Search.BraveAPIKey != "" {
		return c.Search.BraveAPIKey
	}
	return os.Getenv("BRAVE_SEARCH_API_KEY")
}

// PerplexityKey returns the Perplexity key (config or env var).
func (c *Config) PerplexityKey() string {
	if c.Search.PerplexityAPIKey != "" {
		return c.Search.PerplexityAPIKey
	}
	return os.Getenv("PERPLEXITY_API_KEY")
}

// GeminiKey returns the Gemini key (config or env var).
func (c *Config) GeminiKey() string {
	if c.AI.APIKey != "" {
		return c.AI.APIKey
	}
	return os.Getenv("GEMINI_API_KEY")
}

// Model returns the configured extraction model, defaulting to gemini-2.0-flash.
func (c *Config) Model() string {
	if c.AI.Model != "" {
		return c.AI.Model
	}
	return "gemini-2.0-flash"
}

// ResultBudget returns the desired result count per artist, defaulting to 20.
func (c *Config) ResultBudget() int {
	if c.Search.ResultBudget <= 0 {
		return 20
	}
	return c.Search.ResultBudget
}

// StorePath returns the feed file path, defaulting under xdg data home.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	name := "news.json"
	if c.Store.Backend == "sqlite" {
		name = "news.db"
	}
	return filepath.Join(xdg.DataHome, "musicstream", name)
}

// RetentionDuration parses the retention value, defaulting to 90 days.
// Supports "Nd" day syntax in addition to time.ParseDuration forms.
func (c *Config) RetentionDuration() time.Duration {
	r := c.Store.Retention
	if r == "" {
		return 90 * 24 * time.Hour
	}
	if len(r) > 1 && r[len(r)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(r, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(r)
	if err != nil {
		return 90 * 24 * time.Hour
	}
	return d
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "musicstream", "config.yaml")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "", "json", "sqlite":
	default:
		return fmt.Errorf("store backend %q: unknown (valid: json, sqlite)", cfg.Store.Backend)
	}
	for i, a := range cfg.Artists {
		if a.Name == "" {
			return fmt.Errorf("artist %d: name is required", i)
		}
		for _, f := range a.Feeds {
			u, err := url.Parse(f)
			if err != nil {
				return fmt.Errorf("artist %q: invalid feed url: %w", a.Name, err)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("artist %q: feed url scheme must be http or https, got %q", a.Name, u.Scheme)
			}
		}
	}
	return nil
}
