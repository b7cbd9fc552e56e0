package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	if len(cfg.Artists) == 0 {
		t.Error("embedded config should ship example artists")
	}
	if cfg.AI.Images {
		t.Error("image generation should be opt-in")
	}
	for _, a := range cfg.Artists {
		if a.Name == "" {
			t.Error("embedded artist missing name")
		}
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Artists) == 0 {
		t.Error("expected embedded defaults")
	}
	// First run writes the defaults out for editing.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("defaults not written to %s: %v", path, err)
	}
}

func TestLoadUserConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
search:
  result_budget: 10
store:
  backend: sqlite
artists:
  - name: Test Artist
    name_ja: テスト
    feeds:
      - https://example.com/feed.xml
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ResultBudget() != 10 {
		t.Errorf("ResultBudget = %d, want 10", cfg.ResultBudget())
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Backend = %q", cfg.Store.Backend)
	}
	if len(cfg.Artists) != 1 || cfg.Artists[0].NameJa != "テスト" {
		t.Errorf("artists = %+v", cfg.Artists)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad backend", "store:\n  backend: bolt\n"},
		{"missing artist name", "artists:\n  - genre: rock\n"},
		{"bad feed scheme", "artists:\n  - name: X\n    feeds: [\"ftp://example.com/feed\"]\n"},
		{"malformed yaml", "artists: [\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestQueryNames(t *testing.T) {
	cases := []struct {
		name   string
		artist Artist
		want   []string
	}{
		{
			"name only",
			Artist{Name: "YOASOBI"},
			[]string{"YOASOBI"},
		},
		{
			"with japanese name and aliases",
			Artist{Name: "Mr.Children", NameJa: "ミスチル", Aliases: []string{"ミスターチルドレン"}},
			[]string{"Mr.Children", "ミスチル", "ミスターチルドレン"},
		},
		{
			"duplicates collapsed",
			Artist{Name: "Ado", NameJa: "Ado", Aliases: []string{"Ado"}},
			[]string{"Ado"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.artist.QueryNames()
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("QueryNames() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRetentionDuration(t *testing.T) {
	cases := []struct {
		retention string
		want      time.Duration
	}{
		{"", 90 * 24 * time.Hour},
		{"30d", 30 * 24 * time.Hour},
		{"1d", 24 * time.Hour},
		{"72h", 72 * time.Hour},
		{"garbage", 90 * 24 * time.Hour},
	}
	for _, tc := range cases {
		cfg := &Config{Store: StoreConfig{Retention: tc.retention}}
		if got := cfg.RetentionDuration(); got != tc.want {
			t.Errorf("RetentionDuration(%q) = %v, want %v", tc.retention, got, tc.want)
		}
	}
}

func TestKeyResolution(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg := &Config{}
	if got := cfg.GeminiKey(); got != "env-key" {
		t.Errorf("GeminiKey from env = %q", got)
	}
	cfg.AI.APIKey = "config-key"
	if got := cfg.GeminiKey(); got != "config-key" {
		t.Errorf("config should win over env, got %q", got)
	}
}

func TestDefaultsAccessors(t *testing.T) {
	cfg := &Config{}
	if cfg.Model() != "gemini-2.0-flash" {
		t.Errorf("Model = %q", cfg.Model())
	}
	if cfg.ResultBudget() != 20 {
		t.Errorf("ResultBudget = %d", cfg.ResultBudget())
	}
	if filepath.Base(cfg.StorePath()) != "news.json" {
		t.Errorf("StorePath = %q", cfg.StorePath())
	}
	cfg.Store.Backend = "sqlite"
	if filepath.Base(cfg.StorePath()) != "news.db" {
		t.Errorf("sqlite StorePath = %q", cfg.StorePath())
	}
}
