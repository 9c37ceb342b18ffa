// Package config loads the bot configuration from a YAML file and
// credentials from the environment.
//
// Everything except credentials has a default mirroring the production
// setup, so a config file only needs to state overrides. Validation is
// fatal at startup: a bad configuration aborts before any network
// activity.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/major-yy/event-bot/internal/region"
	"gopkg.in/yaml.v3"
)

// Environment variables holding credentials for the external services.
const (
	EnvLineToken     = "LINE_ACCESS_TOKEN"
	EnvSpreadsheetID = "SHEETS_SPREADSHEET_ID"
	EnvSheetsToken   = "SHEETS_ACCESS_TOKEN"
)

// Ledger backend names.
const (
	LedgerFile   = "file"
	LedgerSheets = "sheets"
)

// Config is the full runtime configuration.
type Config struct {
	Sources Sources      `yaml:"sources"`
	Limits  Limits       `yaml:"limits"`
	Pacing  Pacing       `yaml:"pacing"`
	Ledger  LedgerConfig `yaml:"ledger"`
	Region  RegionConfig `yaml:"region"`

	// Credentials come from the environment, never from the file.
	LineToken     string `yaml:"-"`
	SpreadsheetID string `yaml:"-"`
	SheetsToken   string `yaml:"-"`
}

// Sources configures the two event sources.
type Sources struct {
	WalkerPlus WalkerPlusSource `yaml:"walkerplus"`
	ArtBeat    ArtBeatSource    `yaml:"artbeat"`
}

// WalkerPlusSource lists the per-region structured-data queries.
type WalkerPlusSource struct {
	Queries  []RegionQuery `yaml:"queries"`
	MaxPages int           `yaml:"max_pages"`
}

// RegionQuery pins one listing URL to one region.
type RegionQuery struct {
	Region string `yaml:"region"`
	URL    string `yaml:"url"`
}

// ArtBeatSource configures the single heuristic-source listing.
type ArtBeatSource struct {
	ListURL  string `yaml:"list_url"`
	MaxItems int    `yaml:"max_items"`
}

// Limits holds the batching caps.
type Limits struct {
	PerRegion int `yaml:"per_region"` // new events per region per source pass
	Total     int `yaml:"total"`      // new events per run, 0 disables
	ChunkSize int `yaml:"chunk_size"` // broadcast chunk size in runes
}

// Pacing holds the politeness delays, in milliseconds.
type Pacing struct {
	DetailMinMS   int `yaml:"detail_min_ms"`
	DetailMaxMS   int `yaml:"detail_max_ms"`
	DispatchMS    int `yaml:"dispatch_ms"`
	FetchTimeoutS int `yaml:"fetch_timeout_s"`
}

// DetailWindow returns the randomized-sleep bounds applied after each
// detail-page fetch.
func (p Pacing) DetailWindow() (min, max time.Duration) {
	return time.Duration(p.DetailMinMS) * time.Millisecond,
		time.Duration(p.DetailMaxMS) * time.Millisecond
}

// DispatchPause returns the fixed sleep between chunk dispatches.
func (p Pacing) DispatchPause() time.Duration {
	return time.Duration(p.DispatchMS) * time.Millisecond
}

// FetchTimeout returns the per-request fetch deadline.
func (p Pacing) FetchTimeout() time.Duration {
	return time.Duration(p.FetchTimeoutS) * time.Second
}

// LedgerConfig selects the dedupe ledger backend.
type LedgerConfig struct {
	Backend string `yaml:"backend"` // "file" or "sheets"
	Path    string `yaml:"path"`    // file backend only
}

// RegionConfig holds the classifier's policy default for events no rule
// can place.
type RegionConfig struct {
	Default string `yaml:"default"`
}

// DefaultRegion returns the configured fallback region.
func (r RegionConfig) DefaultRegion() region.Region {
	return region.Parse(r.Default)
}

// Default returns the production configuration.
func Default() *Config {
	return &Config{
		Sources: Sources{
			WalkerPlus: WalkerPlusSource{
				Queries: []RegionQuery{
					{Region: string(region.Tokyo), URL: "https://www.walkerplus.com/event_list/ar0313/"},
					{Region: string(region.Kanagawa), URL: "https://www.walkerplus.com/event_list/ar0314/"},
					{Region: string(region.Chiba), URL: "https://www.walkerplus.com/event_list/ar0312/"},
					{Region: string(region.Saitama), URL: "https://www.walkerplus.com/event_list/ar0311/"},
				},
				MaxPages: 2,
			},
			ArtBeat: ArtBeatSource{
				ListURL:  "https://www.tokyoartbeat.com/events/condId/most_popular/filter/open",
				MaxItems: 25,
			},
		},
		Limits: Limits{
			PerRegion: 10,
			Total:     15,
			ChunkSize: 3500,
		},
		Pacing: Pacing{
			DetailMinMS:   500,
			DetailMaxMS:   1200,
			DispatchMS:    1000,
			FetchTimeoutS: 20,
		},
		Ledger: LedgerConfig{
			Backend: LedgerFile,
			Path:    "~/.local/share/event-bot/sent_events.jsonl",
		},
		Region: RegionConfig{
			Default: string(region.Tokyo),
		},
	}
}

// Load reads the YAML file at path over the defaults and pulls
// credentials from the environment. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.LineToken = os.Getenv(EnvLineToken)
	cfg.SpreadsheetID = os.Getenv(EnvSpreadsheetID)
	cfg.SheetsToken = os.Getenv(EnvSheetsToken)

	return cfg, nil
}

// Validate checks the configuration. Credential checks are skipped in
// dry-run mode, which needs no external services.
func (c *Config) Validate(dryRun bool) error {
	if len(c.Sources.WalkerPlus.Queries) == 0 {
		return fmt.Errorf("at least one walkerplus query is required")
	}
	for _, q := range c.Sources.WalkerPlus.Queries {
		if !region.Parse(q.Region).Valid() {
			return fmt.Errorf("unknown region %q in walkerplus query", q.Region)
		}
		if q.URL == "" {
			return fmt.Errorf("walkerplus query for %s has no URL", q.Region)
		}
	}
	if c.Sources.ArtBeat.ListURL == "" {
		return fmt.Errorf("artbeat list URL is required")
	}

	if c.Limits.PerRegion <= 0 {
		return fmt.Errorf("per-region cap must be positive")
	}
	if c.Limits.Total < 0 {
		return fmt.Errorf("total cap must not be negative")
	}
	if c.Limits.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}

	if c.Pacing.DetailMinMS < 0 || c.Pacing.DetailMaxMS < c.Pacing.DetailMinMS {
		return fmt.Errorf("detail pacing window is invalid")
	}

	if !c.Region.DefaultRegion().Valid() {
		return fmt.Errorf("unknown default region %q", c.Region.Default)
	}

	switch c.Ledger.Backend {
	case LedgerFile:
		if c.Ledger.Path == "" {
			return fmt.Errorf("file ledger requires a path")
		}
	case LedgerSheets:
		if !dryRun && (c.SpreadsheetID == "" || c.SheetsToken == "") {
			return fmt.Errorf("%s and %s must be set for the sheets ledger",
				EnvSpreadsheetID, EnvSheetsToken)
		}
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}

	if !dryRun && c.LineToken == "" {
		return fmt.Errorf("%s must be set", EnvLineToken)
	}

	return nil
}
