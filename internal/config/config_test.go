package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/major-yy/event-bot/internal/region"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if len(cfg.Sources.WalkerPlus.Queries) != 4 {
		t.Errorf("expected 4 listing queries, got %d", len(cfg.Sources.WalkerPlus.Queries))
	}
	if cfg.Sources.WalkerPlus.MaxPages != 2 {
		t.Errorf("max pages = %d, expected 2", cfg.Sources.WalkerPlus.MaxPages)
	}
	if cfg.Limits.PerRegion != 10 || cfg.Limits.Total != 15 || cfg.Limits.ChunkSize != 3500 {
		t.Errorf("unexpected limits: %+v", cfg.Limits)
	}
	if cfg.Ledger.Backend != LedgerFile {
		t.Errorf("default ledger backend = %q, expected file", cfg.Ledger.Backend)
	}
	if cfg.Region.DefaultRegion() != region.Tokyo {
		t.Errorf("default region = %q, expected tokyo", cfg.Region.Default)
	}
	if err := cfg.Validate(true); err != nil {
		t.Errorf("defaults should validate in dry-run mode: %v", err)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := writeConfig(t, `
sources:
  artbeat:
    max_items: 5
limits:
  per_region: 3
ledger:
  backend: sheets
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Overridden fields
	if cfg.Sources.ArtBeat.MaxItems != 5 {
		t.Errorf("max items = %d, expected override 5", cfg.Sources.ArtBeat.MaxItems)
	}
	if cfg.Limits.PerRegion != 3 {
		t.Errorf("per-region cap = %d, expected override 3", cfg.Limits.PerRegion)
	}
	if cfg.Ledger.Backend != LedgerSheets {
		t.Errorf("ledger backend = %q, expected sheets", cfg.Ledger.Backend)
	}

	// Untouched fields keep their defaults
	if cfg.Limits.Total != 15 {
		t.Errorf("total cap = %d, expected default 15", cfg.Limits.Total)
	}
	if len(cfg.Sources.WalkerPlus.Queries) != 4 {
		t.Errorf("expected default queries preserved, got %d", len(cfg.Sources.WalkerPlus.Queries))
	}
}

func TestLoadCredentialsFromEnv(t *testing.T) {
	t.Setenv(EnvLineToken, "line-token")
	t.Setenv(EnvSpreadsheetID, "sheet-id")
	t.Setenv(EnvSheetsToken, "sheets-token")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LineToken != "line-token" || cfg.SpreadsheetID != "sheet-id" || cfg.SheetsToken != "sheets-token" {
		t.Errorf("credentials not picked up from the environment: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		dryRun bool
		valid  bool
	}{
		{
			name:   "defaults pass in dry-run",
			mutate: func(c *Config) {},
			dryRun: true,
			valid:  true,
		},
		{
			name:   "live run needs the broadcast token",
			mutate: func(c *Config) {},
			valid:  false,
		},
		{
			name: "live run with token and file ledger",
			mutate: func(c *Config) {
				c.LineToken = "token"
			},
			valid: true,
		},
		{
			name: "sheets ledger needs credentials",
			mutate: func(c *Config) {
				c.LineToken = "token"
				c.Ledger.Backend = LedgerSheets
			},
			valid: false,
		},
		{
			name: "sheets ledger with credentials",
			mutate: func(c *Config) {
				c.LineToken = "token"
				c.Ledger.Backend = LedgerSheets
				c.SpreadsheetID = "id"
				c.SheetsToken = "token"
			},
			valid: true,
		},
		{
			name: "no listing queries",
			mutate: func(c *Config) {
				c.Sources.WalkerPlus.Queries = nil
			},
			dryRun: true,
			valid:  false,
		},
		{
			name: "unknown query region",
			mutate: func(c *Config) {
				c.Sources.WalkerPlus.Queries[0].Region = "osaka"
			},
			dryRun: true,
			valid:  false,
		},
		{
			name: "query without URL",
			mutate: func(c *Config) {
				c.Sources.WalkerPlus.Queries[0].URL = ""
			},
			dryRun: true,
			valid:  false,
		},
		{
			name: "zero per-region cap",
			mutate: func(c *Config) {
				c.Limits.PerRegion = 0
			},
			dryRun: true,
			valid:  false,
		},
		{
			name: "zero total cap disables it",
			mutate: func(c *Config) {
				c.Limits.Total = 0
			},
			dryRun: true,
			valid:  true,
		},
		{
			name: "inverted pacing window",
			mutate: func(c *Config) {
				c.Pacing.DetailMinMS = 2000
				c.Pacing.DetailMaxMS = 500
			},
			dryRun: true,
			valid:  false,
		},
		{
			name: "unknown default region",
			mutate: func(c *Config) {
				c.Region.Default = "hokkaido"
			},
			dryRun: true,
			valid:  false,
		},
		{
			name: "file ledger without path",
			mutate: func(c *Config) {
				c.Ledger.Path = ""
			},
			dryRun: true,
			valid:  false,
		},
		{
			name: "unknown ledger backend",
			mutate: func(c *Config) {
				c.Ledger.Backend = "redis"
			},
			dryRun: true,
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate(tt.dryRun)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
