package cli

import (
	"fmt"
	"os"

	"github.com/major-yy/event-bot/internal/config"
	"github.com/major-yy/event-bot/internal/fetch"
	"github.com/major-yy/event-bot/internal/ledger"
	"github.com/major-yy/event-bot/internal/logger"
	"github.com/major-yy/event-bot/internal/notifier"
	"github.com/major-yy/event-bot/internal/pipeline"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig  string
	flagDryRun  bool
	flagVerbose bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event-bot",
		Short: "Collect Kanto event listings and broadcast new ones",
		Long: `Fetches event listings from Walker+ and Tokyo Art Beat, suppresses
events already delivered in prior runs, and broadcasts region-grouped
digests to the configured LINE channel.`,
		RunE:          runBot,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&flagConfig, "config", "", "Path to YAML config (defaults apply if omitted)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print digests instead of broadcasting, use an in-memory ledger")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	return cmd
}

// runBot is the main command logic
func runBot(cmd *cobra.Command, args []string) error {
	if flagVerbose {
		logger.SetDefault(logger.New(logger.LevelDebug, os.Stdout))
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(flagDryRun); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	led, err := buildLedger(cfg)
	if err != nil {
		return fmt.Errorf("initializing ledger: %w", err)
	}

	notif, err := buildNotifier(cfg)
	if err != nil {
		return fmt.Errorf("initializing notifier: %w", err)
	}

	fetcher := fetch.New(cfg.Pacing.FetchTimeout())

	summary := pipeline.New(cfg, fetcher, led, notif).Run()
	fmt.Printf("Run %s: %d fetched, %d new, %d duplicates, %d chunks dispatched\n",
		summary.RunID, summary.Fetched, summary.New, summary.Duplicates, summary.Chunks)

	return nil
}

// buildLedger selects the dedupe ledger backend. Dry runs use an
// in-memory ledger so nothing is recorded as delivered.
func buildLedger(cfg *config.Config) (ledger.Ledger, error) {
	if flagDryRun {
		return ledger.NewMemory(), nil
	}
	switch cfg.Ledger.Backend {
	case config.LedgerSheets:
		return ledger.NewSheets(cfg.SpreadsheetID, cfg.SheetsToken)
	default:
		return ledger.NewFile(cfg.Ledger.Path)
	}
}

// buildNotifier selects the dispatcher. Dry runs print instead of
// posting.
func buildNotifier(cfg *config.Config) (notifier.Notifier, error) {
	if flagDryRun {
		return notifier.NewDryRun(), nil
	}
	return notifier.NewLine(cfg.LineToken)
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
