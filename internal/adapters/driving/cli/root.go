// Package cli implements the timeport command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/timeport-cli/internal/adapters/driven/cache"
	"github.com/custodia-labs/timeport-cli/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/timeport-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/timeport-cli/internal/adapters/driving/prompt"
	"github.com/custodia-labs/timeport-cli/internal/adapters/driving/tui/picker"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driving"
	"github.com/custodia-labs/timeport-cli/internal/core/services"
	"github.com/custodia-labs/timeport-cli/internal/logger"
	"github.com/custodia-labs/timeport-cli/internal/sinks"
)

var (
	flagVerbose   bool
	flagConfigDir string
)

// Services wired by setup and consumed by the commands. Tests replace
// these directly.
var (
	exportService   driving.Exporter
	settingsService driving.SettingsService
	registry        *services.SinkRegistry
	store           *sqlite.Store
	stopWatch       context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "timeport",
	Short: "Export completed work sessions to configured destinations",
	Long: `Timeport takes a finished work session and pushes it to every
destination you have configured: a CSV file, a Jira worklog, a GitHub
issue comment, a Notion page, a Dropbox folder, or a calendar event.

Missing fields are resolved interactively and remembered for next time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		if cmd.Name() == "version" {
			return nil
		}
		return setup()
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "configuration directory (default ~/.timeport)")
}

// setup wires the full service graph: settings file, durable store,
// layered cache, prompter, resolver, registry, exporter.
func setup() error {
	if exportService != nil {
		// Already wired (tests inject their own services).
		return nil
	}

	settingStore, err := file.NewSettingStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("opening settings: %w", err)
	}

	// Reload settings edited while a run is open; an interactive export
	// can span minutes of prompting.
	watchCtx, cancel := context.WithCancel(context.Background())
	stopWatch = cancel
	if err := settingStore.Watch(watchCtx); err != nil {
		logger.Warn("watching settings file failed: %v", err)
	}

	settingsSvc := services.NewSettingsService(settingStore)
	settingsService = settingsSvc

	appSettings, err := settingsSvc.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	store, err = sqlite.NewStore(appSettings.DataDir)
	if err != nil {
		return fmt.Errorf("opening data store: %w", err)
	}

	layered := cache.NewLayered(cache.NewMemory(), store.Cache())
	suggestions := services.NewSuggestionService(layered, appSettings.SuggestTTL)

	debounce := appSettings.Debounce
	if debounce <= 0 {
		debounce = picker.DefaultDebounce
	}
	prompter := prompt.NewTerminal(debounce)

	resolver := services.NewResolutionService(store.SecretStore(), settingStore, prompter, suggestions)

	registry = services.NewSinkRegistry()
	sinks.RegisterDefaults(registry)

	exportService = services.NewExportService(registry, resolver)
	return nil
}

// teardown releases resources acquired in setup.
func teardown() {
	if stopWatch != nil {
		stopWatch()
		stopWatch = nil
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn("closing data store: %v", err)
		}
		store = nil
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		teardown()
		os.Exit(1)
	}
}
