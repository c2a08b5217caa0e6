package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
)

var sinksCmd = &cobra.Command{
	Use:   "sinks",
	Short: "Manage export destinations",
}

var sinksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available sink kinds and their configuration state",
	Args:  cobra.NoArgs,
	RunE:  runSinksList,
}

func init() {
	sinksCmd.AddCommand(sinksListCmd)
	rootCmd.AddCommand(sinksCmd)
}

func runSinksList(cmd *cobra.Command, _ []string) error {
	if registry == nil || settingsService == nil {
		return errors.New("sink registry not configured")
	}

	configured := make(map[string]domain.SinkConfig)
	for _, cfg := range settingsService.SinkConfigs() {
		configured[cfg.Kind] = cfg
	}

	for _, kind := range registry.Kinds() {
		state := "not configured"
		if cfg, ok := configured[kind]; ok {
			if cfg.Enabled {
				state = "enabled"
			} else {
				state = "disabled"
			}
		}
		cmd.Printf("%-10s %s\n", kind, state)
	}
	return nil
}
