package cli

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage configuration",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Sets one configuration key. Sink configuration lives under the
sink.* key space, for example:

  timeport settings set sink.csv.enabled true
  timeport settings set sink.csv.option.path ~/worklog.csv
  timeport settings set sink.jira.enabled true`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return err
	}

	cmd.Printf("data dir:       %s\n", orDefault(settings.DataDir, "~/.timeport/data"))
	cmd.Printf("debounce:       %s\n", settings.Debounce)
	cmd.Printf("suggestion ttl: %s\n", settings.SuggestTTL)

	if len(settings.Sinks) == 0 {
		cmd.Println("\nNo sinks configured.")
		return nil
	}

	cmd.Println("\nSinks:")
	for _, cfg := range settings.Sinks {
		state := "disabled"
		if cfg.Enabled {
			state = "enabled"
		}
		cmd.Printf("  %-10s %s\n", cfg.DisplayName(), state)

		keys := make([]string, 0, len(cfg.Options))
		for k := range cfg.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("    %s = %s\n", k, cfg.Options[k])
		}
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, raw := args[0], args[1]
	if err := settingsService.Set(key, coerceValue(raw)); err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", key, raw)
	return nil
}

// coerceValue stores booleans and integers typed so GetBool and GetInt
// read them back without string parsing.
func coerceValue(raw string) any {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
