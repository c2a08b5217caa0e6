package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
)

var (
	exportSessionFile string
	exportWorkspace   string
	exportRepo        string
	exportBranch      string
	exportTicket      string
	exportComment     string
	exportStart       string
	exportEnd         string
	exportDuration    time.Duration
	exportSinkFilter  []string
	exportJSON        bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a completed session to all configured destinations",
	Long: `Builds a session from flags (or loads one from a JSON file) and
pushes it through every enabled sink. Each sink reports its own result;
one failing destination never blocks the others.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportSessionFile, "session", "", "JSON file describing the session")
	exportCmd.Flags().StringVarP(&exportWorkspace, "workspace", "w", "", "workspace or project name")
	exportCmd.Flags().StringVar(&exportRepo, "repo", "", "repository path")
	exportCmd.Flags().StringVarP(&exportBranch, "branch", "b", "", "branch name")
	exportCmd.Flags().StringVarP(&exportTicket, "ticket", "t", "", "ticket or issue key")
	exportCmd.Flags().StringVarP(&exportComment, "comment", "m", "", "worklog comment")
	exportCmd.Flags().StringVar(&exportStart, "start", "", "session start (RFC 3339)")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "session end (RFC 3339, default now)")
	exportCmd.Flags().DurationVarP(&exportDuration, "duration", "d", 0, "session duration (e.g. 1h30m)")
	exportCmd.Flags().StringSliceVar(&exportSinkFilter, "sink", nil, "only export to these sink kinds")
	exportCmd.Flags().BoolVar(&exportJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	if exportService == nil || settingsService == nil {
		return errors.New("export service not configured")
	}

	session, err := buildSession()
	if err != nil {
		return err
	}

	configs := settingsService.SinkConfigs()
	if len(exportSinkFilter) > 0 {
		configs = filterConfigs(configs, exportSinkFilter)
	}
	if len(configs) == 0 {
		return errors.New("no sinks configured; run 'timeport settings set sink.<kind>.enabled true' first")
	}

	results := exportService.Export(context.Background(), session, configs)

	if exportJSON {
		return outputResultsJSON(cmd, results)
	}
	outputResultsTable(cmd, results)

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sinks failed", failed, len(results))
	}
	return nil
}

// buildSession assembles the session from the JSON file and flags.
// Flags override file values.
func buildSession() (*domain.Session, error) {
	session := &domain.Session{}

	if exportSessionFile != "" {
		data, err := os.ReadFile(exportSessionFile)
		if err != nil {
			return nil, fmt.Errorf("reading session file: %w", err)
		}
		if err := json.Unmarshal(data, session); err != nil {
			return nil, fmt.Errorf("parsing session file: %w", err)
		}
	}

	if exportWorkspace != "" {
		session.Workspace = exportWorkspace
	}
	if exportRepo != "" {
		session.RepoPath = exportRepo
	}
	if exportBranch != "" {
		session.Branch = exportBranch
	}
	if exportTicket != "" {
		session.TicketKey = exportTicket
	}
	if exportComment != "" {
		session.Comment = exportComment
	}
	if exportStart != "" {
		session.Start = exportStart
	}
	if exportEnd != "" {
		session.End = exportEnd
	}
	if exportDuration > 0 {
		session.DurationSeconds = int64(exportDuration.Seconds())
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if err := fillInterval(session); err != nil {
		return nil, err
	}
	return session, nil
}

// fillInterval derives whichever of start, end, and duration is
// missing. A session needs at least a duration or a full interval.
func fillInterval(session *domain.Session) error {
	var start, end time.Time
	var err error

	if session.Start != "" {
		if start, err = time.Parse(time.RFC3339, session.Start); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	if session.End != "" {
		if end, err = time.Parse(time.RFC3339, session.End); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}

	switch {
	case !start.IsZero() && !end.IsZero():
		if end.Before(start) {
			return errors.New("session end precedes start")
		}
		if session.DurationSeconds == 0 {
			session.DurationSeconds = int64(end.Sub(start).Seconds())
		}
	case session.DurationSeconds > 0:
		if end.IsZero() {
			end = time.Now()
			if !start.IsZero() {
				end = start.Add(time.Duration(session.DurationSeconds) * time.Second)
			}
		}
		if start.IsZero() {
			start = end.Add(-time.Duration(session.DurationSeconds) * time.Second)
		}
		session.Start = start.Format(time.RFC3339)
		session.End = end.Format(time.RFC3339)
	default:
		return errors.New("session needs --duration or both --start and --end")
	}
	return nil
}

// filterConfigs keeps only configs whose kind appears in kinds.
func filterConfigs(configs []domain.SinkConfig, kinds []string) []domain.SinkConfig {
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[strings.TrimSpace(k)] = true
	}
	kept := make([]domain.SinkConfig, 0, len(configs))
	for _, cfg := range configs {
		if want[cfg.Kind] {
			kept = append(kept, cfg)
		}
	}
	return kept
}

func outputResultsJSON(cmd *cobra.Command, results []domain.SinkResult) error {
	type row struct {
		Kind    string `json:"kind"`
		OK      bool   `json:"ok"`
		Code    string `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Hint    string `json:"hint,omitempty"`
	}
	rows := make([]row, 0, len(results))
	for _, r := range results {
		rows = append(rows, row{
			Kind:    r.Kind,
			OK:      r.OK,
			Code:    string(r.Code),
			Message: r.Message,
			Hint:    r.Hint,
		})
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputResultsTable(cmd *cobra.Command, results []domain.SinkResult) {
	for _, r := range results {
		status := "ok"
		if !r.OK {
			status = "FAILED"
		}
		line := fmt.Sprintf("%-10s %s", r.Kind, status)
		if r.Message != "" {
			line += "  " + r.Message
		}
		cmd.Println(line)
		if r.Hint != "" {
			cmd.Printf("           hint: %s\n", r.Hint)
		}
	}
}
