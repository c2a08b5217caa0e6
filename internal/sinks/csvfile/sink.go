// Package csvfile exports sessions by appending rows to a local CSV
// file.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
)

// Kind is the registry identifier for this sink.
const Kind = "csv"

// header is written once when the target file is created.
var header = []string{
	"id", "start", "end", "duration_seconds",
	"workspace", "repo", "branch", "ticket", "comment",
}

// Ensure Sink implements the interface.
var _ driven.Sink = (*Sink)(nil)

// Sink appends one CSV row per exported session.
type Sink struct {
	options map[string]string
}

// New constructs the sink from its configuration.
func New(cfg domain.SinkConfig) (driven.Sink, error) {
	options := make(map[string]string, len(cfg.Options))
	for k, v := range cfg.Options {
		options[k] = v
	}
	return &Sink{options: options}, nil
}

// Kind returns the sink type identifier.
func (s *Sink) Kind() string { return Kind }

// Options returns the mutable option bag.
func (s *Sink) Options() map[string]string { return s.options }

// Requirements declares the fields this sink needs.
func (s *Sink) Requirements() []domain.FieldSpec {
	return []domain.FieldSpec{
		{
			Key:        "csv.path",
			Label:      "CSV file path",
			Kind:       domain.FieldString,
			Scope:      domain.ScopeSetup,
			Required:   true,
			SettingKey: "sink.csv.option.path",
			Validate:   validatePath,
		},
		{
			Key:        "csv.delimiter",
			Label:      "Field delimiter",
			Kind:       domain.FieldString,
			Scope:      domain.ScopeSetup,
			SettingKey: "sink.csv.option.delimiter",
			Validate:   validateDelimiter,
		},
	}
}

// Validate checks that the target path is configured.
func (s *Sink) Validate() domain.Validation {
	if domain.IsEmpty(s.options["path"]) {
		return domain.Validation{Missing: []string{"csv.path"}}
	}
	return domain.Validation{OK: true}
}

// Export appends the session as one row, creating the file with a
// header row when absent. Appending an equivalent session twice yields
// two rows; deduplication is left to whoever consumes the file.
func (s *Sink) Export(_ context.Context, session *domain.Session) domain.ExportResult {
	path := s.options["path"]

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return domain.Failed(domain.CodeInternal, fmt.Errorf("creating directory: %w", err))
	}

	info, err := os.Stat(path)
	newFile := os.IsNotExist(err)
	if err != nil && !newFile {
		return domain.Failed(domain.CodeInternal, fmt.Errorf("checking file: %w", err))
	}
	if !newFile && info.Size() == 0 {
		newFile = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return domain.Failed(domain.CodeInternal, fmt.Errorf("opening file: %w", err))
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if d := s.options["delimiter"]; d != "" {
		w.Comma = rune(d[0])
	}

	if newFile {
		if err := w.Write(header); err != nil {
			return domain.Failed(domain.CodeInternal, fmt.Errorf("writing header: %w", err))
		}
	}

	row := []string{
		session.ID,
		session.Start,
		session.End,
		strconv.FormatInt(session.DurationSeconds, 10),
		session.Workspace,
		session.RepoPath,
		session.Branch,
		session.TicketKey,
		session.Comment,
	}
	if err := w.Write(row); err != nil {
		return domain.Failed(domain.CodeInternal, fmt.Errorf("writing row: %w", err))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return domain.Failed(domain.CodeInternal, fmt.Errorf("flushing: %w", err))
	}

	return domain.Succeeded(fmt.Sprintf("appended to %s", path))
}

func validatePath(value string) error {
	if domain.IsEmpty(value) {
		return fmt.Errorf("path must not be empty")
	}
	return nil
}

func validateDelimiter(value string) error {
	if value == "" {
		return nil
	}
	if len([]rune(value)) != 1 {
		return fmt.Errorf("delimiter must be a single character")
	}
	return nil
}
