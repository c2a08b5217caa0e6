// Package dropbox exports sessions as JSON records uploaded to a
// Dropbox folder.
package dropbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
)

// Kind is the registry identifier for this sink.
const Kind = "dropbox"

// Ensure Sink implements the interface.
var _ driven.Sink = (*Sink)(nil)

// Sink uploads one JSON file per session under the configured folder.
// The file name carries the session ID, so re-exporting an equivalent
// session overwrites the same file instead of accumulating copies.
type Sink struct {
	options map[string]string

	// upload is swapped in tests.
	upload func(token, path string, payload []byte) error
}

// New constructs the sink from its configuration.
func New(cfg domain.SinkConfig) (driven.Sink, error) {
	options := make(map[string]string, len(cfg.Options))
	for k, v := range cfg.Options {
		options[k] = v
	}
	return &Sink{options: options, upload: upload}, nil
}

// upload writes the payload via the Dropbox files API.
func upload(token, path string, payload []byte) error {
	client := files.New(dropbox.Config{Token: token})

	arg := files.NewUploadArg(path)
	arg.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: "overwrite"}}

	_, err := client.Upload(arg, strings.NewReader(string(payload)))
	return err
}

// Kind returns the sink type identifier.
func (s *Sink) Kind() string { return Kind }

// Options returns the mutable option bag.
func (s *Sink) Options() map[string]string { return s.options }

// Requirements declares the fields this sink needs.
func (s *Sink) Requirements() []domain.FieldSpec {
	return []domain.FieldSpec{
		{
			Key:      "dropbox.token",
			Label:    "Access token",
			Kind:     domain.FieldSecret,
			Scope:    domain.ScopeSetup,
			Required: true,
		},
		{
			Key:        "dropbox.path",
			Label:      "Folder path (e.g. /worklogs)",
			Kind:       domain.FieldString,
			Scope:      domain.ScopeSetup,
			Required:   true,
			SettingKey: "sink.dropbox.option.path",
			Validate:   validateFolder,
		},
	}
}

// Validate checks that token and folder are hydrated.
func (s *Sink) Validate() domain.Validation {
	var missing []string
	for _, key := range []string{"token", "path"} {
		if domain.IsEmpty(s.options[key]) {
			missing = append(missing, "dropbox."+key)
		}
	}
	if missing != nil {
		return domain.Validation{Missing: missing}
	}
	return domain.Validation{OK: true}
}

// Export uploads the session record.
func (s *Sink) Export(_ context.Context, session *domain.Session) domain.ExportResult {
	payload, err := json.MarshalIndent(newRecord(session), "", "  ")
	if err != nil {
		return domain.Failed(domain.CodeInternal, fmt.Errorf("encoding session: %w", err))
	}

	path := FilePath(s.options["path"], session)
	if err := s.upload(s.options["token"], path, payload); err != nil {
		return classify(err)
	}
	return domain.Succeeded(fmt.Sprintf("uploaded %s", path))
}

// FilePath returns the upload target for a session.
func FilePath(folder string, session *domain.Session) string {
	name := session.ID
	if domain.IsEmpty(name) {
		name = session.Start
	}
	return strings.TrimSuffix(folder, "/") + "/session-" + name + ".json"
}

// record is the on-disk shape of an exported session.
type record struct {
	ID              string            `json:"id"`
	Start           string            `json:"start"`
	End             string            `json:"end"`
	DurationSeconds int64             `json:"duration_seconds"`
	Workspace       string            `json:"workspace,omitempty"`
	RepoPath        string            `json:"repo_path,omitempty"`
	Branch          string            `json:"branch,omitempty"`
	TicketKey       string            `json:"ticket,omitempty"`
	Comment         string            `json:"comment,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

func newRecord(session *domain.Session) record {
	return record{
		ID:              session.ID,
		Start:           session.Start,
		End:             session.End,
		DurationSeconds: session.DurationSeconds,
		Workspace:       session.Workspace,
		RepoPath:        session.RepoPath,
		Branch:          session.Branch,
		TicketKey:       session.TicketKey,
		Comment:         session.Comment,
		Metadata:        session.Metadata,
	}
}

// classify maps Dropbox API failures onto the result taxonomy. The SDK
// surfaces auth problems in the error summary rather than a typed
// status, so match on the well-known tags.
func classify(err error) domain.ExportResult {
	msg := err.Error()
	if strings.Contains(msg, "invalid_access_token") || strings.Contains(msg, "expired_access_token") {
		return domain.RetryField(domain.CodeAuthError, "dropbox.token", "dropbox rejected the access token")
	}
	if strings.Contains(msg, "malformed_path") || strings.Contains(msg, "path/") {
		return domain.RetryField(domain.CodeInvalidField, "dropbox.path", "dropbox rejected the folder path")
	}
	return domain.Failed(domain.CodeNetworkError, err)
}

func validateFolder(value string) error {
	if !strings.HasPrefix(value, "/") {
		return fmt.Errorf("folder must start with /")
	}
	return nil
}
