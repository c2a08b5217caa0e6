// Package jira exports sessions as worklogs on Jira Cloud issues.
package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
)

// Kind is the registry identifier for this sink.
const Kind = "jira"

var (
	domainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]*\.[a-zA-Z]{2,}$`)
	ticketPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]+-\d+$`)
)

// Ensure Sink implements the interface.
var _ driven.Sink = (*Sink)(nil)

// Sink logs session time as a worklog on one Jira issue. The issue key
// is a runtime field: it defaults to the ticket detected from the
// branch name and falls back to an interactive issue search.
type Sink struct {
	options map[string]string

	// newClient is swapped in tests to point at a local server.
	newClient func(domainName, email, token string) *Client
}

// New constructs the sink from its configuration.
func New(cfg domain.SinkConfig) (driven.Sink, error) {
	options := make(map[string]string, len(cfg.Options))
	for k, v := range cfg.Options {
		options[k] = v
	}
	return &Sink{options: options, newClient: NewClient}, nil
}

// Kind returns the sink type identifier.
func (s *Sink) Kind() string { return Kind }

// Options returns the mutable option bag.
func (s *Sink) Options() map[string]string { return s.options }

// Requirements declares the fields this sink needs. Credentials come
// first: the ticket picker's remote search reads them from the options
// bag, which hydration fills in declaration order.
func (s *Sink) Requirements() []domain.FieldSpec {
	return []domain.FieldSpec{
		{
			Key:        "jira.domain",
			Label:      "Jira site (e.g. acme.atlassian.net)",
			Kind:       domain.FieldString,
			Scope:      domain.ScopeSetup,
			Required:   true,
			SettingKey: "sink.jira.option.domain",
			Validate:   validateDomain,
		},
		{
			Key:        "jira.email",
			Label:      "Account email",
			Kind:       domain.FieldString,
			Scope:      domain.ScopeSetup,
			Required:   true,
			SettingKey: "sink.jira.option.email",
		},
		{
			Key:      "jira.token",
			Label:    "API token",
			Kind:     domain.FieldSecret,
			Scope:    domain.ScopeSetup,
			Required: true,
		},
		{
			Key:      "jira.ticket",
			Label:    "Issue",
			Kind:     domain.FieldString,
			Scope:    domain.ScopeRuntime,
			Required: true,
			Mode:     domain.PromptSelect,
			Fetch:    s.fetchIssues,
			Validate: validateTicket,
			CacheTTL: time.Hour,
		},
	}
}

// Validate checks that the connection options are hydrated. The issue
// key is runtime state on the session and checked by the orchestrator.
func (s *Sink) Validate() domain.Validation {
	var missing []string
	for _, key := range []string{"domain", "email", "token"} {
		if domain.IsEmpty(s.options[key]) {
			missing = append(missing, "jira."+key)
		}
	}
	if missing != nil {
		return domain.Validation{Missing: missing}
	}
	return domain.Validation{OK: true}
}

// Export posts one worklog. Jira treats repeated worklogs with the same
// values as distinct entries; the caller owns deduplication across runs.
func (s *Sink) Export(ctx context.Context, session *domain.Session) domain.ExportResult {
	issueKey := session.TicketKey
	if domain.IsEmpty(issueKey) {
		return domain.Skipped([]string{"jira.ticket"})
	}

	client := s.client()

	var started time.Time
	if t, err := time.Parse(time.RFC3339, session.Start); err == nil {
		started = t
	}

	err := client.AddWorklog(ctx, issueKey, started, session.DurationSeconds, session.Comment)
	if err != nil {
		return classify(err, issueKey)
	}
	return domain.Succeeded(fmt.Sprintf("logged %ds on %s", session.DurationSeconds, issueKey))
}

// fetchIssues backs the issue picker.
func (s *Sink) fetchIssues(ctx context.Context, query, cursor string) (*domain.SuggestionPage, error) {
	return s.client().SearchIssues(ctx, query, cursor)
}

func (s *Sink) client() *Client {
	return s.newClient(s.options["domain"], s.options["email"], s.options["token"])
}

// classify maps transport and API failures onto the result taxonomy.
// Credential and unknown-issue rejections are retryable against their
// owning field; everything else is final.
func classify(err error, issueKey string) domain.ExportResult {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.RetryField(domain.CodeAuthError, "jira.token",
				fmt.Sprintf("jira rejected the credentials (%d)", apiErr.StatusCode))
		case http.StatusNotFound:
			return domain.RetryField(domain.CodeInvalidField, "jira.ticket",
				fmt.Sprintf("issue %s not found", issueKey))
		default:
			res := domain.Failed(domain.CodeInternal, apiErr)
			res.Hint = "check the site URL and issue permissions"
			return res
		}
	}
	return domain.Failed(domain.CodeNetworkError, err)
}

func validateDomain(value string) error {
	if !domainPattern.MatchString(value) {
		return fmt.Errorf("enter the bare site host, e.g. acme.atlassian.net")
	}
	return nil
}

func validateTicket(value string) error {
	if !ticketPattern.MatchString(value) {
		return fmt.Errorf("issue keys look like PROJ-123")
	}
	return nil
}
