// Package github exports sessions as worklog comments on GitHub issues.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
)

// Kind is the registry identifier for this sink.
const Kind = "github"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// issuePageSize is the number of issues per picker page.
const issuePageSize = 30

var repoPattern = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)

// Ensure Sink implements the interface.
var _ driven.Sink = (*Sink)(nil)

// Sink posts the session summary as a comment on one issue of the
// configured repository.
type Sink struct {
	options map[string]string

	// newClient is swapped in tests to point at a local server.
	newClient func(ctx context.Context, token string) *gh.Client
}

// New constructs the sink from its configuration.
func New(cfg domain.SinkConfig) (driven.Sink, error) {
	options := make(map[string]string, len(cfg.Options))
	for k, v := range cfg.Options {
		options[k] = v
	}
	return &Sink{options: options, newClient: newClient}, nil
}

// newClient builds a go-github client with a static token source.
func newClient(ctx context.Context, token string) *gh.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout
	return gh.NewClient(tc)
}

// Kind returns the sink type identifier.
func (s *Sink) Kind() string { return Kind }

// Options returns the mutable option bag.
func (s *Sink) Options() map[string]string { return s.options }

// Requirements declares the fields this sink needs.
func (s *Sink) Requirements() []domain.FieldSpec {
	return []domain.FieldSpec{
		{
			Key:      "github.token",
			Label:    "Personal access token",
			Kind:     domain.FieldSecret,
			Scope:    domain.ScopeSetup,
			Required: true,
		},
		{
			Key:        "github.repo",
			Label:      "Repository (owner/name)",
			Kind:       domain.FieldString,
			Scope:      domain.ScopeSetup,
			Required:   true,
			SettingKey: "sink.github.option.repo",
			Validate:   validateRepo,
		},
		{
			Key:      "github.issue",
			Label:    "Issue",
			Kind:     domain.FieldNumber,
			Scope:    domain.ScopeRuntime,
			Required: true,
			Mode:     domain.PromptSelect,
			Fetch:    s.fetchIssues,
			Validate: validateIssue,
			CacheTTL: time.Hour,
		},
	}
}

// Validate checks that the connection options are hydrated.
func (s *Sink) Validate() domain.Validation {
	var missing []string
	for _, key := range []string{"token", "repo"} {
		if domain.IsEmpty(s.options[key]) {
			missing = append(missing, "github."+key)
		}
	}
	if missing == nil && validateRepo(s.options["repo"]) != nil {
		missing = append(missing, "github.repo")
	}
	if missing != nil {
		return domain.Validation{Missing: missing}
	}
	return domain.Validation{OK: true}
}

// Export adds the worklog comment. Re-exporting an equivalent session
// adds another comment; the comment body carries the session ID so
// duplicates are visible.
func (s *Sink) Export(ctx context.Context, session *domain.Session) domain.ExportResult {
	issueValue := session.RuntimeValue("github.issue")
	if domain.IsEmpty(issueValue) {
		return domain.Skipped([]string{"github.issue"})
	}
	number, err := strconv.Atoi(issueValue)
	if err != nil {
		return domain.RetryField(domain.CodeInvalidField, "github.issue",
			fmt.Sprintf("issue %q is not a number", issueValue))
	}

	owner, repo, ok := splitRepo(s.options["repo"])
	if !ok {
		return domain.RetryField(domain.CodeInvalidField, "github.repo",
			fmt.Sprintf("repository %q is not owner/name", s.options["repo"]))
	}

	client := s.newClient(ctx, s.options["token"])
	comment := &gh.IssueComment{Body: gh.Ptr(worklogBody(session))}
	_, _, err = client.Issues.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		return classify(err, number)
	}
	return domain.Succeeded(fmt.Sprintf("commented on %s/%s#%d", owner, repo, number))
}

// fetchIssues backs the issue picker: open issues of the configured
// repository, filtered by the typed query, paged by page number.
func (s *Sink) fetchIssues(ctx context.Context, query, cursor string) (*domain.SuggestionPage, error) {
	owner, repo, ok := splitRepo(s.options["repo"])
	if !ok {
		return nil, fmt.Errorf("repository %q is not owner/name", s.options["repo"])
	}

	page := 1
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, fmt.Errorf("bad cursor %q: %w", cursor, err)
		}
		page = n
	}

	client := s.newClient(ctx, s.options["token"])
	opts := &gh.IssueListByRepoOptions{
		State:       "open",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{Page: page, PerPage: issuePageSize},
	}
	issues, resp, err := client.Issues.ListByRepo(ctx, owner, repo, opts)
	if err != nil {
		return nil, err
	}

	result := &domain.SuggestionPage{}
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		title := issue.GetTitle()
		if needle != "" && !strings.Contains(strings.ToLower(title), needle) {
			continue
		}
		result.Items = append(result.Items, domain.Suggestion{
			Value:  strconv.Itoa(issue.GetNumber()),
			Label:  fmt.Sprintf("#%d", issue.GetNumber()),
			Detail: title,
		})
	}
	if resp != nil && resp.NextPage != 0 {
		result.NextCursor = strconv.Itoa(resp.NextPage)
	}
	return result, nil
}

// worklogBody renders the comment posted on the issue.
func worklogBody(session *domain.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Worklog** %s\n\n", formatDuration(session.DurationSeconds))
	fmt.Fprintf(&b, "- Interval: %s — %s\n", session.Start, session.End)
	if session.Branch != "" {
		fmt.Fprintf(&b, "- Branch: `%s`\n", session.Branch)
	}
	if session.Comment != "" {
		fmt.Fprintf(&b, "\n%s\n", session.Comment)
	}
	fmt.Fprintf(&b, "\n<!-- timeport:%s -->", session.ID)
	return b.String()
}

func formatDuration(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	return d.String()
}

// classify maps go-github failures onto the result taxonomy.
func classify(err error, number int) domain.ExportResult {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.RetryField(domain.CodeAuthError, "github.token",
				fmt.Sprintf("github rejected the credentials (%d)", ghErr.Response.StatusCode))
		case http.StatusNotFound, http.StatusGone:
			return domain.RetryField(domain.CodeInvalidField, "github.issue",
				fmt.Sprintf("issue #%d not found", number))
		default:
			return domain.Failed(domain.CodeInternal, err)
		}
	}
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		res := domain.Failed(domain.CodeNetworkError, err)
		res.Hint = fmt.Sprintf("rate limited until %s", rateErr.Rate.Reset.Time.Format(time.RFC3339))
		return res
	}
	return domain.Failed(domain.CodeNetworkError, err)
}

func splitRepo(value string) (owner, repo string, ok bool) {
	parts := strings.SplitN(value, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func validateRepo(value string) error {
	if !repoPattern.MatchString(value) {
		return fmt.Errorf("repository must be owner/name")
	}
	return nil
}

func validateIssue(value string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("issue must be a number")
	}
	return nil
}
