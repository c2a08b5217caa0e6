package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// ProactiveRate throttles requests to stay well under Jira Cloud
	// limits.
	ProactiveRate = 5

	// searchPageSize is the number of issues per search page.
	searchPageSize = 20

	// startedFormat is the timestamp layout Jira requires on worklogs.
	startedFormat = "2006-01-02T15:04:05.000-0700"
)

// Client is a minimal Jira Cloud REST client covering what the sink
// needs: issue search and worklog creation.
type Client struct {
	baseURL    string
	email      string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Jira client for the given site.
// domain is the bare site host ("acme.atlassian.net"); email and token
// form the basic-auth pair Jira Cloud API tokens use.
func NewClient(domainName, email, token string) *Client {
	return &Client{
		baseURL:    "https://" + domainName,
		email:      email,
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(ProactiveRate), 1),
	}
}

// APIError carries a non-2xx Jira response.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("jira: %d %s", e.StatusCode, e.Message)
}

// searchResponse is the subset of the search payload the sink consumes.
type searchResponse struct {
	StartAt int `json:"startAt"`
	Total   int `json:"total"`
	Issues  []struct {
		Key    string `json:"key"`
		Fields struct {
			Summary string `json:"summary"`
		} `json:"fields"`
	} `json:"issues"`
}

// SearchIssues runs a text search over issues. The cursor is the
// stringified startAt offset; empty requests the first page.
func (c *Client) SearchIssues(ctx context.Context, query, cursor string) (*domain.SuggestionPage, error) {
	startAt := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, fmt.Errorf("bad cursor %q: %w", cursor, err)
		}
		startAt = n
	}

	jql := "order by updated desc"
	if !domain.IsEmpty(query) {
		jql = fmt.Sprintf(`text ~ %q order by updated desc`, query)
	}

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("fields", "summary")
	params.Set("startAt", strconv.Itoa(startAt))
	params.Set("maxResults", strconv.Itoa(searchPageSize))

	var resp searchResponse
	if err := c.get(ctx, "/rest/api/2/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	page := &domain.SuggestionPage{}
	for _, issue := range resp.Issues {
		page.Items = append(page.Items, domain.Suggestion{
			Value:  issue.Key,
			Label:  issue.Key,
			Detail: issue.Fields.Summary,
		})
	}
	if next := resp.StartAt + len(resp.Issues); next < resp.Total && len(resp.Issues) > 0 {
		page.NextCursor = strconv.Itoa(next)
	}
	return page, nil
}

// worklogRequest is the worklog creation payload.
type worklogRequest struct {
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
	Comment          string `json:"comment,omitempty"`
	Started          string `json:"started,omitempty"`
}

// AddWorklog logs time against an issue. started may be zero, in which
// case Jira stamps the current time.
func (c *Client) AddWorklog(ctx context.Context, issueKey string, started time.Time, seconds int64, comment string) error {
	body := worklogRequest{
		TimeSpentSeconds: seconds,
		Comment:          comment,
	}
	if !started.IsZero() {
		body.Started = started.Format(startedFormat)
	}
	path := fmt.Sprintf("/rest/api/2/issue/%s/worklog", url.PathEscape(issueKey))
	return c.post(ctx, path, body)
}

// Myself verifies the credentials with a lightweight call.
func (c *Client) Myself(ctx context.Context) error {
	var me struct {
		AccountID string `json:"accountId"`
	}
	return c.get(ctx, "/rest/api/2/myself", &me)
}

// BaseURL returns the configured site URL. Useful for tests.
func (c *Client) BaseURL() string { return c.baseURL }

// SetBaseURL overrides the site URL. Useful for tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimSuffix(u, "/") }

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jira request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
