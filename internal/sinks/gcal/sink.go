// Package gcal exports sessions as Google Calendar events.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
)

// Kind is the registry identifier for this sink.
const Kind = "gcal"

// Ensure Sink implements the interface.
var _ driven.Sink = (*Sink)(nil)

// Sink inserts an event spanning the session interval into the
// configured calendar.
type Sink struct {
	options map[string]string

	// newService is swapped in tests.
	newService func(ctx context.Context, token string) (*calendar.Service, error)
}

// New constructs the sink from its configuration.
func New(cfg domain.SinkConfig) (driven.Sink, error) {
	options := make(map[string]string, len(cfg.Options))
	for k, v := range cfg.Options {
		options[k] = v
	}
	return &Sink{options: options, newService: newService}, nil
}

func newService(ctx context.Context, token string) (*calendar.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return calendar.NewService(ctx, option.WithTokenSource(ts))
}

// Kind returns the sink type identifier.
func (s *Sink) Kind() string { return Kind }

// Options returns the mutable option bag.
func (s *Sink) Options() map[string]string { return s.options }

// Requirements declares the fields this sink needs. The token comes
// first so the calendar picker can authenticate with it.
func (s *Sink) Requirements() []domain.FieldSpec {
	return []domain.FieldSpec{
		{
			Key:      "gcal.token",
			Label:    "OAuth access token",
			Kind:     domain.FieldSecret,
			Scope:    domain.ScopeSetup,
			Required: true,
		},
		{
			Key:        "gcal.calendar",
			Label:      "Calendar",
			Kind:       domain.FieldString,
			Scope:      domain.ScopeSetup,
			Required:   true,
			Mode:       domain.PromptSelect,
			Fetch:      s.fetchCalendars,
			SettingKey: "sink.gcal.option.calendar",
			CacheTTL:   time.Hour,
		},
	}
}

// Validate checks that token and calendar are hydrated.
func (s *Sink) Validate() domain.Validation {
	var missing []string
	for _, key := range []string{"token", "calendar"} {
		if domain.IsEmpty(s.options[key]) {
			missing = append(missing, "gcal."+key)
		}
	}
	if missing != nil {
		return domain.Validation{Missing: missing}
	}
	return domain.Validation{OK: true}
}

// Export inserts an event covering the session interval.
func (s *Sink) Export(ctx context.Context, session *domain.Session) domain.ExportResult {
	svc, err := s.newService(ctx, s.options["token"])
	if err != nil {
		return domain.Failed(domain.CodeNetworkError, fmt.Errorf("creating calendar service: %w", err))
	}

	calendarID := s.options["calendar"]
	event := newEvent(session)

	if _, err := svc.Events.Insert(calendarID, event).Context(ctx).Do(); err != nil {
		return classify(err)
	}
	return domain.Succeeded(fmt.Sprintf("created event on calendar %s", calendarID))
}

// newEvent builds the calendar event for a session.
func newEvent(session *domain.Session) *calendar.Event {
	summary := "Work session"
	if !domain.IsEmpty(session.TicketKey) {
		summary = "Work session: " + session.TicketKey
	} else if !domain.IsEmpty(session.Workspace) {
		summary = "Work session: " + session.Workspace
	}

	var details []string
	if !domain.IsEmpty(session.Comment) {
		details = append(details, session.Comment)
	}
	if !domain.IsEmpty(session.Branch) {
		details = append(details, "Branch: "+session.Branch)
	}
	if !domain.IsEmpty(session.Workspace) {
		details = append(details, "Workspace: "+session.Workspace)
	}
	details = append(details, "Session: "+session.ID)

	return &calendar.Event{
		Summary:     summary,
		Description: strings.Join(details, "\n"),
		Start:       &calendar.EventDateTime{DateTime: session.Start},
		End:         &calendar.EventDateTime{DateTime: session.End},
	}
}

// fetchCalendars pages through the user's calendar list.
func (s *Sink) fetchCalendars(ctx context.Context, query, cursor string) (*domain.SuggestionPage, error) {
	svc, err := s.newService(ctx, s.options["token"])
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	call := svc.CalendarList.List().MaxResults(20).Context(ctx)
	if cursor != "" {
		call = call.PageToken(cursor)
	}

	list, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("listing calendars: %w", err)
	}

	page := &domain.SuggestionPage{NextCursor: list.NextPageToken}
	needle := strings.ToLower(query)
	for _, entry := range list.Items {
		if needle != "" && !strings.Contains(strings.ToLower(entry.Summary), needle) {
			continue
		}
		detail := ""
		if entry.Primary {
			detail = "primary"
		}
		page.Items = append(page.Items, domain.Suggestion{
			Value:  entry.Id,
			Label:  entry.Summary,
			Detail: detail,
		})
	}
	return page, nil
}

// classify maps Calendar API failures onto the result taxonomy.
func classify(err error) domain.ExportResult {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.RetryField(domain.CodeAuthError, "gcal.token", "google rejected the access token")
		case http.StatusNotFound, http.StatusGone:
			return domain.RetryField(domain.CodeInvalidField, "gcal.calendar", "calendar not found")
		case http.StatusTooManyRequests:
			r := domain.Failed(domain.CodeNetworkError, err)
			r.Hint = "google rate limit hit, try again shortly"
			return r
		}
		return domain.Failed(domain.CodeInternal, err)
	}
	return domain.Failed(domain.CodeNetworkError, err)
}
