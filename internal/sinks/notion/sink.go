// Package notion exports sessions as pages in a Notion database.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/custodia-labs/timeport-cli/internal/core/domain"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
)

// Kind is the registry identifier for this sink.
const Kind = "notion"

// searchPageSize is the number of databases per picker page.
const searchPageSize = 20

// titleProperty is the database property receiving the page title.
// Notion names the default title column "Name".
const titleProperty = "Name"

// Ensure Sink implements the interface.
var _ driven.Sink = (*Sink)(nil)

// Sink creates one page per session in a Notion database, with the
// worklog details in the page body.
type Sink struct {
	options map[string]string

	// newClient is swapped in tests.
	newClient func(token string) *notionapi.Client
}

// New constructs the sink from its configuration.
func New(cfg domain.SinkConfig) (driven.Sink, error) {
	options := make(map[string]string, len(cfg.Options))
	for k, v := range cfg.Options {
		options[k] = v
	}
	return &Sink{
		options: options,
		newClient: func(token string) *notionapi.Client {
			return notionapi.NewClient(notionapi.Token(token))
		},
	}, nil
}

// Kind returns the sink type identifier.
func (s *Sink) Kind() string { return Kind }

// Options returns the mutable option bag.
func (s *Sink) Options() map[string]string { return s.options }

// Requirements declares the fields this sink needs.
func (s *Sink) Requirements() []domain.FieldSpec {
	return []domain.FieldSpec{
		{
			Key:      "notion.token",
			Label:    "Integration token",
			Kind:     domain.FieldSecret,
			Scope:    domain.ScopeSetup,
			Required: true,
		},
		{
			Key:        "notion.database",
			Label:      "Database",
			Kind:       domain.FieldString,
			Scope:      domain.ScopeSetup,
			Required:   true,
			Mode:       domain.PromptSelect,
			Fetch:      s.fetchDatabases,
			SettingKey: "sink.notion.option.database",
		},
	}
}

// Validate checks that token and database are hydrated.
func (s *Sink) Validate() domain.Validation {
	var missing []string
	for _, key := range []string{"token", "database"} {
		if domain.IsEmpty(s.options[key]) {
			missing = append(missing, "notion."+key)
		}
	}
	if missing != nil {
		return domain.Validation{Missing: missing}
	}
	return domain.Validation{OK: true}
}

// Export creates the page. Creating the same session twice yields two
// pages; the session ID is embedded in the body to make that visible.
func (s *Sink) Export(ctx context.Context, session *domain.Session) domain.ExportResult {
	client := s.newClient(s.options["token"])

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.options["database"]),
		},
		Properties: notionapi.Properties{
			titleProperty: notionapi.TitleProperty{
				Title: richText(pageTitle(session)),
			},
		},
		Children: []notionapi.Block{
			paragraph(fmt.Sprintf("Interval: %s — %s (%ds)", session.Start, session.End, session.DurationSeconds)),
			paragraph(bodyLine(session)),
		},
	}

	page, err := client.Page.Create(ctx, req)
	if err != nil {
		return classify(err)
	}
	return domain.Succeeded(fmt.Sprintf("created page %s", page.ID))
}

// fetchDatabases backs the database picker via the search API, filtered
// to databases the integration can see.
func (s *Sink) fetchDatabases(ctx context.Context, query, cursor string) (*domain.SuggestionPage, error) {
	client := s.newClient(s.options["token"])

	req := &notionapi.SearchRequest{
		Query:       query,
		StartCursor: notionapi.Cursor(cursor),
		PageSize:    searchPageSize,
		Filter: notionapi.SearchFilter{
			Value:    "database",
			Property: "object",
		},
	}
	resp, err := client.Search.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	page := &domain.SuggestionPage{}
	for _, obj := range resp.Results {
		db, ok := obj.(*notionapi.Database)
		if !ok {
			continue
		}
		page.Items = append(page.Items, domain.Suggestion{
			Value: string(db.ID),
			Label: plainText(db.Title),
		})
	}
	if resp.HasMore {
		page.NextCursor = string(resp.NextCursor)
	}
	return page, nil
}

// pageTitle prefers the comment, falling back to workspace and date.
func pageTitle(session *domain.Session) string {
	if !domain.IsEmpty(session.Comment) {
		return session.Comment
	}
	return fmt.Sprintf("%s session %s", session.Workspace, session.Start)
}

func bodyLine(session *domain.Session) string {
	parts := []string{}
	if session.Workspace != "" {
		parts = append(parts, "workspace "+session.Workspace)
	}
	if session.Branch != "" {
		parts = append(parts, "branch "+session.Branch)
	}
	if session.TicketKey != "" {
		parts = append(parts, "ticket "+session.TicketKey)
	}
	parts = append(parts, "id "+session.ID)
	return strings.Join(parts, " · ")
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{{Text: &notionapi.Text{Content: content}}}
}

func paragraph(content string) notionapi.Block {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{
			RichText: richText(content),
		},
	}
}

func plainText(title []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range title {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}

// classify maps Notion API failures onto the result taxonomy.
func classify(err error) domain.ExportResult {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.RetryField(domain.CodeAuthError, "notion.token",
				fmt.Sprintf("notion rejected the credentials (%d)", apiErr.Status))
		case http.StatusNotFound:
			return domain.RetryField(domain.CodeInvalidField, "notion.database",
				"database not found or not shared with the integration")
		case http.StatusTooManyRequests:
			res := domain.Failed(domain.CodeNetworkError, err)
			res.Hint = "rate limited, retry in a moment"
			return res
		default:
			res := domain.Failed(domain.CodeInvalidField, err)
			res.Hint = fmt.Sprintf("the database needs a %q title property", titleProperty)
			return res
		}
	}
	return domain.Failed(domain.CodeNetworkError, err)
}
