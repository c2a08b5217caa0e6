package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("acme.atlassian.net", "dev@acme.test", "token")
	client.SetBaseURL(server.URL)
	return client
}

func TestClient_SearchIssues_FirstPage(t *testing.T) {
	var gotJQL, gotStartAt string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/search", r.URL.Path)
		gotJQL = r.URL.Query().Get("jql")
		gotStartAt = r.URL.Query().Get("startAt")

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "dev@acme.test", user)
		assert.Equal(t, "token", pass)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"startAt": 0,
			"total":   25,
			"issues": []map[string]any{
				{"key": "PROJ-1", "fields": map[string]any{"summary": "Fix login"}},
				{"key": "PROJ-2", "fields": map[string]any{"summary": "Add logout"}},
			},
		})
	})

	page, err := client.SearchIssues(context.Background(), "login", "")
	require.NoError(t, err)

	assert.Contains(t, gotJQL, `text ~ "login"`)
	assert.Equal(t, "0", gotStartAt)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "PROJ-1", page.Items[0].Value)
	assert.Equal(t, "Fix login", page.Items[0].Detail)
	assert.Equal(t, "2", page.NextCursor, "cursor advances by page size")
}

func TestClient_SearchIssues_LastPageHasNoCursor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("startAt"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"startAt": 20,
			"total":   21,
			"issues": []map[string]any{
				{"key": "PROJ-21", "fields": map[string]any{"summary": "Last"}},
			},
		})
	})

	page, err := client.SearchIssues(context.Background(), "", "20")
	require.NoError(t, err)
	assert.Empty(t, page.NextCursor)
}

func TestClient_SearchIssues_BadCursor(t *testing.T) {
	client := NewClient("acme.atlassian.net", "e", "t")

	_, err := client.SearchIssues(context.Background(), "", "not-a-number")
	assert.Error(t, err)
}

func TestClient_AddWorklog(t *testing.T) {
	var got worklogRequest
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	started := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	err := client.AddWorklog(context.Background(), "PROJ-1", started, 5400, "implemented widget")
	require.NoError(t, err)

	assert.Equal(t, "/rest/api/2/issue/PROJ-1/worklog", gotPath)
	assert.Equal(t, int64(5400), got.TimeSpentSeconds)
	assert.Equal(t, "implemented widget", got.Comment)
	assert.Equal(t, "2026-08-29T09:00:00.000+0000", got.Started)
}

func TestClient_NonSuccessStatusBecomesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := client.Myself(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
