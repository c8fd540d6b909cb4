package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const braveFixture = `{
  "web": {
    "results": [
      {"title": "Go", "url": "https://go.dev", "description": "The Go programming language"},
      {"title": "Go spec", "url": "https://go.dev/ref/spec", "description": "Language specification"}
    ]
  }
}`

func TestClient_SearchResults(t *testing.T) {
	var gotToken, gotAccept, gotQuery, gotCount string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Subscription-Token")
		gotAccept = r.Header.Get("Accept")
		gotQuery = r.URL.Query().Get("q")
		gotCount = r.URL.Query().Get("count")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(braveFixture))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	results, err := client.SearchResults(context.Background(), "golang")
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotToken)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "golang", gotQuery)
	assert.Equal(t, "10", gotCount)

	require.Len(t, results, 2)
	assert.Equal(t, "Go", results[0].Title)
	assert.Equal(t, "https://go.dev", results[0].URL)
}

func TestFormatResults(t *testing.T) {
	formatted := FormatResults([]Result{
		{Title: "Go", URL: "https://go.dev", Description: "The Go programming language"},
		{Title: "Go spec", URL: "https://go.dev/ref/spec", Description: "Language specification"},
	})

	blocks := strings.Split(formatted, "\n\n---\n\n")
	require.Len(t, blocks, 2)
	assert.Equal(t, "Title: Go\nURL: https://go.dev\nDescription: The Go programming language", blocks[0])
}

func TestFormatResults_Empty(t *testing.T) {
	assert.Equal(t, NoResultsMessage, FormatResults(nil))
}

func TestClient_Search_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"web":{"results":[]}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	assert.Equal(t, NoResultsMessage, client.Search(context.Background(), "nothing"))
}

func TestClient_Search_FoldsErrorsIntoText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`rate limited`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	result := client.Search(context.Background(), "golang")
	assert.True(t, strings.HasPrefix(result, "Search error: "), "got %q", result)
}

func TestNewTool_ExecutesSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(braveFixture))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	def, err := NewTool(client)
	require.NoError(t, err)
	assert.Equal(t, ToolName, def.Name)

	out, err := def.Function.ExecuteWithContext(context.Background(), []byte(`{"query":"golang"}`))
	require.NoError(t, err)

	text, ok := out.(string)
	require.True(t, ok, "expected string result, got %T", out)
	assert.Contains(t, text, "Title: Go")
	assert.Contains(t, text, "\n\n---\n\n")
}
