package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/deepdive/pkg/tools"
)

const (
	// ToolName is the name the model calls the search tool by.
	ToolName = "web_search"

	// ToolDescription is surfaced to the model alongside the schema.
	ToolDescription = "Search the web for real-time information. Use this to find current facts, news, documentation, or any topic the user asks about. You can call this multiple times with different queries to get broader coverage."

	// NoResultsMessage is returned to the model when a query yields nothing.
	NoResultsMessage = "No results found. Try a different search query."

	defaultBaseURL = "https://api.search.brave.com/res/v1/web/search"
	defaultCount   = 10
	defaultTimeout = 15 * time.Second
)

type Config struct {
	APIKey  string
	BaseURL string
	Count   int
	Timeout time.Duration
}

// Client queries the Brave web search API.
type Client struct {
	config     Config
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.config.BaseURL = baseURL
	}
}

func WithCount(count int) ClientOption {
	return func(c *Client) {
		c.config.Count = count
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.config.Timeout = timeout
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(apiKey string, options ...ClientOption) *Client {
	ret := &Client{
		config: Config{
			APIKey:  apiKey,
			BaseURL: defaultBaseURL,
			Count:   defaultCount,
			Timeout: defaultTimeout,
		},
	}

	for _, o := range options {
		o(ret)
	}

	if ret.httpClient == nil {
		ret.httpClient = &http.Client{Timeout: ret.config.Timeout}
	}

	return ret
}

// Result is a single web search hit.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type braveResponse struct {
	Web struct {
		Results []Result `json:"results"`
	} `json:"web"`
}

// SearchResults queries the API and returns the raw hits.
func (c *Client) SearchResults(ctx context.Context, query string) ([]Result, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid search base URL")
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(c.config.Count))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not create search request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "search request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.Errorf("search API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "could not decode search response")
	}

	log.Info().Int("count", len(parsed.Web.Results)).Str("query", query).
		Msgf("Brave API returned %d results for: %s", len(parsed.Web.Results), query)

	return parsed.Web.Results, nil
}

// FormatResults renders hits into the text block format handed to the model.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return NoResultsMessage
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nURL: %s\nDescription: %s", r.Title, r.URL, r.Description))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// Search runs a query and always returns text for the model. Failures are
// folded into the returned string so a flaky API never aborts a research run.
func (c *Client) Search(ctx context.Context, query string) string {
	results, err := c.SearchResults(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("web search failed")
		return fmt.Sprintf("Search error: %s", err)
	}
	return FormatResults(results)
}

// SearchInput is the schema the model fills in when calling the tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"required,description=The search query"`
}

// NewTool wraps the client as a registrable tool definition.
func NewTool(c *Client) (*tools.ToolDefinition, error) {
	return tools.NewToolFromFunc(ToolName, ToolDescription, func(ctx context.Context, input SearchInput) (string, error) {
		return c.Search(ctx, input.Query), nil
	})
}

// Register adds the web search tool to the registry.
func Register(registry tools.ToolRegistry, c *Client) error {
	def, err := NewTool(c)
	if err != nil {
		return err
	}
	return registry.RegisterTool(ToolName, *def)
}
