// Package search implements the external search-API collaborator spec.md
// §1 names as out-of-scope-but-contracted: TavilyClient. Only the contract
// (construct with an API key, Search a query, get text back) is
// implemented; the concrete ranking/snippeting behavior of the real Tavily
// API is not this harness's concern.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the TavilyClient contract bootstrap code can call into:
// construct with an API key, then Search a query for a short text summary
// suitable for embedding in a follow-up LM prompt.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client. apiKey is required by the real Tavily API; an
// empty key is accepted here so tests can exercise the harness without
// network access (Search then returns an error, as a live call would).
func New(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    "https://api.tavily.com",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type searchRequest struct {
	APIKey string `json:"api_key"`
	Query  string `json:"query"`
}

type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type searchResponse struct {
	Answer  string         `json:"answer"`
	Results []searchResult `json:"results"`
}

// Search sends query to the search API and returns a short text digest: the
// API's synthesized answer if present, otherwise the top results' titles
// and snippets joined into one block.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("search: no API key configured")
	}

	body, err := json.Marshal(searchRequest{APIKey: c.apiKey, Query: query})
	if err != nil {
		return "", fmt.Errorf("search: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("search: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search: status %d: %s", resp.StatusCode, string(data))
	}

	var sr searchResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return "", fmt.Errorf("search: decode response: %w", err)
	}

	if sr.Answer != "" {
		return sr.Answer, nil
	}
	var sb strings.Builder
	for _, r := range sr.Results {
		fmt.Fprintf(&sb, "%s (%s): %s\n", r.Title, r.URL, r.Content)
	}
	return sb.String(), nil
}
