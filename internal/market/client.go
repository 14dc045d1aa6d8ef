// Package market provides the feature-flagged external search signal lookup.
// Failures are absorbed: callers always receive a (possibly empty) slice.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leadops/synergy-agents/internal/domain"
)

const (
	defaultBaseURL   = "https://api.tavily.com"
	maxResults       = 3
	maxContentLength = 300
)

// Client queries the Tavily search API for market signals.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a market signal client.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint, used in tests.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs one search query and normalizes the results. Any transport,
// status or decode failure yields an empty slice, never an error.
func (c *Client) Search(ctx context.Context, query string) []domain.MarketSignal {
	body, err := json.Marshal(searchRequest{
		APIKey:     c.apiKey,
		Query:      query,
		MaxResults: maxResults,
	})
	if err != nil {
		slog.Warn("market signal: marshal request failed", "error", err)
		return []domain.MarketSignal{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		slog.Warn("market signal: build request failed", "error", err)
		return []domain.MarketSignal{}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("market signal: search request failed", "error", err)
		return []domain.MarketSignal{}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("market signal: read response failed", "error", err)
		return []domain.MarketSignal{}
	}
	if resp.StatusCode != http.StatusOK {
		slog.Warn("market signal: unexpected status", "status", resp.StatusCode)
		return []domain.MarketSignal{}
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		slog.Warn("market signal: decode response failed", "error", err)
		return []domain.MarketSignal{}
	}

	signals := make([]domain.MarketSignal, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		content := result.Content
		if len(content) > maxContentLength {
			content = content[:maxContentLength]
		}
		signals = append(signals, domain.MarketSignal{
			Title:   result.Title,
			URL:     result.URL,
			Content: content,
		})
	}
	return signals
}
