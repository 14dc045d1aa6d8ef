// Package agentrt provides the client for the external deep-agent model
// runtime. The runtime is optional: when it is not configured the
// recommendation source runs on the heuristic path alone.
package agentrt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SystemPolicy is the fixed coordination policy sent with every invocation.
const SystemPolicy = "You are synergy_coordinator. Delegate strictly in this sequence: " +
	"bu_selector then sku_selector. Request human approval before each delegation."

const apiVersion = "2024-02-15-preview"

// Prompt is the structured task handed to the model runtime.
type Prompt struct {
	Task          string `json:"task"`
	Policy        string `json:"policy"`
	Lead          any    `json:"lead"`
	BusinessUnits any    `json:"businessUnits"`
	Constraints   any    `json:"constraints"`
}

// Config holds model runtime connection settings.
type Config struct {
	Endpoint    string
	APIKey      string
	Deployment  string
	Temperature float64
}

// Configured reports whether the runtime is fully configured.
func (c Config) Configured() bool {
	return c.Endpoint != "" && c.APIKey != "" && c.Deployment != ""
}

// Client invokes an Azure OpenAI-compatible chat-completions deployment.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a model runtime client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Invoke sends the prompt to the model runtime and returns the raw content of
// the first choice. The content is expected to be a JSON document but is
// returned as-is; the caller owns validation.
func (c *Client) Invoke(ctx context.Context, prompt Prompt) (json.RawMessage, error) {
	promptJSON, err := json.Marshal(prompt)
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: prompt.Policy},
			{Role: "user", Content: string(promptJSON)},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Deployment, apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model runtime request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read model runtime response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model runtime: status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode model runtime response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("model runtime: response contains no choices")
	}

	return json.RawMessage(parsed.Choices[0].Message.Content), nil
}
