package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// Provider presets for known LLM providers
var providerDefaults = map[string]struct {
	BaseURL   string
	Model     string
	APIFormat string
}{
	"openai":     {BaseURL: "https://api.openai.com/v1/chat/completions", Model: "gpt-4o-mini", APIFormat: "openai"},
	"anthropic":  {BaseURL: "https://api.anthropic.com/v1/messages", Model: "claude-3-5-haiku-latest", APIFormat: "anthropic"},
	"ollama":     {BaseURL: "http://localhost:11434/v1/chat/completions", Model: "llama3", APIFormat: "openai"},
	"perplexity": {BaseURL: "https://api.perplexity.ai/chat/completions", Model: "sonar", APIFormat: "openai"},
}

// ChatMessage represents a message in the chat API
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []ChatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to an OpenAI-compatible chat completions API or the
// Anthropic messages API.
type Client struct {
	provider   string
	apiFormat  string // "openai" (default) or "anthropic"
	apiKey     string
	model      string
	baseURL    string
	retryDelay time.Duration
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithModel sets a custom model
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithAPIFormat sets the wire format ("openai" or "anthropic")
func WithAPIFormat(format string) Option {
	return func(c *Client) {
		if format != "" {
			c.apiFormat = format
		}
	}
}

// WithRetryDelay sets the base delay between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// NewClient creates a new LLM API client.
// provider can be "openai", "anthropic", "ollama", "perplexity", or a custom
// name with an explicit base URL and model.
// apiKey can be empty for providers that don't require it (e.g., ollama).
func NewClient(provider, apiKey string, opts ...Option) (*Client, error) {
	if provider == "" {
		provider = "openai"
	}

	defaults, known := providerDefaults[provider]
	if !known {
		defaults.BaseURL = ""
		defaults.Model = ""
	}

	client := &Client{
		provider:   provider,
		apiFormat:  defaults.APIFormat,
		apiKey:     apiKey,
		model:      defaults.Model,
		baseURL:    defaults.BaseURL,
		retryDelay: defaultRetryDelay,
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.apiFormat == "" {
		client.apiFormat = "openai"
	}

	// Auto-append standard path if base URL has no path component
	if client.baseURL != "" && !strings.Contains(strings.TrimPrefix(strings.TrimPrefix(client.baseURL, "https://"), "http://"), "/") {
		switch client.apiFormat {
		case "anthropic":
			client.baseURL = strings.TrimRight(client.baseURL, "/") + "/v1/messages"
		default:
			client.baseURL = strings.TrimRight(client.baseURL, "/") + "/v1/chat/completions"
		}
	}

	if client.baseURL == "" {
		return nil, fmt.Errorf("assist base_url is required for provider %q", provider)
	}
	if client.model == "" {
		return nil, fmt.Errorf("assist model is required for provider %q", provider)
	}
	if client.apiKey == "" && provider != "ollama" {
		return nil, fmt.Errorf("assist api_key is required for provider %q", provider)
	}

	return client, nil
}

// Complete sends one system+user exchange and returns the reply text.
// Server errors are retried; client errors and cancellation are not.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	var (
		body []byte
		err  error
	)
	if c.apiFormat == "anthropic" {
		body, err = json.Marshal(anthropicRequest{
			Model:     c.model,
			MaxTokens: 1024,
			System:    system,
			Messages:  []ChatMessage{{Role: "user", Content: prompt}},
		})
	} else {
		body, err = json.Marshal(chatRequest{
			Model: c.model,
			Messages: []ChatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: prompt},
			},
		})
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < defaultMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		text, err := c.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}
		var noRetry *errNoRetry
		if errors.As(err, &noRetry) {
			return "", noRetry.err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", fmt.Errorf("assist request failed after %d attempts: %w", defaultMaxRetries, lastErr)
}

// errNoRetry wraps errors that should not be retried (e.g., 4xx client errors).
type errNoRetry struct {
	err error
}

func (e *errNoRetry) Error() string { return e.err.Error() }
func (e *errNoRetry) Unwrap() error { return e.err }

func (c *Client) doRequest(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", &errNoRetry{err: err}
	}

	if c.apiFormat == "anthropic" {
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	} else if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := parseAPIError(resp.StatusCode, respBody)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", &errNoRetry{err: apiErr}
		}
		return "", apiErr
	}

	return c.extractContent(respBody)
}

// extractContent returns the reply text for either wire format.
func (c *Client) extractContent(respBody []byte) (string, error) {
	if c.apiFormat == "anthropic" {
		var ar anthropicResponse
		if err := json.Unmarshal(respBody, &ar); err != nil {
			return "", &errNoRetry{err: fmt.Errorf("unexpected response (not JSON): %s", preview(respBody))}
		}
		if ar.Error != nil {
			return "", fmt.Errorf("API error: %s", ar.Error.Message)
		}
		for _, block := range ar.Content {
			if block.Type == "text" {
				return block.Text, nil
			}
		}
		return "", &errNoRetry{err: fmt.Errorf("no text content in Anthropic response")}
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", &errNoRetry{err: fmt.Errorf("unexpected response (not JSON): %s", preview(respBody))}
	}
	if cr.Error != nil {
		return "", fmt.Errorf("API error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return "", &errNoRetry{err: fmt.Errorf("no choices in response")}
	}
	return cr.Choices[0].Message.Content, nil
}

func preview(b []byte) string {
	s := string(b)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// parseAPIError extracts a human-readable message from an API error response.
func parseAPIError(statusCode int, body []byte) error {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return fmt.Errorf("API error (status %d): %s", statusCode, parsed.Error.Message)
	}
	return fmt.Errorf("API error (status %d): %s", statusCode, preview(body))
}
