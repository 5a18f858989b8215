// Package ai implements the thin client for the chat-completions endpoint
// that backs intent classification, activity processing, and the daily
// rollup. The wire format is the OpenAI-compatible shape used by DeepSeek:
//
//	request:  {model, messages: [{role, content}], temperature, max_tokens}
//	response: {choices: [{message: {content}}]}
//
// The content returned by the model is expected to carry a JSON object,
// possibly wrapped in ``` code fences; see parse.go for extraction.
//
// Error taxonomy (consumed by the services layer):
//   - ErrOffline: no API key configured. Permanent until restart; callers
//     must fail open (queue/fallback), never crash. No network I/O happens.
//   - ErrUnavailable: transport failure, timeout, or non-2xx status.
//   - ErrMalformedResponse: a reply arrived but carried no parseable JSON.
package ai

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

var (
	// ErrOffline indicates the client has no API key and cannot reach the AI.
	ErrOffline = errors.New("ai: no API key configured")

	// ErrUnavailable indicates a transient transport or API failure.
	ErrUnavailable = errors.New("ai: endpoint unavailable")

	// ErrMalformedResponse indicates the model reply carried no usable JSON.
	ErrMalformedResponse = errors.New("ai: malformed response")

	// ErrEmptyCompletion indicates the API answered with no choices/content.
	ErrEmptyCompletion = errors.New("ai: empty completion")
)

// Message is a single chat turn sent to the completions endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request is the chat-completions request body.
type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// response is the subset of the chat-completions reply the pipeline reads.
type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client calls a chat-completions endpoint. The zero value is not usable;
// construct with New.
type Client struct {
	// BaseURL is the API root, e.g. "https://api.deepseek.com".
	BaseURL string
	// APIKey gates all AI-backed behavior. Empty means permanently offline.
	APIKey string
	// Model is the completions model name, e.g. "deepseek-chat".
	Model string

	// HTTPClient performs the requests. Timeouts are expected to be carried
	// by the caller's context; the embedded client timeout is a backstop.
	HTTPClient *http.Client
}

// New constructs a Client with a conservative backstop timeout.
func New(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Offline reports whether the client is permanently offline (no API key).
func (c *Client) Offline() bool { return strings.TrimSpace(c.APIKey) == "" }

// Complete sends a system+user prompt pair and returns the raw assistant
// content. Context cancellation/deadline is the only cancellation mechanism.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	if c.Offline() {
		return "", ErrOffline
	}

	body, err := json.Marshal(request{
		Model: c.Model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		// Timeouts and aborts are transient; logging distinguishes them,
		// retry behavior does not.
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

// CompleteObject runs Complete and decodes the first JSON object found in
// the reply into v. Any schema violation is reported as a malformed
// response, never a partial read.
func (c *Client) CompleteObject(ctx context.Context, system, user string, temperature float64, maxTokens int, v any) error {
	content, err := c.Complete(ctx, system, user, temperature, maxTokens)
	if err != nil {
		return err
	}
	return DecodeObject(content, v)
}
