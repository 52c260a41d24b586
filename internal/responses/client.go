// Package responses is a small typed client for the provider's Responses
// API, the endpoint that runs a model with hosted tools such as image
// generation and web search.
package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var ErrMissingAPIKey = errors.New("OPENAI_API_KEY not set")

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the default client, which has no timeout of its
// own; runs are bounded by the caller's context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    openai.DefaultConfig(apiKey).BaseURL,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Create runs one response to completion. Non-2xx replies come back as
// *openai.APIError (or *openai.RequestError when the body is not the
// provider's error schema) carrying the HTTP status.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*Response, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, body)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Status == StatusFailed {
		if out.Error != nil {
			return &out, fmt.Errorf("response %s failed: %s: %s", out.ID, out.Error.Code, out.Error.Message)
		}
		return &out, fmt.Errorf("response %s failed", out.ID)
	}
	return &out, nil
}

func decodeError(status int, body []byte) error {
	var er openai.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != nil {
		er.Error.HTTPStatusCode = status
		return er.Error
	}
	return &openai.RequestError{
		HTTPStatusCode: status,
		Err:            fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body))),
	}
}
