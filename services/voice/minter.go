package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrMissingAPIKey = errors.New("server missing OPENAI_API_KEY")
	ErrMissingSecret = errors.New("missing client_secret.value in OpenAI response")
)

// UpstreamError is a non-2xx reply from the session endpoint.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("realtime sessions: status %d: %s", e.StatusCode, e.Body)
}

// TransportError means the session endpoint could not be reached.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "Failed contacting OpenAI: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

type SessionParams struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
}

type sessionResponse struct {
	ClientSecret *struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

// Minter exchanges the long-lived API key for an ephemeral realtime token.
type Minter struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewMinter(apiKey, baseURL string, timeout time.Duration) *Minter {
	return &Minter{
		apiKey:   apiKey,
		endpoint: baseURL + "/realtime/sessions",
		client:   &http.Client{Timeout: timeout},
	}
}

func (m *Minter) Configured() bool { return m.apiKey != "" }

// Mint makes exactly one call to the session endpoint.
func (m *Minter) Mint(ctx context.Context, p SessionParams) (string, error) {
	if !m.Configured() {
		return "", ErrMissingAPIKey
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode session params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out sessionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode session response: %w", err)
	}
	if out.ClientSecret == nil || out.ClientSecret.Value == "" {
		return "", ErrMissingSecret
	}
	return out.ClientSecret.Value, nil
}
