// Package client is the Go API client for the rental service. It wraps
// net/http with the token handling the mobile app performs: every request
// carries the stored access token, a 401 triggers exactly one token
// renewal and retry, and a failed renewal signs the session out.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrSessionExpired is returned when the refresh token was rejected. Both
// tokens are cleared before it is returned; the caller must log in again.
var ErrSessionExpired = errors.New("session expired, sign in again")

// APIError is a structured error response from the service.
type APIError struct {
	Status    int    `json:"status"`
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.ErrorCode, e.Message)
}

// envelope is the response shape shared by every endpoint. ErrorCode may
// be set on a 200 response, which the duplicate-chat-session flow uses.
type envelope struct {
	Status    int             `json:"status"`
	ErrorCode int             `json:"errorCode"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

// Client calls the rental service. It is safe for concurrent use; token
// renewal is single-flight so concurrent 401s trigger one refresh.
type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore

	refreshMu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenStore replaces the default in-memory token store.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.store = store }
}

// New builds a Client against baseURL, which should include the /api
// prefix.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		store:   NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens returns the stored pair, for callers that persist it themselves.
func (c *Client) Tokens() (TokenPair, error) {
	return c.store.Load()
}

// SetTokens seeds the store, for resuming a previous session.
func (c *Client) SetTokens(pair TokenPair) error {
	return c.store.Save(pair)
}

// do performs one authenticated request. On a 401 it renews the access
// token and retries once; out, when non-nil, receives the decoded data
// field of the response envelope.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	pair, err := c.store.Load()
	if err != nil {
		return err
	}

	env, status, err := c.send(ctx, method, path, body, pair.AccessToken)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized && pair.AccessToken != "" {
		refreshed, err := c.refresh(ctx, pair.AccessToken)
		if err != nil {
			return err
		}
		env, status, err = c.send(ctx, method, path, body, refreshed.AccessToken)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return &APIError{Status: status, ErrorCode: env.ErrorCode, Message: env.Message}
		}
	}

	if status < 200 || status >= 300 {
		return &APIError{Status: status, ErrorCode: env.ErrorCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}

// send performs one HTTP round trip and decodes the envelope.
func (c *Client) send(ctx context.Context, method, path string, body any, accessToken string) (envelope, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return envelope{}, 0, fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return envelope{}, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, 0, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return envelope{}, resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}
	return env, resp.StatusCode, nil
}

func jsonUnmarshalData(data json.RawMessage, out any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

// refresh renews the token pair. staleAccess is the access token the
// caller just got a 401 with: if the stored token already differs,
// another goroutine refreshed while this one waited for the lock and no
// network call is needed.
func (c *Client) refresh(ctx context.Context, staleAccess string) (TokenPair, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	pair, err := c.store.Load()
	if err != nil {
		return TokenPair{}, err
	}
	if pair.AccessToken != staleAccess {
		return pair, nil
	}
	if pair.RefreshToken == "" {
		c.store.Clear()
		return TokenPair{}, ErrSessionExpired
	}

	env, status, err := c.send(ctx, http.MethodPost, "/auth/renew-access-token",
		map[string]string{"refreshToken": pair.RefreshToken}, "")
	if err != nil {
		return TokenPair{}, err
	}
	if status != http.StatusOK {
		c.store.Clear()
		return TokenPair{}, ErrSessionExpired
	}

	var renewed TokenPair
	if err := json.Unmarshal(env.Data, &renewed); err != nil {
		c.store.Clear()
		return TokenPair{}, ErrSessionExpired
	}
	if err := c.store.Save(renewed); err != nil {
		return TokenPair{}, err
	}
	return renewed, nil
}
