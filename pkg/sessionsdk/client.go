package sessionsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Client talks to the session service and keeps its cookie between calls.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client with its own cookie jar.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}, nil
}

// Login posts credentials; on success the jar holds the session cookie.
func (c *Client) Login(ctx context.Context, username, password string) error {
	_, err := c.postJSON(ctx, "/auth/login", CredentialsRequest{Username: username, Password: password})
	return err
}

// Logout clears the session cookie.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, "")
	return err
}

// Register creates a ROLE_USER account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	_, err := c.postJSON(ctx, "/auth/register", CredentialsRequest{Username: username, Password: password})
	return err
}

// Get fetches path with the current session and returns the body.
func (c *Client) Get(ctx context.Context, path string) (string, error) {
	return c.do(ctx, http.MethodGet, path, nil, "")
}

// Health fetches /livez or /readyz.
func (c *Client) Health(ctx context.Context, path string) (HealthResponse, error) {
	var hr HealthResponse
	body, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return hr, err
	}
	if err := json.Unmarshal([]byte(body), &hr); err != nil {
		return hr, fmt.Errorf("sessionsdk: decode health: %w", err)
	}
	return hr, nil
}

// SessionCookie returns the session cookie currently held in the jar.
func (c *Client) SessionCookie(name string) (*http.Cookie, bool) {
	if c.HTTPClient.Jar == nil {
		return nil, false
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, false
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(u) {
		if ck.Name == name {
			return ck, true
		}
	}
	return nil, false
}

func (c *Client) postJSON(ctx context.Context, path string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(b), "application/json")
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return "", err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", parseError(resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
