// Package broadcast is a client for the AEBroadcast financial-quotes API:
// it authenticates, holds the session token pair, and exposes thin wrappers
// over the auth and quote endpoints.
package broadcast

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aebroadcast/datafeed-go/internal/pkg/metrics"
)

// DefaultBaseURL is the production AEBroadcast API endpoint.
const DefaultBaseURL = "https://svc.aebroadcast.com.br/"

// applicationID identifies this client family to the auth endpoint.
const applicationID = "datafeed"

const (
	loginPath     = "Authentication/v1/login"
	logoutPath    = "Authentication/v1/logout"
	keepAlivePath = "Authentication/v1/keep"
	refreshPath   = "Authentication/v1/refresh"
	quotePath     = "stock/v1/quote/request"
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL of the API. Defaults to DefaultBaseURL.
	BaseURL string

	// Username and Password are the login credentials. They are held for the
	// lifetime of the client to support re-login.
	Username string
	Password string

	// KeepAlive fires a single keep-alive ping right after the initial login.
	// It does not start any background activity; keep-alive cadence is the
	// caller's responsibility.
	KeepAlive bool

	// Timeout for each request. Zero means no timeout, matching the upstream
	// service's observed configuration.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification. Development
	// use only.
	InsecureSkipVerify bool

	// CABundlePath optionally points to a PEM file appended to the system
	// certificate pool.
	CABundlePath string

	// HTTPClient overrides the constructed client entirely. When set, the
	// TLS and timeout settings above are ignored.
	HTTPClient *http.Client

	// Logger for debug output. Defaults to slog.Default().
	Logger *slog.Logger
}

// TokenPair is the access/refresh token pair returned by the auth endpoints.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshResult reports the outcome of a TokenRefresh call. TokenRefresh
// never returns a plain error so it can be used in a polling loop; failure
// details are carried here instead.
type RefreshResult struct {
	// Refreshed is true when a new token pair was stored.
	Refreshed bool

	// Status is the HTTP status code of the refresh response, or the status
	// carried by a StatusError on failure. Zero when the request never got a
	// response.
	Status int

	// Err holds the failure when Refreshed is false.
	Err error
}

// Client is a session-holding client for the AEBroadcast API. It owns one
// HTTP client and the current token pair. The Authorization header is built
// per request from the current access token, so a Client is safe for
// concurrent use.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	log        *slog.Logger

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// New constructs a Client and logs in synchronously. On any login failure no
// client is returned. With cfg.KeepAlive set, one keep-alive ping follows the
// login and its failure also fails construction.
func New(ctx context.Context, cfg Config) (*Client, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := c.Login(ctx); err != nil {
		return nil, err
	}
	if cfg.KeepAlive {
		if _, err := c.KeepAlive(ctx); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewFromTokens constructs a Client around an already-issued token pair
// without any network call. Used to resume a persisted session.
func NewFromTokens(cfg Config, pair TokenPair) (*Client, error) {
	if pair.Token == "" {
		return nil, errors.New("broadcast: access token is required")
	}
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	c.setTokens(pair)
	return c, nil
}

func newClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		var err error
		httpClient, err = newHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		baseURL:    baseURL,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: httpClient,
		log:        log.With("component", "broadcast"),
	}, nil
}

// newHTTPClient builds the shared HTTP client with the configured TLS
// settings and wraps its transport with metrics collection.
func newHTTPClient(cfg Config) (*http.Client, error) {
	tlsConfig := &tls.Config{}
	if cfg.InsecureSkipVerify {
		tlsConfig.InsecureSkipVerify = true
	} else if cfg.CABundlePath != "" {
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		pem, err := os.ReadFile(cfg.CABundlePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA bundle: %w", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in CA bundle %s", cfg.CABundlePath)
		}
		tlsConfig.RootCAs = pool
	}

	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: tlsConfig,
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: NewMetricsTransport(transport),
	}, nil
}

// Login authenticates with the stored credentials and replaces the current
// token pair on success.
func (c *Client) Login(ctx context.Context) (TokenPair, error) {
	body := map[string]string{
		"applicationId": applicationID,
		"login":         c.username,
		"password":      c.password,
	}
	payload, _, err := c.do(ctx, "login", http.MethodPost, loginPath, body, false)
	if err != nil {
		return TokenPair{}, err
	}

	pair, err := tokenPairFrom("login", payload)
	if err != nil {
		return TokenPair{}, err
	}
	c.setTokens(pair)
	c.log.Debug("login succeeded", "username", c.username)
	return pair, nil
}

// Logout invalidates the session server-side. The local token pair is left
// untouched: a later call will still send the now-invalidated bearer token.
func (c *Client) Logout(ctx context.Context) (map[string]any, error) {
	payload, _, err := c.do(ctx, "logout", http.MethodGet, logoutPath, nil, true)
	return payload, err
}

// KeepAlive extends the server-side session lifetime. It is a pure ping and
// changes no client state.
func (c *Client) KeepAlive(ctx context.Context) (map[string]any, error) {
	payload, _, err := c.do(ctx, "keepalive", http.MethodGet, keepAlivePath, nil, true)
	return payload, err
}

// TokenRefresh exchanges the refresh token for a new token pair. Unlike every
// other operation it never propagates an error: any failure, transport or
// HTTP, collapses into the returned RefreshResult and leaves the current
// tokens unchanged. Replacement of the pair on success is atomic.
func (c *Client) TokenRefresh(ctx context.Context) RefreshResult {
	c.mu.RLock()
	body := map[string]string{
		"refreshToken": c.refreshToken,
		"token":        c.accessToken,
	}
	c.mu.RUnlock()

	payload, status, err := c.do(ctx, "refresh", http.MethodPost, refreshPath, body, true)
	if err == nil {
		var pair TokenPair
		pair, err = tokenPairFrom("refresh", payload)
		if err == nil {
			c.setTokens(pair)
			metrics.TokenRefreshes.WithLabelValues("ok").Inc()
			c.log.Debug("token refresh succeeded")
			return RefreshResult{Refreshed: true, Status: status}
		}
	}

	result := RefreshResult{Err: err}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		result.Status = statusErr.StatusCode
	}
	metrics.TokenRefreshes.WithLabelValues("failed").Inc()
	c.log.Warn("token refresh failed", "error", err)
	return result
}

// GetQuote fetches market data for the given symbols. When fields is empty
// the server's default field set is returned. The decoded JSON payload is
// returned verbatim; it may itself encode a server-side error shape, which
// this layer does not inspect.
func (c *Client) GetQuote(ctx context.Context, symbols []string, fields []string) (map[string]any, error) {
	if len(symbols) == 0 {
		return nil, errors.New("broadcast: at least one symbol is required")
	}
	if fields == nil {
		fields = []string{}
	}
	body := map[string]any{
		"symbols": symbols,
		"fields":  fields,
	}
	payload, _, err := c.do(ctx, "quote", http.MethodPost, quotePath, body, true)
	return payload, err
}

// AccessToken returns the current access token.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// RefreshToken returns the current refresh token.
func (c *Client) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshToken
}

// Tokens returns the current token pair.
func (c *Client) Tokens() TokenPair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return TokenPair{Token: c.accessToken, RefreshToken: c.refreshToken}
}

func (c *Client) setTokens(pair TokenPair) {
	c.mu.Lock()
	c.accessToken = pair.Token
	c.refreshToken = pair.RefreshToken
	c.mu.Unlock()
}

// do issues one request and decodes the JSON response. The Authorization
// header is built freshly from the current access token so no shared header
// state is ever mutated.
func (c *Client) do(ctx context.Context, op, method, path string, body any, authed bool) (map[string]any, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, &RequestError{Op: op, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &RequestError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, resp.StatusCode, &RequestError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return payload, resp.StatusCode, nil
}

// tokenPairFrom extracts the token pair from an auth endpoint payload.
func tokenPairFrom(op string, payload map[string]any) (TokenPair, error) {
	token, _ := payload["token"].(string)
	refresh, _ := payload["refreshToken"].(string)
	if token == "" || refresh == "" {
		return TokenPair{}, &RequestError{Op: op, Err: errors.New("response is missing token or refreshToken")}
	}
	return TokenPair{Token: token, RefreshToken: refresh}, nil
}
