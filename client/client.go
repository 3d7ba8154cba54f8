// Package client executes HTTP calls on behalf of one logical session and
// hides access token renewal from the caller.
//
// A Client holds one token pair. Before an authenticated call it refreshes an
// access token that expires within the expiry margin (30 seconds by default),
// and after a 401 it refreshes once and retries the call once. When that
// retry cannot succeed the held tokens are cleared and the call fails with
// AuthenticationFailed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultExpiryMargin = 30 * time.Second
	DefaultLoginPath    = "/login"
	DefaultRefreshPath  = "/refresh-token"
)

// Doer is the HTTP capability the client depends on. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL     string
	httpClient  Doer
	nowFunc     func() time.Time
	margin      time.Duration
	loginPath   string
	refreshPath string
	logger      zerolog.Logger

	mu     sync.Mutex
	tokens token.Pair

	refreshGroup singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = now
	}
}

// WithTokens seeds the client with a pair obtained elsewhere, for example one
// loaded from a session store.
func WithTokens(pair token.Pair) Option {
	return func(c *Client) {
		c.tokens = pair
	}
}

func WithExpiryMargin(margin time.Duration) Option {
	return func(c *Client) {
		c.margin = margin
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithPaths overrides the login and refresh endpoints. Empty values keep the defaults.
func WithPaths(login, refresh string) Option {
	return func(c *Client) {
		if login != "" {
			c.loginPath = login
		}
		if refresh != "" {
			c.refreshPath = refresh
		}
	}
}

func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		nowFunc:     time.Now,
		margin:      DefaultExpiryMargin,
		loginPath:   DefaultLoginPath,
		refreshPath: DefaultRefreshPath,
		logger:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Tokens returns a copy of the held pair.
func (c *Client) Tokens() token.Pair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens.AccessToken != ""
}

// Clear forgets both tokens.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = token.Pair{}
}

func (c *Client) setTokens(pair token.Pair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = pair
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a pair and holds it.
func (c *Client) Login(ctx context.Context, email, password string) (token.Pair, error) {
	const op = "Client.Login"

	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return token.Pair{}, autherrors.Wrap(autherrors.KindInternal, op, err)
	}

	resp, err := c.send(ctx, http.MethodPost, c.loginPath, RequestOptions{Body: body}, "")
	if err != nil {
		return token.Pair{}, autherrors.Wrap(autherrors.KindRequestFailed, op, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return token.Pair{}, autherrors.WithStatus(autherrors.KindInvalidCredentials, op, resp.StatusCode, resp.serverError())
	case !resp.OK():
		return token.Pair{}, autherrors.WithStatus(autherrors.KindRequestFailed, op, resp.StatusCode, resp.serverError())
	}

	pair, err := decodePair(resp)
	if err != nil {
		return token.Pair{}, autherrors.Wrap(autherrors.KindRequestFailed, op, err)
	}
	c.setTokens(pair)
	c.logger.Debug().Str("base_url", c.baseURL).Msg("logged in")
	return pair, nil
}

func decodePair(resp *Response) (token.Pair, error) {
	var pair token.Pair
	if err := resp.JSON(&pair); err != nil {
		return token.Pair{}, err
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return token.Pair{}, fmt.Errorf("token response is missing a token")
	}
	return pair, nil
}

// send performs one HTTP call. bearer is attached when non-empty.
func (c *Client) send(ctx context.Context, method, path string, opts RequestOptions, bearer string) (*Response, error) {
	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	for key, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if opts.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if len(opts.Query) > 0 {
		req.URL.RawQuery = opts.Query.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("response")

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
