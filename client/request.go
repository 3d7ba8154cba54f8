package client

import (
	"context"
	"net/http"
	"time"

	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/jrsteele09/go-token-auth/token/jwt"
)

// Request sends one call relative to the base URL.
//
// With requiresAuth the held access token is attached as a bearer
// credential. A token that is missing fails with NoAccessToken before any
// network call. A token expiring within the margin is refreshed first. A 401
// answer triggers exactly one refresh and one retry; if either fails the held
// tokens are cleared and AuthenticationFailed is returned. Any other non-2xx
// answer fails with RequestFailed carrying the status.
func (c *Client) Request(ctx context.Context, method, path string, opts RequestOptions, requiresAuth bool) (*Response, error) {
	const op = "Client.Request"

	if !requiresAuth {
		resp, err := c.send(ctx, method, path, opts, "")
		return c.checked(op, resp, err)
	}

	held := c.Tokens()
	if held.AccessToken == "" {
		return nil, autherrors.New(autherrors.KindNoAccessToken, op)
	}

	if c.expiring(held.AccessToken) {
		c.logger.Debug().Str("path", path).Msg("access token expiring, refreshing before the call")
		pair, err := c.refreshFrom(ctx, held.RefreshToken)
		if err != nil {
			return nil, err
		}
		held = pair
	}

	resp, err := c.send(ctx, method, path, opts, held.AccessToken)
	if err != nil {
		return nil, autherrors.Wrap(autherrors.KindRequestFailed, op, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return c.retryAfterRefresh(ctx, method, path, opts, held.RefreshToken)
	}
	return c.checked(op, resp, nil)
}

func (c *Client) retryAfterRefresh(ctx context.Context, method, path string, opts RequestOptions, presented string) (*Response, error) {
	const op = "Client.Request"

	c.logger.Debug().Str("path", path).Msg("unauthorized, refreshing and retrying once")
	pair, err := c.refreshFrom(ctx, presented)
	if err != nil {
		c.clearIfHolding(presented)
		return nil, autherrors.Wrap(autherrors.KindAuthenticationFailed, op, err)
	}

	// The refreshed pair is the held one now; a Login since then is left alone.
	resp, err := c.send(ctx, method, path, opts, pair.AccessToken)
	if err != nil {
		c.clearIfHolding(pair.RefreshToken)
		return nil, autherrors.Wrap(autherrors.KindAuthenticationFailed, op, err)
	}
	if !resp.OK() {
		c.clearIfHolding(pair.RefreshToken)
		return nil, autherrors.WithStatus(autherrors.KindAuthenticationFailed, op, resp.StatusCode, resp.serverError())
	}
	return resp, nil
}

func (c *Client) checked(op string, resp *Response, err error) (*Response, error) {
	if err != nil {
		return nil, autherrors.Wrap(autherrors.KindRequestFailed, op, err)
	}
	if !resp.OK() {
		return nil, autherrors.WithStatus(autherrors.KindRequestFailed, op, resp.StatusCode, resp.serverError())
	}
	return resp, nil
}

// Get performs an authenticated GET and decodes the JSON answer into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	resp, err := c.Request(ctx, http.MethodGet, path, RequestOptions{}, true)
	if err != nil {
		return err
	}
	return resp.JSON(out)
}

// Post performs an authenticated POST of in as JSON and decodes the answer into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	opts, err := JSONBody(in)
	if err != nil {
		return autherrors.Wrap(autherrors.KindInternal, "Client.Post", err)
	}
	resp, err := c.Request(ctx, http.MethodPost, path, opts, true)
	if err != nil {
		return err
	}
	return resp.JSON(out)
}

// DoRefreshToken exchanges the held refresh token for a new pair. Concurrent
// calls presenting the same refresh token share one network call.
func (c *Client) DoRefreshToken(ctx context.Context) (token.Pair, error) {
	return c.refreshFrom(ctx, c.Tokens().RefreshToken)
}

func (c *Client) expiring(access string) bool {
	return jwt.ExpiresWithin(access, c.nowFunc(), c.margin)
}

// refreshTimeout bounds a shared refresh call once it no longer follows the
// context of the caller that started it.
const refreshTimeout = 30 * time.Second

// refreshFrom refreshes using the presented refresh token. When another call
// has already rotated the pair since it was read, the held pair is returned
// without a network call.
func (c *Client) refreshFrom(ctx context.Context, presented string) (token.Pair, error) {
	const op = "Client.DoRefreshToken"

	if presented == "" {
		return token.Pair{}, autherrors.New(autherrors.KindNoRefreshToken, op)
	}

	// The flight outlives any single caller: a cancelled caller stops
	// waiting below, the others still get the result.
	ch := c.refreshGroup.DoChan(presented, func() (any, error) {
		if held := c.Tokens(); held.RefreshToken != "" && held.RefreshToken != presented && !c.expiring(held.AccessToken) {
			return held, nil
		}
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return c.refresh(flightCtx, presented)
	})
	select {
	case <-ctx.Done():
		return token.Pair{}, autherrors.Wrap(autherrors.KindRefreshFailed, op, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return token.Pair{}, res.Err
		}
		return res.Val.(token.Pair), nil
	}
}

func (c *Client) refresh(ctx context.Context, refresh string) (token.Pair, error) {
	const op = "Client.DoRefreshToken"

	resp, err := c.send(ctx, http.MethodPost, c.refreshPath, RequestOptions{}, refresh)
	if err != nil {
		return token.Pair{}, autherrors.Wrap(autherrors.KindRefreshFailed, op, err)
	}
	if !resp.OK() {
		c.clearIfHolding(refresh)
		c.logger.Debug().Int("status", resp.StatusCode).Msg("refresh rejected, tokens cleared")
		return token.Pair{}, autherrors.WithStatus(autherrors.KindRefreshFailed, op, resp.StatusCode, resp.serverError())
	}

	pair, err := decodePair(resp)
	if err != nil {
		c.clearIfHolding(refresh)
		return token.Pair{}, autherrors.Wrap(autherrors.KindRefreshFailed, op, err)
	}
	c.replaceIfHolding(refresh, pair)
	return pair, nil
}

// replaceIfHolding swaps in pair only while the presented refresh token is
// still the held one; a Login or Clear in the meantime wins.
func (c *Client) replaceIfHolding(refresh string, pair token.Pair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens.RefreshToken == refresh {
		c.tokens = pair
	}
}

func (c *Client) clearIfHolding(refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens.RefreshToken == refresh {
		c.tokens = token.Pair{}
	}
}
