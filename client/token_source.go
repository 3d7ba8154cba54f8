package client

import (
	"context"

	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/token/jwt"
	"golang.org/x/oauth2"
)

// TokenSource exposes the held access token to oauth2-aware HTTP clients.
// Each Token call refreshes first when the access token is within the expiry
// margin.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, client: c}
}

type tokenSource struct {
	ctx    context.Context
	client *Client
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	c := s.client
	pair := c.Tokens()
	if pair.AccessToken == "" {
		return nil, autherrors.New(autherrors.KindNoAccessToken, "tokenSource.Token")
	}

	if c.expiring(pair.AccessToken) {
		var err error
		if pair, err = c.refreshFrom(s.ctx, pair.RefreshToken); err != nil {
			return nil, err
		}
	}

	tok := &oauth2.Token{
		AccessToken:  pair.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: pair.RefreshToken,
	}
	if _, claims, err := jwt.Decode(pair.AccessToken); err == nil && claims.ExpiresAt != nil {
		tok.Expiry = claims.ExpiresAt.Time
	}
	return tok, nil
}
