package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-token-auth/token/keys"
)

const typeJWT = "JWT"

// Header is the decoded first segment of a token.
type Header struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ,omitempty"`
	KeyID     string `json:"kid,omitempty"`
}

// NewHeader builds the header matching a signing key.
func NewHeader(key keys.SigningKey) Header {
	return Header{Algorithm: key.Algorithm(), Type: typeJWT, KeyID: key.KeyID()}
}

// Claims is the token payload: the registered claims (sub, iat, exp, jti)
// plus the identity fields and the token's intended use.
type Claims struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	TokenUse string `json:"token_use,omitempty"`
	jwtlib.RegisteredClaims
}

// IssuedAtTime returns iat, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns exp, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

func headerFrom(token *jwtlib.Token) *Header {
	h := &Header{}
	h.Algorithm, _ = token.Header["alg"].(string)
	h.Type, _ = token.Header["typ"].(string)
	h.KeyID, _ = token.Header["kid"].(string)
	return h
}
