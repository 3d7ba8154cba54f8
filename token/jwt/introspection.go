package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
)

// Decode reads the header and claims of raw without checking the signature.
// Only use the result for untrusted introspection, such as reading exp to
// decide when to refresh.
func Decode(raw string) (*Header, *Claims, error) {
	const op = "jwt.Decode"
	if strings.TrimSpace(raw) == "" {
		return nil, nil, autherrors.Wrap(autherrors.KindMalformedToken, op, errors.New("empty token"))
	}

	claims := &Claims{}
	token, _, err := jwtlib.NewParser().ParseUnverified(raw, claims)
	if err != nil {
		// An unknown or missing alg still leaves both segments decoded.
		if token == nil || token.Header == nil || !errors.Is(err, jwtlib.ErrTokenUnverifiable) {
			return nil, nil, autherrors.Wrap(autherrors.KindMalformedToken, op, err)
		}
	}
	return headerFrom(token), claims, nil
}

// ExpiresWithin reports whether raw expires within margin of now. Tokens that
// cannot be decoded or carry no exp count as expiring.
func ExpiresWithin(raw string, now time.Time, margin time.Duration) bool {
	_, claims, err := Decode(raw)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Sub(now) <= margin
}
