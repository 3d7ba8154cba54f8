// Package jwt encodes, decodes and verifies compact signed tokens
// (header.payload.signature, base64url without padding).
package jwt

import (
	"errors"
	"fmt"
	"slices"

	jwtlib "github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/token/keys"
)

const algNone = "none"

// Encode signs claims with key. The header must declare the key's algorithm.
func Encode(header Header, claims Claims, key keys.SigningKey) (string, error) {
	const op = "jwt.Encode"
	if key == nil {
		return "", autherrors.Wrap(autherrors.KindInternal, op, errors.New("signing key is required"))
	}
	if header.Algorithm != key.Algorithm() {
		return "", autherrors.Wrap(autherrors.KindAlgorithmNotAllowed, op,
			fmt.Errorf("header declares %q, key signs %q", header.Algorithm, key.Algorithm()))
	}

	token := jwtlib.NewWithClaims(key.SigningMethod(), claims)
	if header.Type != "" {
		token.Header["typ"] = header.Type
	}
	if header.KeyID != "" {
		token.Header["kid"] = header.KeyID
	}

	signedToken, err := token.SignedString(key.SignKey())
	if err != nil {
		return "", autherrors.Wrap(autherrors.KindInternal, op, fmt.Errorf("failed to sign JWT token: %w", err))
	}
	return signedToken, nil
}

// Verify checks the signature of raw against key and returns its decoded parts.
// The algorithm declared in the header must be in allowed and must be the
// key's own algorithm; "none" is never accepted. Expiry is not checked here.
func Verify(raw string, key keys.VerificationKey, allowed []string) (*Header, *Claims, error) {
	const op = "jwt.Verify"
	if key == nil {
		return nil, nil, autherrors.Wrap(autherrors.KindInternal, op, errors.New("verification key is required"))
	}

	header, _, err := Decode(raw)
	if err != nil {
		return nil, nil, err
	}

	if header.Algorithm == algNone || !slices.Contains(allowed, header.Algorithm) {
		return nil, nil, autherrors.Wrap(autherrors.KindAlgorithmNotAllowed, op,
			fmt.Errorf("algorithm %q is not allowed", header.Algorithm))
	}
	if header.Algorithm != key.Algorithm() {
		return nil, nil, autherrors.Wrap(autherrors.KindAlgorithmNotAllowed, op,
			fmt.Errorf("algorithm %q does not match the %q verification key", header.Algorithm, key.Algorithm()))
	}

	claims := &Claims{}
	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{key.Algorithm()}),
		jwtlib.WithoutClaimsValidation(),
	)
	_, err = parser.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (any, error) {
		if t.Method.Alg() != key.Algorithm() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key.VerifyKey(), nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenMalformed) {
			return nil, nil, autherrors.Wrap(autherrors.KindMalformedToken, op, err)
		}
		return nil, nil, autherrors.Wrap(autherrors.KindSignatureInvalid, op, err)
	}

	return header, claims, nil
}
