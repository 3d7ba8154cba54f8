package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/jrsteele09/go-token-auth/token/jwt"
	"github.com/jrsteele09/go-token-auth/token/keys"
	"github.com/stretchr/testify/require"
)

const (
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 7 * 24 * time.Hour
)

var testIdentity = token.Identity{ID: "user-1", Name: "Admin User", Email: "admin@user.com"}

type fixture struct {
	now      time.Time
	keyPair  *keys.KeyPair
	issuer   *token.Issuer
	verifier *token.Verifier
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	kp, err := keys.GenerateRSAKeyPair("test-key", 2048)
	require.NoError(t, err)
	f.keyPair = kp

	f.issuer, err = token.NewIssuer(kp.Signing(),
		token.WithAccessTTL(testAccessTTL),
		token.WithRefreshTTL(testRefreshTTL),
		token.WithIssuerNowFunc(func() time.Time { return f.now }),
	)
	require.NoError(t, err)

	f.verifier, err = token.NewVerifier(kp.Verification(),
		token.WithVerifierNowFunc(func() time.Time { return f.now }),
	)
	require.NoError(t, err)
	return f
}

func TestIssueAndVerify(t *testing.T) {
	f := setupFixture(t)

	pair, err := f.issuer.IssuePair(testIdentity)
	require.NoError(t, err)

	t.Run("access token round trip", func(t *testing.T) {
		claims, err := f.verifier.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, testIdentity.ID, claims.Subject)
		require.Equal(t, testIdentity.Name, claims.Name)
		require.Equal(t, testIdentity.Email, claims.Email)
		require.NotEmpty(t, claims.ID)
	})

	t.Run("refresh token round trip", func(t *testing.T) {
		claims, err := f.verifier.VerifyRefresh(pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, testIdentity.ID, claims.Subject)
	})

	t.Run("exp minus iat equals the configured ttl", func(t *testing.T) {
		_, access, err := jwt.Decode(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, testAccessTTL, access.ExpiresAtTime().Sub(access.IssuedAtTime()))

		_, refresh, err := jwt.Decode(pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, testRefreshTTL, refresh.ExpiresAtTime().Sub(refresh.IssuedAtTime()))
	})

	t.Run("tokens are not interchangeable", func(t *testing.T) {
		_, err := f.verifier.VerifyAccess(pair.RefreshToken)
		require.ErrorIs(t, err, autherrors.ErrTokenInvalid)

		_, err = f.verifier.VerifyRefresh(pair.AccessToken)
		require.ErrorIs(t, err, autherrors.ErrTokenInvalid)
	})

	t.Run("each issuance is unique", func(t *testing.T) {
		again, err := f.issuer.IssuePair(testIdentity)
		require.NoError(t, err)
		require.NotEqual(t, pair.AccessToken, again.AccessToken)
		require.NotEqual(t, pair.RefreshToken, again.RefreshToken)
	})
}

func TestExpiry(t *testing.T) {
	f := setupFixture(t)

	access, err := f.issuer.IssueAccessToken(testIdentity)
	require.NoError(t, err)

	f.now = f.now.Add(testAccessTTL - time.Second)
	_, err = f.verifier.VerifyAccess(access)
	require.NoError(t, err)

	f.now = f.now.Add(time.Second)
	_, err = f.verifier.VerifyAccess(access)
	require.ErrorIs(t, err, autherrors.ErrTokenExpired)

	result := f.verifier.CheckAccess(access)
	require.Equal(t, token.StatusExpired, result.Status)
	require.Nil(t, result.Claims)
}

func TestNoneAlgorithmIsInvalidNotExpired(t *testing.T) {
	f := setupFixture(t)

	for _, exp := range []time.Time{f.now.Add(time.Hour), f.now.Add(-time.Hour)} {
		claims := jwt.Claims{
			Name:     testIdentity.Name,
			TokenUse: string(token.KindAccess),
			RegisteredClaims: jwtlib.RegisteredClaims{
				Subject:   testIdentity.ID,
				IssuedAt:  jwtlib.NewNumericDate(exp.Add(-time.Minute)),
				ExpiresAt: jwtlib.NewNumericDate(exp),
			},
		}
		raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		result := f.verifier.CheckAccess(raw)
		require.Equal(t, token.StatusInvalid, result.Status)
		require.ErrorIs(t, result.Reason, autherrors.ErrAlgorithmNotAllowed)

		_, err = f.verifier.VerifyAccess(raw)
		require.ErrorIs(t, err, autherrors.ErrTokenInvalid)
		require.NotErrorIs(t, err, autherrors.ErrTokenExpired)
	}
}

func TestHMACTokenRejectedByAsymmetricVerifier(t *testing.T) {
	f := setupFixture(t)

	secret, err := keys.NewHMACSecret("shared-secret-for-confusion-test")
	require.NoError(t, err)
	hsIssuer, err := token.NewIssuer(secret, token.WithIssuerNowFunc(func() time.Time { return f.now }))
	require.NoError(t, err)

	raw, err := hsIssuer.IssueAccessToken(testIdentity)
	require.NoError(t, err)

	_, err = f.verifier.VerifyAccess(raw)
	require.ErrorIs(t, err, autherrors.ErrTokenInvalid)
}

func TestSeparateRefreshKey(t *testing.T) {
	f := setupFixture(t)

	refreshPair, err := keys.GenerateECDSAKeyPair("refresh-key")
	require.NoError(t, err)

	issuer, err := token.NewIssuer(f.keyPair.Signing(), token.WithRefreshSigningKey(refreshPair.Signing()))
	require.NoError(t, err)
	verifier, err := token.NewVerifier(f.keyPair.Verification(), token.WithRefreshVerificationKey(refreshPair.Verification()))
	require.NoError(t, err)

	pair, err := issuer.IssuePair(testIdentity)
	require.NoError(t, err)

	_, err = verifier.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)

	// the shared verifier only knows the access key
	_, err = f.verifier.VerifyRefresh(pair.RefreshToken)
	require.ErrorIs(t, err, autherrors.ErrTokenInvalid)
}

func TestConstructorValidation(t *testing.T) {
	secret, err := keys.NewHMACSecret("secret")
	require.NoError(t, err)

	_, err = token.NewIssuer(nil)
	require.Error(t, err)

	_, err = token.NewIssuer(secret, token.WithAccessTTL(0))
	require.Error(t, err)

	_, err = token.NewVerifier(nil)
	require.Error(t, err)

	issuer, err := token.NewIssuer(secret)
	require.NoError(t, err)
	require.Equal(t, token.DefaultAccessTTL, issuer.AccessTTL())
	require.Equal(t, token.DefaultRefreshTTL, issuer.RefreshTTL())

	_, err = issuer.IssueAccessToken(token.Identity{})
	require.Error(t, err)
}
