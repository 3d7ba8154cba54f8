package auth_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-token-auth/auth"
	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/internal/metrics"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/jrsteele09/go-token-auth/token/jwt"
	"github.com/jrsteele09/go-token-auth/token/keys"
	"github.com/jrsteele09/go-token-auth/users"
	fakeuserrepo "github.com/jrsteele09/go-token-auth/users/repofake"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "admin@user.com"
	testUserPassword = "admin"
	testAccessTTL    = 15 * time.Minute
	testRefreshTTL   = 7 * 24 * time.Hour
)

type testFixture struct {
	now      time.Time
	userRepo *fakeuserrepo.FakeUserRepo
	user     *users.User
	issuer   *token.Issuer
	verifier *token.Verifier
	recorder *metrics.Recorder
	service  *auth.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		now:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		userRepo: fakeuserrepo.NewFakeUserRepo(),
		recorder: metrics.NewRecorder(),
	}
	now := func() time.Time { return f.now }

	user, err := users.NewUser("Admin User", testUserEmail, testUserPassword)
	require.NoError(t, err)
	require.NoError(t, f.userRepo.Upsert(context.Background(), user))
	f.user = user

	secret, err := keys.NewHMACSecret("test-secret")
	require.NoError(t, err)

	f.issuer, err = token.NewIssuer(secret,
		token.WithAccessTTL(testAccessTTL),
		token.WithRefreshTTL(testRefreshTTL),
		token.WithIssuerNowFunc(now),
	)
	require.NoError(t, err)
	f.verifier, err = token.NewVerifier(secret, token.WithVerifierNowFunc(now))
	require.NoError(t, err)

	f.service, err = auth.NewService(f.userRepo, f.issuer, f.verifier, auth.WithObserver(f.recorder))
	require.NoError(t, err)
	return f
}

func TestNewService(t *testing.T) {
	f := setupTestFixture(t)

	_, err := auth.NewService(nil, f.issuer, f.verifier)
	require.Error(t, err)
	_, err = auth.NewService(f.userRepo, nil, f.verifier)
	require.Error(t, err)
	_, err = auth.NewService(f.userRepo, f.issuer, nil)
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		f := setupTestFixture(t)

		pair, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)

		claims, err := f.verifier.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, f.user.ID, claims.Subject)
		require.Equal(t, "Admin User", claims.Name)

		_, decoded, err := jwt.Decode(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, testAccessTTL, decoded.ExpiresAtTime().Sub(decoded.IssuedAtTime()))

		logins, _, _, _ := f.recorder.Counters()
		require.Equal(t, 1.0, testutil.ToFloat64(logins.WithLabelValues(auth.OutcomeSuccess)))
	})

	t.Run("wrong password and unknown email fail the same way", func(t *testing.T) {
		f := setupTestFixture(t)

		_, errPassword := f.service.Login(ctx, testUserEmail, "wrong")
		require.ErrorIs(t, errPassword, autherrors.ErrInvalidCredentials)

		_, errEmail := f.service.Login(ctx, "nobody@user.com", testUserPassword)
		require.ErrorIs(t, errEmail, autherrors.ErrInvalidCredentials)
		require.Equal(t, errPassword.Error(), errEmail.Error())

		logins, _, _, _ := f.recorder.Counters()
		require.Equal(t, 2.0, testutil.ToFloat64(logins.WithLabelValues(auth.OutcomeFailure)))
	})

	t.Run("lookup failure is internal", func(t *testing.T) {
		f := setupTestFixture(t)
		service, err := auth.NewService(failingLookup{}, f.issuer, f.verifier)
		require.NoError(t, err)

		_, err = service.Login(ctx, testUserEmail, testUserPassword)
		require.ErrorIs(t, err, autherrors.ErrInternal)
		require.NotErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates both tokens", func(t *testing.T) {
		f := setupTestFixture(t)
		first, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)

		f.now = f.now.Add(time.Minute)
		second, err := f.service.Refresh(ctx, first.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, first.AccessToken, second.AccessToken)
		require.NotEqual(t, first.RefreshToken, second.RefreshToken)

		claims, err := f.verifier.VerifyAccess(second.AccessToken)
		require.NoError(t, err)
		require.Equal(t, f.user.ID, claims.Subject)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		f := setupTestFixture(t)
		pair, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)

		f.now = f.now.Add(testRefreshTTL)
		_, err = f.service.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
		require.ErrorIs(t, err, autherrors.ErrTokenExpired)

		status, msg := auth.ResponseFor(err)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, auth.MessageTokenExpired, msg)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		f := setupTestFixture(t)
		pair, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)

		_, err = f.service.Refresh(ctx, pair.AccessToken)
		require.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
		require.ErrorIs(t, err, autherrors.ErrTokenInvalid)

		_, msg := auth.ResponseFor(err)
		require.Equal(t, auth.MessageInvalidRefreshToken, msg)
	})

	t.Run("garbage never issues", func(t *testing.T) {
		f := setupTestFixture(t)
		pair, err := f.service.Refresh(ctx, "not-a-token")
		require.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
		require.True(t, pair.IsZero())

		_, refreshes, _, _ := f.recorder.Counters()
		require.Equal(t, 1.0, testutil.ToFloat64(refreshes.WithLabelValues(auth.OutcomeFailure)))
	})

	t.Run("deleted user", func(t *testing.T) {
		f := setupTestFixture(t)
		pair, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)
		require.NoError(t, f.userRepo.Delete(ctx, f.user.ID))

		_, err = f.service.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, autherrors.ErrUserNotFound)

		_, msg := auth.ResponseFor(err)
		require.Equal(t, auth.MessageUserNotFound, msg)
	})
}

func TestResponseFor(t *testing.T) {
	status, msg := auth.ResponseFor(autherrors.New(autherrors.KindInvalidCredentials, "op"))
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, auth.MessageInvalidCredentials, msg)

	status, msg = auth.ResponseFor(autherrors.New(autherrors.KindNoRefreshToken, "op"))
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, auth.MessageTokenNotProvided, msg)

	status, msg = auth.ResponseFor(errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, auth.MessageInternal, msg)
}

type failingLookup struct{}

func (failingLookup) GetByEmail(context.Context, string) (*users.User, error) {
	return nil, errors.New("database unavailable")
}

func (failingLookup) GetByID(context.Context, string) (*users.User, error) {
	return nil, errors.New("database unavailable")
}
