package portal_test

import (
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-token-auth/internal/config"
	"github.com/jrsteele09/go-token-auth/portal"
	"github.com/jrsteele09/go-token-auth/session"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	t.Run("memory by default", func(t *testing.T) {
		store, closeStore, err := portal.NewStore(config.New())
		require.NoError(t, err)
		defer closeStore()
		require.IsType(t, &session.ServerStore{}, store)
	})

	t.Run("redis backend", func(t *testing.T) {
		mr := miniredis.RunT(t)
		t.Setenv("SESSION_BACKEND", config.SessionBackendRedis)
		t.Setenv("REDIS_ADDR", mr.Addr())

		store, closeStore, err := portal.NewStore(config.New())
		require.NoError(t, err)
		require.IsType(t, &session.ServerStore{}, store)
		require.NoError(t, closeStore())
	})

	t.Run("stateless sealed cookies", func(t *testing.T) {
		t.Setenv("SESSION_MODE", config.SessionModeStateless)
		t.Setenv("SESSION_PASSWORD", strings.Repeat("p", session.MinPasswordLength))

		store, _, err := portal.NewStore(config.New())
		require.NoError(t, err)
		require.IsType(t, &session.SealedCookieStore{}, store)
	})

	t.Run("stateless without a password", func(t *testing.T) {
		t.Setenv("SESSION_MODE", config.SessionModeStateless)

		store, _, err := portal.NewStore(config.New())
		require.Error(t, err)
		require.Nil(t, store)
	})

	t.Run("unknown mode and backend", func(t *testing.T) {
		t.Setenv("SESSION_MODE", "cookie-jar")
		_, _, err := portal.NewStore(config.New())
		require.Error(t, err)

		t.Setenv("SESSION_MODE", config.SessionModeStateful)
		t.Setenv("SESSION_BACKEND", "memcached")
		_, _, err = portal.NewStore(config.New())
		require.Error(t, err)
	})
}
