package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-token-auth/session"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const (
	testTTL      = 7 * 24 * time.Hour
	testPassword = "a-very-long-session-password-of-32+chars"
)

var testPair = token.Pair{AccessToken: "access-1", RefreshToken: "refresh-1"}

// roundTrip saves pair through store and returns the cookie it set.
func saveCookie(t *testing.T, store session.Store, r *http.Request, pair token.Pair) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, store.Save(w, r, pair))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func requestWith(cookie *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func newRedisBackend(t *testing.T) (*miniredis.Miniredis, *session.RedisBackend) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	backend, err := session.NewRedisBackend(rdb, "")
	require.NoError(t, err)
	return mr, backend
}

func TestServerStore(t *testing.T) {
	backends := map[string]func(t *testing.T) session.Backend{
		"memory": func(t *testing.T) session.Backend { return session.NewMemoryBackend() },
		"redis": func(t *testing.T) session.Backend {
			_, backend := newRedisBackend(t)
			return backend
		},
	}

	for name, newBackend := range backends {
		t.Run(name, func(t *testing.T) {
			store, err := session.NewServerStore(newBackend(t), testTTL)
			require.NoError(t, err)

			pair, err := store.Load(requestWith(nil))
			require.NoError(t, err)
			require.Nil(t, pair)

			cookie := saveCookie(t, store, requestWith(nil), testPair)
			require.Equal(t, session.CookieName, cookie.Name)
			require.True(t, cookie.HttpOnly)
			require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
			require.Equal(t, int(testTTL/time.Second), cookie.MaxAge)
			require.NotContains(t, cookie.Value, testPair.AccessToken)

			pair, err = store.Load(requestWith(cookie))
			require.NoError(t, err)
			require.Equal(t, testPair, *pair)

			rotated := token.Pair{AccessToken: "access-2", RefreshToken: "refresh-2"}
			again := saveCookie(t, store, requestWith(cookie), rotated)
			require.Equal(t, cookie.Value, again.Value, "session id is kept across saves")

			pair, err = store.Load(requestWith(cookie))
			require.NoError(t, err)
			require.Equal(t, rotated, *pair)

			w := httptest.NewRecorder()
			require.NoError(t, store.Destroy(w, requestWith(cookie)))
			require.Equal(t, -1, w.Result().Cookies()[0].MaxAge)

			pair, err = store.Load(requestWith(cookie))
			require.NoError(t, err)
			require.Nil(t, pair)
		})
	}

	t.Run("forged session id gets a fresh one", func(t *testing.T) {
		store, err := session.NewServerStore(session.NewMemoryBackend(), testTTL)
		require.NoError(t, err)

		forged := &http.Cookie{Name: session.CookieName, Value: "chosen-by-attacker"}
		cookie := saveCookie(t, store, requestWith(forged), testPair)
		require.NotEqual(t, forged.Value, cookie.Value)
	})

	t.Run("planted well formed id is not adopted", func(t *testing.T) {
		store, err := session.NewServerStore(session.NewMemoryBackend(), testTTL)
		require.NoError(t, err)

		planted := &http.Cookie{Name: session.CookieName, Value: "11111111-2222-4333-8444-555555555555"}
		cookie := saveCookie(t, store, requestWith(planted), testPair)
		require.NotEqual(t, planted.Value, cookie.Value)

		pair, err := store.Load(requestWith(planted))
		require.NoError(t, err)
		require.Nil(t, pair)
	})

	t.Run("renew always starts a new session", func(t *testing.T) {
		backend := session.NewMemoryBackend()
		store, err := session.NewServerStore(backend, testTTL)
		require.NoError(t, err)

		// a live session id handed to the victim before sign-in
		existing := saveCookie(t, store, requestWith(nil), testPair)

		w := httptest.NewRecorder()
		signedIn := token.Pair{AccessToken: "victim-access", RefreshToken: "victim-refresh"}
		require.NoError(t, store.Renew(w, requestWith(existing), signedIn))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		require.NotEqual(t, existing.Value, cookies[0].Value)

		pair, err := store.Load(requestWith(existing))
		require.NoError(t, err)
		require.Nil(t, pair)

		pair, err = store.Load(requestWith(cookies[0]))
		require.NoError(t, err)
		require.Equal(t, signedIn, *pair)
		require.Equal(t, 1, backend.Len())
	})

	t.Run("constructor validation", func(t *testing.T) {
		_, err := session.NewServerStore(nil, testTTL)
		require.Error(t, err)
		_, err = session.NewServerStore(session.NewMemoryBackend(), 0)
		require.Error(t, err)
	})
}

func TestMemoryBackendExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	backend := session.NewMemoryBackend().WithClock(func() time.Time { return now })

	require.NoError(t, backend.Put(ctx, "id", testPair, time.Minute))
	pair, err := backend.Get(ctx, "id")
	require.NoError(t, err)
	require.Equal(t, testPair, *pair)

	now = now.Add(time.Minute)
	pair, err = backend.Get(ctx, "id")
	require.NoError(t, err)
	require.Nil(t, pair)
	require.Equal(t, 0, backend.Len())
}

func TestRedisBackendTTL(t *testing.T) {
	ctx := context.Background()
	mr, backend := newRedisBackend(t)

	require.NoError(t, backend.Put(ctx, "id", testPair, time.Hour))
	require.Equal(t, time.Hour, mr.TTL("auth-session:id"))

	mr.FastForward(time.Hour)
	pair, err := backend.Get(ctx, "id")
	require.NoError(t, err)
	require.Nil(t, pair)
}

func TestSealedCookieStore(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	newStore := func(t *testing.T, password string) *session.SealedCookieStore {
		t.Helper()
		store, err := session.NewSealedCookieStore(password, testTTL,
			session.WithSecureCookies(true),
			session.WithNowFunc(func() time.Time { return now }),
		)
		require.NoError(t, err)
		return store
	}
	store := newStore(t, testPassword)

	cookie := saveCookie(t, store, requestWith(nil), testPair)

	t.Run("cookie attributes", func(t *testing.T) {
		require.Equal(t, session.CookieName, cookie.Name)
		require.True(t, cookie.HttpOnly)
		require.True(t, cookie.Secure)
		require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		require.Equal(t, int((testTTL-60*time.Second)/time.Second), cookie.MaxAge)
		require.NotContains(t, cookie.Value, testPair.AccessToken)
	})

	t.Run("round trip", func(t *testing.T) {
		pair, err := store.Load(requestWith(cookie))
		require.NoError(t, err)
		require.Equal(t, testPair, *pair)
	})

	t.Run("renew seals the new pair", func(t *testing.T) {
		w := httptest.NewRecorder()
		rotated := token.Pair{AccessToken: "access-2", RefreshToken: "refresh-2"}
		require.NoError(t, store.Renew(w, requestWith(cookie), rotated))

		pair, err := store.Load(requestWith(w.Result().Cookies()[0]))
		require.NoError(t, err)
		require.Equal(t, rotated, *pair)
	})

	t.Run("tampered cookie loads as absent", func(t *testing.T) {
		value := []byte(cookie.Value)
		i := len(value) / 2
		if value[i] == 'A' {
			value[i] = 'B'
		} else {
			value[i] = 'A'
		}
		pair, err := store.Load(requestWith(&http.Cookie{Name: session.CookieName, Value: string(value)}))
		require.NoError(t, err)
		require.Nil(t, pair)

		pair, err = store.Load(requestWith(&http.Cookie{Name: session.CookieName, Value: "%%%"}))
		require.NoError(t, err)
		require.Nil(t, pair)
	})

	t.Run("other password cannot open it", func(t *testing.T) {
		other := newStore(t, strings.Repeat("x", session.MinPasswordLength))
		pair, err := other.Load(requestWith(cookie))
		require.NoError(t, err)
		require.Nil(t, pair)
	})

	t.Run("expired seal loads as absent", func(t *testing.T) {
		later := newStore(t, testPassword)
		now = now.Add(testTTL)
		defer func() { now = now.Add(-testTTL) }()

		pair, err := later.Load(requestWith(cookie))
		require.NoError(t, err)
		require.Nil(t, pair)
	})

	t.Run("constructor validation", func(t *testing.T) {
		_, err := session.NewSealedCookieStore("short", testTTL)
		require.Error(t, err)
		_, err = session.NewSealedCookieStore(testPassword, 30*time.Second)
		require.Error(t, err)
	})
}
