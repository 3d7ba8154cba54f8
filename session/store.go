// Package session maps browser requests to stored token pairs and gates
// protected routes on them.
//
// Two Store implementations share one contract. ServerStore keeps the pair
// server side behind an opaque session id cookie. SealedCookieStore seals the
// pair itself into the cookie.
package session

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-token-auth/token"
)

// CookieName is the cookie both stores use.
const CookieName = "auth-session"

// Store loads, saves and destroys the token pair bound to a request.
type Store interface {
	// Load returns nil, nil when the request carries no usable session.
	Load(r *http.Request) (*token.Pair, error)
	// Save stores pair in the request's current session, starting one when
	// there is none.
	Save(w http.ResponseWriter, r *http.Request, pair token.Pair) error
	// Renew stores pair in a brand new session and drops the one the request
	// carried. Sign-in uses it so no session id survives a login.
	Renew(w http.ResponseWriter, r *http.Request, pair token.Pair) error
	Destroy(w http.ResponseWriter, r *http.Request) error
}

type cookieOptions struct {
	name    string
	secure  bool
	nowFunc func() time.Time
}

func defaultCookieOptions() cookieOptions {
	return cookieOptions{name: CookieName, nowFunc: time.Now}
}

// Option configures either store.
type Option func(*cookieOptions)

// WithSecureCookies sets the Secure attribute. Production deployments turn it on.
func WithSecureCookies(secure bool) Option {
	return func(o *cookieOptions) {
		o.secure = secure
	}
}

func WithCookieName(name string) Option {
	return func(o *cookieOptions) {
		if name != "" {
			o.name = name
		}
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(o *cookieOptions) {
		o.nowFunc = now
	}
}

func (o cookieOptions) set(w http.ResponseWriter, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     o.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   o.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(maxAge / time.Second),
		Expires:  o.nowFunc().Add(maxAge),
	})
}

func (o cookieOptions) expire(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     o.name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   o.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

func (o cookieOptions) value(r *http.Request) string {
	c, err := r.Cookie(o.name)
	if err != nil {
		return ""
	}
	return c.Value
}
