package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-token-auth/client"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/jrsteele09/go-token-auth/token/jwt"
	"github.com/rs/zerolog"
)

// AccessChecker classifies an access token. *token.Verifier satisfies it.
type AccessChecker interface {
	CheckAccess(raw string) token.Result
}

// Refresher trades the pair held by a session for a rotated one.
type Refresher interface {
	Refresh(ctx context.Context, pair token.Pair) (token.Pair, error)
}

// Observer is told the status of every access token the bridge checks.
type Observer interface {
	Verification(kind, status string)
}

// ClientRefresher refreshes through the auth server with a client.Client
// seeded from the session pair.
type ClientRefresher struct {
	BaseURL string
	Options []client.Option
}

func (cr ClientRefresher) Refresh(ctx context.Context, pair token.Pair) (token.Pair, error) {
	options := append([]client.Option{client.WithTokens(pair)}, cr.Options...)
	return client.New(cr.BaseURL, options...).DoRefreshToken(ctx)
}

type contextKey string

const (
	claimsKey contextKey = "session-claims"
	pairKey   contextKey = "session-pair"
)

// ClaimsFromContext returns the verified access token claims set by Bridge.Protect.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*jwt.Claims)
	return claims, ok && claims != nil
}

// PairFromContext returns the session pair that passed Bridge.Protect.
func PairFromContext(ctx context.Context) (token.Pair, bool) {
	pair, ok := ctx.Value(pairKey).(token.Pair)
	return pair, ok
}

// Bridge gates protected routes on the session pair.
type Bridge struct {
	store     Store
	checker   AccessChecker
	refresher Refresher
	loginPath string
	logger    zerolog.Logger
	observer  Observer
}

type BridgeOption func(*Bridge)

// WithLoginRedirect sends denied requests to path instead of answering 401.
func WithLoginRedirect(path string) BridgeOption {
	return func(b *Bridge) {
		b.loginPath = path
	}
}

func WithLogger(logger zerolog.Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = logger
	}
}

func WithObserver(observer Observer) BridgeOption {
	return func(b *Bridge) {
		b.observer = observer
	}
}

func NewBridge(store Store, checker AccessChecker, refresher Refresher, options ...BridgeOption) (*Bridge, error) {
	if store == nil {
		return nil, errors.New("[NewBridge] store is required")
	}
	if checker == nil {
		return nil, errors.New("[NewBridge] access checker is required")
	}
	if refresher == nil {
		return nil, errors.New("[NewBridge] refresher is required")
	}

	b := &Bridge{
		store:     store,
		checker:   checker,
		refresher: refresher,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(b)
	}
	return b, nil
}

// Protect lets a request through only with a session whose access token is
// valid, or merely expired and successfully refreshed. An invalid access
// token destroys the session without a refresh attempt.
func (b *Bridge) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pair, err := b.store.Load(r)
		if err != nil {
			b.logger.Err(err).Str("path", r.URL.Path).Msg("failed to load session")
			b.deny(w, r)
			return
		}
		if pair == nil {
			b.deny(w, r)
			return
		}

		result := b.check(pair.AccessToken)
		switch result.Status {
		case token.StatusValid:
		case token.StatusExpired:
			refreshed, err := b.refresh(w, r, *pair)
			if err != nil {
				b.logger.Debug().Err(err).Msg("session refresh failed")
				b.destroy(w, r)
				b.deny(w, r)
				return
			}
			pair = &refreshed
			if result = b.check(pair.AccessToken); result.Status != token.StatusValid {
				b.destroy(w, r)
				b.deny(w, r)
				return
			}
		default:
			b.logger.Info().Str("path", r.URL.Path).AnErr("reason", result.Reason).Msg("invalid access token, session destroyed")
			b.destroy(w, r)
			b.deny(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, result.Claims)
		ctx = context.WithValue(ctx, pairKey, *pair)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (b *Bridge) check(access string) token.Result {
	result := b.checker.CheckAccess(access)
	if b.observer != nil {
		b.observer.Verification(string(token.KindAccess), result.Status.String())
	}
	return result
}

func (b *Bridge) refresh(w http.ResponseWriter, r *http.Request, pair token.Pair) (token.Pair, error) {
	refreshed, err := b.refresher.Refresh(r.Context(), pair)
	if err != nil {
		return token.Pair{}, err
	}
	if err := b.store.Save(w, r, refreshed); err != nil {
		return token.Pair{}, err
	}
	return refreshed, nil
}

func (b *Bridge) destroy(w http.ResponseWriter, r *http.Request) {
	if err := b.store.Destroy(w, r); err != nil {
		b.logger.Err(err).Msg("failed to destroy session")
	}
}

func (b *Bridge) deny(w http.ResponseWriter, r *http.Request) {
	if b.loginPath != "" {
		http.Redirect(w, r, b.loginPath, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
}
