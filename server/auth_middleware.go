package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-token-auth/auth"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/jrsteele09/go-token-auth/token/jwt"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyClaims stores parsed token claims
	ContextKeyClaims ContextKey = "claims"
)

// ClaimsFromContext returns the access token claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*jwt.Claims)
	return claims, ok && claims != nil
}

// UserIDFromContext returns the subject of the access token RequireAuth accepted.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyUserID).(string)
	return id
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth validates a Bearer access token. Every failure, whether the
// token is missing, expired or forged, gets the same 401 answer.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeMessage(w, http.StatusUnauthorized, auth.MessageUnauthorized)
				return
			}

			result := s.deps.Verifier.CheckAccess(raw)
			if s.metrics != nil {
				s.metrics.Verification(string(token.KindAccess), result.Status.String())
			}
			if result.Status != token.StatusValid {
				log.Debug().
					Str("path", r.URL.Path).
					Str("status", result.Status.String()).
					AnErr("reason", result.Reason).
					Msg("access token rejected")
				writeMessage(w, http.StatusUnauthorized, auth.MessageUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, result.Claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyClaims, result.Claims)
			next(w, r.WithContext(ctx))
		}
	}
}
