package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jrsteele09/go-token-auth/auth"
	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// decodeJSON reads a JSON body. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeAuthError answers a login or refresh failure with its stable message.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := auth.ResponseFor(err)
	if status >= http.StatusInternalServerError {
		log.Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeMessage(w, status, message)
}

// LoginHandler exchanges {email, password} for a token pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		pair, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

// RefreshTokenHandler rotates a pair. The refresh token is read from the
// bearer header, or from a JSON body field refresh_token.
func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			var req refreshRequest
			if err := decodeJSON(w, r, &req); err == nil {
				raw = req.RefreshToken
			}
		}
		if raw == "" {
			writeAuthError(w, r, autherrors.New(autherrors.KindNoRefreshToken, "RefreshTokenHandler"))
			return
		}

		pair, err := s.deps.Auth.Refresh(r.Context(), raw)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

// ProtectedHandler is the sample resource behind RequireAuth.
func (s *Server) ProtectedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, auth.MessageUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Protected resource",
			"user": map[string]string{
				"id":    claims.Subject,
				"name":  claims.Name,
				"email": claims.Email,
			},
		})
	}
}

// JWKSHandler publishes the verification keys. Servers signing with a shared
// secret publish an empty set.
func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.JWKS == nil {
			writeJSON(w, http.StatusOK, map[string][]any{"keys": {}})
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, s.deps.JWKS)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
