package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-token-auth/auth"
	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/users"
	"github.com/rs/zerolog/log"
)

const defaultPageSize = 50

type userRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (s *Server) writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	if autherrors.KindOf(err) == autherrors.KindUserNotFound {
		writeMessage(w, http.StatusNotFound, auth.MessageUserNotFound)
		return
	}
	log.Err(err).Str("path", r.URL.Path).Msg("User request failed")
	writeMessage(w, http.StatusInternalServerError, auth.MessageInternal)
}

// emailTaken reports whether email belongs to a user other than id.
func (s *Server) emailTaken(r *http.Request, email, id string) (bool, error) {
	existing, err := s.deps.Users.GetByEmail(r.Context(), email)
	if err != nil {
		if autherrors.KindOf(err) == autherrors.KindUserNotFound {
			return false, nil
		}
		return false, err
	}
	return existing.ID != id, nil
}

func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			limit = defaultPageSize
		}

		list, err := s.deps.Users.List(r.Context(), max(offset, 0), limit)
		if err != nil {
			s.writeUserError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) GetUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.deps.Users.GetByID(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeUserError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// CreateUserHandler registers a user from {name, email, password}. Passwords
// must pass users.ValidatePasswordStrength.
func (s *Server) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Email == nil || strings.TrimSpace(*req.Email) == "" || req.Password == nil {
			writeMessage(w, http.StatusBadRequest, "Email and password are required")
			return
		}
		if err := users.ValidatePasswordStrength(*req.Password); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		taken, err := s.emailTaken(r, *req.Email, "")
		if err != nil {
			s.writeUserError(w, r, err)
			return
		}
		if taken {
			writeMessage(w, http.StatusConflict, "Email already registered")
			return
		}

		name := ""
		if req.Name != nil {
			name = *req.Name
		}
		user, err := users.NewUser(name, *req.Email, *req.Password)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.deps.Users.Upsert(r.Context(), user); err != nil {
			s.writeUserError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

// UpdateUserHandler applies the fields present in the body.
func (s *Server) UpdateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.deps.Users.GetByID(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeUserError(w, r, err)
			return
		}

		var req userRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			email := users.NormalizeEmail(*req.Email)
			if email == "" {
				writeMessage(w, http.StatusBadRequest, "Email cannot be empty")
				return
			}
			taken, err := s.emailTaken(r, email, user.ID)
			if err != nil {
				s.writeUserError(w, r, err)
				return
			}
			if taken {
				writeMessage(w, http.StatusConflict, "Email already registered")
				return
			}
			user.Email = email
		}
		if req.Password != nil {
			if err := users.ValidatePasswordStrength(*req.Password); err != nil {
				writeMessage(w, http.StatusBadRequest, err.Error())
				return
			}
			if err := user.SetPassword(*req.Password); err != nil {
				s.writeUserError(w, r, err)
				return
			}
		}

		if err := s.deps.Users.Upsert(r.Context(), user); err != nil {
			s.writeUserError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func (s *Server) DeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == UserIDFromContext(r.Context()) {
			writeMessage(w, http.StatusConflict, "Cannot delete the signed in user")
			return
		}
		if err := s.deps.Users.Delete(r.Context(), id); err != nil {
			s.writeUserError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
