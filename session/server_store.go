package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-token-auth/token"
)

var _ Store = (*ServerStore)(nil)

// ServerStore keeps pairs in a Backend. The cookie carries only a random
// session id. Every Save extends the session by the full TTL.
type ServerStore struct {
	backend Backend
	ttl     time.Duration
	cookie  cookieOptions
}

func NewServerStore(backend Backend, ttl time.Duration, options ...Option) (*ServerStore, error) {
	if backend == nil {
		return nil, errors.New("[NewServerStore] backend is required")
	}
	if ttl <= 0 {
		return nil, errors.New("[NewServerStore] ttl must be positive")
	}

	s := &ServerStore{backend: backend, ttl: ttl, cookie: defaultCookieOptions()}
	for _, opt := range options {
		opt(&s.cookie)
	}
	return s, nil
}

func (s *ServerStore) Load(r *http.Request) (*token.Pair, error) {
	id := s.cookie.value(r)
	if id == "" {
		return nil, nil
	}
	return s.backend.Get(r.Context(), id)
}

// Save reuses the request's session id only while the backend still holds a
// session under it. Any other id, well formed or not, is replaced.
func (s *ServerStore) Save(w http.ResponseWriter, r *http.Request, pair token.Pair) error {
	id := s.cookie.value(r)
	if id != "" {
		held, err := s.backend.Get(r.Context(), id)
		if err != nil {
			return err
		}
		if held == nil {
			id = ""
		}
	}
	if id == "" {
		id = uuid.New().String()
	}
	return s.put(w, r, id, pair)
}

func (s *ServerStore) Renew(w http.ResponseWriter, r *http.Request, pair token.Pair) error {
	if old := s.cookie.value(r); old != "" {
		if err := s.backend.Delete(r.Context(), old); err != nil {
			return err
		}
	}
	return s.put(w, r, uuid.New().String(), pair)
}

func (s *ServerStore) put(w http.ResponseWriter, r *http.Request, id string, pair token.Pair) error {
	if err := s.backend.Put(r.Context(), id, pair, s.ttl); err != nil {
		return err
	}
	s.cookie.set(w, id, s.ttl)
	return nil
}

func (s *ServerStore) Destroy(w http.ResponseWriter, r *http.Request) error {
	defer s.cookie.expire(w)

	id := s.cookie.value(r)
	if id == "" {
		return nil
	}
	return s.backend.Delete(r.Context(), id)
}
