// Package auth exchanges credentials and refresh tokens for token pairs.
package auth

import (
	"context"
	"errors"

	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/jrsteele09/go-token-auth/users"
	"github.com/rs/zerolog"
)

// Outcome values reported to the Observer.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// UserLookup is the part of users.Repo the service reads.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// Observer is told the outcome of every Login and Refresh call.
type Observer interface {
	Login(outcome string)
	Refresh(outcome string)
}

type nopObserver struct{}

func (nopObserver) Login(string)   {}
func (nopObserver) Refresh(string) {}

// Service authenticates users and rotates token pairs.
type Service struct {
	users    UserLookup
	issuer   *token.Issuer
	verifier *token.Verifier
	logger   zerolog.Logger
	observer Observer
}

type ServiceOption func(*Service)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithObserver reports call outcomes, typically to a metrics.Recorder.
func WithObserver(observer Observer) ServiceOption {
	return func(s *Service) {
		if observer != nil {
			s.observer = observer
		}
	}
}

func NewService(lookup UserLookup, issuer *token.Issuer, verifier *token.Verifier, options ...ServiceOption) (*Service, error) {
	if lookup == nil {
		return nil, errors.New("[NewService] user lookup is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewService] issuer is required")
	}
	if verifier == nil {
		return nil, errors.New("[NewService] verifier is required")
	}

	s := &Service{
		users:    lookup,
		issuer:   issuer,
		verifier: verifier,
		logger:   zerolog.Nop(),
		observer: nopObserver{},
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login checks the credentials and issues a fresh pair. An unknown email and a
// wrong password fail with the same InvalidCredentials error.
func (s *Service) Login(ctx context.Context, email, password string) (token.Pair, error) {
	const op = "Service.Login"

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if autherrors.KindOf(err) == autherrors.KindUserNotFound {
			s.observer.Login(OutcomeFailure)
			return token.Pair{}, autherrors.New(autherrors.KindInvalidCredentials, op)
		}
		s.observer.Login(OutcomeError)
		s.logger.Err(err).Str("op", op).Msg("user lookup failed")
		return token.Pair{}, autherrors.Wrap(autherrors.KindInternal, op, err)
	}

	if !user.VerifyCredential(password) {
		s.observer.Login(OutcomeFailure)
		s.logger.Debug().Str("user_id", user.ID).Msg("password mismatch")
		return token.Pair{}, autherrors.New(autherrors.KindInvalidCredentials, op)
	}

	pair, err := s.issuer.IssuePair(identityOf(user))
	if err != nil {
		s.observer.Login(OutcomeError)
		return token.Pair{}, autherrors.Wrap(autherrors.KindInternal, op, err)
	}

	s.observer.Login(OutcomeSuccess)
	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return pair, nil
}

// Refresh verifies a refresh token and issues a brand new pair for its
// subject. Nothing is issued unless the refresh token verifies.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	const op = "Service.Refresh"

	claims, err := s.verifier.VerifyRefresh(refreshToken)
	if err != nil {
		s.observer.Refresh(OutcomeFailure)
		return token.Pair{}, autherrors.Wrap(autherrors.KindInvalidRefreshToken, op, err)
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if autherrors.KindOf(err) == autherrors.KindUserNotFound {
			s.observer.Refresh(OutcomeFailure)
			return token.Pair{}, autherrors.New(autherrors.KindUserNotFound, op)
		}
		s.observer.Refresh(OutcomeError)
		return token.Pair{}, autherrors.Wrap(autherrors.KindInternal, op, err)
	}

	pair, err := s.issuer.IssuePair(identityOf(user))
	if err != nil {
		s.observer.Refresh(OutcomeError)
		return token.Pair{}, autherrors.Wrap(autherrors.KindInternal, op, err)
	}

	s.observer.Refresh(OutcomeSuccess)
	s.logger.Debug().Str("user_id", user.ID).Msg("token pair rotated")
	return pair, nil
}

func identityOf(user *users.User) token.Identity {
	return token.Identity{ID: user.ID, Name: user.Name, Email: user.Email}
}
