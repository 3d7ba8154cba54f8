package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an authentication failure so callers can react to it
// without inspecting messages.
type Kind int

const (
	KindUnknown Kind = iota

	// Authentication errors
	KindInvalidCredentials
	KindUserNotFound

	// Token errors
	KindTokenExpired
	KindTokenInvalid
	KindInvalidRefreshToken

	// Codec errors
	KindMalformedToken
	KindSignatureInvalid
	KindAlgorithmNotAllowed

	// Client errors
	KindNoAccessToken
	KindNoRefreshToken
	KindRefreshFailed
	KindAuthenticationFailed
	KindRequestFailed

	// Session errors
	KindSessionNotFound

	// General errors
	KindInternal
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown error",
	KindInvalidCredentials:   "invalid credentials",
	KindUserNotFound:         "user not found",
	KindTokenExpired:         "token expired",
	KindTokenInvalid:         "token invalid",
	KindInvalidRefreshToken:  "invalid refresh token",
	KindMalformedToken:       "malformed token",
	KindSignatureInvalid:     "signature invalid",
	KindAlgorithmNotAllowed:  "algorithm not allowed",
	KindNoAccessToken:        "no access token",
	KindNoRefreshToken:       "no refresh token",
	KindRefreshFailed:        "refresh failed",
	KindAuthenticationFailed: "authentication failed",
	KindRequestFailed:        "request failed",
	KindSessionNotFound:      "session not found",
	KindInternal:             "internal error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the structured error value shared by every package in the module.
// Op names the operation that failed, Status carries an HTTP status when the
// failure came from a remote call.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("[%s] %s", e.Op, msg)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of Op, Status or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidCredentials   = &Error{Kind: KindInvalidCredentials}
	ErrUserNotFound         = &Error{Kind: KindUserNotFound}
	ErrTokenExpired         = &Error{Kind: KindTokenExpired}
	ErrTokenInvalid         = &Error{Kind: KindTokenInvalid}
	ErrInvalidRefreshToken  = &Error{Kind: KindInvalidRefreshToken}
	ErrMalformedToken       = &Error{Kind: KindMalformedToken}
	ErrSignatureInvalid     = &Error{Kind: KindSignatureInvalid}
	ErrAlgorithmNotAllowed  = &Error{Kind: KindAlgorithmNotAllowed}
	ErrNoAccessToken        = &Error{Kind: KindNoAccessToken}
	ErrNoRefreshToken       = &Error{Kind: KindNoRefreshToken}
	ErrRefreshFailed        = &Error{Kind: KindRefreshFailed}
	ErrAuthenticationFailed = &Error{Kind: KindAuthenticationFailed}
	ErrRequestFailed        = &Error{Kind: KindRequestFailed}
	ErrSessionNotFound      = &Error{Kind: KindSessionNotFound}
	ErrInternal             = &Error{Kind: KindInternal}
)

// New creates an error of the given kind for an operation.
func New(kind Kind, op string) error {
	return &Error{Kind: kind, Op: op}
}

// Wrap creates an error of the given kind that wraps an underlying cause.
func Wrap(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithStatus creates an error that records the HTTP status of a failed remote call.
func WithStatus(kind Kind, op string, status int, err error) error {
	return &Error{Kind: kind, Op: op, Status: status, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusOf returns the first non-zero HTTP status recorded in err's chain.
func StatusOf(err error) int {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Status != 0 {
			return e.Status
		}
		err = errors.Unwrap(err)
	}
	return 0
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
