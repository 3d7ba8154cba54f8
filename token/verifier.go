package token

import (
	"errors"
	"fmt"
	"time"

	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/token/jwt"
	"github.com/jrsteele09/go-token-auth/token/keys"
)

// Status is the outcome of checking a presented token.
type Status int

const (
	StatusInvalid Status = iota
	StatusValid
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// Result is Valid(Claims), Expired, or Invalid(Reason).
type Result struct {
	Status Status
	Claims *jwt.Claims
	Reason error
}

// Err converts the result into a TokenExpired or TokenInvalid error, or nil when valid.
func (r Result) Err(op string) error {
	switch r.Status {
	case StatusValid:
		return nil
	case StatusExpired:
		return autherrors.New(autherrors.KindTokenExpired, op)
	default:
		return autherrors.Wrap(autherrors.KindTokenInvalid, op, r.Reason)
	}
}

// Verifier validates presented tokens: signature, algorithm, intended use and expiry.
type Verifier struct {
	accessKey  keys.VerificationKey
	refreshKey keys.VerificationKey
	nowFunc    func() time.Time
}

type VerifierOption func(*Verifier)

// WithRefreshVerificationKey verifies refresh tokens with their own key.
func WithRefreshVerificationKey(key keys.VerificationKey) VerifierOption {
	return func(v *Verifier) {
		v.refreshKey = key
	}
}

func WithVerifierNowFunc(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.nowFunc = now
	}
}

func NewVerifier(key keys.VerificationKey, options ...VerifierOption) (*Verifier, error) {
	if key == nil {
		return nil, errors.New("[NewVerifier] verification key is required")
	}

	v := &Verifier{
		accessKey:  key,
		refreshKey: key,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(v)
	}

	if v.refreshKey == nil {
		return nil, errors.New("[NewVerifier] refresh verification key is required")
	}
	return v, nil
}

// Check verifies raw as a token of the given kind. Only the verification
// key's own algorithm is allowed.
func (v *Verifier) Check(kind Kind, raw string) Result {
	key := v.accessKey
	if kind == KindRefresh {
		key = v.refreshKey
	}

	_, claims, err := jwt.Verify(raw, key, []string{key.Algorithm()})
	if err != nil {
		return Result{Status: StatusInvalid, Reason: err}
	}

	switch {
	case claims.Subject == "":
		return Result{Status: StatusInvalid, Reason: errors.New("token has no subject")}
	case claims.TokenUse != string(kind):
		return Result{Status: StatusInvalid, Reason: fmt.Errorf("token use %q presented as %s token", claims.TokenUse, kind)}
	case claims.ExpiresAt == nil:
		return Result{Status: StatusInvalid, Reason: errors.New("token has no expiry")}
	}

	if !claims.ExpiresAt.After(v.nowFunc()) {
		return Result{Status: StatusExpired}
	}
	return Result{Status: StatusValid, Claims: claims}
}

// CheckAccess is Check for access tokens.
func (v *Verifier) CheckAccess(raw string) Result {
	return v.Check(KindAccess, raw)
}

func (v *Verifier) VerifyAccess(raw string) (*jwt.Claims, error) {
	r := v.Check(KindAccess, raw)
	return r.Claims, r.Err("Verifier.VerifyAccess")
}

func (v *Verifier) VerifyRefresh(raw string) (*jwt.Claims, error) {
	r := v.Check(KindRefresh, raw)
	return r.Claims, r.Err("Verifier.VerifyRefresh")
}
