package token

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-token-auth/token/jwt"
	"github.com/jrsteele09/go-token-auth/token/keys"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour // 7 days
)

// Issuer builds signed access and refresh tokens for a user identity.
type Issuer struct {
	accessKey  keys.SigningKey
	refreshKey keys.SigningKey
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
}

type IssuerOption func(*Issuer)

func WithAccessTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTTL = ttl
	}
}

func WithRefreshTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.refreshTTL = ttl
	}
}

// WithRefreshSigningKey signs refresh tokens with their own key.
func WithRefreshSigningKey(key keys.SigningKey) IssuerOption {
	return func(i *Issuer) {
		i.refreshKey = key
	}
}

func WithIssuerNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func NewIssuer(key keys.SigningKey, options ...IssuerOption) (*Issuer, error) {
	if key == nil {
		return nil, errors.New("[NewIssuer] signing key is required")
	}

	i := &Issuer{
		accessKey:  key,
		refreshKey: key,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(i)
	}

	if i.refreshKey == nil {
		return nil, errors.New("[NewIssuer] refresh signing key is required")
	}
	if i.accessTTL < time.Second || i.refreshTTL < time.Second {
		return nil, errors.New("[NewIssuer] token TTLs must be at least one second")
	}
	return i, nil
}

func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}

func (i *Issuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

func (i *Issuer) IssueAccessToken(identity Identity) (string, error) {
	return i.issue(identity, KindAccess, i.accessKey, i.accessTTL)
}

func (i *Issuer) IssueRefreshToken(identity Identity) (string, error) {
	return i.issue(identity, KindRefresh, i.refreshKey, i.refreshTTL)
}

// IssuePair issues both tokens from the same instant.
func (i *Issuer) IssuePair(identity Identity) (Pair, error) {
	access, err := i.IssueAccessToken(identity)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.IssueRefreshToken(identity)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) issue(identity Identity, kind Kind, key keys.SigningKey, ttl time.Duration) (string, error) {
	if identity.ID == "" {
		return "", errors.New("[Issuer.issue] identity ID is required")
	}

	// NumericDate has second precision, so exp - iat stays exactly ttl.
	issuedAt := i.nowFunc().Truncate(time.Second)
	claims := jwt.Claims{
		Name:     identity.Name,
		Email:    identity.Email,
		TokenUse: string(kind),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwtlib.NewNumericDate(issuedAt),
			ExpiresAt: jwtlib.NewNumericDate(issuedAt.Add(ttl.Truncate(time.Second))),
			ID:        uuid.New().String(),
		},
	}
	return jwt.Encode(jwt.NewHeader(key), claims, key)
}
