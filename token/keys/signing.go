package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWT algorithms (string values used in JWKs and headers)
const (
	HS256 = "HS256"
	RS256 = "RS256"
	ES256 = "ES256"
)

// SigningKey is key material able to produce signatures for one algorithm.
type SigningKey interface {
	Algorithm() string
	KeyID() string
	SigningMethod() jwt.SigningMethod
	SignKey() any
}

// VerificationKey is key material able to check signatures for one algorithm.
// For asymmetric algorithms it only ever holds a public key.
type VerificationKey interface {
	Algorithm() string
	KeyID() string
	VerifyKey() any
}

// SigningMethod maps an algorithm name to its golang-jwt implementation.
func SigningMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case HS256:
		return jwt.SigningMethodHS256, nil
	case RS256:
		return jwt.SigningMethodRS256, nil
	case ES256:
		return jwt.SigningMethodES256, nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm: %q", alg)
	}
}

// HMACSecret is a shared secret for HS256. It signs and verifies.
type HMACSecret struct {
	secret []byte
}

var (
	_ SigningKey      = HMACSecret{}
	_ VerificationKey = HMACSecret{}
)

func NewHMACSecret(secret string) (HMACSecret, error) {
	if secret == "" {
		return HMACSecret{}, errors.New("[NewHMACSecret] secret is required")
	}
	return HMACSecret{secret: []byte(secret)}, nil
}

func (HMACSecret) Algorithm() string { return HS256 }
func (HMACSecret) KeyID() string { return "" }
func (HMACSecret) SigningMethod() jwt.SigningMethod { return jwt.SigningMethodHS256 }
func (h HMACSecret) SignKey() any { return h.secret }
func (h HMACSecret) VerifyKey() any { return h.secret }

// PrivateKey signs with RS256 or ES256.
type PrivateKey struct {
	keyID string
	alg   string
	key   crypto.Signer
}

var _ SigningKey = PrivateKey{}

func (p PrivateKey) Algorithm() string { return p.alg }
func (p PrivateKey) KeyID() string { return p.keyID }
func (p PrivateKey) SignKey() any { return p.key }

func (p PrivateKey) SigningMethod() jwt.SigningMethod {
	method, _ := SigningMethod(p.alg)
	return method
}

// Public returns the verification half of the key.
func (p PrivateKey) Public() PublicKey {
	return PublicKey{keyID: p.keyID, alg: p.alg, key: p.key.Public()}
}

// PublicKey verifies RS256 or ES256 signatures.
type PublicKey struct {
	keyID string
	alg   string
	key   crypto.PublicKey
}

var _ VerificationKey = PublicKey{}

func NewPublicKey(keyID string, key crypto.PublicKey) (PublicKey, error) {
	switch key.(type) {
	case *rsa.PublicKey:
		return PublicKey{keyID: keyID, alg: RS256, key: key}, nil
	case *ecdsa.PublicKey:
		return PublicKey{keyID: keyID, alg: ES256, key: key}, nil
	default:
		return PublicKey{}, fmt.Errorf("unsupported public key type %T", key)
	}
}

func (p PublicKey) Algorithm() string { return p.alg }
func (p PublicKey) KeyID() string { return p.keyID }
func (p PublicKey) VerifyKey() any { return p.key }
