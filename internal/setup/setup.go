// Package setup turns configuration into the collaborators the binaries run with.
package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/jrsteele09/go-token-auth/internal/config"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/jrsteele09/go-token-auth/token/keys"
	"github.com/jrsteele09/go-token-auth/users"
	fakeuserrepo "github.com/jrsteele09/go-token-auth/users/repofake"
	"github.com/jrsteele09/go-token-auth/users/sqlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logging sets the global level and, outside production, switches to the console writer.
func Logging(cfg config.EnvConfig) error {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		return fmt.Errorf("[setup.Logging] invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}

// Keys holds the token key material of the auth server.
type Keys struct {
	Signing      keys.SigningKey
	Verification keys.VerificationKey
	JWKS         *keys.JWKS // nil for HS256
}

// SigningKeys loads the configured key material. Asymmetric keys are read
// from the configured PEM files and generated there on first start.
func SigningKeys(cfg config.TokenConfig) (Keys, error) {
	alg := cfg.GetSigningAlgorithm()
	if alg == keys.HS256 {
		secret, err := keys.NewHMACSecret(cfg.GetHMACSecret())
		if err != nil {
			return Keys{}, err
		}
		return Keys{Signing: secret, Verification: secret}, nil
	}

	kp, generated, err := keys.LoadOrGenerateKeyPair(cfg.GetKeyID(), alg, cfg.GetPrivateKeyPath(), cfg.GetPublicKeyPath())
	if err != nil {
		return Keys{}, fmt.Errorf("[setup.SigningKeys] %w", err)
	}
	if generated {
		log.Info().Str("alg", alg).Str("public_key", cfg.GetPublicKeyPath()).Msg("Generated a new signing key pair")
	}
	jwks, err := kp.JWKS()
	if err != nil {
		return Keys{}, err
	}
	return Keys{Signing: kp.Signing(), Verification: kp.Verification(), JWKS: jwks}, nil
}

// VerificationKey is the key a resource holder without the private key checks tokens with.
func VerificationKey(cfg config.TokenConfig) (keys.VerificationKey, error) {
	if cfg.GetSigningAlgorithm() == keys.HS256 {
		secret, err := keys.NewHMACSecret(cfg.GetHMACSecret())
		if err != nil {
			return nil, err
		}
		return secret, nil
	}
	key, err := keys.LoadPublicKeyFile(cfg.GetKeyID(), cfg.GetPublicKeyPath())
	if err != nil {
		return nil, fmt.Errorf("[setup.VerificationKey] %w", err)
	}
	if key.Algorithm() != cfg.GetSigningAlgorithm() {
		return nil, fmt.Errorf("[setup.VerificationKey] public key is %s, configured algorithm is %s", key.Algorithm(), cfg.GetSigningAlgorithm())
	}
	return key, nil
}

func Issuer(cfg config.TokenConfig, key keys.SigningKey) (*token.Issuer, error) {
	return token.NewIssuer(key,
		token.WithAccessTTL(cfg.GetAccessTokenTTL()),
		token.WithRefreshTTL(cfg.GetRefreshTokenTTL()),
	)
}

// UserRepo opens the SQLite user database, or an in-memory repo when no
// database path is configured. The close function is always safe to call.
func UserRepo(cfg config.StorageConfig) (users.Repo, func() error, error) {
	path := cfg.GetUserDatabasePath()
	if path == "" {
		log.Warn().Msg("No user database configured, users are kept in memory")
		return fakeuserrepo.NewFakeUserRepo(), func() error { return nil }, nil
	}
	repo, err := sqlite.NewUserRepo(path)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}
