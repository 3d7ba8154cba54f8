package config

import (
	"path/filepath"
	"time"
)

type TokenConfig interface {
	GetSigningAlgorithm() string
	GetHMACSecret() string
	GetKeyID() string
	GetPrivateKeyPath() string
	GetPublicKeyPath() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

type Tokens struct {
	file *FileSettings
}

var _ TokenConfig = Tokens{}

// GetSigningAlgorithm returns HS256, RS256 or ES256.
func (t Tokens) GetSigningAlgorithm() string {
	return lookup("JWT_ALGORITHM", t.file.Token.Algorithm, "RS256")
}

func (t Tokens) GetHMACSecret() string {
	return lookup("JWT_SECRET", t.file.Token.Secret, "")
}

func (t Tokens) GetKeyID() string {
	return lookup("JWT_KEY_ID", t.file.Token.KeyID, "default")
}

func (t Tokens) GetPrivateKeyPath() string {
	return lookup("JWT_PRIVATE_KEY_PATH", t.file.Token.PrivateKeyPath, filepath.Join(t.dataFolder(), "jwt_private.pem"))
}

func (t Tokens) GetPublicKeyPath() string {
	return lookup("JWT_PUBLIC_KEY_PATH", t.file.Token.PublicKeyPath, filepath.Join(t.dataFolder(), "jwt_public.pem"))
}

func (t Tokens) GetAccessTokenTTL() time.Duration {
	return lookupDuration("ACCESS_TOKEN_TTL", t.file.Token.AccessTTL, 15*time.Minute)
}

func (t Tokens) GetRefreshTokenTTL() time.Duration {
	return lookupDuration("REFRESH_TOKEN_TTL", t.file.Token.RefreshTTL, 7*24*time.Hour) // 7 days
}

func (t Tokens) dataFolder() string {
	return Storage(t).GetDataFolder()
}
