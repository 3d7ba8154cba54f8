package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/users"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAdminName     = "Admin User"
	DefaultAdminEmail    = "admin@user.com"
	DefaultAdminPassword = "admin"
)

// InitialiseSystem makes sure the admin user exists. Development servers get
// the well known fixture password; elsewhere a random one is generated and
// logged once. Returns the password when the user was created.
func (s *Server) InitialiseSystem(ctx context.Context) (generatedPassword string, err error) {
	_, err = s.deps.Users.GetByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		return "", nil
	}
	if autherrors.KindOf(err) != autherrors.KindUserNotFound {
		return "", fmt.Errorf("[Server InitialiseSystem] failed to look up admin user: %w", err)
	}

	password := DefaultAdminPassword
	if s.config.IsProduction() {
		if password, err = generatePassword(); err != nil {
			return "", fmt.Errorf("[Server InitialiseSystem] failed to generate admin password: %w", err)
		}
	}

	admin, err := users.NewUser(DefaultAdminName, DefaultAdminEmail, password)
	if err != nil {
		return "", fmt.Errorf("[Server InitialiseSystem] failed to create admin user: %w", err)
	}
	if err := s.deps.Users.Upsert(ctx, admin); err != nil {
		return "", fmt.Errorf("[Server InitialiseSystem] failed to store admin user: %w", err)
	}

	log.Info().
		Str("email", DefaultAdminEmail).
		Str("password", password).
		Msg("Admin user created - save this password, it will not be displayed again")
	return password, nil
}

func generatePassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
