package auth

import (
	"errors"
	"net/http"

	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
)

// Client facing messages. They are part of the HTTP contract and must not
// change.
const (
	MessageInvalidCredentials  = "Invalid credentials"
	MessageTokenNotProvided    = "Token not provided"
	MessageTokenExpired        = "Token expired"
	MessageInvalidRefreshToken = "Invalid refresh token"
	MessageUserNotFound        = "User not found"
	MessageUnauthorized        = "Unauthorized"
	MessageInternal            = "Internal server error"
)

// ResponseFor maps a Login or Refresh error to the HTTP status and message
// returned to the caller.
func ResponseFor(err error) (int, string) {
	switch autherrors.KindOf(err) {
	case autherrors.KindInvalidCredentials:
		return http.StatusUnauthorized, MessageInvalidCredentials
	case autherrors.KindNoRefreshToken, autherrors.KindNoAccessToken:
		return http.StatusUnauthorized, MessageTokenNotProvided
	case autherrors.KindInvalidRefreshToken:
		if errors.Is(err, autherrors.ErrTokenExpired) {
			return http.StatusUnauthorized, MessageTokenExpired
		}
		return http.StatusUnauthorized, MessageInvalidRefreshToken
	case autherrors.KindTokenExpired:
		return http.StatusUnauthorized, MessageTokenExpired
	case autherrors.KindUserNotFound:
		return http.StatusUnauthorized, MessageUserNotFound
	default:
		return http.StatusInternalServerError, MessageInternal
	}
}
