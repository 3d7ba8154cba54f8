package config

import "time"

const (
	SessionModeStateful  = "stateful"
	SessionModeStateless = "stateless"

	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type SessionConfig interface {
	GetSessionMode() string
	GetSessionBackend() string
	GetSessionTTL() time.Duration
	GetSessionPassword() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetAuthServerURL() string
}

type Sessions struct {
	file *FileSettings
}

var _ SessionConfig = Sessions{}

// GetSessionMode selects how the portal keeps token pairs: "stateful" keeps
// them server side behind a session id cookie, "stateless" seals them into the cookie.
func (s Sessions) GetSessionMode() string {
	return lookup("SESSION_MODE", s.file.Session.Mode, SessionModeStateful)
}

func (s Sessions) GetSessionBackend() string {
	return lookup("SESSION_BACKEND", s.file.Session.Backend, SessionBackendMemory)
}

func (s Sessions) GetSessionTTL() time.Duration {
	return lookupDuration("SESSION_TTL", s.file.Session.TTL, 7*24*time.Hour)
}

func (s Sessions) GetSessionPassword() string {
	return lookup("SESSION_PASSWORD", s.file.Session.Password, "")
}

func (s Sessions) GetRedisAddr() string {
	return lookup("REDIS_ADDR", s.file.Session.RedisAddr, "localhost:6379")
}

func (s Sessions) GetRedisPassword() string {
	return lookup("REDIS_PASSWORD", s.file.Session.RedisPassword, "")
}

func (s Sessions) GetAuthServerURL() string {
	return lookup("AUTH_SERVER_URL", s.file.Session.AuthServerURL, "http://localhost:8080")
}
