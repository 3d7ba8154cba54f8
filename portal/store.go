package portal

import (
	"fmt"

	"github.com/jrsteele09/go-token-auth/internal/config"
	"github.com/jrsteele09/go-token-auth/session"
	"github.com/redis/go-redis/v9"
)

// NewStore builds the session store selected by the configuration. The
// returned close function releases the Redis client when one was opened.
func NewStore(cfg config.Config) (session.Store, func() error, error) {
	noop := func() error { return nil }
	ttl := cfg.GetSessionTTL()
	options := []session.Option{session.WithSecureCookies(cfg.IsProduction())}

	switch mode := cfg.GetSessionMode(); mode {
	case config.SessionModeStateless:
		store, err := session.NewSealedCookieStore(cfg.GetSessionPassword(), ttl, options...)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case config.SessionModeStateful:
		switch backend := cfg.GetSessionBackend(); backend {
		case config.SessionBackendMemory:
			store, err := session.NewServerStore(session.NewMemoryBackend(), ttl, options...)
			if err != nil {
				return nil, noop, err
			}
			return store, noop, nil
		case config.SessionBackendRedis:
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.GetRedisAddr(),
				Password: cfg.GetRedisPassword(),
			})
			redisBackend, err := session.NewRedisBackend(rdb, "")
			if err != nil {
				_ = rdb.Close()
				return nil, noop, err
			}
			store, err := session.NewServerStore(redisBackend, ttl, options...)
			if err != nil {
				_ = rdb.Close()
				return nil, noop, err
			}
			return store, rdb.Close, nil
		default:
			return nil, noop, fmt.Errorf("[portal.NewStore] unknown session backend %q", backend)
		}

	default:
		return nil, noop, fmt.Errorf("[portal.NewStore] unknown session mode %q", mode)
	}
}
