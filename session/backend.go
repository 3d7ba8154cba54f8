package session

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-token-auth/token"
)

// Backend holds token pairs for ServerStore, keyed by session id.
type Backend interface {
	// Get returns nil, nil for an unknown or expired id.
	Get(ctx context.Context, id string) (*token.Pair, error)
	Put(ctx context.Context, id string, pair token.Pair, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	pair      token.Pair
	expiresAt time.Time
}

// MemoryBackend keeps sessions in process. Expired entries are dropped when read.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	nowFunc  func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		sessions: make(map[string]memoryEntry),
		nowFunc:  time.Now,
	}
}

// WithClock replaces the backend clock.
func (m *MemoryBackend) WithClock(now func() time.Time) *MemoryBackend {
	m.nowFunc = now
	return m
}

func (m *MemoryBackend) Get(_ context.Context, id string) (*token.Pair, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.After(m.nowFunc()) {
		_ = m.Delete(context.Background(), id)
		return nil, nil
	}
	pair := entry.pair
	return &pair, nil
}

func (m *MemoryBackend) Put(_ context.Context, id string, pair token.Pair, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = memoryEntry{pair: pair, expiresAt: m.nowFunc().Add(ttl)}
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are held, expired ones included.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
