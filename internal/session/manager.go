package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kotamart/storefront-backend/internal/identity"
)

const janitorInterval = time.Minute

// Manager holds one Store per browsing session, keyed by the opaque
// session cookie value. Idle stores are disposed after the configured
// TTL; carts and sessions are never shared across keys.
type Manager struct {
	provider identity.Provider
	dir      Directory
	idleTTL  time.Duration

	mu      sync.Mutex
	entries map[string]*managed

	stop     chan struct{}
	stopOnce sync.Once
}

type managed struct {
	store    *Store
	lastSeen time.Time
}

func NewManager(provider identity.Provider, dir Directory, idleTTL time.Duration) *Manager {
	m := &Manager{
		provider: provider,
		dir:      dir,
		idleTTL:  idleTTL,
		entries:  make(map[string]*managed),
		stop:     make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Create starts a fresh store under a new session ID.
func (m *Manager) Create() (string, *Store) {
	sid := uuid.New().String()
	st := New(m.provider.NewClient(), m.dir)

	m.mu.Lock()
	m.entries[sid] = &managed{store: st, lastSeen: time.Now()}
	m.mu.Unlock()

	return sid, st
}

// Get returns the store for sid, refreshing its idle clock.
func (m *Manager) Get(sid string) (*Store, bool) {
	if sid == "" {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[sid]
	if !ok {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.store, true
}

// Dispose closes and forgets the store for sid.
func (m *Manager) Dispose(sid string) {
	m.mu.Lock()
	e, ok := m.entries[sid]
	delete(m.entries, sid)
	m.mu.Unlock()

	if ok {
		e.store.Close()
	}
}

// Close disposes every store and stops the janitor.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*managed)
	m.mu.Unlock()

	for _, e := range entries {
		e.store.Close()
	}
}

func (m *Manager) janitor() {
	t := time.NewTicker(janitorInterval)
	defer t.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-t.C:
			m.evictIdle(now)
		}
	}
}

func (m *Manager) evictIdle(now time.Time) {
	var expired []*managed

	m.mu.Lock()
	for sid, e := range m.entries {
		if now.Sub(e.lastSeen) > m.idleTTL {
			delete(m.entries, sid)
			expired = append(expired, e)
		}
	}
	m.mu.Unlock()

	for _, e := range expired {
		e.store.Close()
	}
}
