package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/branchplay/branchplay/internal/scene"
)

const DefaultMaxSessions = 10000

var ErrTooManySessions = errors.New("too many active playback sessions")

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Manager owns the live playback sessions of this process.
type Manager struct {
	catalog     *scene.Catalog
	maxSessions int
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewManager(c *scene.Catalog, maxSessions int) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Manager{
		catalog:     c,
		maxSessions: maxSessions,
		now:         time.Now,
		sessions:    make(map[string]*entry),
	}
}

// Create resolves sceneID once and starts a session on that copy. Later
// catalog edits do not affect running sessions.
func (m *Manager) Create(sceneID string, duration float64) (*Session, error) {
	sc := m.catalog.Resolve(sceneID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) >= m.maxSessions {
		return nil, ErrTooManySessions
	}

	now := m.now()
	s, err := newSession(uuid.NewString(), sc, now)
	if err != nil {
		return nil, fmt.Errorf("create session for scene %s: %w", sceneID, err)
	}
	if duration > 0 {
		s.SetDuration(duration)
	}
	m.sessions[s.ID] = &entry{session: s, lastSeen: now}
	return s, nil
}

// Get returns the session and marks it active.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = m.now()
	return e.session, true
}

func (m *Manager) End(id string) bool {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		e.session.closeLive()
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// PurgeIdle ends sessions that have not been touched for maxIdle and
// returns how many were removed.
func (m *Manager) PurgeIdle(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.closeLive()
	}
	return len(stale)
}

func StartIdleSweeper(ctx context.Context, m *Manager, interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("session sweeper: shutting down")
				return
			case <-ticker.C:
				if n := m.PurgeIdle(maxIdle); n > 0 {
					slog.Info("session sweeper: purged idle sessions", "count", n, "active", m.Len())
				}
			}
		}
	}()
}
