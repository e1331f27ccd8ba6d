package service

import (
	"context"
	"sync"
	"time"

	"autofill-workbench/internal/domain"

	"github.com/google/uuid"
)

// SessionManager owns every live session and reaps idle ones.
type SessionManager struct {
	deps *SessionDeps
	ttl  time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager. A non-positive ttl disables reaping.
func NewSessionManager(deps *SessionDeps, ttl time.Duration) *SessionManager {
	return &SessionManager{
		deps:     deps,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new empty session.
func (m *SessionManager) Create() *Session {
	sess := NewSession(uuid.New().String(), m.deps)
	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()
	m.deps.Logger.Debug("Session created", "session_id", sess.ID())
	return sess
}

// Get returns the session with the given id.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
func (m *SessionManager) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if sess, err := m.Get(id); err == nil {
			return sess, false
		}
	}
	return m.Create(), true
}

// Remove resets and forgets a session.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		sess.Reset()
	}
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap removes sessions idle since before now minus the TTL and returns
// how many were removed.
func (m *SessionManager) Reap(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-m.ttl)

	m.mu.RLock()
	var idle []string
	for id, sess := range m.sessions {
		if sess.LastActive().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range idle {
		m.Remove(id)
	}
	if len(idle) > 0 {
		m.deps.Logger.Info("Reaped idle sessions", "count", len(idle), "remaining", m.Len())
	}
	return len(idle)
}

// Run reaps idle sessions every interval until ctx is done.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap(m.deps.now())
		}
	}
}

// Shutdown resets every session and waits for pending archive uploads.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, sess := range m.sessions {
		sessions = append(sessions, sess)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Reset()
		sess.Wait()
	}
}
