// Package conversation owns per-session short-term state: a bounded turn
// history plus learned preferences (e.g. a default weather location). All
// access is scoped to a session id; there is no lookup by content, so one
// session can never observe another's state.
package conversation

import (
	"sync"

	"buddy-agent/internal/domain"
)

const defaultMaxTurns = 10

// Manager holds conversation state for all live sessions. Operations on
// different sessions proceed independently; the engine serializes turns
// within one session, so per-session state needs no finer locking than the
// map guard here.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	maxTurns int
}

type session struct {
	turns []domain.Turn
	prefs map[string]string
}

// NewManager creates a Manager keeping at most maxTurns turns per session.
// Non-positive values fall back to the default bound.
func NewManager(maxTurns int) *Manager {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &Manager{
		sessions: make(map[string]*session),
		maxTurns: maxTurns,
	}
}

// getLocked returns the session state, creating an empty one if absent.
// Never fails. Callers must hold m.mu.
func (m *Manager) getLocked(sessionID string) *session {
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &session{prefs: make(map[string]string)}
		m.sessions[sessionID] = s
	}
	return s
}

// History returns a copy of the session's turns, oldest first.
func (m *Manager) History(sessionID string) []domain.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Append adds a completed turn, evicting the oldest once the bound is
// exceeded. Appended turns are never mutated.
func (m *Manager) Append(sessionID string, turn domain.Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getLocked(sessionID)
	s.turns = append(s.turns, turn)
	if len(s.turns) > m.maxTurns {
		s.turns = s.turns[len(s.turns)-m.maxTurns:]
	}
}

// Preference returns a learned session preference.
func (m *Manager) Preference(sessionID, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return "", false
	}
	v, ok := s.prefs[key]
	return v, ok
}

// SetPreference stores a learned session preference.
func (m *Manager) SetPreference(sessionID, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getLocked(sessionID).prefs[key] = value
}

// Drop discards all state for a session. The session layer calls this on
// timeout; the engine itself never expires sessions.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// View returns a handler-facing view of one session: read-only history plus
// preference access. Handlers cannot rewrite history through it.
func (m *Manager) View(sessionID string) *View {
	return &View{m: m, sessionID: sessionID}
}

// View is the read-mostly session handle passed to skill handlers.
type View struct {
	m         *Manager
	sessionID string
}

// History returns up to limit most recent turns, oldest first. A non-positive
// limit returns the full bounded history.
func (v *View) History(limit int) []domain.Turn {
	turns := v.m.History(v.sessionID)
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns
}

// Preference returns a learned session preference.
func (v *View) Preference(key string) (string, bool) {
	return v.m.Preference(v.sessionID, key)
}

// SetPreference stores a learned session preference.
func (v *View) SetPreference(key, value string) {
	v.m.SetPreference(v.sessionID, key, value)
}
