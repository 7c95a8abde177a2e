package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"evento-companion/internal/models"
)

// Manager keeps at most one open session per group.
type Manager struct {
	backend  Backend
	dialer   Dialer
	identity Identity
	logger   *zap.Logger
	listener Listener

	mu       sync.Mutex
	sessions map[models.ID]*Session
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithListener attaches l to every session the manager opens.
func WithListener(l Listener) ManagerOption {
	return func(m *Manager) { m.listener = l }
}

func NewManager(backend Backend, dialer Dialer, identity Identity, logger *zap.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		backend:  backend,
		dialer:   dialer,
		identity: identity,
		logger:   logger,
		sessions: make(map[models.ID]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a session for groupID, closing any previous session for it.
func (m *Manager) Open(ctx context.Context, groupID models.ID) (*Session, error) {
	s := NewSession(groupID, m.backend, m.dialer, m.identity, m.logger)
	if m.listener != nil {
		s.OnChange(m.listener)
	}

	m.mu.Lock()
	prior := m.sessions[groupID]
	m.sessions[groupID] = s
	m.mu.Unlock()

	if prior != nil {
		prior.Close()
	}

	if err := s.Open(ctx); err != nil {
		s.Close()
		m.mu.Lock()
		if m.sessions[groupID] == s {
			delete(m.sessions, groupID)
		}
		m.mu.Unlock()
		return nil, err
	}
	return s, nil
}

func (m *Manager) Get(groupID models.ID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[groupID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Close tears down the session for groupID and reports whether one existed.
func (m *Manager) Close(groupID models.ID) bool {
	m.mu.Lock()
	s, ok := m.sessions[groupID]
	delete(m.sessions, groupID)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[models.ID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
