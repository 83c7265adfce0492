package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager keeps the live sessions of the service.
type Manager struct {
	classifier Classifier
	dispatcher Dispatcher
	opts       Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(c Classifier, d Dispatcher, opts Options) *Manager {
	return &Manager{
		classifier: c,
		dispatcher: d,
		opts:       opts,
		sessions:   make(map[string]*Session),
	}
}

// Create opens a new idle session.
func (m *Manager) Create() *Session {
	s := newSession(uuid.New().String(), m.classifier, m.dispatcher, m.opts)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close tears a session down and forgets it.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return s.Close(ctx)
}

// CloseAll is called on shutdown so no preview handle outlives the process.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for id, s := range all {
		if err := s.Close(ctx); err != nil {
			log.Printf("session close failed session=%s error=%v", id, err)
		}
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than maxIdle and returns how many.
func (m *Manager) Sweep(ctx context.Context, maxIdle time.Duration) int {
	cut := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cut) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		if err := s.Close(ctx); err != nil {
			log.Printf("session close failed session=%s error=%v", s.ID, err)
		}
	}
	return len(stale)
}

// Janitor sweeps idle sessions every interval until ctx is done.
func (m *Manager) Janitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(ctx, maxIdle); n > 0 {
				log.Printf("idle sessions closed count=%d", n)
			}
		}
	}
}
