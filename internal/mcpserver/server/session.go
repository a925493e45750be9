package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/erauner12/chokabridge/internal/mcpserver/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultCleanupInterval = 5 * time.Minute

// MCPSession represents an initialized Streamable HTTP client
type MCPSession struct {
	ID              string
	ClientName      string
	ProtocolVersion string
	CreatedAt       time.Time
	LastSeen        time.Time
}

// SessionManager manages MCP sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*MCPSession // sessionID -> session
	ttl      time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionManager creates a session manager that expires sessions idle for longer than ttl.
// A non-positive ttl falls back to the configured default.
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = config.SessionTTL()
	}

	mgr := &SessionManager{
		sessions: make(map[string]*MCPSession),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}

	interval := defaultCleanupInterval
	if ttl < interval {
		interval = ttl
	}

	// Start cleanup goroutine
	go mgr.cleanupExpired(interval)

	return mgr
}

// CreateSession creates a new MCP session
func (sm *SessionManager) CreateSession(clientName, protocolVersion string) *MCPSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	session := &MCPSession{
		ID:              uuid.New().String(),
		ClientName:      clientName,
		ProtocolVersion: protocolVersion,
		CreatedAt:       now,
		LastSeen:        now,
	}

	sm.sessions[session.ID] = session

	log.Debug().
		Str("sessionId", session.ID).
		Str("clientName", clientName).
		Msg("Created MCP session")

	return session
}

// GetSession retrieves a session by ID
func (sm *SessionManager) GetSession(sessionID string) (*MCPSession, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("session not found")
	}

	return session, nil
}

// UpdateLastSeen updates the last seen time for a session
func (sm *SessionManager) UpdateLastSeen(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, exists := sm.sessions[sessionID]; exists {
		session.LastSeen = time.Now()
	}
}

// DeleteSession removes a session
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.sessions, sessionID)

	log.Debug().
		Str("sessionId", sessionID).
		Msg("Deleted MCP session")
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (sm *SessionManager) Close() {
	sm.stopOnce.Do(func() { close(sm.stop) })
}

// removeExpired drops sessions idle for longer than the TTL as of now
func (sm *SessionManager) removeExpired(now time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	expired := 0
	for id, session := range sm.sessions {
		if now.Sub(session.LastSeen) > sm.ttl {
			delete(sm.sessions, id)
			expired++
		}
	}
	return expired
}

// cleanupExpired removes expired sessions until Close is called
func (sm *SessionManager) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-sm.stop:
			return
		case now := <-ticker.C:
			if expired := sm.removeExpired(now); expired > 0 {
				log.Info().
					Int("count", expired).
					Msg("Cleaned up expired MCP sessions")
			}
		}
	}
}
