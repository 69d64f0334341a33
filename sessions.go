package main

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// errSessionNotFound covers unknown, expired, and already-ended sessions.
// Ended sessions are removed from the table, so a message or a second
// end-session for one fails the same way a bogus ID does — callers must start
// a fresh exchange rather than resurrect an old session.
var errSessionNotFound = errors.New("chat session not found")

const (
	roleUser      = "user"
	roleAssistant = "assistant"

	// maxHistoryTurns bounds the conversation context kept per session (and
	// sent to the advisor): the last 5 exchanges.
	maxHistoryTurns = 10
)

// chatTurn is one message retained as conversation context for the advisor.
type chatTurn struct {
	Role    string
	Content string
}

// chatSession is the in-memory state of one active conversation. The
// persisted transcript lives on the client; this record only carries what the
// advisor needs plus lifecycle bookkeeping.
type chatSession struct {
	id        string
	userID    string
	createdAt time.Time

	// lastActivity is unix nanos, atomic so the sweeper can read it without
	// taking mu (which a handler may hold across a slow advisor call).
	lastActivity atomic.Int64

	// mu serializes message handling per session so concurrent requests for
	// the same session cannot lose messageCount/history updates.
	mu            sync.Mutex
	messageCount  int
	crisisFlagged bool
	history       []chatTurn
}

func (cs *chatSession) touch() {
	cs.lastActivity.Store(time.Now().UnixNano())
}

func (cs *chatSession) lastActivityAt() time.Time {
	return time.Unix(0, cs.lastActivity.Load())
}

// appendTurns records an exchange and trims history to the context window.
// Caller must hold cs.mu.
func (cs *chatSession) appendTurns(turns ...chatTurn) {
	cs.history = append(cs.history, turns...)
	if len(cs.history) > maxHistoryTurns {
		cs.history = cs.history[len(cs.history)-maxHistoryTurns:]
	}
}

// sessionStore is the active-session table. Injectable (not a package global)
// so tests can instantiate isolated stores. Lock order is always store.mu
// then session.mu; handlers release store.mu before locking a session.
type sessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]*chatSession
	idleTimeout time.Duration
}

func newSessionStore(idleTimeout time.Duration) *sessionStore {
	return &sessionStore{
		sessions:    make(map[string]*chatSession),
		idleTimeout: idleTimeout,
	}
}

// create allocates a new Active session with a unique ID.
func (s *sessionStore) create(userID string) *chatSession {
	sess := &chatSession{
		id:        uuid.New().String(),
		userID:    userID,
		createdAt: time.Now(),
	}
	sess.touch()

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// get returns an Active session owned by userID. Sessions idle past the
// timeout are reclaimed lazily here, in addition to the periodic sweep.
func (s *sessionStore) get(id, userID string) (*chatSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || sess.userID != userID {
		return nil, errSessionNotFound
	}
	if time.Since(sess.lastActivityAt()) > s.idleTimeout {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, errSessionNotFound
	}
	return sess, nil
}

// end transitions Active→Ended by removing the session. Deliberately not
// idempotent: a second end for the same ID reports errSessionNotFound so
// callers can detect double-teardown bugs.
func (s *sessionStore) end(id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.userID != userID {
		return errSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// sweep removes sessions idle past the timeout and returns how many it
// reclaimed. Run periodically to bound memory growth from abandoned sessions.
func (s *sessionStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	reclaimed := 0
	for id, sess := range s.sessions {
		if time.Since(sess.lastActivityAt()) > s.idleTimeout {
			delete(s.sessions, id)
			reclaimed++
		}
	}
	return reclaimed
}

// activeCount reports the current table size.
func (s *sessionStore) activeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
