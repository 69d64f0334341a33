package main

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	store := newSessionStore(30 * time.Minute)

	sess := store.create(testUserID)
	if sess.id == "" {
		t.Fatal("created session has no ID")
	}
	if store.activeCount() != 1 {
		t.Fatalf("activeCount = %d, want 1", store.activeCount())
	}

	got, err := store.get(sess.id, testUserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != sess {
		t.Fatal("get returned a different session")
	}

	if err := store.end(sess.id, testUserID); err != nil {
		t.Fatalf("end: %v", err)
	}
	if store.activeCount() != 0 {
		t.Fatalf("activeCount after end = %d, want 0", store.activeCount())
	}
}

func TestSessionEndIsNotIdempotent(t *testing.T) {
	store := newSessionStore(30 * time.Minute)
	sess := store.create(testUserID)

	if err := store.end(sess.id, testUserID); err != nil {
		t.Fatalf("first end: %v", err)
	}
	if err := store.end(sess.id, testUserID); !errors.Is(err, errSessionNotFound) {
		t.Fatalf("second end: got %v, want errSessionNotFound", err)
	}
	if _, err := store.get(sess.id, testUserID); !errors.Is(err, errSessionNotFound) {
		t.Fatalf("get after end: got %v, want errSessionNotFound", err)
	}
}

func TestSessionOwnership(t *testing.T) {
	store := newSessionStore(30 * time.Minute)
	sess := store.create(testUserID)

	if _, err := store.get(sess.id, "someone-else"); !errors.Is(err, errSessionNotFound) {
		t.Errorf("get by wrong user: got %v, want errSessionNotFound", err)
	}
	if err := store.end(sess.id, "someone-else"); !errors.Is(err, errSessionNotFound) {
		t.Errorf("end by wrong user: got %v, want errSessionNotFound", err)
	}
	// The real owner is unaffected.
	if _, err := store.get(sess.id, testUserID); err != nil {
		t.Errorf("owner get after foreign attempts: %v", err)
	}
}

func TestSessionUnknownID(t *testing.T) {
	store := newSessionStore(30 * time.Minute)
	if _, err := store.get("no-such-session", testUserID); !errors.Is(err, errSessionNotFound) {
		t.Errorf("got %v, want errSessionNotFound", err)
	}
}

func TestSessionLazyExpiry(t *testing.T) {
	store := newSessionStore(30 * time.Minute)
	sess := store.create(testUserID)

	// Backdate the session past the idle timeout instead of sleeping.
	sess.lastActivity.Store(time.Now().Add(-time.Hour).UnixNano())

	if _, err := store.get(sess.id, testUserID); !errors.Is(err, errSessionNotFound) {
		t.Fatalf("expired get: got %v, want errSessionNotFound", err)
	}
	if store.activeCount() != 0 {
		t.Fatalf("expired session not reclaimed, activeCount = %d", store.activeCount())
	}
}

func TestSessionSweep(t *testing.T) {
	store := newSessionStore(30 * time.Minute)
	fresh := store.create(testUserID)
	stale := store.create(testUserID)
	stale.lastActivity.Store(time.Now().Add(-time.Hour).UnixNano())

	if reclaimed := store.sweep(); reclaimed != 1 {
		t.Fatalf("sweep reclaimed %d, want 1", reclaimed)
	}
	if _, err := store.get(fresh.id, testUserID); err != nil {
		t.Errorf("fresh session swept: %v", err)
	}
	if _, err := store.get(stale.id, testUserID); !errors.Is(err, errSessionNotFound) {
		t.Errorf("stale session survived sweep: %v", err)
	}
}

func TestAppendTurnsTrimsHistory(t *testing.T) {
	sess := &chatSession{}
	sess.mu.Lock()
	for i := 0; i < maxHistoryTurns; i++ {
		sess.appendTurns(
			chatTurn{Role: roleUser, Content: "question"},
			chatTurn{Role: roleAssistant, Content: "answer"},
		)
	}
	sess.mu.Unlock()

	if len(sess.history) != maxHistoryTurns {
		t.Fatalf("history length = %d, want %d", len(sess.history), maxHistoryTurns)
	}
	// Oldest turns drop first; the tail is always the latest exchange.
	if sess.history[len(sess.history)-1].Role != roleAssistant {
		t.Errorf("last turn role = %q, want %q", sess.history[len(sess.history)-1].Role, roleAssistant)
	}
}

func TestSessionConcurrentUpdates(t *testing.T) {
	store := newSessionStore(30 * time.Minute)
	sess := store.create(testUserID)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			sess.mu.Lock()
			defer sess.mu.Unlock()
			sess.touch()
			sess.messageCount++
			sess.appendTurns(chatTurn{Role: roleUser, Content: "hi"})
		}()
	}
	wg.Wait()

	if sess.messageCount != workers {
		t.Errorf("messageCount = %d, want %d", sess.messageCount, workers)
	}
}
