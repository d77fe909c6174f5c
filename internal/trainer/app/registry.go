package app

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pitchdojo/pitchdojo/internal/platform/errors"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/session"
)

// Registry is the process-wide directory of live sessions.
//
// Exclusivity is per session id, not global: the directory lock is held only
// for map lookups, and each entry carries its own mutex. Concurrent turns for
// different sessions proceed fully in parallel; two submissions for the same
// id are serialized, and the second observes the first's completed state.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

// registryEntry pairs a session with its exclusivity lock. The evicted flag
// detects stale handles: a goroutine that looked the entry up before an
// eviction finds it set once it finally acquires the entry lock. It is
// atomic so Evict never has to queue behind an in-flight critical section.
type registryEntry struct {
	mu      sync.Mutex
	sess    *session.Session
	evicted atomic.Bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Create registers a new session. The id must not already be present.
func (r *Registry) Create(sess session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[sess.ID]; exists {
		return fmt.Errorf("session %s already registered", sess.ID)
	}
	owned := sess.Clone()
	r.entries[sess.ID] = &registryEntry{sess: &owned}
	return nil
}

// WithSession runs fn with exclusive access to the session's state. This is
// the only sanctioned mutation path. fn must not retain the pointer past its
// return.
func (r *Registry) WithSession(sessionID string, fn func(*session.Session) error) error {
	r.mu.RLock()
	entry, ok := r.entries[sessionID]
	r.mu.RUnlock()
	if !ok {
		return notFound(sessionID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.evicted.Load() {
		// The handle went stale while waiting for the entry lock.
		return notFound(sessionID)
	}
	return fn(entry.sess)
}

// Get returns a read-only deep copy of the session.
func (r *Registry) Get(sessionID string) (session.Session, error) {
	var snapshot session.Session
	err := r.WithSession(sessionID, func(sess *session.Session) error {
		snapshot = sess.Clone()
		return nil
	})
	return snapshot, err
}

// Evict removes a session from the directory. In-flight WithSession calls
// already waiting on the entry observe the eviction and fail with
// SESSION_NOT_FOUND instead of mutating a dropped record.
func (r *Registry) Evict(sessionID string) bool {
	r.mu.Lock()
	entry, ok := r.entries[sessionID]
	if ok {
		delete(r.entries, sessionID)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	entry.evicted.Store(true)
	return true
}

// IDs returns a snapshot of all registered session ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// IdleSince reports the session's last activity time.
func (r *Registry) IdleSince(sessionID string) (time.Time, error) {
	var at time.Time
	err := r.WithSession(sessionID, func(sess *session.Session) error {
		at = sess.UpdatedAt
		return nil
	})
	return at, err
}

func notFound(sessionID string) error {
	return errors.WithMetadata(errors.CodeSessionNotFound,
		fmt.Sprintf("session %s not found", sessionID),
		map[string]string{"session_id": sessionID})
}
