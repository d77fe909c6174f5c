package app

import (
	"sync"
	"testing"
	"time"

	"github.com/pitchdojo/pitchdojo/internal/platform/errors"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/session"
)

func newTestSession(t *testing.T, id string) session.Session {
	t.Helper()
	seed := int64(42)
	sess, err := session.Start(session.StartInput{PersonaID: "saas-skeptic", Seed: &seed},
		mood.State{Trust: 25, Interest: 30, Irritation: 20, Urgency: 15},
		func() time.Time { return time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC) },
		func() (string, error) { return id, nil })
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if err := sess.Transition(session.PhaseActive, nil); err != nil {
		t.Fatalf("activate session: %v", err)
	}
	return sess
}

func TestRegistryCreateRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	sess := newTestSession(t, "sess-1")

	if err := r.Create(sess); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := r.Create(sess); err == nil {
		t.Fatal("expected duplicate create to fail")
	}
	if got := r.Len(); got != 1 {
		t.Fatalf("expected 1 session, got %d", got)
	}
}

func TestRegistryWithSessionNotFound(t *testing.T) {
	r := NewRegistry()
	err := r.WithSession("missing", func(*session.Session) error { return nil })
	if !errors.IsCode(err, errors.CodeSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND, got %v", err)
	}
}

func TestRegistryConcurrentSameSessionNoLostUpdate(t *testing.T) {
	r := NewRegistry()
	if err := r.Create(newTestSession(t, "sess-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.WithSession("sess-1", func(sess *session.Session) error {
				// Read-modify-write that would lose updates without the
				// per-entry lock.
				count := sess.TurnCount
				sess.TurnCount = count + 1
				return nil
			})
			if err != nil {
				t.Errorf("with session: %v", err)
			}
		}()
	}
	wg.Wait()

	sess, err := r.Get("sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess.TurnCount != workers {
		t.Fatalf("expected %d increments, got %d", workers, sess.TurnCount)
	}
}

func TestRegistryConcurrentDistinctSessions(t *testing.T) {
	r := NewRegistry()
	ids := []string{"sess-1", "sess-2", "sess-3", "sess-4"}
	for _, id := range ids {
		if err := r.Create(newTestSession(t, id)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_ = r.WithSession(id, func(sess *session.Session) error {
					sess.TurnCount++
					return nil
				})
			}(id)
		}
	}
	wg.Wait()

	for _, id := range ids {
		sess, err := r.Get(id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if sess.TurnCount != 10 {
			t.Fatalf("session %s: expected 10, got %d", id, sess.TurnCount)
		}
	}
}

func TestRegistryEvict(t *testing.T) {
	r := NewRegistry()
	if err := r.Create(newTestSession(t, "sess-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	if !r.Evict("sess-1") {
		t.Fatal("expected eviction to succeed")
	}
	if r.Evict("sess-1") {
		t.Fatal("expected second eviction to report absence")
	}
	if _, err := r.Get("sess-1"); !errors.IsCode(err, errors.CodeSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND after eviction, got %v", err)
	}
}

func TestRegistryEvictionObservedByWaiters(t *testing.T) {
	r := NewRegistry()
	if err := r.Create(newTestSession(t, "sess-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = r.WithSession("sess-1", func(*session.Session) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	// A second caller queues on the entry lock while the holder is inside.
	waiterErr := make(chan error, 1)
	go func() {
		waiterErr <- r.WithSession("sess-1", func(*session.Session) error {
			return nil
		})
	}()

	// Evict from the directory, then let the holder go. The queued waiter must
	// observe the eviction instead of mutating a dropped record.
	time.Sleep(10 * time.Millisecond)
	r.Evict("sess-1")
	close(release)

	if err := <-waiterErr; !errors.IsCode(err, errors.CodeSessionNotFound) {
		t.Fatalf("expected stale waiter to get SESSION_NOT_FOUND, got %v", err)
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	if err := r.Create(newTestSession(t, "sess-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	sess, err := r.Get("sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	sess.TurnCount = 99

	again, err := r.Get("sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.TurnCount != 0 {
		t.Fatalf("mutating a returned copy leaked into the registry: %d", again.TurnCount)
	}
}

func TestRegistryIdleSince(t *testing.T) {
	r := NewRegistry()
	sess := newTestSession(t, "sess-1")
	if err := r.Create(sess); err != nil {
		t.Fatalf("create: %v", err)
	}

	at, err := r.IdleSince("sess-1")
	if err != nil {
		t.Fatalf("idle since: %v", err)
	}
	if !at.Equal(sess.UpdatedAt) {
		t.Fatalf("expected %v, got %v", sess.UpdatedAt, at)
	}
}
