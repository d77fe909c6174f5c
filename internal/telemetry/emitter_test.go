package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/pitchdojo/pitchdojo/internal/trainer/storage"
)

type recordingStore struct {
	events []storage.TelemetryEvent
}

func (r *recordingStore) AppendTelemetryEvent(_ context.Context, event storage.TelemetryEvent) error {
	r.events = append(r.events, event)
	return nil
}

func TestEmitStampsTimestamp(t *testing.T) {
	store := &recordingStore{}
	emitter := NewEmitter(store)
	emitter.clock = func() time.Time {
		return time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	}

	err := emitter.Emit(context.Background(), storage.TelemetryEvent{
		Kind:      KindDegradedTurn,
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	if len(store.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(store.events))
	}
	if store.events[0].Timestamp.IsZero() {
		t.Fatal("expected timestamp to be stamped")
	}
}

func TestEmitPreservesExplicitTimestamp(t *testing.T) {
	store := &recordingStore{}
	emitter := NewEmitter(store)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := emitter.Emit(context.Background(), storage.TelemetryEvent{
		Kind:      KindSweepCompleted,
		Timestamp: at,
	}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !store.events[0].Timestamp.Equal(at) {
		t.Fatalf("expected explicit timestamp preserved, got %v", store.events[0].Timestamp)
	}
}

func TestEmitNilSafe(t *testing.T) {
	var emitter *Emitter
	if err := emitter.Emit(context.Background(), storage.TelemetryEvent{Kind: KindSessionStarted}); err != nil {
		t.Fatalf("nil emitter should be a no-op, got %v", err)
	}

	empty := NewEmitter(nil)
	if err := empty.Emit(context.Background(), storage.TelemetryEvent{Kind: KindSessionStarted}); err != nil {
		t.Fatalf("nil store should be a no-op, got %v", err)
	}
}
