// Package telemetry records operational events for the trainer engine.
package telemetry

import (
	"context"
	"time"

	"github.com/pitchdojo/pitchdojo/internal/trainer/storage"
)

// Event kinds emitted by the trainer engine.
const (
	KindSessionStarted = "session_started"
	KindSessionEnded   = "session_ended"
	KindDegradedTurn   = "session_degraded_turn"
	KindDetectorGap    = "detector_config_gap"
	KindSweepCompleted = "sweep_completed"
	KindArchiveFailed  = "archive_failed"
)

// Emitter records operational telemetry events.
type Emitter struct {
	store storage.TelemetryStore
	clock func() time.Time
}

// NewEmitter creates a new telemetry emitter.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records a telemetry event. It is a no-op when the store is nil.
func (e *Emitter) Emit(ctx context.Context, event storage.TelemetryEvent) error {
	if e == nil || e.store == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		if e.clock == nil {
			event.Timestamp = time.Now().UTC()
		} else {
			event.Timestamp = e.clock().UTC()
		}
	}
	return e.store.AppendTelemetryEvent(ctx, event)
}
