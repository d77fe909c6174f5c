// Package storage defines the persistence interfaces the trainer engine
// writes finalized sessions and telemetry through.
//
// Persistence is an external collaborator: the engine invokes it exactly once
// per session after scoring, and implementations must be idempotent on retry
// for the same session id.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/score"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/session"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("not found")

// FinalizedSession bundles a terminal session with its score report.
type FinalizedSession struct {
	Session session.Session
	Report  score.Report
}

// ArchiveStore persists finalized sessions.
type ArchiveStore interface {
	// SaveFinalizedSession stores a terminal session and its score.
	// Saving the same session id again replaces the record (idempotent).
	SaveFinalizedSession(ctx context.Context, record FinalizedSession) error
	// GetFinalizedSession loads a finalized session by id.
	GetFinalizedSession(ctx context.Context, sessionID string) (FinalizedSession, error)
	// ListFinalizedSessions returns up to limit records, most recent first.
	ListFinalizedSessions(ctx context.Context, limit int) ([]FinalizedSession, error)
}

// TelemetryEvent records one operational event.
type TelemetryEvent struct {
	Timestamp time.Time
	Kind      string
	SessionID string
	Detail    string
}

// TelemetryStore appends operational telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, event TelemetryEvent) error
}

// Store combines every storage interface the trainer needs.
type Store interface {
	ArchiveStore
	TelemetryStore
	Close() error
}
