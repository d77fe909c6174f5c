// Package sqlite provides the SQLite-backed trainer archive store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pitchdojo/pitchdojo/internal/platform/storage/sqlitemigrate"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/score"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/session"
	"github.com/pitchdojo/pitchdojo/internal/trainer/storage"
	"github.com/pitchdojo/pitchdojo/internal/trainer/storage/sqlite/migrations"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis reverses toMillis for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// toNullMillis maps optional domain times to sql.NullInt64 for nullable DB columns.
func toNullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

// fromNullMillis maps nullable SQL timestamps back into optional domain time values.
func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

// Store implements storage.Store on SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (and migrates) a trainer store at the provided path. Use a
// file: DSN with mode=memory for tests.
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite handles one writer at a time; serialize at the pool level.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply trainer migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
//
// Close is intentionally nil-safe so callers can defer it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// payload is the JSON document holding the parts of a finalized session that
// have no dedicated column.
type payload struct {
	Mood      mood.State     `json:"mood"`
	Turns     []session.Turn `json:"turns"`
	Strengths []string       `json:"strengths"`
	Tips      []string       `json:"tips"`
}

// SaveFinalizedSession stores a terminal session and its score report.
// INSERT OR REPLACE keyed on the session id makes retries idempotent.
func (s *Store) SaveFinalizedSession(ctx context.Context, record storage.FinalizedSession) error {
	sess := record.Session
	doc, err := json.Marshal(payload{
		Mood:      sess.Mood,
		Turns:     sess.Turns,
		Strengths: record.Report.Strengths,
		Tips:      record.Report.Tips,
	})
	if err != nil {
		return fmt.Errorf("marshal session payload: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT OR REPLACE INTO finalized_sessions
    (id, persona_id, trainee_id, seed, phase, turn_count, score, payload, created_at, updated_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.PersonaID,
		sess.TraineeID,
		sess.Seed,
		sess.Phase.String(),
		sess.TurnCount,
		record.Report.Value,
		string(doc),
		toMillis(sess.CreatedAt),
		toMillis(sess.UpdatedAt),
		toNullMillis(sess.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("save finalized session %s: %w", sess.ID, err)
	}
	return nil
}

// GetFinalizedSession loads a finalized session by id.
func (s *Store) GetFinalizedSession(ctx context.Context, sessionID string) (storage.FinalizedSession, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, persona_id, trainee_id, seed, phase, turn_count, score, payload, created_at, updated_at, ended_at
FROM finalized_sessions WHERE id = ?`, sessionID)
	record, err := scanFinalizedSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return storage.FinalizedSession{}, storage.ErrNotFound
		}
		return storage.FinalizedSession{}, fmt.Errorf("get finalized session %s: %w", sessionID, err)
	}
	return record, nil
}

// ListFinalizedSessions returns up to limit records, most recently ended first.
func (s *Store) ListFinalizedSessions(ctx context.Context, limit int) ([]storage.FinalizedSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, persona_id, trainee_id, seed, phase, turn_count, score, payload, created_at, updated_at, ended_at
FROM finalized_sessions ORDER BY ended_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list finalized sessions: %w", err)
	}
	defer rows.Close()

	var records []storage.FinalizedSession
	for rows.Next() {
		record, err := scanFinalizedSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan finalized session: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFinalizedSession(row rowScanner) (storage.FinalizedSession, error) {
	var (
		sess      session.Session
		phaseName string
		value     float64
		doc       string
		createdAt int64
		updatedAt int64
		endedAt   sql.NullInt64
	)
	err := row.Scan(&sess.ID, &sess.PersonaID, &sess.TraineeID, &sess.Seed,
		&phaseName, &sess.TurnCount, &value, &doc, &createdAt, &updatedAt, &endedAt)
	if err != nil {
		return storage.FinalizedSession{}, err
	}

	phase, err := session.ParsePhase(phaseName)
	if err != nil {
		return storage.FinalizedSession{}, err
	}
	sess.Phase = phase
	sess.CreatedAt = fromMillis(createdAt)
	sess.UpdatedAt = fromMillis(updatedAt)
	sess.EndedAt = fromNullMillis(endedAt)

	var p payload
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return storage.FinalizedSession{}, fmt.Errorf("unmarshal session payload: %w", err)
	}
	sess.Mood = p.Mood
	sess.Turns = p.Turns

	return storage.FinalizedSession{
		Session: sess,
		Report: score.Report{
			Value:     value,
			Strengths: p.Strengths,
			Tips:      p.Tips,
		},
	}, nil
}

// AppendTelemetryEvent records one operational event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO telemetry_events (ts, kind, session_id, detail) VALUES (?, ?, ?, ?)`,
		toMillis(event.Timestamp), event.Kind, event.SessionID, event.Detail)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}
