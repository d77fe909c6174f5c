// Package app wires the trainer's turn pipeline: registry, detector,
// resolver, mood model, evaluator, scoring, generation, and persistence.
package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitchdojo/pitchdojo/internal/platform/errors"
	"github.com/pitchdojo/pitchdojo/internal/telemetry"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/action"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/behavior"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/outcome"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/persona"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/score"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/session"
	"github.com/pitchdojo/pitchdojo/internal/trainer/generation"
	"github.com/pitchdojo/pitchdojo/internal/trainer/storage"
)

// recentTagWindow is how many past turns feed the detector's context.
const recentTagWindow = 3

// turnSeedStep decorrelates per-turn noise streams derived from the session
// seed (64-bit golden ratio, the usual splitmix64 increment).
const turnSeedStep = int64(-7046029254386353131)

// Engine orchestrates session lifecycles and the per-turn pipeline.
type Engine struct {
	registry  *Registry
	hub       *Hub
	detector  *behavior.Detector
	catalog   *action.Catalog
	personas  *persona.Catalog
	generator generation.Generator
	archive   storage.ArchiveStore
	emitter   *telemetry.Emitter
	weights   score.Weights
	tracer    trace.Tracer

	genTimeout time.Duration
	clock      func() time.Time
	idGen      func() (string, error)
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithClock injects a deterministic clock for tests.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// WithIDGenerator injects a deterministic id generator for tests.
func WithIDGenerator(idGen func() (string, error)) EngineOption {
	return func(e *Engine) { e.idGen = idGen }
}

// WithGenerationTimeout bounds the wait on the text-generation collaborator.
func WithGenerationTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) { e.genTimeout = timeout }
}

// WithScoreWeights overrides the scoring calibration.
func WithScoreWeights(weights score.Weights) EngineOption {
	return func(e *Engine) { e.weights = weights }
}

// NewEngine creates an engine. A nil generator falls back to the scripted
// one; a nil archive disables persistence; a nil emitter disables telemetry.
func NewEngine(personas *persona.Catalog, generator generation.Generator,
	archive storage.ArchiveStore, emitter *telemetry.Emitter, opts ...EngineOption) *Engine {
	if personas == nil {
		personas = persona.DefaultCatalog()
	}
	if generator == nil {
		generator = generation.NewScripted()
	}
	e := &Engine{
		registry:   NewRegistry(),
		hub:        NewHub(),
		detector:   behavior.NewDetector(nil),
		catalog:    action.DefaultCatalog(),
		personas:   personas,
		generator:  generator,
		archive:    archive,
		emitter:    emitter,
		weights:    score.DefaultWeights(),
		tracer:     otel.Tracer("trainer"),
		genTimeout: 10 * time.Second,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartSession creates, activates, and registers a session for a persona.
func (e *Engine) StartSession(ctx context.Context, input session.StartInput) (session.Session, error) {
	p, err := e.personas.Get(input.PersonaID)
	if err != nil {
		return session.Session{}, err
	}

	sess, err := session.Start(input, p.Baseline, e.clock, e.idGen)
	if err != nil {
		return session.Session{}, err
	}
	if err := sess.Transition(session.PhaseActive, e.clock); err != nil {
		return session.Session{}, err
	}
	if err := e.registry.Create(sess); err != nil {
		return session.Session{}, err
	}

	e.emit(ctx, storage.TelemetryEvent{
		Kind:      telemetry.KindSessionStarted,
		SessionID: sess.ID,
		Detail:    fmt.Sprintf("persona=%s", p.ID),
	})
	return sess.Clone(), nil
}

// TurnResult is what a completed turn submission returns to the caller.
type TurnResult struct {
	Turn  session.Turn
	Phase session.Phase
	Mood  mood.State
	// Report is set when this turn ended the session.
	Report *score.Report
}

// SubmitTurn runs the full pipeline for one trainee utterance.
//
// The exclusive section covers detect, resolve, mood update, evaluate, and
// the turn record. The generation call happens after the lock is released so
// a slow external model never blocks other operations on the same session.
func (e *Engine) SubmitTurn(ctx context.Context, sessionID string, turnIndex int, utterance string) (TurnResult, error) {
	ctx, span := e.tracer.Start(ctx, "trainer.submit_turn")
	defer span.End()

	if strings.TrimSpace(utterance) == "" {
		return TurnResult{}, errors.New(errors.CodeTurnEmptyUtterance, "turn utterance is required")
	}

	var (
		p        persona.Persona
		turn     session.Turn
		newState mood.State
		phase    session.Phase
		terminal session.Session // populated when this turn ended the session
	)

	err := e.registry.WithSession(sessionID, func(sess *session.Session) error {
		if err := sess.AcceptTurn(turnIndex); err != nil {
			return err
		}

		var err error
		p, err = e.personas.Get(sess.PersonaID)
		if err != nil {
			return err
		}

		recent := sess.RecentTags(recentTagWindow)
		tags, state := e.computeTurn(ctx, p, sess.Mood, sess.Seed, turnIndex, utterance, recent)

		turn = session.Turn{
			Index:     turnIndex,
			Utterance: utterance,
			Tags:      tags,
			Delta:     mood.Diff(sess.Mood, state),
			Snapshot:  state,
			Timestamp: e.clock().UTC(),
		}
		sess.RecordTurn(turn, state, e.clock)

		switch outcome.Evaluate(state, turnIndex, p.Thresholds) {
		case outcome.Converted:
			if err := sess.Transition(session.PhaseConverted, e.clock); err != nil {
				return err
			}
		case outcome.Disengaged:
			if err := sess.Transition(session.PhaseDisengaged, e.clock); err != nil {
				return err
			}
		}

		newState = state
		phase = sess.Phase
		if phase.Terminal() {
			terminal = sess.Clone()
		}
		return nil
	})
	if err != nil {
		return TurnResult{}, err
	}

	// Outside the critical section: voice the prospect.
	line, hints, degraded := e.generateLine(ctx, sessionID, p, newState, utterance, turn.Tags)
	if len(hints) > 0 {
		// Hint emission order is generator-defined; impose the catalog's.
		hints = e.catalog.OrderHints(hints)
	}
	turn.ProspectLine = line
	turn.ProspectTags = hints
	turn.Degraded = degraded
	e.attachProspectLine(sessionID, turnIndex, line, hints, degraded)

	snap := Snapshot{
		SessionID:    sessionID,
		TurnIndex:    turnIndex,
		Phase:        phase,
		Mood:         newState,
		Tags:         turn.Tags,
		ProspectLine: line,
		ProspectTags: hints,
		Degraded:     degraded,
	}

	result := TurnResult{Turn: turn, Phase: phase, Mood: newState}
	if phase.Terminal() {
		terminal.Turns[len(terminal.Turns)-1].ProspectLine = line
		terminal.Turns[len(terminal.Turns)-1].ProspectTags = hints
		terminal.Turns[len(terminal.Turns)-1].Degraded = degraded
		report := e.finalize(ctx, terminal)
		result.Report = &report
		snap.Final = true
		snap.Report = &report
		e.hub.Publish(snap)
		e.hub.CloseSession(sessionID)
	} else {
		e.hub.Publish(snap)
	}
	return result, nil
}

// computeTurn is the pure pipeline core shared by SubmitTurn and Replay:
// detect tags, resolve actions, apply them in detection order, then decay.
func (e *Engine) computeTurn(ctx context.Context, p persona.Persona, state mood.State,
	seed int64, turnIndex int, utterance string, recent []string) ([]behavior.Tag, mood.State) {

	tags := e.detector.Detect(utterance, recent)
	actions := e.catalog.Resolve(tags, func(tag string) {
		log.Printf("detector config gap: tag %q has no action mapping", tag)
		e.emit(ctx, storage.TelemetryEvent{
			Kind:   telemetry.KindDetectorGap,
			Detail: fmt.Sprintf("tag=%s", tag),
		})
	})

	// The noise stream is a pure function of session seed and turn index, so
	// replaying a turn sequence reproduces the trajectory byte for byte.
	noise := mood.UniformNoise(rand.New(rand.NewSource(seed + int64(turnIndex)*turnSeedStep)))

	resetsDecay := false
	for _, act := range actions {
		state = mood.Apply(state, act, noise)
		if act.ResetsDecay {
			resetsDecay = true
		}
	}
	if !resetsDecay {
		state = mood.Decay(state, p.Decay, action.Targets(actions))
	}
	return tags, state
}

// generateLine asks the generator for the prospect's next utterance and its
// tag hints, substituting the persona's scripted fallback on failure or
// timeout.
func (e *Engine) generateLine(ctx context.Context, sessionID string, p persona.Persona,
	state mood.State, utterance string, tags []behavior.Tag) (line string, hints []behavior.Tag, degraded bool) {

	genCtx, cancel := context.WithTimeout(ctx, e.genTimeout)
	defer cancel()

	resp, err := e.generator.Generate(genCtx, generation.Request{
		SessionID:     sessionID,
		Persona:       p,
		Mood:          state,
		LastUtterance: utterance,
		Tags:          tags,
	})
	if err == nil {
		return resp.Line, resp.TagHints, false
	}

	kind := errors.CodeGenerationFailed
	if genCtx.Err() == context.DeadlineExceeded {
		kind = errors.CodeGenerationTimeout
	}
	log.Printf("session %s: generation degraded (%s): %v", sessionID, kind, err)
	e.emit(ctx, storage.TelemetryEvent{
		Kind:      telemetry.KindDegradedTurn,
		SessionID: sessionID,
		Detail:    string(kind),
	})
	return p.FallbackLine, nil, true
}

// attachProspectLine backfills the generated line and its hints onto the
// recorded turn. The session may have been evicted or ended meanwhile; that
// is fine, the line still reached the caller and the observers.
func (e *Engine) attachProspectLine(sessionID string, turnIndex int, line string, hints []behavior.Tag, degraded bool) {
	_ = e.registry.WithSession(sessionID, func(sess *session.Session) error {
		for i := range sess.Turns {
			if sess.Turns[i].Index == turnIndex {
				sess.Turns[i].ProspectLine = line
				sess.Turns[i].ProspectTags = hints
				sess.Turns[i].Degraded = degraded
				break
			}
		}
		return nil
	})
}

// EndSession performs the trainee-requested terminal transition.
func (e *Engine) EndSession(ctx context.Context, sessionID string) (score.Report, error) {
	return e.terminate(ctx, sessionID, session.PhaseEndedByUser, nil)
}

// errSessionFresh aborts a sweep termination whose idle decision went stale.
var errSessionFresh = fmt.Errorf("session has fresh activity")

// terminate transitions an active session to the given terminal phase and
// finalizes it. It serializes against in-flight turns via the registry. A
// non-nil guard runs under the entry lock before the transition and can veto
// it by returning an error.
func (e *Engine) terminate(ctx context.Context, sessionID string, to session.Phase,
	guard func(*session.Session) error) (score.Report, error) {
	var terminal session.Session
	err := e.registry.WithSession(sessionID, func(sess *session.Session) error {
		if sess.Phase.Terminal() {
			return errors.WithMetadata(errors.CodeSessionNotActive,
				fmt.Sprintf("session %s is already %s", sessionID, sess.Phase),
				map[string]string{"session_id": sessionID, "phase": sess.Phase.String()})
		}
		if guard != nil {
			if err := guard(sess); err != nil {
				return err
			}
		}
		if err := sess.Transition(to, e.clock); err != nil {
			return err
		}
		terminal = sess.Clone()
		return nil
	})
	if err != nil {
		return score.Report{}, err
	}

	report := e.finalize(ctx, terminal)
	e.hub.Publish(Snapshot{
		SessionID: sessionID,
		TurnIndex: terminal.TurnCount,
		Phase:     terminal.Phase,
		Mood:      terminal.Mood,
		Final:     true,
		Report:    &report,
	})
	e.hub.CloseSession(sessionID)
	return report, nil
}

// finalize scores a terminal session and hands it to persistence exactly
// once. Archive failures are logged and reported, never propagated: no
// collaborator failure may terminate a session abnormally.
func (e *Engine) finalize(ctx context.Context, terminal session.Session) score.Report {
	report := score.Score(terminal, e.weights)

	if e.archive != nil {
		err := e.archive.SaveFinalizedSession(ctx, storage.FinalizedSession{
			Session: terminal,
			Report:  report,
		})
		if err != nil {
			log.Printf("session %s: archive failed: %v", terminal.ID, err)
			e.emit(ctx, storage.TelemetryEvent{
				Kind:      telemetry.KindArchiveFailed,
				SessionID: terminal.ID,
				Detail:    err.Error(),
			})
		}
	}

	e.emit(ctx, storage.TelemetryEvent{
		Kind:      telemetry.KindSessionEnded,
		SessionID: terminal.ID,
		Detail:    fmt.Sprintf("phase=%s score=%.1f", terminal.Phase, report.Value),
	})
	return report
}

// Sweep times out idle active sessions and evicts terminal sessions whose
// grace window has elapsed. Terminal sessions linger in the registry for
// grace so late readers still get SESSION_NOT_ACTIVE rather than
// SESSION_NOT_FOUND. Sweep goes through the registry's exclusive-access
// path, so it never races an in-flight turn for the same session.
func (e *Engine) Sweep(ctx context.Context, maxIdle, grace time.Duration) (timedOut, evicted int) {
	now := e.clock().UTC()
	for _, sessionID := range e.registry.IDs() {
		sess, err := e.registry.Get(sessionID)
		if err != nil {
			continue // evicted meanwhile
		}
		if sess.Phase.Terminal() {
			if sess.EndedAt != nil && now.Sub(*sess.EndedAt) >= grace {
				if e.registry.Evict(sessionID) {
					evicted++
				}
			}
			continue
		}
		if now.Sub(sess.UpdatedAt) < maxIdle {
			continue
		}
		if e.sweepTimeout(ctx, sessionID, maxIdle) {
			timedOut++
		}
	}
	if timedOut > 0 || evicted > 0 {
		e.emit(ctx, storage.TelemetryEvent{
			Kind:   telemetry.KindSweepCompleted,
			Detail: fmt.Sprintf("timed_out=%d evicted=%d", timedOut, evicted),
		})
	}
	return timedOut, evicted
}

// sweepTimeout transitions a session to timed_out, re-verifying idleness
// under the entry lock: a turn may land between the sweep's snapshot and the
// termination, and fresh activity must veto the timeout.
func (e *Engine) sweepTimeout(ctx context.Context, sessionID string, maxIdle time.Duration) bool {
	_, err := e.terminate(ctx, sessionID, session.PhaseTimedOut, func(sess *session.Session) error {
		if e.clock().UTC().Sub(sess.UpdatedAt) < maxIdle {
			return errSessionFresh
		}
		return nil
	})
	return err == nil
}

// GetSession returns a read-only snapshot of a live session.
func (e *Engine) GetSession(sessionID string) (session.Session, error) {
	return e.registry.Get(sessionID)
}

// Subscribe attaches a live observer to a session id.
func (e *Engine) Subscribe(sessionID string) (<-chan Snapshot, func()) {
	return e.hub.Subscribe(sessionID)
}

// Replay reconstructs the mood trajectory for a persona, seed, and utterance
// sequence without touching the registry. Given the seed of a recorded
// session it reproduces that session's trajectory exactly.
func (e *Engine) Replay(personaID string, seed int64, utterances []string) ([]mood.State, error) {
	p, err := e.personas.Get(personaID)
	if err != nil {
		return nil, err
	}

	states := make([]mood.State, 0, len(utterances))
	state := p.Baseline.Clamp()
	var history [][]string // per-turn tag names, for the detector's context window
	for i, utterance := range utterances {
		tags, next := e.computeTurn(context.Background(), p, state, seed, i+1, utterance, recentWindow(history))
		state = next
		states = append(states, state)

		names := make([]string, 0, len(tags))
		for _, tag := range tags {
			names = append(names, tag.Name)
		}
		history = append(history, names)
	}
	return states, nil
}

// recentWindow flattens the last recentTagWindow turns' tag names, oldest
// first, mirroring Session.RecentTags.
func recentWindow(history [][]string) []string {
	start := len(history) - recentTagWindow
	if start < 0 {
		start = 0
	}
	var names []string
	for _, turn := range history[start:] {
		names = append(names, turn...)
	}
	return names
}

func (e *Engine) emit(ctx context.Context, event storage.TelemetryEvent) {
	if err := e.emitter.Emit(ctx, event); err != nil {
		log.Printf("telemetry emit failed: %v", err)
	}
}
