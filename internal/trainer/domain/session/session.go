// Package session holds the mutable record of one training session and the
// lifecycle rules that govern it.
//
// A Session is owned by the engine's turn pipeline; nothing outside the
// registry's exclusive-access path may mutate it.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/pitchdojo/pitchdojo/internal/platform/errors"
	"github.com/pitchdojo/pitchdojo/internal/platform/id"
	"github.com/pitchdojo/pitchdojo/internal/platform/random"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/behavior"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
)

// Phase describes the lifecycle state of a session.
type Phase int

const (
	// PhaseUnspecified represents an invalid phase value.
	PhaseUnspecified Phase = iota
	// PhaseCreated is the synchronous window between construction and the
	// first registration in the registry.
	PhaseCreated
	// PhaseActive accepts trainee turns.
	PhaseActive
	// PhaseConverted is terminal: the prospect agreed.
	PhaseConverted
	// PhaseDisengaged is terminal: the prospect withdrew.
	PhaseDisengaged
	// PhaseTimedOut is terminal: the idle window elapsed.
	PhaseTimedOut
	// PhaseEndedByUser is terminal: the trainee ended the session.
	PhaseEndedByUser
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseActive:
		return "active"
	case PhaseConverted:
		return "converted"
	case PhaseDisengaged:
		return "disengaged"
	case PhaseTimedOut:
		return "timed_out"
	case PhaseEndedByUser:
		return "ended_by_user"
	default:
		return "unspecified"
	}
}

// ParsePhase maps a phase name back to its Phase value.
func ParsePhase(name string) (Phase, error) {
	switch name {
	case "created":
		return PhaseCreated, nil
	case "active":
		return PhaseActive, nil
	case "converted":
		return PhaseConverted, nil
	case "disengaged":
		return PhaseDisengaged, nil
	case "timed_out":
		return PhaseTimedOut, nil
	case "ended_by_user":
		return PhaseEndedByUser, nil
	default:
		return PhaseUnspecified, fmt.Errorf("unknown session phase %q", name)
	}
}

// Terminal reports whether the phase admits no further transitions.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseConverted, PhaseDisengaged, PhaseTimedOut, PhaseEndedByUser:
		return true
	default:
		return false
	}
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Phase) bool {
	if from.Terminal() {
		return false
	}
	switch from {
	case PhaseCreated:
		return to == PhaseActive
	case PhaseActive:
		return to.Terminal()
	default:
		return false
	}
}

// Turn records one trainee utterance and the pipeline result it produced.
type Turn struct {
	Index     int
	Utterance string
	Tags      []behavior.Tag
	Delta     mood.Delta
	Snapshot  mood.State // mood after this turn's update and decay
	// ProspectLine and ProspectTags arrive from the generation collaborator
	// after the mood update; the tags are hints about the prospect's own line
	// and never feed back into the mood pipeline.
	ProspectLine string
	ProspectTags []behavior.Tag
	Degraded     bool // prospect line came from the scripted fallback
	Timestamp    time.Time
}

// Session is the full mutable record for one training session.
type Session struct {
	ID        string
	PersonaID string
	TraineeID string
	Seed      int64
	Mood      mood.State
	Turns     []Turn
	Phase     Phase
	TurnCount int
	CreatedAt time.Time
	UpdatedAt time.Time
	EndedAt   *time.Time // nil until a terminal transition
}

// StartInput describes the metadata needed to start a session.
type StartInput struct {
	PersonaID string
	TraineeID string
	// Seed pins the session's noise source; nil draws a fresh random seed.
	// Pinned seeds make full-session replays byte-identical.
	Seed *int64
}

// Start creates a new session in PhaseCreated with the given baseline mood.
func Start(input StartInput, baseline mood.State, now func() time.Time, idGenerator func() (string, error)) (Session, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.PersonaID = strings.TrimSpace(input.PersonaID)
	if input.PersonaID == "" {
		return Session{}, errors.New(errors.CodeSessionEmptyPersonaID, "persona id is required")
	}

	sessionID, err := idGenerator()
	if err != nil {
		return Session{}, fmt.Errorf("generate session id: %w", err)
	}

	seed := int64(0)
	if input.Seed != nil {
		seed = *input.Seed
	} else {
		seed, err = random.NewSeed()
		if err != nil {
			return Session{}, fmt.Errorf("generate session seed: %w", err)
		}
	}

	createdAt := now().UTC()
	return Session{
		ID:        sessionID,
		PersonaID: input.PersonaID,
		TraineeID: strings.TrimSpace(input.TraineeID),
		Seed:      seed,
		Mood:      baseline.Clamp(),
		Phase:     PhaseCreated,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// Transition moves the session to a new phase, stamping EndedAt on terminal
// transitions. Invalid transitions are rejected.
func (s *Session) Transition(to Phase, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	if !CanTransition(s.Phase, to) {
		return errors.WithMetadata(errors.CodeSessionInvalidPhase,
			fmt.Sprintf("cannot transition session from %s to %s", s.Phase, to),
			map[string]string{"session_id": s.ID, "from": s.Phase.String(), "to": to.String()})
	}
	s.Phase = to
	s.UpdatedAt = now().UTC()
	if to.Terminal() {
		ended := s.UpdatedAt
		s.EndedAt = &ended
	}
	return nil
}

// AcceptTurn validates that a turn with the given index may be applied now.
// Index 1 is the first turn; resubmitting an index the session has advanced
// past (or skipping ahead) is rejected so retried requests cannot
// double-apply mood deltas.
func (s *Session) AcceptTurn(index int) error {
	if s.Phase != PhaseActive {
		return errors.WithMetadata(errors.CodeSessionNotActive,
			fmt.Sprintf("session %s is %s", s.ID, s.Phase),
			map[string]string{"session_id": s.ID, "phase": s.Phase.String()})
	}
	if index != s.TurnCount+1 {
		return errors.WithMetadata(errors.CodeTurnOutOfOrder,
			fmt.Sprintf("turn %d submitted but session %s expects turn %d", index, s.ID, s.TurnCount+1),
			map[string]string{"session_id": s.ID, "expected": fmt.Sprint(s.TurnCount + 1)})
	}
	return nil
}

// RecordTurn appends an accepted turn and advances the mood state.
func (s *Session) RecordTurn(turn Turn, newState mood.State, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.Turns = append(s.Turns, turn)
	s.TurnCount = turn.Index
	s.Mood = newState
	s.UpdatedAt = now().UTC()
}

// RecentTags returns the tag names of the last n turns, oldest first, for
// detector context.
func (s *Session) RecentTags(n int) []string {
	if n <= 0 || len(s.Turns) == 0 {
		return nil
	}
	start := len(s.Turns) - n
	if start < 0 {
		start = 0
	}
	var names []string
	for _, turn := range s.Turns[start:] {
		for _, tag := range turn.Tags {
			names = append(names, tag.Name)
		}
	}
	return names
}

// Clone returns a deep copy safe to hand outside the exclusive-access path.
func (s *Session) Clone() Session {
	cloned := *s
	cloned.Turns = make([]Turn, len(s.Turns))
	copy(cloned.Turns, s.Turns)
	for i := range cloned.Turns {
		tags := make([]behavior.Tag, len(s.Turns[i].Tags))
		copy(tags, s.Turns[i].Tags)
		cloned.Turns[i].Tags = tags
		if s.Turns[i].ProspectTags != nil {
			hints := make([]behavior.Tag, len(s.Turns[i].ProspectTags))
			copy(hints, s.Turns[i].ProspectTags)
			cloned.Turns[i].ProspectTags = hints
		}
	}
	if s.EndedAt != nil {
		ended := *s.EndedAt
		cloned.EndedAt = &ended
	}
	return cloned
}
