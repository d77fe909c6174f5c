package session

import (
	"testing"
	"time"

	"github.com/pitchdojo/pitchdojo/internal/platform/errors"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/behavior"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return func() time.Time { return at }
}

func startActive(t *testing.T) Session {
	t.Helper()
	seed := int64(99)
	sess, err := Start(StartInput{PersonaID: "saas-skeptic", Seed: &seed},
		mood.State{Trust: 25, Interest: 30, Irritation: 20, Urgency: 15},
		fixedClock(), func() (string, error) { return "sess-1", nil })
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if err := sess.Transition(PhaseActive, fixedClock()); err != nil {
		t.Fatalf("activate session: %v", err)
	}
	return sess
}

func TestStartRequiresPersona(t *testing.T) {
	_, err := Start(StartInput{PersonaID: "  "}, mood.State{}, nil, nil)
	if !errors.IsCode(err, errors.CodeSessionEmptyPersonaID) {
		t.Fatalf("expected SESSION_EMPTY_PERSONA_ID, got %v", err)
	}
}

func TestStartPinsSeedAndClampsBaseline(t *testing.T) {
	seed := int64(1234)
	sess, err := Start(StartInput{PersonaID: "p", Seed: &seed},
		mood.State{Interest: 150, Irritation: -10}, fixedClock(), nil)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if sess.Seed != 1234 {
		t.Fatalf("expected pinned seed 1234, got %d", sess.Seed)
	}
	if sess.Mood.Interest != 100 || sess.Mood.Irritation != 0 {
		t.Fatalf("expected clamped baseline, got %+v", sess.Mood)
	}
	if sess.Phase != PhaseCreated {
		t.Fatalf("expected created phase, got %s", sess.Phase)
	}
	if len(sess.ID) != 26 {
		t.Fatalf("expected generated 26-char id, got %q", sess.ID)
	}
}

func TestStartDrawsRandomSeedWhenUnpinned(t *testing.T) {
	first, err := Start(StartInput{PersonaID: "p"}, mood.State{}, nil, nil)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	second, err := Start(StartInput{PersonaID: "p"}, mood.State{}, nil, nil)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if first.Seed == second.Seed {
		t.Fatalf("expected distinct random seeds, got %d twice", first.Seed)
	}
}

func TestPhaseTransitions(t *testing.T) {
	terminals := []Phase{PhaseConverted, PhaseDisengaged, PhaseTimedOut, PhaseEndedByUser}

	if !CanTransition(PhaseCreated, PhaseActive) {
		t.Fatal("created must transition to active")
	}
	for _, terminal := range terminals {
		if !CanTransition(PhaseActive, terminal) {
			t.Fatalf("active must transition to %s", terminal)
		}
		if CanTransition(PhaseCreated, terminal) {
			t.Fatalf("created must not jump straight to %s", terminal)
		}
		for _, next := range []Phase{PhaseActive, PhaseConverted, PhaseDisengaged} {
			if CanTransition(terminal, next) {
				t.Fatalf("terminal %s must not transition to %s", terminal, next)
			}
		}
	}
}

func TestTransitionStampsEndedAt(t *testing.T) {
	sess := startActive(t)
	if sess.EndedAt != nil {
		t.Fatal("active session must not have EndedAt")
	}

	if err := sess.Transition(PhaseConverted, fixedClock()); err != nil {
		t.Fatalf("transition to converted: %v", err)
	}
	if sess.EndedAt == nil {
		t.Fatal("expected EndedAt after terminal transition")
	}

	err := sess.Transition(PhaseActive, fixedClock())
	if !errors.IsCode(err, errors.CodeSessionInvalidPhase) {
		t.Fatalf("expected SESSION_INVALID_PHASE_TRANSITION, got %v", err)
	}
}

func TestAcceptTurnOrdering(t *testing.T) {
	sess := startActive(t)

	if err := sess.AcceptTurn(1); err != nil {
		t.Fatalf("first turn should be accepted: %v", err)
	}

	sess.RecordTurn(Turn{Index: 1, Utterance: "hello"}, sess.Mood, fixedClock())
	sess.RecordTurn(Turn{Index: 2, Utterance: "pitch"}, sess.Mood, fixedClock())

	// Resubmitting an already-applied index is rejected.
	err := sess.AcceptTurn(2)
	if !errors.IsCode(err, errors.CodeTurnOutOfOrder) {
		t.Fatalf("expected TURN_OUT_OF_ORDER for replayed index, got %v", err)
	}

	// Skipping ahead is rejected too.
	err = sess.AcceptTurn(5)
	if !errors.IsCode(err, errors.CodeTurnOutOfOrder) {
		t.Fatalf("expected TURN_OUT_OF_ORDER for future index, got %v", err)
	}

	if err := sess.AcceptTurn(3); err != nil {
		t.Fatalf("next turn should be accepted: %v", err)
	}
}

func TestAcceptTurnRejectedWhenTerminal(t *testing.T) {
	sess := startActive(t)
	if err := sess.Transition(PhaseDisengaged, fixedClock()); err != nil {
		t.Fatalf("transition: %v", err)
	}

	err := sess.AcceptTurn(1)
	if !errors.IsCode(err, errors.CodeSessionNotActive) {
		t.Fatalf("expected SESSION_NOT_ACTIVE, got %v", err)
	}
}

func TestRecentTags(t *testing.T) {
	sess := startActive(t)
	sess.RecordTurn(Turn{
		Index: 1,
		Tags:  []behavior.Tag{{Name: "rapport_building", Confidence: 0.6}},
	}, sess.Mood, fixedClock())
	sess.RecordTurn(Turn{
		Index: 2,
		Tags: []behavior.Tag{
			{Name: "value_proposition", Confidence: 0.7},
			{Name: "closing_attempt", Confidence: 0.5},
		},
	}, sess.Mood, fixedClock())

	tags := sess.RecentTags(1)
	if len(tags) != 2 || tags[0] != "value_proposition" || tags[1] != "closing_attempt" {
		t.Fatalf("expected last turn's tags, got %v", tags)
	}

	all := sess.RecentTags(10)
	if len(all) != 3 {
		t.Fatalf("expected all tags, got %v", all)
	}

	if got := sess.RecentTags(0); got != nil {
		t.Fatalf("expected nil for zero window, got %v", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	sess := startActive(t)
	sess.RecordTurn(Turn{
		Index:        1,
		Tags:         []behavior.Tag{{Name: "empathy", Confidence: 0.5}},
		ProspectTags: []behavior.Tag{{Name: "objection_price", Confidence: 0.8}},
	}, sess.Mood, fixedClock())

	cloned := sess.Clone()
	cloned.Turns[0].Tags[0].Name = "mutated"
	cloned.Turns[0].ProspectTags[0].Name = "mutated"
	cloned.Turns[0].Utterance = "mutated"

	if sess.Turns[0].Tags[0].Name != "empathy" {
		t.Fatal("clone shares tag storage with original")
	}
	if sess.Turns[0].ProspectTags[0].Name != "objection_price" {
		t.Fatal("clone shares prospect tag storage with original")
	}
	if sess.Turns[0].Utterance == "mutated" {
		t.Fatal("clone shares turn storage with original")
	}
}

func TestParsePhaseRoundTrip(t *testing.T) {
	phases := []Phase{PhaseCreated, PhaseActive, PhaseConverted, PhaseDisengaged, PhaseTimedOut, PhaseEndedByUser}
	for _, phase := range phases {
		parsed, err := ParsePhase(phase.String())
		if err != nil {
			t.Fatalf("parse %s: %v", phase, err)
		}
		if parsed != phase {
			t.Fatalf("round trip mismatch: %s became %s", phase, parsed)
		}
	}
	if _, err := ParsePhase("paused"); err == nil {
		t.Fatal("expected error for unknown phase")
	}
}
