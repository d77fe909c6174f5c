// Package score reduces a finished session into a numeric score and
// qualitative coaching feedback.
//
// Scoring is deterministic: the same terminal session always yields the same
// report. The weights are calibration knobs.
package score

import (
	"fmt"

	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/behavior"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/session"
)

// Weights configure the score blend.
type Weights struct {
	Interest           float64 // weight on final interest
	Trust              float64 // weight on final trust
	IrritationPenalty  float64 // weight subtracted per point of final irritation
	ConversionBonus    float64 // flat bonus for a converted session
	RecoveryBonus      float64 // per negative turn later recovered from
	EarlyPositiveTurn  int     // first positive tag at or before this turn earns the bonus
	EarlyPositiveBonus float64
	TipThreshold       float64 // scores below this always get at least one tip
}

// DefaultWeights returns the stock calibration.
func DefaultWeights() Weights {
	return Weights{
		Interest:           0.5,
		Trust:              0.35,
		IrritationPenalty:  0.3,
		ConversionBonus:    20,
		RecoveryBonus:      3,
		EarlyPositiveTurn:  2,
		EarlyPositiveBonus: 5,
		TipThreshold:       60,
	}
}

// Report is the scoring output handed to persistence and to the trainee.
type Report struct {
	Value     float64 // [0, 100]
	Strengths []string
	Tips      []string
}

var positiveTags = map[string]bool{
	behavior.TagRapportBuilding:   true,
	behavior.TagDiscoveryQuestion: true,
	behavior.TagValueProposition:  true,
	behavior.TagEmpathy:           true,
	behavior.TagObjectionHandling: true,
}

var negativeTags = map[string]bool{
	behavior.TagAggressivePush: true,
	behavior.TagDismissive:     true,
}

// Score reduces the session transcript and mood trajectory into a Report.
func Score(sess session.Session, w Weights) Report {
	final := sess.Mood

	value := w.Interest*final.Interest + w.Trust*final.Trust - w.IrritationPenalty*final.Irritation

	firstPositive := firstPositiveTurn(sess.Turns)
	if firstPositive > 0 && firstPositive <= w.EarlyPositiveTurn {
		value += w.EarlyPositiveBonus
	}

	recoveries := countRecoveries(sess.Turns)
	value += w.RecoveryBonus * float64(recoveries)

	if sess.Phase == session.PhaseConverted {
		value += w.ConversionBonus
	}

	if value < mood.MinValue {
		value = mood.MinValue
	}
	if value > mood.MaxValue {
		value = mood.MaxValue
	}

	report := Report{Value: value}
	report.Strengths = strengths(sess, firstPositive, recoveries)
	report.Tips = tips(sess, final)

	// A low score must never come back without coaching.
	if value < w.TipThreshold && len(report.Tips) == 0 {
		report.Tips = append(report.Tips,
			"Slow down and let the prospect talk; aim for one discovery question per exchange.")
	}
	return report
}

// firstPositiveTurn returns the 1-based index of the first turn carrying a
// positive tag, or 0 when none does.
func firstPositiveTurn(turns []session.Turn) int {
	for _, turn := range turns {
		for _, tag := range turn.Tags {
			if positiveTags[tag.Name] {
				return turn.Index
			}
		}
	}
	return 0
}

// countRecoveries counts turns that raised irritation and were later followed
// by a turn that brought it back down.
func countRecoveries(turns []session.Turn) int {
	recoveries := 0
	pendingSetback := false
	for _, turn := range turns {
		switch {
		case turn.Delta.Irritation > 0:
			pendingSetback = true
		case pendingSetback && turn.Delta.Irritation < 0:
			recoveries++
			pendingSetback = false
		}
	}
	return recoveries
}

func strengths(sess session.Session, firstPositive, recoveries int) []string {
	var found []string
	if sess.Phase == session.PhaseConverted {
		found = append(found, "Closed the deal.")
	}
	if firstPositive == 1 {
		found = append(found, "Opened with a constructive move on the very first exchange.")
	}
	if recoveries > 0 {
		found = append(found, fmt.Sprintf("Recovered from %d rough moment(s) instead of losing the prospect.", recoveries))
	}
	if hasTag(sess.Turns, behavior.TagDiscoveryQuestion) {
		found = append(found, "Asked discovery questions rather than pitching blind.")
	}
	if hasTag(sess.Turns, behavior.TagEmpathy) {
		found = append(found, "Acknowledged the prospect's concerns.")
	}
	return found
}

func tips(sess session.Session, final mood.State) []string {
	var advice []string
	if hasTag(sess.Turns, behavior.TagAggressivePush) {
		advice = append(advice, "Drop the hard-sell lines; pressure spiked the prospect's irritation.")
	}
	if hasTag(sess.Turns, behavior.TagDismissive) {
		advice = append(advice, "Never brush off a concern; restate it back before answering.")
	}
	if !hasTag(sess.Turns, behavior.TagDiscoveryQuestion) && len(sess.Turns) > 1 {
		advice = append(advice, "Ask about the prospect's situation before presenting value.")
	}
	if final.Irritation > 50 {
		advice = append(advice, "The session ended with the prospect irritated; check your pacing and tone.")
	}
	if sess.Phase == session.PhaseDisengaged && final.Interest < 40 {
		advice = append(advice, "Interest never took hold; tie your value points to the prospect's own words.")
	}
	return advice
}

func hasTag(turns []session.Turn, name string) bool {
	for _, turn := range turns {
		for _, tag := range turn.Tags {
			if tag.Name == name {
				return true
			}
		}
	}
	return false
}
