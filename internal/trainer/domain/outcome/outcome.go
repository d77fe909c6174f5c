// Package outcome classifies a session's mood state into continue, converted,
// or disengaged after each turn.
package outcome

import (
	"fmt"

	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
)

// Verdict is the three-state classification the evaluator produces.
type Verdict int

const (
	// Continue means the session stays active.
	Continue Verdict = iota
	// Converted means the prospect has agreed.
	Converted
	// Disengaged means the prospect has withdrawn.
	Disengaged
)

func (v Verdict) String() string {
	switch v {
	case Continue:
		return "continue"
	case Converted:
		return "converted"
	case Disengaged:
		return "disengaged"
	default:
		return "unknown"
	}
}

// Thresholds hold the tunable conversion and disengagement boundaries.
// The values are calibration knobs, not derived constants.
type Thresholds struct {
	// ConversionInterest is the interest floor for conversion.
	ConversionInterest float64
	// ConversionIrritationCeiling blocks conversion while irritation sits at
	// or above it; interest alone never converts an annoyed prospect.
	ConversionIrritationCeiling float64
	// DisengageIrritation ends the session when irritation reaches it.
	DisengageIrritation float64
	// MaxTurns disengages the prospect when the turn budget runs out
	// without a conversion.
	MaxTurns int
}

// DefaultThresholds returns the stock calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ConversionInterest:          80,
		ConversionIrritationCeiling: 60,
		DisengageIrritation:         90,
		MaxTurns:                    30,
	}
}

// Validate checks threshold consistency.
func (t Thresholds) Validate() error {
	if t.ConversionInterest <= 0 || t.ConversionInterest > mood.MaxValue {
		return fmt.Errorf("conversion interest %v out of range", t.ConversionInterest)
	}
	if t.ConversionIrritationCeiling <= 0 {
		return fmt.Errorf("conversion irritation ceiling %v out of range", t.ConversionIrritationCeiling)
	}
	if t.DisengageIrritation <= t.ConversionIrritationCeiling {
		return fmt.Errorf("disengage irritation %v must exceed conversion ceiling %v",
			t.DisengageIrritation, t.ConversionIrritationCeiling)
	}
	if t.MaxTurns <= 0 {
		return fmt.Errorf("max turns %d must be positive", t.MaxTurns)
	}
	return nil
}

// Evaluate classifies the state after a mood update. It is a pure function:
// re-evaluating unchanged inputs yields the same verdict.
//
// Disengagement is checked first so an utterance that simultaneously spikes
// interest past the conversion floor and irritation past the ceiling still
// ends the session.
func Evaluate(state mood.State, turnCount int, th Thresholds) Verdict {
	if state.Irritation >= th.DisengageIrritation {
		return Disengaged
	}
	if state.Interest >= th.ConversionInterest && state.Irritation < th.ConversionIrritationCeiling {
		return Converted
	}
	if turnCount >= th.MaxTurns {
		return Disengaged
	}
	return Continue
}
