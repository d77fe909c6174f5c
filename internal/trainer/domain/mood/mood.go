// Package mood models the simulated prospect's multi-dimensional attitude
// state and the update function that mood actions are applied through.
//
// # Determinism
//
// Apply is deterministic with respect to the injected noise source. Given the
// same starting State, the same Action sequence, and a NoiseFunc backed by a
// PRNG with the same seed, Apply always produces the same trajectory. Nothing
// in this package reads ambient global randomness.
package mood

import (
	"fmt"
	"math/rand"
)

// Dimension identifies one axis of the prospect's mood.
//
// The set is closed: adding a dimension means adding a constant, a State
// field, and updating AllDimensions, so bounds handling stays exhaustive.
type Dimension int

const (
	// Trust is how much the prospect trusts the trainee.
	Trust Dimension = iota
	// Interest is how engaged the prospect is with the pitch.
	Interest
	// Irritation is how annoyed the prospect currently is.
	Irritation
	// Urgency is how pressed the prospect feels to decide.
	Urgency
)

// AllDimensions lists every mood dimension in canonical order.
var AllDimensions = []Dimension{Trust, Interest, Irritation, Urgency}

func (d Dimension) String() string {
	switch d {
	case Trust:
		return "trust"
	case Interest:
		return "interest"
	case Irritation:
		return "irritation"
	case Urgency:
		return "urgency"
	default:
		return "unknown"
	}
}

// ParseDimension maps a dimension name to its Dimension value.
func ParseDimension(name string) (Dimension, error) {
	switch name {
	case "trust":
		return Trust, nil
	case "interest":
		return Interest, nil
	case "irritation":
		return Irritation, nil
	case "urgency":
		return Urgency, nil
	default:
		return 0, fmt.Errorf("unknown mood dimension %q", name)
	}
}

// Bounds for every dimension value.
const (
	MinValue = 0.0
	MaxValue = 100.0
)

// State holds the prospect's current mood. It is a value type: copying a
// State yields an independent snapshot.
type State struct {
	Trust      float64
	Interest   float64
	Irritation float64
	Urgency    float64
}

// Get returns the value for a dimension.
func (s State) Get(d Dimension) float64 {
	switch d {
	case Trust:
		return s.Trust
	case Interest:
		return s.Interest
	case Irritation:
		return s.Irritation
	case Urgency:
		return s.Urgency
	default:
		return 0
	}
}

// Set returns a copy of the state with the dimension set to the clamped value.
func (s State) Set(d Dimension, value float64) State {
	value = clamp(value)
	switch d {
	case Trust:
		s.Trust = value
	case Interest:
		s.Interest = value
	case Irritation:
		s.Irritation = value
	case Urgency:
		s.Urgency = value
	}
	return s
}

// Clamp returns a copy of the state with every dimension forced into bounds.
func (s State) Clamp() State {
	s.Trust = clamp(s.Trust)
	s.Interest = clamp(s.Interest)
	s.Irritation = clamp(s.Irritation)
	s.Urgency = clamp(s.Urgency)
	return s
}

// Delta is the per-dimension difference between two states.
type Delta struct {
	Trust      float64
	Interest   float64
	Irritation float64
	Urgency    float64
}

// Diff computes after minus before for every dimension.
func Diff(before, after State) Delta {
	return Delta{
		Trust:      after.Trust - before.Trust,
		Interest:   after.Interest - before.Interest,
		Irritation: after.Irritation - before.Irritation,
		Urgency:    after.Urgency - before.Urgency,
	}
}

func clamp(value float64) float64 {
	if value < MinValue {
		return MinValue
	}
	if value > MaxValue {
		return MaxValue
	}
	return value
}

// Effect is one directional weighted change to a single dimension.
type Effect struct {
	Dimension Dimension
	Magnitude float64 // signed base delta
}

// Action is an immutable named effect on one or more mood dimensions.
//
// Volatility controls how much jitter is layered onto the base magnitude:
// effective = base * (1 + volatility*noise) with noise in [-1, 1].
type Action struct {
	Name        string
	Effects     []Effect
	Volatility  float64
	ResetsDecay bool // also resets passive decay for the targeted dimensions
}

// NoiseFunc produces a noise sample in [-1, 1]. A nil NoiseFunc means no
// jitter is applied regardless of action volatility.
type NoiseFunc func() float64

// UniformNoise returns a NoiseFunc drawing uniformly from [-1, 1) using the
// provided PRNG. Callers seed the PRNG per session for replayable runs.
func UniformNoise(rng *rand.Rand) NoiseFunc {
	return func() float64 {
		return rng.Float64()*2 - 1
	}
}

// Apply applies a single action to the state and returns the new state.
//
// Effects are applied in slice order; each dimension is clamped immediately
// after its effect lands. When multiple actions fire in one turn the caller
// applies them in detection order, which matters because clamping at the
// bounds is non-linear.
func Apply(state State, action Action, noise NoiseFunc) State {
	for _, effect := range action.Effects {
		delta := effect.Magnitude
		if noise != nil && action.Volatility != 0 {
			delta = effect.Magnitude * (1 + action.Volatility*noise())
		}
		state = state.Set(effect.Dimension, state.Get(effect.Dimension)+delta)
	}
	return state
}

// DecayConfig controls the passive pull of volatile dimensions back toward
// their neutral baselines on turns where no action targets them.
type DecayConfig struct {
	IrritationNeutral float64
	UrgencyNeutral    float64
	Rate              float64 // fraction of the gap closed per turn, [0, 1]
}

// DefaultDecay returns the decay configuration used when a persona does not
// override it.
func DefaultDecay() DecayConfig {
	return DecayConfig{
		IrritationNeutral: 20,
		UrgencyNeutral:    30,
		Rate:              0.08,
	}
}

// Decay pulls irritation and urgency toward their neutral baselines. A
// dimension listed in targeted is skipped for this turn: an action already
// moved it deliberately and passive drift must not fight the action.
func Decay(state State, cfg DecayConfig, targeted map[Dimension]bool) State {
	if cfg.Rate <= 0 {
		return state
	}
	if !targeted[Irritation] {
		gap := cfg.IrritationNeutral - state.Irritation
		state = state.Set(Irritation, state.Irritation+gap*cfg.Rate)
	}
	if !targeted[Urgency] {
		gap := cfg.UrgencyNeutral - state.Urgency
		state = state.Set(Urgency, state.Urgency+gap*cfg.Rate)
	}
	return state
}
