// Package persona describes the simulated prospects a trainee can pitch to.
//
// A persona bundles a sector-specific baseline mood, evaluator thresholds,
// decay tuning, and the scripted fallback line used when the text-generation
// collaborator is unavailable.
package persona

import (
	"strings"

	"github.com/pitchdojo/pitchdojo/internal/platform/errors"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/outcome"
)

// Persona is a static prospect descriptor. Personas are configuration, not
// session state: a session copies the baseline at start and never writes back.
type Persona struct {
	ID          string
	Name        string
	Sector      string
	Description string
	Baseline    mood.State
	Thresholds  outcome.Thresholds
	Decay       mood.DecayConfig
	// FallbackLine is spoken verbatim when generation fails or times out.
	FallbackLine string
}

// Validate checks persona consistency before registration.
func (p Persona) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New(errors.CodePersonaEmptyName, "persona name is required")
	}
	clamped := p.Baseline.Clamp()
	if clamped != p.Baseline {
		return errors.WithMetadata(errors.CodePersonaInvalidMood,
			"persona baseline mood out of bounds",
			map[string]string{"persona": p.Name})
	}
	if err := p.Thresholds.Validate(); err != nil {
		return errors.Wrap(errors.CodeOutcomeInvalidConfig, "persona thresholds invalid", err)
	}
	return nil
}

// Catalog is a read-only persona directory keyed by persona ID.
type Catalog struct {
	personas map[string]Persona
}

// NewCatalog builds a catalog, validating every persona.
func NewCatalog(personas []Persona) (*Catalog, error) {
	byID := make(map[string]Persona, len(personas))
	for _, p := range personas {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		byID[p.ID] = p
	}
	return &Catalog{personas: byID}, nil
}

// Get looks up a persona by ID.
func (c *Catalog) Get(id string) (Persona, error) {
	p, ok := c.personas[id]
	if !ok {
		return Persona{}, errors.WithMetadata(errors.CodePersonaNotFound,
			"persona not found", map[string]string{"persona_id": id})
	}
	return p, nil
}

// IDs returns all registered persona IDs.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.personas))
	for id := range c.personas {
		ids = append(ids, id)
	}
	return ids
}

// DefaultCatalog returns the built-in prospect roster.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog([]Persona{
		{
			ID:           "saas-skeptic",
			Name:         "Dana, Ops Lead",
			Sector:       "saas",
			Description:  "Burned by two failed tool rollouts; warms up slowly, allergic to pressure.",
			Baseline:     mood.State{Trust: 25, Interest: 30, Irritation: 20, Urgency: 15},
			Thresholds:   outcome.DefaultThresholds(),
			Decay:        mood.DefaultDecay(),
			FallbackLine: "Sorry, could you run that by me once more?",
		},
		{
			ID:          "retail-hurried",
			Name:        "Marco, Store Manager",
			Sector:      "retail",
			Description: "Interested but perpetually short on time; irritation climbs fast.",
			Baseline:    mood.State{Trust: 35, Interest: 40, Irritation: 30, Urgency: 50},
			Thresholds: outcome.Thresholds{
				ConversionInterest:          75,
				ConversionIrritationCeiling: 55,
				DisengageIrritation:         85,
				MaxTurns:                    20,
			},
			Decay: mood.DecayConfig{
				IrritationNeutral: 30,
				UrgencyNeutral:    50,
				Rate:              0.1,
			},
			FallbackLine: "Hang on, I've got a delivery coming in. Where were we?",
		},
		{
			ID:          "finance-cautious",
			Name:        "Priya, Finance Director",
			Sector:      "finance",
			Description: "Numbers-first; rewards discovery and concrete value, ignores urgency plays.",
			Baseline:    mood.State{Trust: 30, Interest: 25, Irritation: 15, Urgency: 10},
			Thresholds: outcome.Thresholds{
				ConversionInterest:          85,
				ConversionIrritationCeiling: 50,
				DisengageIrritation:         80,
				MaxTurns:                    35,
			},
			Decay: mood.DecayConfig{
				IrritationNeutral: 15,
				UrgencyNeutral:    10,
				Rate:              0.12,
			},
			FallbackLine: "Let me check my notes. What was your last point?",
		},
	})
	if err != nil {
		// The built-in roster is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return catalog
}
