// Package action maps detected behavior tags to mood actions.
//
// The catalog is static configuration: it is built once at startup and read
// without synchronization by any number of concurrent session pipelines.
package action

import (
	"sort"

	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/behavior"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
)

// Catalog is the static tag-to-actions mapping plus the tag priority table.
type Catalog struct {
	actions  map[string][]mood.Action
	priority map[string]int
}

// GapFunc is invoked for tags with no catalog mapping. A missing mapping is
// a configuration gap, not a runtime failure; the resolver skips the tag.
type GapFunc func(tag string)

// NewCatalog builds a catalog from a tag-to-actions table and a priority
// table. Lower priority values sort first. Tags absent from the priority
// table sort last, after all prioritized tags.
func NewCatalog(actions map[string][]mood.Action, priority map[string]int) *Catalog {
	if actions == nil {
		actions = map[string][]mood.Action{}
	}
	if priority == nil {
		priority = map[string]int{}
	}
	return &Catalog{actions: actions, priority: priority}
}

// Resolve maps detected tags to a flat ordered action list.
//
// Tag emission order is preserved: the detector's rule-table order is the
// application order the mood model depends on. Unknown tags are reported
// through gap and skipped; they never error.
func (c *Catalog) Resolve(tags []behavior.Tag, gap GapFunc) []mood.Action {
	var resolved []mood.Action
	for _, tag := range tags {
		mapped, ok := c.actions[tag.Name]
		if !ok {
			if gap != nil {
				gap(tag.Name)
			}
			continue
		}
		resolved = append(resolved, mapped...)
	}
	return resolved
}

// OrderHints sorts externally supplied tag hints (whose emission order is
// unknown, e.g. suggestions from the text-generation collaborator) by the
// fixed priority table, ties broken by name for stability.
func (c *Catalog) OrderHints(hints []behavior.Tag) []behavior.Tag {
	ordered := make([]behavior.Tag, len(hints))
	copy(ordered, hints)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := c.priorityOf(ordered[i].Name), c.priorityOf(ordered[j].Name)
		if pi != pj {
			return pi < pj
		}
		return ordered[i].Name < ordered[j].Name
	})
	return ordered
}

func (c *Catalog) priorityOf(tag string) int {
	if p, ok := c.priority[tag]; ok {
		return p
	}
	return int(^uint(0) >> 1) // unprioritized tags sort last
}

// Targets returns the set of dimensions the actions touch, used to exempt
// deliberately moved dimensions from passive decay this turn.
func Targets(actions []mood.Action) map[mood.Dimension]bool {
	targeted := make(map[mood.Dimension]bool)
	for _, act := range actions {
		for _, effect := range act.Effects {
			targeted[effect.Dimension] = true
		}
	}
	return targeted
}

// DefaultCatalog returns the built-in tag-to-action mapping. Magnitudes and
// volatilities are tuning knobs, not derived law; personas may override the
// whole catalog.
func DefaultCatalog() *Catalog {
	actions := map[string][]mood.Action{
		behavior.TagRapportBuilding: {{
			Name: "warm_up",
			Effects: []mood.Effect{
				{Dimension: mood.Trust, Magnitude: 6},
				{Dimension: mood.Irritation, Magnitude: -3},
			},
			Volatility: 0.2,
		}},
		behavior.TagDiscoveryQuestion: {{
			Name: "feel_heard",
			Effects: []mood.Effect{
				{Dimension: mood.Interest, Magnitude: 5},
				{Dimension: mood.Trust, Magnitude: 3},
			},
			Volatility: 0.15,
		}},
		behavior.TagValueProposition: {{
			Name: "see_value",
			Effects: []mood.Effect{
				{Dimension: mood.Interest, Magnitude: 7},
			},
			Volatility: 0.25,
		}},
		behavior.TagEmpathy: {{
			Name: "soothed",
			Effects: []mood.Effect{
				{Dimension: mood.Irritation, Magnitude: -6},
				{Dimension: mood.Trust, Magnitude: 4},
			},
			Volatility: 0.15,
		}},
		behavior.TagObjectionPrice: {{
			Name: "price_pushback",
			Effects: []mood.Effect{
				{Dimension: mood.Interest, Magnitude: -5},
				{Dimension: mood.Irritation, Magnitude: 10},
			},
			Volatility: 0.1,
		}},
		behavior.TagObjectionHandling: {{
			Name: "reframed",
			Effects: []mood.Effect{
				{Dimension: mood.Irritation, Magnitude: -4},
				{Dimension: mood.Interest, Magnitude: 4},
			},
			Volatility: 0.2,
		}},
		behavior.TagClosingAttempt: {{
			Name: "decision_pressure",
			Effects: []mood.Effect{
				{Dimension: mood.Urgency, Magnitude: 8},
				{Dimension: mood.Interest, Magnitude: 2},
			},
			Volatility: 0.2,
			// A close resets drift: the prospect is now actively deciding.
			ResetsDecay: true,
		}},
		behavior.TagAggressivePush: {{
			Name: "pushed_too_hard",
			Effects: []mood.Effect{
				{Dimension: mood.Irritation, Magnitude: 12},
				{Dimension: mood.Trust, Magnitude: -6},
			},
			Volatility: 0.2,
		}},
		behavior.TagUrgencyPlay: {{
			Name: "clock_pressure",
			Effects: []mood.Effect{
				{Dimension: mood.Urgency, Magnitude: 10},
				{Dimension: mood.Irritation, Magnitude: 4},
			},
			Volatility: 0.25,
		}},
		behavior.TagInterestProbe: {{
			Name: "nudged",
			Effects: []mood.Effect{
				{Dimension: mood.Interest, Magnitude: 3},
			},
			Volatility: 0.2,
		}},
		behavior.TagDisinterestSignal: {{
			Name: "reads_the_room",
			Effects: []mood.Effect{
				{Dimension: mood.Interest, Magnitude: -4},
			},
			Volatility: 0.15,
		}},
		behavior.TagDismissive: {{
			Name: "brushed_off",
			Effects: []mood.Effect{
				{Dimension: mood.Irritation, Magnitude: 8},
				{Dimension: mood.Interest, Magnitude: -4},
			},
			Volatility: 0.15,
		}},
	}

	priority := map[string]int{
		behavior.TagAggressivePush:    0,
		behavior.TagDismissive:        1,
		behavior.TagObjectionPrice:    2,
		behavior.TagObjectionHandling: 3,
		behavior.TagEmpathy:           4,
		behavior.TagRapportBuilding:   5,
		behavior.TagDiscoveryQuestion: 6,
		behavior.TagValueProposition:  7,
		behavior.TagUrgencyPlay:       8,
		behavior.TagClosingAttempt:    9,
		behavior.TagInterestProbe:     10,
		behavior.TagDisinterestSignal: 11,
	}

	return NewCatalog(actions, priority)
}
