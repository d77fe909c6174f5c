// Package behavior detects sales-behavior tags in trainee utterances.
//
// Detection is rule-based and deterministic: a fixed ordered table of cue
// rules is evaluated against the normalized utterance, and every rule that
// matches emits a tag with a confidence derived from match strength plus
// negation and intensity adjustments. The contract is determinism for
// identical input and rule table, not semantic correctness; sarcasm and
// ambiguity produce false positives by design.
package behavior

import "strings"

// Tag is a detected behavior label with a confidence in [0, 1].
type Tag struct {
	Name       string
	Confidence float64
}

// Rule is one declarative pattern family. Rules are evaluated in table
// order, and the table order is also the tag emission order.
type Rule struct {
	// Tag is emitted when any cue matches.
	Tag string
	// Cues are lowercase lexical cues matched as substrings.
	Cues []string
	// BoostCues add extra confidence on top of a base cue hit. A boost cue
	// alone does not fire the rule.
	BoostCues []string
	// Negatable marks cues whose meaning flips under a preceding negator
	// ("not interested" must not fire like "interested").
	Negatable bool
	// NegatedTag, when non-empty, is emitted instead of Tag for negated
	// matches. Empty means a negated match is suppressed entirely.
	NegatedTag string
	// Base is the confidence for a single cue hit.
	Base float64
	// PerExtraCue is added for each additional distinct cue hit.
	PerExtraCue float64
}

var negators = []string{
	"not", "no", "never", "hardly", "isn't", "don't", "won't",
	"can't", "doesn't", "wasn't", "aren't", "wouldn't",
}

var hedges = []string{
	"maybe", "perhaps", "possibly", "i guess", "kind of", "sort of", "might",
}

// negationWindow is how many tokens before a cue a negator can sit and still
// flip it.
const negationWindow = 3

// Detector evaluates a fixed rule table against trainee utterances.
type Detector struct {
	rules []Rule
}

// NewDetector creates a detector over the given ordered rule table. A nil
// table uses DefaultRules.
func NewDetector(rules []Rule) *Detector {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Detector{rules: rules}
}

// Detect returns the tags fired by the utterance, in rule-table order.
// recent carries the tag names of recent turns for persistence boosting; it
// may be nil. An empty result means a neutral turn.
func (d *Detector) Detect(utterance string, recent []string) []Tag {
	normalized := normalize(utterance)
	if normalized == "" {
		return nil
	}
	tokens := strings.Fields(normalized)

	intensity := intensityFactor(utterance)
	hedged := containsAny(normalized, hedges)

	recentSet := make(map[string]bool, len(recent))
	for _, name := range recent {
		recentSet[name] = true
	}

	var tags []Tag
	for _, rule := range d.rules {
		hits, negatedHits := matchCues(normalized, tokens, rule)
		boostHits := countHits(normalized, rule.BoostCues)

		if hits > 0 {
			confidence := rule.Base + rule.PerExtraCue*float64(hits-1) + 0.1*float64(boostHits)
			confidence *= intensity
			if hedged {
				confidence *= 0.7
			}
			if recentSet[rule.Tag] {
				// Repeated behavior reads as deliberate.
				confidence += 0.05
			}
			tags = append(tags, Tag{Name: rule.Tag, Confidence: clampConfidence(confidence)})
		}

		if negatedHits > 0 && rule.NegatedTag != "" {
			confidence := rule.Base * intensity
			tags = append(tags, Tag{Name: rule.NegatedTag, Confidence: clampConfidence(confidence)})
		}
	}
	return tags
}

// matchCues counts plain and negated cue hits for a rule.
func matchCues(normalized string, tokens []string, rule Rule) (hits, negatedHits int) {
	for _, cue := range rule.Cues {
		idx := strings.Index(normalized, cue)
		if idx < 0 {
			continue
		}
		if rule.Negatable && isNegated(tokens, normalized, idx) {
			negatedHits++
			continue
		}
		hits++
	}
	return hits, negatedHits
}

// isNegated reports whether a negator token sits within negationWindow tokens
// before the cue occurrence starting at byte offset idx.
func isNegated(tokens []string, normalized string, idx int) bool {
	cueTokenIndex := len(strings.Fields(normalized[:idx]))
	start := cueTokenIndex - negationWindow
	if start < 0 {
		start = 0
	}
	for i := start; i < cueTokenIndex && i < len(tokens); i++ {
		token := strings.Trim(tokens[i], ".,!?;:")
		for _, negator := range negators {
			if token == negator {
				return true
			}
		}
	}
	return false
}

// intensityFactor derives an emphasis multiplier from exclamation marks and
// shouting. Capped so intensity alone cannot manufacture certainty.
func intensityFactor(raw string) float64 {
	factor := 1.0

	bangs := strings.Count(raw, "!")
	if bangs > 3 {
		bangs = 3
	}
	factor += 0.08 * float64(bangs)

	var letters, uppers int
	for _, r := range raw {
		if r >= 'a' && r <= 'z' {
			letters++
		}
		if r >= 'A' && r <= 'Z' {
			letters++
			uppers++
		}
	}
	if letters >= 8 && float64(uppers)/float64(letters) > 0.6 {
		factor += 0.15
	}
	return factor
}

func countHits(normalized string, cues []string) int {
	count := 0
	for _, cue := range cues {
		if strings.Contains(normalized, cue) {
			count++
		}
	}
	return count
}

func containsAny(normalized string, cues []string) bool {
	return countHits(normalized, cues) > 0
}

func normalize(utterance string) string {
	return strings.Join(strings.Fields(strings.ToLower(utterance)), " ")
}

func clampConfidence(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
