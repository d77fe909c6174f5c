package behavior

// Canonical tag names shared with the action catalog.
const (
	TagRapportBuilding   = "rapport_building"
	TagDiscoveryQuestion = "discovery_question"
	TagValueProposition  = "value_proposition"
	TagEmpathy           = "empathy"
	TagObjectionPrice    = "objection_price"
	TagObjectionHandling = "objection_handling"
	TagClosingAttempt    = "closing_attempt"
	TagAggressivePush    = "aggressive_push"
	TagUrgencyPlay       = "urgency_play"
	TagInterestProbe     = "interest_probe"
	TagDisinterestSignal = "disinterest_signal"
	TagDismissive        = "dismissive"
)

// DefaultRules returns the built-in ordered rule table. The order is part of
// the detector contract: tags are emitted, resolved, and applied in this
// order within a turn.
func DefaultRules() []Rule {
	return []Rule{
		{
			Tag:         TagRapportBuilding,
			Cues:        []string{"how are you", "thanks for taking the time", "appreciate your time", "great to meet", "good morning", "good afternoon", "how's your week"},
			BoostCues:   []string{"really appreciate", "pleasure"},
			Base:        0.6,
			PerExtraCue: 0.15,
		},
		{
			Tag:         TagDiscoveryQuestion,
			Cues:        []string{"tell me about", "what challenges", "how do you currently", "what would it mean", "walk me through", "how many", "what's your process"},
			Base:        0.65,
			PerExtraCue: 0.15,
		},
		{
			Tag:         TagValueProposition,
			Cues:        []string{"save you", "return on investment", "roi", "increase revenue", "reduce costs", "cut your", "pays for itself", "in your case that means"},
			BoostCues:   []string{"guarantee", "proven"},
			Base:        0.6,
			PerExtraCue: 0.15,
		},
		{
			Tag:         TagEmpathy,
			Cues:        []string{"i understand", "i hear you", "that makes sense", "fair enough", "i get that", "totally reasonable"},
			Base:        0.6,
			PerExtraCue: 0.2,
		},
		{
			Tag:         TagObjectionPrice,
			Cues:        []string{"price", "pricing", "per seat", "per month", "subscription", "it costs", "the cost"},
			BoostCues:   []string{"discount", "cheaper"},
			Base:        0.55,
			PerExtraCue: 0.15,
		},
		{
			Tag:         TagObjectionHandling,
			Cues:        []string{"compared to what you spend", "think of it as", "many of our customers felt", "that's exactly why", "let me put that in perspective"},
			Base:        0.6,
			PerExtraCue: 0.15,
		},
		{
			Tag:         TagClosingAttempt,
			Cues:        []string{"sign up", "get started", "move forward", "send over the contract", "shall we", "ready to go", "close this today", "next steps"},
			Base:        0.65,
			PerExtraCue: 0.15,
		},
		{
			Tag:         TagAggressivePush,
			Cues:        []string{"you need to", "you have to", "last chance", "buy now", "decide right now", "don't waste my", "take it or leave it"},
			Base:        0.7,
			PerExtraCue: 0.1,
		},
		{
			Tag:         TagUrgencyPlay,
			Cues:        []string{"offer expires", "only today", "limited time", "before the deadline", "only a few left", "ends this week"},
			Base:        0.6,
			PerExtraCue: 0.15,
		},
		{
			Tag:         TagInterestProbe,
			Cues:        []string{"interested", "sound good", "what do you think", "does that resonate"},
			Negatable:   true,
			NegatedTag:  TagDisinterestSignal,
			Base:        0.5,
			PerExtraCue: 0.15,
		},
		{
			Tag:         TagDismissive,
			Cues:        []string{"whatever", "doesn't matter", "let's skip", "not my problem", "who cares"},
			Base:        0.6,
			PerExtraCue: 0.15,
		},
	}
}
