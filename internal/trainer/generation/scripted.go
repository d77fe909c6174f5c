package generation

import (
	"context"

	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/behavior"
)

// Scripted is a deterministic offline generator. It is the default when no
// external model is configured, and the reference behavior for tests.
type Scripted struct{}

// NewScripted creates a scripted generator.
func NewScripted() *Scripted {
	return &Scripted{}
}

// Generate picks a canned line from the detected tags and current mood.
// The choice is a pure function of the request. Lines that express a clear
// prospect behavior carry tag hints describing it.
func (s *Scripted) Generate(_ context.Context, req Request) (Response, error) {
	if req.Mood.Irritation >= 75 {
		return Response{
			Line:     "Look, I really don't have time for this today.",
			TagHints: []behavior.Tag{{Name: behavior.TagDisinterestSignal, Confidence: 0.9}},
		}, nil
	}

	// First matching tag wins; tags arrive in detection order.
	for _, tag := range req.Tags {
		switch tag.Name {
		case behavior.TagAggressivePush, behavior.TagDismissive:
			return Response{
				Line:     "I don't appreciate being pushed. Can we keep this professional?",
				TagHints: []behavior.Tag{{Name: behavior.TagDisinterestSignal, Confidence: 0.7}},
			}, nil
		case behavior.TagObjectionPrice:
			return Response{
				Line:     "That's more than we budgeted. What exactly am I paying for?",
				TagHints: []behavior.Tag{{Name: behavior.TagObjectionPrice, Confidence: 0.8}},
			}, nil
		case behavior.TagDiscoveryQuestion:
			return Response{Line: "Good question. Honestly, our current setup is held together with spreadsheets."}, nil
		case behavior.TagValueProposition:
			if req.Mood.Interest >= 60 {
				return Response{
					Line:     "Okay, that would actually move the needle for us. Go on.",
					TagHints: []behavior.Tag{{Name: behavior.TagInterestProbe, Confidence: 0.6}},
				}, nil
			}
			return Response{Line: "Everyone promises savings. Do you have numbers from a company like ours?"}, nil
		case behavior.TagClosingAttempt:
			if req.Mood.Interest >= req.Persona.Thresholds.ConversionInterest-10 {
				return Response{
					Line:     "Alright. Send over the details and let's talk terms.",
					TagHints: []behavior.Tag{{Name: behavior.TagInterestProbe, Confidence: 0.7}},
				}, nil
			}
			return Response{Line: "Hold on, I'm not there yet. I still have questions."}, nil
		case behavior.TagRapportBuilding:
			return Response{Line: "Doing fine, thanks. What's this about?"}, nil
		case behavior.TagEmpathy, behavior.TagObjectionHandling:
			return Response{Line: "I appreciate you hearing me out on that."}, nil
		case behavior.TagUrgencyPlay:
			return Response{Line: "Deadlines are your problem, not mine. Convince me on substance."}, nil
		}
	}

	if req.Mood.Interest >= 60 {
		return Response{Line: "I'm listening. What else should I know?"}, nil
	}
	return Response{Line: "Hm. I'm not sure I follow. What's the point for us?"}, nil
}
