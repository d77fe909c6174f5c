// Package generation defines the boundary to the external text generator
// that voices the simulated prospect.
//
// The engine only depends on the Generator interface. A generation failure
// never fails a turn: the engine substitutes the persona's scripted fallback
// line and flags the turn as degraded.
package generation

import (
	"context"

	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/behavior"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/persona"
)

// Request carries everything the generator may condition on.
type Request struct {
	SessionID     string
	Persona       persona.Persona
	Mood          mood.State
	LastUtterance string
	// Tags are the behaviors detected in the trainee's utterance.
	Tags []behavior.Tag
}

// Response is the generated prospect utterance plus optional tag hints the
// generator believes apply to its own line.
type Response struct {
	Line     string
	TagHints []behavior.Tag
}

// Generator produces the prospect's next line.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (Response, error)

// Generate implements Generator for GeneratorFunc.
func (fn GeneratorFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return fn(ctx, req)
}
