package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
)

// OpenAI voices the prospect with an OpenAI model. The engine treats it as a
// black box; only the returned line matters.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI-backed generator.
func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("openai model is required")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{client: &client, model: model}, nil
}

// Generate asks the model for the prospect's next line.
func (g *OpenAI) Generate(ctx context.Context, req Request) (Response, error) {
	if g.client == nil {
		return Response{}, errors.New("openai generator: client is nil")
	}

	params := responses.ResponseNewParams{
		Model:           g.model,
		MaxOutputTokens: openai.Int(200),
		Instructions:    openai.String(prospectInstructions(req)),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(req.LastUtterance, responses.EasyInputMessageRoleUser),
			},
		},
	}

	resp, err := g.client.Responses.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("generate prospect line: %w", err)
	}

	line := strings.TrimSpace(resp.OutputText())
	if line == "" {
		return Response{}, errors.New("generate prospect line: empty output")
	}
	return Response{Line: line}, nil
}

// prospectInstructions renders the persona and mood into a system prompt.
// The mood drives the register; exact numbers stay internal.
func prospectInstructions(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a prospect in a sales-training roleplay (%s sector). %s\n",
		req.Persona.Name, req.Persona.Sector, req.Persona.Description)
	fmt.Fprintf(&b, "Current attitude: %s. Reply with one short in-character line. Never mention being simulated.",
		moodRegister(req.Mood))
	return b.String()
}

func moodRegister(state mood.State) string {
	switch {
	case state.Irritation >= 70:
		return "openly annoyed and close to ending the call"
	case state.Interest >= 70 && state.Trust >= 50:
		return "engaged and close to agreeing"
	case state.Interest >= 50:
		return "curious but not yet convinced"
	case state.Trust <= 25:
		return "guarded and skeptical"
	default:
		return "neutral and businesslike"
	}
}
