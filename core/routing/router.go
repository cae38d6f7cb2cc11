package routing

import (
	"context"

	"github.com/aida-voice/aida-core/core/llms"
	"go.opentelemetry.io/otel/attribute"
)

const instructions = "You are a model that can do function calling with the following functions"

// Decision is the routing outcome for a single utterance: a function from the
// closed vocabulary and its typed arguments.
type Decision struct {
	Function Function
	Args     map[string]any
}

// PromptClient is the constrained-generation call the router depends on.
type PromptClient interface {
	Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error)
}

// Router produces routing decisions by prompting a constrained model with the
// function vocabulary and defensively parsing whatever text comes back.
type Router struct {
	client PromptClient
	tools  []llms.Tool
}

func NewRouter(client PromptClient) *Router {
	return &Router{
		client: client,
		tools:  Tools(),
	}
}

// Route decides what to do with an utterance. It never fails: generation or
// parse failures fall back to a nonthinking passthrough decision carrying the
// full utterance.
func (r *Router) Route(ctx context.Context, utterance string) Decision {
	ctx, span := tracer.Start(ctx, "route utterance")
	defer span.End()

	response, err := r.client.Prompt(ctx, utterance,
		llms.WithInstructions(instructions),
		llms.WithTools(r.tools...),
	)
	if err != nil || response == nil {
		if err != nil {
			logger.Warn("router generation failed, falling back to passthrough", "error", err)
		}
		return passthroughDecision(utterance)
	}

	decision := Parse(response.Content, utterance)
	span.SetAttributes(attribute.String("routing.function", string(decision.Function)))
	return decision
}

// Parse extracts a decision from a raw model response. The utterance backs
// every fallback path so a recognized function is always actionable.
func Parse(raw string, utterance string) Decision {
	result := parseFunctionCall(raw)
	if result.state == parseStateNoMatch {
		return passthroughDecision(utterance)
	}

	// Passthrough functions always carry the original utterance, whatever
	// the model put in the argument block.
	if result.function.IsPassthrough() {
		return Decision{Function: result.function, Args: map[string]any{"prompt": utterance}}
	}

	if result.function == FunctionGetSystemInfo {
		return Decision{Function: result.function, Args: map[string]any{}}
	}

	if result.state == parseStateParsed {
		return Decision{Function: result.function, Args: result.args}
	}

	// Empty or malformed block: hand the whole utterance to the function's
	// primary argument.
	if primary, ok := primaryArguments[result.function]; ok {
		return Decision{Function: result.function, Args: map[string]any{primary: utterance}}
	}

	return Decision{Function: result.function, Args: map[string]any{}}
}

func passthroughDecision(utterance string) Decision {
	return Decision{
		Function: FunctionNonThinking,
		Args:     map[string]any{"prompt": utterance},
	}
}
