package llms

// PromptOptions contains all the options for a prompt call.
type PromptOptions struct {
	Instructions string
	Turns        []Turn
	Tools        []Tool
	Stream       func(chunk string)
}

// PromptOption is a function that can be used to modify the prompt options.
type PromptOption func(*PromptOptions)

// WithInstructions sets the system instructions for the call.
func WithInstructions(instructions string) PromptOption {
	return func(o *PromptOptions) {
		o.Instructions = instructions
	}
}

// WithTurns sets the conversation history preceding the prompt.
func WithTurns(turns ...Turn) PromptOption {
	return func(o *PromptOptions) {
		o.Turns = turns
	}
}

// WithTools exposes a tool vocabulary to the call.
func WithTools(tools ...Tool) PromptOption {
	return func(o *PromptOptions) {
		o.Tools = tools
	}
}

// WithStream registers a callback invoked for every streamed content chunk.
// When unset the call is made without streaming.
func WithStream(callback func(chunk string)) PromptOption {
	return func(o *PromptOptions) {
		o.Stream = callback
	}
}
