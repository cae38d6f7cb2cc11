package orchestration

import (
	"context"

	"github.com/aida-voice/aida-core/core/dispatch"
	"github.com/aida-voice/aida-core/core/routing"
)

type OrchestratorOption func(*Orchestrator)

// SpeechRecognizer is the recognition source: one Listen call yields one
// user utterance.
type SpeechRecognizer interface {
	Listen(ctx context.Context) (string, error)
}

func WithSpeechRecognizer(recognizer SpeechRecognizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.recognizer = recognizer
	}
}

func WithSpeechSynthesizer(synthesizer SpeechSynthesizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.synthesizer = synthesizer
	}
}

// WithStreamingSpeech makes dialogue responses speak in sentence-sized
// chunks as they generate instead of waiting for the full response.
func WithStreamingSpeech(streaming bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.streamingSpeech = streaming
	}
}

type ActionRouter interface {
	Route(ctx context.Context, utterance string) routing.Decision
}

func WithRouter(router ActionRouter) OrchestratorOption {
	return func(o *Orchestrator) {
		o.router = router
	}
}

type ActionDispatcher interface {
	Dispatch(ctx context.Context, decision routing.Decision) dispatch.Result
}

func WithDispatcher(dispatcher ActionDispatcher) OrchestratorOption {
	return func(o *Orchestrator) {
		o.dispatcher = dispatcher
	}
}

func WithDialogueClient(client promptClient) OrchestratorOption {
	return func(o *Orchestrator) {
		o.dialogue = client
	}
}

// WithSummaryClient enables background history compression with the given
// model client. Without one, evicted turns are simply forgotten.
func WithSummaryClient(client promptClient) OrchestratorOption {
	return func(o *Orchestrator) {
		o.summaryClient = client
	}
}

// WithRecentTurns sets how many conversation turns stay verbatim before
// compression kicks in.
func WithRecentTurns(turns int) OrchestratorOption {
	return func(o *Orchestrator) {
		if turns > 0 {
			o.recentTurns = turns
		}
	}
}

func WithInstructions(instructions string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.instructions = instructions
	}
}

// AppLauncher opens a desktop application by name.
type AppLauncher func(ctx context.Context, name string) error

func WithAppLauncher(launcher AppLauncher) OrchestratorOption {
	return func(o *Orchestrator) {
		o.launcher = launcher
	}
}

// MusicOpener opens a music search for the query.
type MusicOpener func(ctx context.Context, query string) error

func WithMusicOpener(opener MusicOpener) OrchestratorOption {
	return func(o *Orchestrator) {
		o.musicOpener = opener
	}
}
