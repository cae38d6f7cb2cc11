// Package orchestration runs the assistant's turn loop: listen, classify,
// route, act or converse, speak, repeat.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aida-voice/aida-core/core/llms"
	"github.com/aida-voice/aida-core/core/routing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type turnState int

const (
	stateAwaitingInput turnState = iota
	stateClassifying
	stateFastPath
	stateRoutedAction
	stateDialogue
	stateSpeaking
	stateStopped
)

const defaultRecentTurns = 6

// maxInputFailures is how many consecutive mid-session input failures are
// retried before the run gives up.
const maxInputFailures = 3

const defaultInstructions = `Your name is Aida. You are a warm, cheerful, and conversational voice assistant.
You show genuine curiosity about what the user says, ask follow-up questions,
and keep the conversation flowing naturally. Keep responses short enough to be
spoken aloud comfortably.`

// Orchestrator drives the conversation loop. Everything but the recognizer
// and synthesizer is optional; missing capabilities degrade to spoken
// apologies rather than failures.
type Orchestrator struct {
	recognizer  SpeechRecognizer
	synthesizer SpeechSynthesizer
	router      ActionRouter
	dispatcher  ActionDispatcher
	dialogue    promptClient

	summaryClient promptClient
	launcher      AppLauncher
	musicOpener   MusicOpener

	instructions    string
	recentTurns     int
	streamingSpeech bool

	memory     *conversationMemory
	summarizer *summarizer
	streamer   *responseStreamer
	state      turnState

	closeOnce sync.Once
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		instructions: defaultInstructions,
		recentTurns:  defaultRecentTurns,
		state:        stateAwaitingInput,
	}

	for _, opt := range opts {
		opt(o)
	}

	o.memory = newConversationMemory(o.recentTurns)
	o.streamer = newResponseStreamer(o.synthesizer, o.streamingSpeech)
	if o.summaryClient != nil {
		o.summarizer = newSummarizer(o.summaryClient)
	}

	return o
}

// Close shuts the background summarization down. The summary channel close
// is the worker's only shutdown sentinel, so it happens exactly once.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		if o.summarizer != nil {
			o.summarizer.Close()
		}
	})
}

// Run executes the turn loop until the user exits, the context is canceled,
// or input acquisition fails. Input and output must be wired before calling.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.recognizer == nil {
		return fmt.Errorf("cannot run without a speech recognizer")
	}
	if o.synthesizer == nil {
		return fmt.Errorf("cannot run without a speech synthesizer")
	}

	if o.summarizer != nil {
		go func() {
			if err := panicSafeNamedWorker("summarization", func(ctx context.Context) error {
				return o.summarizer.Run(ctx, o.memory.SetSummary)
			})(ctx); err != nil {
				logger.ErrorContext(ctx, "Summarization worker stopped", "error", err)
			}
		}()
	}
	defer o.Close()

	acquired := false
	inputFailures := 0
	for {
		o.state = stateAwaitingInput
		if ctx.Err() != nil {
			return ctx.Err()
		}

		utterance, err := o.recognizer.Listen(ctx)
		if err != nil {
			// Only failing to acquire input at startup is fatal; a transient
			// mid-session failure apologizes and listens again. Persistent
			// failure and end of input still end the run.
			if !acquired || errors.Is(err, io.EOF) || ctx.Err() != nil {
				return fmt.Errorf("failed to acquire input: %w", err)
			}
			inputFailures++
			if inputFailures >= maxInputFailures {
				return fmt.Errorf("failed to acquire input: %w", err)
			}
			logger.WarnContext(ctx, "Input acquisition failed", "error", err)
			o.speak(ctx, "Sorry. I did not catch that.")
			continue
		}
		acquired = true
		inputFailures = 0

		if strings.TrimSpace(utterance) == "" {
			continue
		}

		if stopped := o.processTurn(ctx, utterance); stopped {
			o.state = stateStopped
			return nil
		}
	}
}

// processTurn handles one utterance end to end. Returns true when the
// conversation should stop.
func (o *Orchestrator) processTurn(ctx context.Context, utterance string) bool {
	ctx, span := tracer.Start(ctx, "process turn")
	defer span.End()

	o.state = stateClassifying
	classified := classify(utterance)
	span.SetAttributes(attribute.Int("turn.intent", int(classified.kind)))

	switch classified.kind {
	case intentExit:
		o.speak(ctx, "Goodbye!")
		return true
	case intentAppLaunch:
		o.state = stateFastPath
		o.launchApp(ctx, classified.payload)
		return false
	case intentMusic:
		o.state = stateFastPath
		o.openMusic(ctx, classified.payload)
		return false
	case intentWebSearch:
		o.state = stateRoutedAction
		o.executeAction(ctx, routing.Decision{
			Function: routing.FunctionWebSearch,
			Args:     map[string]any{"query": classified.payload},
		})
		return false
	}

	decision := o.route(ctx, utterance)
	if decision.Function.IsAction() {
		o.state = stateRoutedAction
		o.executeAction(ctx, decision)
		return false
	}

	o.state = stateDialogue
	o.converse(ctx, utterance)
	return false
}

func (o *Orchestrator) route(ctx context.Context, utterance string) routing.Decision {
	if o.router == nil {
		return routing.Decision{
			Function: routing.FunctionNonThinking,
			Args:     map[string]any{"prompt": utterance},
		}
	}
	return o.router.Route(ctx, utterance)
}

func (o *Orchestrator) launchApp(ctx context.Context, name string) {
	if o.launcher == nil || name == "" {
		o.speak(ctx, fmt.Sprintf("Sorry. I could not open %s.", name))
		return
	}

	if err := o.launcher(ctx, name); err != nil {
		logger.WarnContext(ctx, "Failed to launch app", "app", name, "error", err)
		o.speak(ctx, fmt.Sprintf("Sorry. I could not open %s.", name))
		return
	}
	o.speak(ctx, fmt.Sprintf("Opened %s for you.", name))
}

func (o *Orchestrator) openMusic(ctx context.Context, query string) {
	if o.musicOpener == nil {
		o.speak(ctx, "Sorry. Music is not set up.")
		return
	}

	o.speak(ctx, fmt.Sprintf("Opening Spotify for %s.", query))
	if err := o.musicOpener(ctx, query); err != nil {
		logger.WarnContext(ctx, "Failed to open music search", "query", query, "error", err)
	}
}

func (o *Orchestrator) executeAction(ctx context.Context, decision routing.Decision) {
	if o.dispatcher == nil {
		o.speak(ctx, "Sorry. I cannot do that right now.")
		return
	}

	result := o.dispatcher.Dispatch(ctx, decision)
	o.speak(ctx, speakableResult(decision.Function, result))
}

// converse runs a dialogue turn through the chat model. The user turn is
// appended before generation and rolled back if generation fails, so the
// history never ends on an unanswered question.
func (o *Orchestrator) converse(ctx context.Context, utterance string) {
	ctx, span := tracer.Start(ctx, "dialogue turn")
	defer span.End()

	if o.dialogue == nil {
		o.speak(ctx, "Sorry. I am having trouble right now.")
		return
	}

	if batch := o.memory.AppendUser(utterance); batch != nil && o.summarizer != nil {
		if !o.summarizer.Offer(summaryJob{previous: o.memory.Summary(), turns: batch}) {
			logger.DebugContext(ctx, "Summarization busy, dropping batch", "turns", len(batch))
		}
	}

	var turns []llms.Turn
	if summary := o.memory.Summary(); summary != "" {
		turns = append(turns, llms.Turn{
			Role:    llms.RoleSystem,
			Content: fmt.Sprintf("[Previous conversation summary: %s]", summary),
		})
	}
	turns = append(turns, o.memory.Turns()...)

	o.state = stateSpeaking
	stream := o.streamer.OpenTurn(ctx)
	response, err := o.dialogue.Prompt(ctx, "",
		llms.WithInstructions(o.instructions),
		llms.WithTurns(turns...),
		llms.WithStream(stream.Write),
	)
	if err != nil {
		// Anything the model produced before failing is dropped: a failed
		// turn speaks only the apology.
		stream.Discard()
		err = fmt.Errorf("failed to generate response: %w", err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "Dialogue generation failed", "error", err)

		o.memory.RollbackUser()
		o.speak(ctx, "Sorry. I am having trouble right now.")
		return
	}

	if err := stream.Close(ctx); err != nil {
		logger.WarnContext(ctx, "Failed to speak response", "error", err)
	}

	o.memory.AppendAssistant(response.Content)
}

func (o *Orchestrator) speak(ctx context.Context, text string) {
	if err := o.streamer.Speak(ctx, text); err != nil {
		logger.WarnContext(ctx, "Failed to speak", "error", err)
	}
}
