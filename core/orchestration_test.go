package orchestration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aida-voice/aida-core/core/dispatch"
	"github.com/aida-voice/aida-core/core/llms"
	"github.com/aida-voice/aida-core/core/managers/timers"
	"github.com/aida-voice/aida-core/core/routing"
)

type recognizerStub struct {
	utterances []string
	next       int
}

func (r *recognizerStub) Listen(context.Context) (string, error) {
	if r.next >= len(r.utterances) {
		return "", errors.New("input source closed")
	}
	utterance := r.utterances[r.next]
	r.next++
	return utterance, nil
}

type routerStub struct {
	decision routing.Decision
	routed   []string
}

func (r *routerStub) Route(_ context.Context, utterance string) routing.Decision {
	r.routed = append(r.routed, utterance)
	return r.decision
}

type dialogueStub struct {
	response string

	// partial is streamed before err is returned, mimicking a generation
	// that dies mid-response.
	partial string
	err     error
	prompts int
}

func (d *dialogueStub) Prompt(_ context.Context, _ string, opts ...llms.PromptOption) (*llms.Response, error) {
	d.prompts++

	options := llms.PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if d.err != nil {
		if options.Stream != nil && d.partial != "" {
			options.Stream(d.partial)
		}
		return nil, d.err
	}

	if options.Stream != nil {
		options.Stream(d.response)
	}
	return &llms.Response{Content: d.response}, nil
}

type timerRegistryStub struct {
	added []timers.ActiveTimer
}

func (s *timerRegistryStub) Add(label string, duration time.Duration) timers.ActiveTimer {
	timer := timers.ActiveTimer{Label: label, Duration: duration, StartTime: time.Now()}
	s.added = append(s.added, timer)
	return timer
}

func (s *timerRegistryStub) Active() []timers.ActiveTimer { return s.added }

// routingClientStub feeds the real router canned constrained-generation
// output.
type routingClientStub struct {
	raw string
}

func (s *routingClientStub) Prompt(context.Context, string, ...llms.PromptOption) (*llms.Response, error) {
	return &llms.Response{Content: s.raw}, nil
}

func TestRunExitStopsAndSaysGoodbye(t *testing.T) {
	synthesizer := &synthesizerStub{}
	o := NewOrchestrator(
		WithSpeechRecognizer(&recognizerStub{utterances: []string{"exit"}}),
		WithSpeechSynthesizer(synthesizer),
	)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}

	spoken := synthesizer.utterances()
	if len(spoken) != 1 || spoken[0] != "Goodbye!" {
		t.Errorf("expected a goodbye, got %v", spoken)
	}
	if o.state != stateStopped {
		t.Errorf("expected stopped state, got %v", o.state)
	}
}

func TestRunCloseIsIdempotentAfterExit(t *testing.T) {
	o := NewOrchestrator(
		WithSpeechRecognizer(&recognizerStub{utterances: []string{"quit"}}),
		WithSpeechSynthesizer(&synthesizerStub{}),
		WithSummaryClient(&summaryClientStub{}),
	)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	// The run already closed the summary channel; another Close must not
	// panic on a double close.
	o.Close()
}

func TestRunTimerEndToEnd(t *testing.T) {
	registry := &timerRegistryStub{}
	synthesizer := &synthesizerStub{}

	router := routing.NewRouter(&routingClientStub{
		raw: "call:set_timer{duration:<escape>10 minutes<escape>}",
	})
	dispatcher := dispatch.NewDispatcher(dispatch.WithTimerRegistry(registry))

	o := NewOrchestrator(
		WithSpeechRecognizer(&recognizerStub{utterances: []string{"set a timer for 10 minutes", "exit"}}),
		WithSpeechSynthesizer(synthesizer),
		WithRouter(router),
		WithDispatcher(dispatcher),
	)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}

	if len(registry.added) != 1 {
		t.Fatalf("expected one timer, got %d", len(registry.added))
	}
	if registry.added[0].Duration != 10*time.Minute {
		t.Errorf("expected a 10 minute timer, got %s", registry.added[0].Duration)
	}

	spoken := synthesizer.utterances()
	if len(spoken) == 0 || !strings.Contains(spoken[0], "Timer") {
		t.Errorf("expected a spoken confirmation, got %v", spoken)
	}
}

func TestRunAppLaunchFastPathSkipsRouting(t *testing.T) {
	synthesizer := &synthesizerStub{}
	router := &routerStub{}
	var launched []string

	o := NewOrchestrator(
		WithSpeechRecognizer(&recognizerStub{utterances: []string{"open notepad", "exit"}}),
		WithSpeechSynthesizer(synthesizer),
		WithRouter(router),
		WithAppLauncher(func(_ context.Context, name string) error {
			launched = append(launched, name)
			return nil
		}),
	)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}

	if len(launched) != 1 || launched[0] != "notepad" {
		t.Errorf("expected notepad launched, got %v", launched)
	}
	if len(router.routed) != 0 {
		t.Errorf("expected fast path to skip the router, routed %v", router.routed)
	}
	if spoken := synthesizer.utterances(); len(spoken) == 0 || spoken[0] != "Opened notepad for you." {
		t.Errorf("unexpected speech %v", spoken)
	}
}

func TestDialogueSpeaksAndRemembers(t *testing.T) {
	synthesizer := &synthesizerStub{}
	dialogue := &dialogueStub{response: "Hello! How can I help?"}

	o := NewOrchestrator(
		WithSpeechRecognizer(&recognizerStub{utterances: []string{"hi there", "exit"}}),
		WithSpeechSynthesizer(synthesizer),
		WithRouter(&routerStub{decision: routing.Decision{
			Function: routing.FunctionNonThinking,
			Args:     map[string]any{"prompt": "hi there"},
		}}),
		WithDialogueClient(dialogue),
	)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}

	spoken := synthesizer.utterances()
	if len(spoken) != 2 {
		t.Fatalf("expected response plus goodbye, got %v", spoken)
	}
	if spoken[0] != "Hello! How can I help?" {
		t.Errorf("unexpected response speech %q", spoken[0])
	}

	turns := o.memory.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected user and assistant turns recorded, got %d", len(turns))
	}
	if turns[0].Role != llms.RoleUser || turns[1].Role != llms.RoleAssistant {
		t.Errorf("unexpected turn roles %v, %v", turns[0].Role, turns[1].Role)
	}
}

func TestDialogueFailureRollsBackAndApologizes(t *testing.T) {
	synthesizer := &synthesizerStub{}
	dialogue := &dialogueStub{err: errors.New("model offline")}

	o := NewOrchestrator(
		WithSpeechRecognizer(&recognizerStub{utterances: []string{"hi there", "exit"}}),
		WithSpeechSynthesizer(synthesizer),
		WithRouter(&routerStub{decision: routing.Decision{Function: routing.FunctionNonThinking}}),
		WithDialogueClient(dialogue),
	)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}

	if len(o.memory.Turns()) != 0 {
		t.Errorf("expected the user turn rolled back, got %v", o.memory.Turns())
	}
	spoken := synthesizer.utterances()
	if len(spoken) == 0 || !strings.HasPrefix(spoken[0], "Sorry.") {
		t.Errorf("expected an apology, got %v", spoken)
	}
}

func TestDialogueFailureSpeaksOnlyApology(t *testing.T) {
	synthesizer := &synthesizerStub{}
	dialogue := &dialogueStub{
		partial: "Half an answer that should never be spo",
		err:     errors.New("model offline"),
	}

	o := NewOrchestrator(
		WithSpeechRecognizer(&recognizerStub{utterances: []string{"hi there", "exit"}}),
		WithSpeechSynthesizer(synthesizer),
		WithRouter(&routerStub{decision: routing.Decision{Function: routing.FunctionNonThinking}}),
		WithDialogueClient(dialogue),
	)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}

	spoken := synthesizer.utterances()
	if len(spoken) != 2 {
		t.Fatalf("expected apology plus goodbye, got %v", spoken)
	}
	if spoken[0] != "Sorry. I am having trouble right now." {
		t.Errorf("expected only the apology for the failed turn, got %q", spoken[0])
	}
}

func TestRunWithoutInputIsFatal(t *testing.T) {
	o := NewOrchestrator(WithSpeechSynthesizer(&synthesizerStub{}))
	if err := o.Run(context.Background()); err == nil {
		t.Fatal("expected an error without a recognizer")
	}

	o = NewOrchestrator(WithSpeechRecognizer(&recognizerStub{}))
	if err := o.Run(context.Background()); err == nil {
		t.Fatal("expected an error without a synthesizer")
	}
}

func TestRunInputFailureAtStartupIsFatal(t *testing.T) {
	o := NewOrchestrator(
		WithSpeechRecognizer(&recognizerStub{}),
		WithSpeechSynthesizer(&synthesizerStub{}),
	)
	if err := o.Run(context.Background()); err == nil {
		t.Fatal("expected input acquisition failure to surface")
	}
}

// steppedRecognizer interleaves utterances with injected failures.
type steppedRecognizer struct {
	steps []inputStep
	next  int
}

type inputStep struct {
	utterance string
	err       error
}

func (r *steppedRecognizer) Listen(context.Context) (string, error) {
	if r.next >= len(r.steps) {
		return "", errors.New("input source closed")
	}
	step := r.steps[r.next]
	r.next++
	return step.utterance, step.err
}

func TestRunRecoversFromTransientInputFailure(t *testing.T) {
	synthesizer := &synthesizerStub{}
	var launched []string

	o := NewOrchestrator(
		WithSpeechRecognizer(&steppedRecognizer{steps: []inputStep{
			{utterance: "open notepad"},
			{err: errors.New("capture device busy")},
			{utterance: "exit"},
		}}),
		WithSpeechSynthesizer(synthesizer),
		WithAppLauncher(func(_ context.Context, name string) error {
			launched = append(launched, name)
			return nil
		}),
	)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("expected the loop to survive a mid-session input failure, got %v", err)
	}

	if len(launched) != 1 {
		t.Errorf("expected the turn before the failure handled, got %v", launched)
	}
	spoken := synthesizer.utterances()
	if len(spoken) != 3 || spoken[1] != "Sorry. I did not catch that." {
		t.Errorf("expected an apology between turns, got %v", spoken)
	}
	if spoken[len(spoken)-1] != "Goodbye!" {
		t.Errorf("expected the loop to reach the exit, got %v", spoken)
	}
}

func TestRunGivesUpAfterPersistentInputFailure(t *testing.T) {
	o := NewOrchestrator(
		WithSpeechRecognizer(&steppedRecognizer{steps: []inputStep{
			{utterance: ""},
			{err: errors.New("capture device busy")},
			{err: errors.New("capture device busy")},
			{err: errors.New("capture device busy")},
		}}),
		WithSpeechSynthesizer(&synthesizerStub{}),
	)
	if err := o.Run(context.Background()); err == nil {
		t.Fatal("expected persistent input failure to surface")
	}
}

func TestSearchFastPathDispatchesWebSearch(t *testing.T) {
	synthesizer := &synthesizerStub{}
	router := &routerStub{}
	dispatched := []routing.Decision{}

	o := NewOrchestrator(
		WithSpeechRecognizer(&recognizerStub{utterances: []string{"search for go concurrency", "exit"}}),
		WithSpeechSynthesizer(synthesizer),
		WithRouter(router),
		WithDispatcher(dispatcherFunc(func(_ context.Context, decision routing.Decision) dispatch.Result {
			dispatched = append(dispatched, decision)
			return dispatch.Result{Success: true, Message: "Found 1 results for 'go concurrency'"}
		})),
	)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}

	if len(dispatched) != 1 || dispatched[0].Function != routing.FunctionWebSearch {
		t.Fatalf("expected a web_search dispatch, got %v", dispatched)
	}
	if query := dispatched[0].Args["query"]; query != "go concurrency" {
		t.Errorf("expected the query without the prefix, got %v", query)
	}
	if len(router.routed) != 0 {
		t.Errorf("expected fast path to skip the router, routed %v", router.routed)
	}
}

type dispatcherFunc func(ctx context.Context, decision routing.Decision) dispatch.Result

func (f dispatcherFunc) Dispatch(ctx context.Context, decision routing.Decision) dispatch.Result {
	return f(ctx, decision)
}
