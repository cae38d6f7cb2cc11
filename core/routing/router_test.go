package routing

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/aida-voice/aida-core/core/llms"
)

type promptClientStub struct {
	response string
	err      error

	lastPrompt  string
	lastOptions llms.PromptOptions
}

func (s *promptClientStub) Prompt(_ context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error) {
	s.lastPrompt = prompt
	s.lastOptions = llms.PromptOptions{}
	for _, opt := range opts {
		opt(&s.lastOptions)
	}

	if s.err != nil {
		return nil, s.err
	}
	return &llms.Response{Content: s.response}, nil
}

func TestParseFallsBackToNonThinkingWithoutMarker(t *testing.T) {
	for _, raw := range []string{
		"",
		"I cannot help with that",
		"call:unknown_function{query:hello}",
		"call: set_timer{duration:5 minutes}",
	} {
		decision := Parse(raw, "what is the capital of France")
		if decision.Function != FunctionNonThinking {
			t.Fatalf("expected nonthinking for %q, got %q", raw, decision.Function)
		}
		if decision.Args["prompt"] != "what is the capital of France" {
			t.Fatalf("expected full utterance as prompt, got %v", decision.Args)
		}
	}
}

func TestParseExtractsArguments(t *testing.T) {
	decision := Parse("call:set_timer{duration:<escape>10 minutes<escape>,label:tea}", "set a timer")

	if decision.Function != FunctionSetTimer {
		t.Fatalf("expected set_timer, got %q", decision.Function)
	}
	expected := map[string]any{"duration": "10 minutes", "label": "tea"}
	if !reflect.DeepEqual(decision.Args, expected) {
		t.Fatalf("expected %v, got %v", expected, decision.Args)
	}
}

func TestParseCoercesValueTypes(t *testing.T) {
	decision := Parse("call:create_calendar_event{title:<escape>lunch, with Ana<escape>,duration:45,confirmed:True}", "schedule lunch")

	if decision.Args["title"] != "lunch, with Ana" {
		t.Fatalf("expected escaped value with embedded comma, got %v", decision.Args["title"])
	}
	if decision.Args["duration"] != 45 {
		t.Fatalf("expected integer duration, got %T %v", decision.Args["duration"], decision.Args["duration"])
	}
	if decision.Args["confirmed"] != true {
		t.Fatalf("expected boolean, got %T %v", decision.Args["confirmed"], decision.Args["confirmed"])
	}
}

func TestParseAppliesPrimaryArgumentFallback(t *testing.T) {
	utterance := "set a timer for 10 minutes"
	cases := []struct {
		function Function
		primary  string
	}{
		{FunctionSetTimer, "duration"},
		{FunctionSetAlarm, "time"},
		{FunctionCreateCalendarEvent, "title"},
		{FunctionAddTask, "text"},
		{FunctionWebSearch, "query"},
	}

	for _, testCase := range cases {
		for _, raw := range []string{
			fmt.Sprintf("call:%s{}", testCase.function),
			fmt.Sprintf("call:%s", testCase.function),
			fmt.Sprintf("call:%s{duration", testCase.function),
		} {
			decision := Parse(raw, utterance)
			if decision.Function != testCase.function {
				t.Fatalf("expected %q for %q, got %q", testCase.function, raw, decision.Function)
			}
			expected := map[string]any{testCase.primary: utterance}
			if !reflect.DeepEqual(decision.Args, expected) {
				t.Fatalf("expected fallback args %v for %q, got %v", expected, raw, decision.Args)
			}
		}
	}
}

func TestParsePassthroughAlwaysCarriesUtterance(t *testing.T) {
	decision := Parse("call:thinking{prompt:<escape>something else entirely<escape>}", "explain quantum computing")

	if decision.Function != FunctionThinking {
		t.Fatalf("expected thinking, got %q", decision.Function)
	}
	if decision.Args["prompt"] != "explain quantum computing" {
		t.Fatalf("expected original utterance, got %v", decision.Args["prompt"])
	}
}

func TestParseSystemInfoHasNoArguments(t *testing.T) {
	decision := Parse("call:get_system_info{label:whatever}", "what's my schedule")

	if decision.Function != FunctionGetSystemInfo {
		t.Fatalf("expected get_system_info, got %q", decision.Function)
	}
	if len(decision.Args) != 0 {
		t.Fatalf("expected empty args, got %v", decision.Args)
	}
}

func TestRouteSendsVocabularyAndParsesResponse(t *testing.T) {
	client := &promptClientStub{response: "call:set_timer{duration:<escape>10 minutes<escape>}"}
	router := NewRouter(client)

	decision := router.Route(context.Background(), "set a timer for 10 minutes")

	if client.lastPrompt != "set a timer for 10 minutes" {
		t.Fatalf("expected utterance as prompt, got %q", client.lastPrompt)
	}
	if len(client.lastOptions.Tools) != len(vocabulary) {
		t.Fatalf("expected %d tools, got %d", len(vocabulary), len(client.lastOptions.Tools))
	}
	if decision.Function != FunctionSetTimer || decision.Args["duration"] != "10 minutes" {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestRouteFallsBackWhenGenerationFails(t *testing.T) {
	client := &promptClientStub{err: fmt.Errorf("model unavailable")}
	router := NewRouter(client)

	decision := router.Route(context.Background(), "hello there")

	if decision.Function != FunctionNonThinking || decision.Args["prompt"] != "hello there" {
		t.Fatalf("expected nonthinking passthrough, got %+v", decision)
	}
}

func TestVocabularyMarkersAreNotSubstringsOfEachOther(t *testing.T) {
	for _, a := range vocabulary {
		for _, b := range vocabulary {
			if a == b {
				continue
			}
			if strings.Contains(callMarker+string(b), callMarker+string(a)) {
				t.Fatalf("marker for %q is a substring of the marker for %q, scanning would be ambiguous", a, b)
			}
		}
	}
}
