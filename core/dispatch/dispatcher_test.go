package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aida-voice/aida-core/core/managers/alarms"
	"github.com/aida-voice/aida-core/core/managers/calendar"
	"github.com/aida-voice/aida-core/core/managers/tasks"
	"github.com/aida-voice/aida-core/core/managers/timers"
	"github.com/aida-voice/aida-core/core/routing"
	"github.com/aida-voice/aida-core/core/websearch"
)

type timerRegistryStub struct {
	added    []timers.ActiveTimer
	lastSpan time.Duration
}

func (s *timerRegistryStub) Add(label string, duration time.Duration) timers.ActiveTimer {
	s.lastSpan = duration
	timer := timers.ActiveTimer{Label: label, Duration: duration, StartTime: time.Now()}
	s.added = append(s.added, timer)
	return timer
}

func (s *timerRegistryStub) Active() []timers.ActiveTimer { return s.added }

type alarmStoreStub struct {
	added []alarms.Alarm
}

func (s *alarmStoreStub) Add(_ context.Context, at string, label string) (*alarms.Alarm, error) {
	alarm := alarms.Alarm{ID: "a1", Time: at, Label: label, Enabled: true}
	s.added = append(s.added, alarm)
	return &alarm, nil
}

func (s *alarmStoreStub) List(context.Context) ([]alarms.Alarm, error) { return s.added, nil }

func (s *alarmStoreStub) SetReminderTask(context.Context, string, string) error { return nil }

type calendarStoreStub struct {
	added []calendar.Event
}

func (s *calendarStoreStub) Add(_ context.Context, event calendar.Event) (*calendar.Event, error) {
	event.ID = "e1"
	s.added = append(s.added, event)
	return &event, nil
}

func (s *calendarStoreStub) EventsOn(context.Context, string) ([]calendar.Event, error) {
	return s.added, nil
}

type taskStoreStub struct {
	added []tasks.Task
	err   error
}

func (s *taskStoreStub) Add(_ context.Context, text string, priority string) (*tasks.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	task := tasks.Task{ID: "t1", Text: text, Priority: priority}
	s.added = append(s.added, task)
	return &task, nil
}

func (s *taskStoreStub) List(context.Context) ([]tasks.Task, error) { return s.added, nil }

type searcherStub struct {
	results []websearch.Result
	err     error
}

func (s *searcherStub) Search(context.Context, string, int) ([]websearch.Result, error) {
	return s.results, s.err
}

func TestDispatchSetTimerParsesDuration(t *testing.T) {
	registry := &timerRegistryStub{}
	dispatcher := NewDispatcher(WithTimerRegistry(registry))

	result := dispatcher.Dispatch(context.Background(), routing.Decision{
		Function: routing.FunctionSetTimer,
		Args:     map[string]any{"duration": "10 minutes"},
	})

	if !result.Success {
		t.Fatalf("expected success, got failure: %s", result.Message)
	}
	if registry.lastSpan != 10*time.Minute {
		t.Errorf("expected a 10 minute timer, got %s", registry.lastSpan)
	}
	if registry.added[0].Label != "Timer" {
		t.Errorf("expected default label Timer, got %q", registry.added[0].Label)
	}
}

func TestDispatchSetTimerRejectsInvalidDuration(t *testing.T) {
	dispatcher := NewDispatcher(WithTimerRegistry(&timerRegistryStub{}))

	result := dispatcher.Dispatch(context.Background(), routing.Decision{
		Function: routing.FunctionSetTimer,
		Args:     map[string]any{"duration": "whenever"},
	})

	if result.Success {
		t.Fatal("expected failure for an unparsable duration")
	}
	if result.Message == "" {
		t.Error("expected a failure message")
	}
}

func TestDispatchSetAlarmNormalizesTime(t *testing.T) {
	store := &alarmStoreStub{}
	dispatcher := NewDispatcher(WithAlarmStore(store))

	result := dispatcher.Dispatch(context.Background(), routing.Decision{
		Function: routing.FunctionSetAlarm,
		Args:     map[string]any{"time": "7am", "label": "wake up"},
	})

	if !result.Success {
		t.Fatalf("expected success, got failure: %s", result.Message)
	}
	if store.added[0].Time != "07:00" {
		t.Errorf("expected normalized time 07:00, got %q", store.added[0].Time)
	}
	if !strings.Contains(result.Message, "wake up") {
		t.Errorf("expected label in message, got %q", result.Message)
	}
}

func TestDispatchCreateCalendarEventResolvesDateAndEnd(t *testing.T) {
	store := &calendarStoreStub{}
	dispatcher := NewDispatcher(WithCalendarStore(store))

	result := dispatcher.Dispatch(context.Background(), routing.Decision{
		Function: routing.FunctionCreateCalendarEvent,
		Args:     map[string]any{"title": "standup", "date": "today", "time": "2:30pm"},
	})

	if !result.Success {
		t.Fatalf("expected success, got failure: %s", result.Message)
	}

	event := store.added[0]
	expectedStart := time.Now().Format("2006-01-02") + " 14:30:00"
	if event.StartTime != expectedStart {
		t.Errorf("expected start %q, got %q", expectedStart, event.StartTime)
	}
	start, _ := time.Parse("2006-01-02 15:04:05", event.StartTime)
	end, _ := time.Parse("2006-01-02 15:04:05", event.EndTime)
	if end.Sub(start) != time.Hour {
		t.Errorf("expected default 60 minute event, got %s", end.Sub(start))
	}
}

func TestDispatchAddTaskRequiresText(t *testing.T) {
	dispatcher := NewDispatcher(WithTaskStore(&taskStoreStub{}))

	result := dispatcher.Dispatch(context.Background(), routing.Decision{
		Function: routing.FunctionAddTask,
		Args:     map[string]any{},
	})

	if result.Success {
		t.Fatal("expected failure without task text")
	}
}

func TestDispatchReportsMissingCapability(t *testing.T) {
	dispatcher := NewDispatcher()

	result := dispatcher.Dispatch(context.Background(), routing.Decision{
		Function: routing.FunctionSetTimer,
		Args:     map[string]any{"duration": "5 minutes"},
	})

	if result.Success {
		t.Fatal("expected failure without a timer registry")
	}
	if result.Message == "" {
		t.Error("expected a failure message")
	}
}

func TestDispatchWebSearchFormatsResults(t *testing.T) {
	stub := &searcherStub{results: []websearch.Result{
		{Title: "one", Body: strings.Repeat("x", 300), URL: "https://one"},
		{Title: "two"},
		{Title: "three"},
		{Title: "four"},
	}}
	dispatcher := NewDispatcher(WithWebSearcher(stub))

	result := dispatcher.Dispatch(context.Background(), routing.Decision{
		Function: routing.FunctionWebSearch,
		Args:     map[string]any{"query": "go generics"},
	})

	if !result.Success {
		t.Fatalf("expected success, got failure: %s", result.Message)
	}
	formatted := result.Data["results"].([]map[string]any)
	if len(formatted) != 3 {
		t.Errorf("expected results capped at 3, got %d", len(formatted))
	}
	if body := formatted[0]["body"].(string); len(body) != 200 {
		t.Errorf("expected body truncated to 200 chars, got %d", len(body))
	}
}

func TestDispatchWebSearchFailure(t *testing.T) {
	dispatcher := NewDispatcher(WithWebSearcher(&searcherStub{err: errors.New("offline")}))

	result := dispatcher.Dispatch(context.Background(), routing.Decision{
		Function: routing.FunctionWebSearch,
		Args:     map[string]any{"query": "anything"},
	})

	if result.Success {
		t.Fatal("expected failure when the search errors")
	}
}

func TestDispatchPassthroughIsNotExecutable(t *testing.T) {
	dispatcher := NewDispatcher()

	for _, function := range []routing.Function{routing.FunctionThinking, routing.FunctionNonThinking} {
		result := dispatcher.Dispatch(context.Background(), routing.Decision{Function: function})
		if result.Success {
			t.Errorf("expected %s to report failure", function)
		}
	}
}

func TestDispatchSystemInfoToleratesMissingCapabilities(t *testing.T) {
	dispatcher := NewDispatcher(WithTimerRegistry(&timerRegistryStub{}))

	result := dispatcher.Dispatch(context.Background(), routing.Decision{
		Function: routing.FunctionGetSystemInfo,
	})

	if !result.Success {
		t.Fatalf("expected snapshot to succeed, got failure: %s", result.Message)
	}
	if _, ok := result.Data["current_time"]; !ok {
		t.Error("expected current_time in snapshot")
	}
	if result.Data["weather"] != nil {
		t.Error("expected nil weather without a weather client")
	}
}
