// Package dispatch executes routed function calls against the capability
// managers. Every capability is optional; a missing one yields a spoken
// failure instead of an error.
package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aida-voice/aida-core/core/managers/alarms"
	"github.com/aida-voice/aida-core/core/managers/calendar"
	"github.com/aida-voice/aida-core/core/managers/news"
	"github.com/aida-voice/aida-core/core/managers/tasks"
	"github.com/aida-voice/aida-core/core/managers/timers"
	"github.com/aida-voice/aida-core/core/managers/weather"
	"github.com/aida-voice/aida-core/core/routing"
	"github.com/aida-voice/aida-core/core/websearch"
	"go.opentelemetry.io/otel/attribute"
)

type TimerRegistry interface {
	Add(label string, duration time.Duration) timers.ActiveTimer
	Active() []timers.ActiveTimer
}

type AlarmStore interface {
	Add(ctx context.Context, at string, label string) (*alarms.Alarm, error)
	List(ctx context.Context) ([]alarms.Alarm, error)
	SetReminderTask(ctx context.Context, id string, taskName string) error
}

type CalendarStore interface {
	Add(ctx context.Context, event calendar.Event) (*calendar.Event, error)
	EventsOn(ctx context.Context, date string) ([]calendar.Event, error)
}

type TaskStore interface {
	Add(ctx context.Context, text string, priority string) (*tasks.Task, error)
	List(ctx context.Context) ([]tasks.Task, error)
}

type WeatherClient interface {
	Current(ctx context.Context) (*weather.Report, error)
}

type NewsProvider interface {
	Briefing(ctx context.Context) ([]news.Headline, error)
}

type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error)
}

// Dispatcher maps routing decisions onto whichever capabilities were wired
// in. Any of the fields may be nil.
type Dispatcher struct {
	timers   TimerRegistry
	alarms   AlarmStore
	calendar CalendarStore
	tasks    TaskStore
	weather  WeatherClient
	news     NewsProvider
	searcher WebSearcher
}

type DispatcherOption func(*Dispatcher)

func WithTimerRegistry(registry TimerRegistry) DispatcherOption {
	return func(d *Dispatcher) { d.timers = registry }
}

func WithAlarmStore(store AlarmStore) DispatcherOption {
	return func(d *Dispatcher) { d.alarms = store }
}

func WithCalendarStore(store CalendarStore) DispatcherOption {
	return func(d *Dispatcher) { d.calendar = store }
}

func WithTaskStore(store TaskStore) DispatcherOption {
	return func(d *Dispatcher) { d.tasks = store }
}

func WithWeatherClient(client WeatherClient) DispatcherOption {
	return func(d *Dispatcher) { d.weather = client }
}

func WithNewsProvider(provider NewsProvider) DispatcherOption {
	return func(d *Dispatcher) { d.news = provider }
}

func WithWebSearcher(searcher WebSearcher) DispatcherOption {
	return func(d *Dispatcher) { d.searcher = searcher }
}

func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	dispatcher := &Dispatcher{}
	for _, opt := range opts {
		opt(dispatcher)
	}
	return dispatcher
}

// Dispatch executes an action decision. Passthrough decisions are not
// executable and report failure.
func (d *Dispatcher) Dispatch(ctx context.Context, decision routing.Decision) Result {
	ctx, span := tracer.Start(ctx, "Dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("function", string(decision.Function)))

	var result Result
	switch decision.Function {
	case routing.FunctionSetTimer:
		result = d.setTimer(decision.Args)
	case routing.FunctionSetAlarm:
		result = d.setAlarm(ctx, decision.Args)
	case routing.FunctionCreateCalendarEvent:
		result = d.createCalendarEvent(ctx, decision.Args)
	case routing.FunctionAddTask:
		result = d.addTask(ctx, decision.Args)
	case routing.FunctionWebSearch:
		result = d.webSearch(ctx, decision.Args)
	case routing.FunctionGetSystemInfo:
		result = d.systemInfo(ctx)
	case routing.FunctionThinking, routing.FunctionNonThinking:
		result = failure(fmt.Sprintf("%s is not an executable action", decision.Function))
	default:
		result = failure(fmt.Sprintf("Unknown function: %s", decision.Function))
	}

	logger.InfoContext(ctx, "Dispatched function",
		"function", decision.Function,
		"success", result.Success,
	)
	return result
}

func (d *Dispatcher) setTimer(args map[string]any) Result {
	if d.timers == nil {
		return failure("Timer support is not available")
	}

	duration := stringArg(args, "duration")
	label := stringArg(args, "label")
	if label == "" {
		label = "Timer"
	}

	seconds := ParseDuration(duration)
	if seconds <= 0 {
		return failure(fmt.Sprintf("Invalid duration: %s", duration))
	}

	timer := d.timers.Add(label, time.Duration(seconds)*time.Second)
	return Result{
		Success: true,
		Message: fmt.Sprintf("Timer '%s' set for %s", label, duration),
		Data: map[string]any{
			"label":    timer.Label,
			"duration": duration,
			"seconds":  seconds,
		},
	}
}

func (d *Dispatcher) setAlarm(ctx context.Context, args map[string]any) Result {
	if d.alarms == nil {
		return failure("Alarm support is not available")
	}

	label := stringArg(args, "label")
	if label == "" {
		label = "Alarm"
	}
	at := NormalizeTime(stringArg(args, "time"))

	alarm, err := d.alarms.Add(ctx, at, label)
	if err != nil {
		logger.WarnContext(ctx, "Failed to store alarm", "error", err)
		return failure("Failed to set alarm")
	}

	// Best effort: an OS-level reminder fires even when the assistant is
	// closed, but losing it does not fail the alarm.
	if taskName, err := alarms.RegisterReminder(ctx, alarm.ID, at, label); err == nil {
		if err := d.alarms.SetReminderTask(ctx, alarm.ID, taskName); err != nil {
			logger.WarnContext(ctx, "Failed to record reminder task", "error", err)
		}
	} else {
		logger.WarnContext(ctx, "Failed to register OS reminder", "error", err)
	}

	message := fmt.Sprintf("Alarm set for %s", at)
	if label != "Alarm" {
		message += fmt.Sprintf(" (%s)", label)
	}
	return Result{
		Success: true,
		Message: message,
		Data:    map[string]any{"id": alarm.ID, "time": at, "label": label},
	}
}

func (d *Dispatcher) createCalendarEvent(ctx context.Context, args map[string]any) Result {
	if d.calendar == nil {
		return failure("Calendar support is not available")
	}

	title := stringArg(args, "title")
	if title == "" {
		title = "Event"
	}
	date := stringArg(args, "date")
	if date == "" {
		date = "today"
	}
	at := stringArg(args, "time")
	if at == "" {
		at = "09:00"
	}
	durationMinutes := intArg(args, "duration", 60)

	start := ResolveDate(date, time.Now()) + " " + NormalizeTime(at) + ":00"
	end := start
	if parsed, err := time.Parse("2006-01-02 15:04:05", start); err == nil {
		end = parsed.Add(time.Duration(durationMinutes) * time.Minute).Format("2006-01-02 15:04:05")
	}

	event, err := d.calendar.Add(ctx, calendar.Event{
		Title:     title,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		logger.WarnContext(ctx, "Failed to store calendar event", "error", err)
		return failure("Failed to create event")
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Created event '%s' on %s at %s", title, date, at),
		Data: map[string]any{
			"id":         event.ID,
			"title":      event.Title,
			"start_time": event.StartTime,
			"end_time":   event.EndTime,
		},
	}
}

func (d *Dispatcher) addTask(ctx context.Context, args map[string]any) Result {
	if d.tasks == nil {
		return failure("Task support is not available")
	}

	text := stringArg(args, "text")
	if text == "" {
		return failure("No task text provided")
	}

	task, err := d.tasks.Add(ctx, text, "MEDIUM")
	if err != nil {
		logger.WarnContext(ctx, "Failed to store task", "error", err)
		return failure("Failed to add task")
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Added task: %s", text),
		Data:    map[string]any{"id": task.ID, "text": task.Text},
	}
}

func (d *Dispatcher) webSearch(ctx context.Context, args map[string]any) Result {
	if d.searcher == nil {
		return failure("Web search is not available")
	}

	query := stringArg(args, "query")
	if query == "" {
		return failure("No search query provided")
	}

	results, err := d.searcher.Search(ctx, query, 5)
	if err != nil {
		return failure(fmt.Sprintf("Search failed: %v", err))
	}
	if len(results) == 0 {
		return Result{Success: true, Message: fmt.Sprintf("No results found for '%s'", query)}
	}

	formatted := make([]map[string]any, 0, 3)
	for _, result := range results {
		if len(formatted) == 3 {
			break
		}
		formatted = append(formatted, map[string]any{
			"title": result.Title,
			"body":  truncate(result.Body, 200),
			"url":   result.URL,
		})
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Found %d results for '%s'", len(results), query),
		Data:    map[string]any{"query": query, "results": formatted},
	}
}

func stringArg(args map[string]any, key string) string {
	value, ok := args[key]
	if !ok {
		return ""
	}
	if text, ok := value.(string); ok {
		return text
	}
	return fmt.Sprint(value)
}

func intArg(args map[string]any, key string, fallback int) int {
	switch value := args[key].(type) {
	case int:
		return value
	case string:
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
