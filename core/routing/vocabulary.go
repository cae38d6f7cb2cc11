package routing

import "github.com/aida-voice/aida-core/core/llms"

// Function identifies one entry of the closed routing vocabulary.
type Function string

const (
	FunctionSetTimer            Function = "set_timer"
	FunctionSetAlarm            Function = "set_alarm"
	FunctionCreateCalendarEvent Function = "create_calendar_event"
	FunctionAddTask             Function = "add_task"
	FunctionWebSearch           Function = "web_search"
	FunctionGetSystemInfo       Function = "get_system_info"
	FunctionThinking            Function = "thinking"
	FunctionNonThinking         Function = "nonthinking"
)

// vocabulary lists every recognized function in scan order. No name may be a
// substring of another, the marker scan depends on it.
var vocabulary = []Function{
	FunctionSetTimer,
	FunctionSetAlarm,
	FunctionCreateCalendarEvent,
	FunctionAddTask,
	FunctionWebSearch,
	FunctionGetSystemInfo,
	FunctionThinking,
	FunctionNonThinking,
}

// primaryArguments maps each function that takes arguments to the argument
// that receives the whole utterance when the model's argument block cannot be
// parsed.
var primaryArguments = map[Function]string{
	FunctionSetTimer:            "duration",
	FunctionSetAlarm:            "time",
	FunctionCreateCalendarEvent: "title",
	FunctionAddTask:             "text",
	FunctionWebSearch:           "query",
	FunctionThinking:            "prompt",
	FunctionNonThinking:         "prompt",
}

// IsAction reports whether the function resolves through the dispatcher
// rather than through free dialogue.
func (f Function) IsAction() bool {
	switch f {
	case FunctionSetTimer, FunctionSetAlarm, FunctionCreateCalendarEvent,
		FunctionAddTask, FunctionWebSearch, FunctionGetSystemInfo:
		return true
	}
	return false
}

// IsPassthrough reports whether the function hands the utterance to dialogue
// generation unchanged.
func (f Function) IsPassthrough() bool {
	return f == FunctionThinking || f == FunctionNonThinking
}

type setTimerArgs struct {
	Duration string `json:"duration" jsonschema:"description=Duration like '5 minutes' or '1 hour'"`
	Label    string `json:"label,omitempty" jsonschema:"description=Optional label for the timer"`
}

type setAlarmArgs struct {
	Time  string `json:"time" jsonschema:"description=Time for the alarm like '7am' or '14:30'"`
	Label string `json:"label,omitempty" jsonschema:"description=Optional label"`
}

type createCalendarEventArgs struct {
	Title    string `json:"title" jsonschema:"description=Event title"`
	Date     string `json:"date,omitempty" jsonschema:"description=Date like 'tomorrow' or '2024-01-15'"`
	Time     string `json:"time,omitempty" jsonschema:"description=Time like '3pm'"`
	Duration int    `json:"duration,omitempty" jsonschema:"description=Duration in minutes"`
}

type addTaskArgs struct {
	Text     string `json:"text" jsonschema:"description=Task description"`
	Priority string `json:"priority,omitempty" jsonschema:"description=Priority level"`
}

type webSearchArgs struct {
	Query string `json:"query" jsonschema:"description=Search query string"`
}

type passthroughArgs struct {
	Prompt string `json:"prompt" jsonschema:"description=The user's original prompt"`
}

// Tools returns the vocabulary as tool definitions for the constrained
// generation call.
func Tools() []llms.Tool {
	return []llms.Tool{
		llms.NewTool(string(FunctionSetTimer), "Set a countdown timer.", setTimerArgs{}),
		llms.NewTool(string(FunctionSetAlarm), "Set an alarm for a specific time.", setAlarmArgs{}),
		llms.NewTool(string(FunctionCreateCalendarEvent), "Create a calendar event.", createCalendarEventArgs{}),
		llms.NewTool(string(FunctionAddTask), "Add a task to the to-do list.", addTaskArgs{}),
		llms.NewTool(string(FunctionWebSearch),
			"Search the web for information, current events, facts, or explanations.", webSearchArgs{}),
		llms.NewTool(string(FunctionGetSystemInfo),
			"Get a snapshot of current time, active timers, alarms, today's calendar, pending tasks, weather, and news.", nil),
		llms.NewTool(string(FunctionThinking),
			"Use for complex queries requiring reasoning, math, coding, or multi-step analysis.", passthroughArgs{}),
		llms.NewTool(string(FunctionNonThinking),
			"Use for simple queries, greetings, and factual questions not requiring deep reasoning.", passthroughArgs{}),
	}
}
