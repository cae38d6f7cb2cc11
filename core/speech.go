package orchestration

import (
	"fmt"
	"strings"

	"github.com/aida-voice/aida-core/core/dispatch"
	"github.com/aida-voice/aida-core/core/routing"
)

// speakableResult converts a dispatch result into something the synthesizer
// can read aloud without another model call.
func speakableResult(function routing.Function, result dispatch.Result) string {
	if !result.Success {
		message := result.Message
		if message == "" {
			message = "Something went wrong."
		}
		return fmt.Sprintf("Sorry. %s", message)
	}

	switch function {
	case routing.FunctionWebSearch:
		return speakableSearch(result)
	case routing.FunctionGetSystemInfo:
		return speakableSystemInfo(result)
	}

	if result.Message != "" {
		return result.Message
	}
	return "Done."
}

// speakableSearch stitches the top result bodies into a spoken answer.
func speakableSearch(result dispatch.Result) string {
	results, _ := result.Data["results"].([]map[string]any)

	var bodies []string
	for _, entry := range results {
		if len(bodies) == 2 {
			break
		}
		if body, _ := entry["body"].(string); body != "" {
			bodies = append(bodies, body)
		}
	}

	if len(bodies) == 0 {
		return "I could not find anything useful."
	}
	return strings.Join(bodies, ". ")
}

// speakableSystemInfo builds a spoken status report from the snapshot,
// mentioning only the sections that have content.
func speakableSystemInfo(result dispatch.Result) string {
	data := result.Data
	var parts []string

	if currentTime, _ := data["current_time"].(string); currentTime != "" {
		parts = append(parts, fmt.Sprintf("The current time is %s", currentTime))
	}

	if timers, _ := data["timers"].([]map[string]any); len(timers) > 0 {
		var entries []string
		for _, timer := range timers {
			entries = append(entries, fmt.Sprintf("%v with %v remaining", timer["label"], timer["remaining"]))
		}
		parts = append(parts, "Active timers. "+strings.Join(entries, ". "))
	}

	if alarmList, _ := data["alarms"].([]map[string]any); len(alarmList) > 0 {
		var entries []string
		for i, alarm := range alarmList {
			if i == 3 {
				break
			}
			entries = append(entries, fmt.Sprintf("%v at %v", alarm["label"], alarm["time"]))
		}
		parts = append(parts, "Alarms. "+strings.Join(entries, ". "))
	}

	if events, _ := data["calendar_today"].([]map[string]any); len(events) > 0 {
		var entries []string
		for i, event := range events {
			if i == 3 {
				break
			}
			entries = append(entries, fmt.Sprintf("%v at %v", event["title"], event["time"]))
		}
		parts = append(parts, "Today's events. "+strings.Join(entries, ". "))
	} else {
		parts = append(parts, "No events today")
	}

	if taskList, _ := data["tasks"].([]map[string]any); len(taskList) > 0 {
		var entries []string
		for _, task := range taskList {
			if completed, _ := task["completed"].(bool); completed {
				continue
			}
			if len(entries) == 3 {
				break
			}
			entries = append(entries, fmt.Sprint(task["text"]))
		}
		if len(entries) > 0 {
			parts = append(parts, "Pending tasks. "+strings.Join(entries, ". "))
		}
	}

	if report, _ := data["weather"].(map[string]any); report != nil {
		parts = append(parts, fmt.Sprintf("Weather. %v degrees. High %v. Low %v",
			report["temp"], report["high"], report["low"]))
	}

	if headlines, _ := data["news"].([]map[string]any); len(headlines) > 0 {
		parts = append(parts, fmt.Sprintf("%d news headlines available", len(headlines)))
	}

	return strings.Join(parts, ". ") + "."
}
