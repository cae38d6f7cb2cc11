package dispatch

import (
	"context"
	"time"
)

// systemInfo aggregates a status snapshot from every wired capability. A
// capability that is missing or failing just leaves its field empty; the
// snapshot itself never fails.
func (d *Dispatcher) systemInfo(ctx context.Context) Result {
	now := time.Now()
	info := map[string]any{
		"current_time":   now.Format("2006-01-02 15:04:05"),
		"timers":         []map[string]any{},
		"alarms":         []map[string]any{},
		"calendar_today": []map[string]any{},
		"tasks":          []map[string]any{},
		"weather":        nil,
		"news":           []map[string]any{},
	}

	if d.timers != nil {
		entries := []map[string]any{}
		for _, timer := range d.timers.Active() {
			entries = append(entries, map[string]any{
				"label":     timer.Label,
				"remaining": timer.FormatRemaining(),
			})
		}
		info["timers"] = entries
	}

	if d.alarms != nil {
		if alarmList, err := d.alarms.List(ctx); err == nil {
			entries := []map[string]any{}
			for _, alarm := range alarmList {
				if !alarm.Enabled {
					continue
				}
				entries = append(entries, map[string]any{"time": alarm.Time, "label": alarm.Label})
			}
			info["alarms"] = entries
		} else {
			logger.WarnContext(ctx, "Failed to list alarms for snapshot", "error", err)
		}
	}

	if d.calendar != nil {
		if events, err := d.calendar.EventsOn(ctx, now.Format("2006-01-02")); err == nil {
			entries := []map[string]any{}
			for _, event := range events {
				entries = append(entries, map[string]any{"title": event.Title, "time": event.StartTime})
			}
			info["calendar_today"] = entries
		} else {
			logger.WarnContext(ctx, "Failed to list events for snapshot", "error", err)
		}
	}

	if d.tasks != nil {
		if taskList, err := d.tasks.List(ctx); err == nil {
			entries := []map[string]any{}
			for _, task := range taskList {
				entries = append(entries, map[string]any{"text": task.Text, "completed": task.Completed})
			}
			info["tasks"] = entries
		} else {
			logger.WarnContext(ctx, "Failed to list tasks for snapshot", "error", err)
		}
	}

	if d.weather != nil {
		if report, err := d.weather.Current(ctx); err == nil {
			info["weather"] = map[string]any{
				"temp": report.Temp,
				"code": report.Code,
				"high": report.High,
				"low":  report.Low,
			}
		} else {
			logger.WarnContext(ctx, "Failed to fetch weather for snapshot", "error", err)
		}
	}

	if d.news != nil {
		if headlines, err := d.news.Briefing(ctx); err == nil {
			entries := []map[string]any{}
			for i, headline := range headlines {
				if i == 5 {
					break
				}
				entries = append(entries, map[string]any{
					"title":    headline.Title,
					"category": headline.Category,
					"url":      headline.URL,
				})
			}
			info["news"] = entries
		} else {
			logger.WarnContext(ctx, "Failed to fetch news for snapshot", "error", err)
		}
	}

	return Result{Success: true, Message: "System info retrieved", Data: info}
}
