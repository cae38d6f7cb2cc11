package dispatch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	hoursPattern   = regexp.MustCompile(`(\d+)\s*h(?:our)?s?`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*m(?:in(?:ute)?s?)?`)
	secondsPattern = regexp.MustCompile(`(\d+)\s*s(?:ec(?:ond)?s?)?`)
	numberPattern  = regexp.MustCompile(`\d+`)

	timePattern = regexp.MustCompile(`^(\d{1,2}):?(\d{2})?\s*(am|pm)?`)
)

// ParseDuration converts a spoken duration ("10 minutes", "1 hour 30
// minutes", "45s") to seconds. A bare number is taken as minutes. Returns 0
// when nothing in the string looks like a duration.
func ParseDuration(raw string) int {
	text := strings.ToLower(strings.TrimSpace(raw))
	total := 0

	if match := hoursPattern.FindStringSubmatch(text); match != nil {
		n, _ := strconv.Atoi(match[1])
		total += n * 3600
	}
	if match := minutesPattern.FindStringSubmatch(text); match != nil {
		n, _ := strconv.Atoi(match[1])
		total += n * 60
	}
	if match := secondsPattern.FindStringSubmatch(text); match != nil {
		n, _ := strconv.Atoi(match[1])
		total += n
	}

	if total == 0 {
		if match := numberPattern.FindString(text); match != "" {
			n, _ := strconv.Atoi(match)
			total = n * 60
		}
	}

	return total
}

// NormalizeTime converts "7am", "2:30pm", "14:00" to 24-hour HH:MM. Strings
// that do not look like a clock time pass through unchanged.
func NormalizeTime(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	match := timePattern.FindStringSubmatch(text)
	if match == nil {
		return text
	}

	hour, _ := strconv.Atoi(match[1])
	minute := 0
	if match[2] != "" {
		minute, _ = strconv.Atoi(match[2])
	}

	switch match[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// ResolveDate turns "today", "tomorrow", "friday", "next monday", or an ISO
// date into YYYY-MM-DD relative to now. A plain weekday name resolves to the
// next occurrence strictly after today; "next" pushes it one week further.
func ResolveDate(raw string, now time.Time) string {
	text := strings.ToLower(strings.TrimSpace(raw))

	if parsed, err := time.Parse("2006-01-02", text); err == nil {
		return parsed.Format("2006-01-02")
	}

	switch text {
	case "", "today":
		return now.Format("2006-01-02")
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	}

	// time.Weekday counts from Sunday; the lookup table counts from Monday.
	todayIndex := (int(now.Weekday()) + 6) % 7
	for i, day := range weekdays {
		if !strings.Contains(text, day) {
			continue
		}
		ahead := i - todayIndex
		if ahead <= 0 {
			ahead += 7
		}
		if strings.Contains(text, "next") {
			ahead += 7
		}
		return now.AddDate(0, 0, ahead).Format("2006-01-02")
	}

	return now.Format("2006-01-02")
}
