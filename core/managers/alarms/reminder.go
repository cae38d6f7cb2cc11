package alarms

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// RegisterReminder registers an OS-level scheduled task that fires the alarm
// even when the assistant itself is not running. Returns the task name so it
// can be stored alongside the alarm.
//
// Only the Windows task scheduler is supported; on other platforms the alarm
// still persists in the store but no external reminder is registered.
func RegisterReminder(ctx context.Context, alarmID string, at string, label string) (string, error) {
	if runtime.GOOS != "windows" {
		return "", fmt.Errorf("scheduled reminders are not supported on %s", runtime.GOOS)
	}

	taskName := "AidaAlarm_" + alarmID
	message := label
	if message == "" {
		message = "Alarm"
	}

	cmd := exec.CommandContext(ctx, "schtasks", "/Create",
		"/TN", taskName,
		"/SC", "ONCE",
		"/ST", at,
		"/TR", fmt.Sprintf(`msg * "%s"`, strings.ReplaceAll(message, `"`, "")),
		"/F",
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("failed to register scheduled task: %w: %s", err, strings.TrimSpace(string(output)))
	}

	return taskName, nil
}

// UnregisterReminder removes a previously registered scheduled task.
func UnregisterReminder(ctx context.Context, taskName string) error {
	if runtime.GOOS != "windows" || taskName == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, "schtasks", "/Delete", "/TN", taskName, "/F")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to delete scheduled task: %w: %s", err, strings.TrimSpace(string(output)))
	}

	return nil
}
