// Package apps launches desktop applications by name.
package apps

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
)

var (
	triggerPrefix = regexp.MustCompile(`^(?:open|launch|start)\s+(?:the\s+)?`)
	punctuation   = regexp.MustCompile(`[^\w\s]`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// ExtractName pulls the application name from an "open X" / "launch X" /
// "start X" utterance. Punctuation is stripped before matching, so filler
// like "Open... Notepad" still yields a name; when nothing follows the
// trigger the whole cleaned utterance is used.
func ExtractName(utterance string) string {
	cleaned := punctuation.ReplaceAllString(strings.ToLower(utterance), "")
	cleaned = strings.TrimSpace(whitespace.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return ""
	}

	name := strings.TrimSpace(triggerPrefix.ReplaceAllString(cleaned, ""))
	if name == "" {
		return cleaned
	}
	return name
}

// Launch opens the named application using the platform launcher.
func Launch(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("no application name given")
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", "-a", name)
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/C", "start", "", name)
	default:
		cmd = linuxLaunchCommand(ctx, name)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to launch %q: %w", name, err)
	}
	return nil
}

// linuxLaunchCommand prefers a direct binary on PATH, then gtk-launch for
// .desktop entries, then xdg-open as a last resort.
func linuxLaunchCommand(ctx context.Context, name string) *exec.Cmd {
	binary := strings.ReplaceAll(name, " ", "-")
	if path, err := exec.LookPath(binary); err == nil {
		return exec.CommandContext(ctx, path)
	}
	if _, err := exec.LookPath("gtk-launch"); err == nil {
		return exec.CommandContext(ctx, "gtk-launch", binary)
	}
	return exec.CommandContext(ctx, "xdg-open", name)
}
