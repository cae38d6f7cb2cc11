// Package music turns "play X on spotify" utterances into Spotify searches.
package music

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
)

var triggers = []string{"play", "listen to", "put on", "start"}

var platforms = []string{"on spotify", "from spotify", "in spotify", "using spotify"}

var fillers = []string{"the song", "song", "music", "track", "please", "for me", "now"}

var (
	quotes     = regexp.MustCompile(`["']`)
	whitespace = regexp.MustCompile(`\s+`)
)

// ExtractQuery strips trigger words, platform references, and filler from a
// music request, leaving just the song or artist to search for.
func ExtractQuery(utterance string) string {
	text := strings.ToLower(strings.TrimSpace(utterance))

	for _, trigger := range triggers {
		if strings.HasPrefix(text, trigger) {
			text = strings.TrimSpace(text[len(trigger):])
			break
		}
	}
	for _, platform := range platforms {
		text = strings.ReplaceAll(text, platform, "")
	}
	for _, filler := range fillers {
		text = strings.ReplaceAll(text, filler, "")
	}

	text = quotes.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// OpenSearch opens the Spotify web search page for the query in the default
// browser.
func OpenSearch(ctx context.Context, query string) error {
	searchURL := "https://open.spotify.com/search/" + url.PathEscape(query)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", searchURL)
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/C", "start", "", searchURL)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", searchURL)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open spotify search: %w", err)
	}
	return nil
}
