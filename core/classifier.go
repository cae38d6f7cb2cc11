package orchestration

import (
	"regexp"
	"strings"

	"github.com/aida-voice/aida-core/core/apps"
	"github.com/aida-voice/aida-core/core/music"
)

type intentKind int

const (
	// intentNone means the utterance needs model routing.
	intentNone intentKind = iota
	intentExit
	intentAppLaunch
	intentMusic
	intentWebSearch
)

// intent is a fast-path classification that skips model inference entirely.
type intent struct {
	kind intentKind

	// payload is the app name, music query, or search query depending on
	// kind.
	payload string
}

var punctuation = regexp.MustCompile(`[^\w\s]`)

var searchPrefix = regexp.MustCompile(`^search\s+(?:for\s+)?(.+)$`)

// normalizeCommand strips punctuation and lowercases for fast-path matching.
func normalizeCommand(utterance string) string {
	return strings.TrimSpace(strings.ToLower(punctuation.ReplaceAllString(utterance, "")))
}

// classify checks an utterance against the fast paths, in precedence order:
// exit literals, app launching, music, explicit search. Anything else falls
// through to the router.
func classify(utterance string) intent {
	command := normalizeCommand(utterance)

	switch command {
	case "exit", "quit", "stop":
		return intent{kind: intentExit}
	}

	for _, prefix := range []string{"open ", "launch ", "start "} {
		if strings.HasPrefix(command, prefix) {
			return intent{kind: intentAppLaunch, payload: apps.ExtractName(utterance)}
		}
	}

	if strings.Contains(command, "play") && strings.Contains(command, "spotify") {
		return intent{kind: intentMusic, payload: music.ExtractQuery(utterance)}
	}

	if match := searchPrefix.FindStringSubmatch(command); match != nil {
		return intent{kind: intentWebSearch, payload: strings.TrimSpace(match[1])}
	}

	return intent{kind: intentNone}
}
