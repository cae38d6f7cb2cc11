package orchestration

import "testing"

func TestClassifyExitLiterals(t *testing.T) {
	for _, utterance := range []string{"exit", "Quit", "stop.", "  STOP  "} {
		if got := classify(utterance); got.kind != intentExit {
			t.Errorf("classify(%q).kind = %v, expected exit", utterance, got.kind)
		}
	}
}

func TestClassifyAppLaunch(t *testing.T) {
	cases := []struct {
		utterance string
		app       string
	}{
		{"open notepad", "notepad"},
		{"launch the calculator", "calculator"},
		{"start firefox", "firefox"},
	}

	for _, tc := range cases {
		got := classify(tc.utterance)
		if got.kind != intentAppLaunch {
			t.Errorf("classify(%q).kind = %v, expected app launch", tc.utterance, got.kind)
			continue
		}
		if got.payload != tc.app {
			t.Errorf("classify(%q).payload = %q, expected %q", tc.utterance, got.payload, tc.app)
		}
	}
}

func TestClassifyMusicNeedsBothKeywords(t *testing.T) {
	got := classify("play bohemian rhapsody on spotify")
	if got.kind != intentMusic {
		t.Fatalf("expected music intent, got %v", got.kind)
	}
	if got.payload != "bohemian rhapsody" {
		t.Errorf("expected extracted query, got %q", got.payload)
	}

	if got := classify("play it cool"); got.kind != intentNone {
		t.Errorf("expected 'play' without a platform to fall through, got %v", got.kind)
	}
}

func TestClassifySearchPrefix(t *testing.T) {
	got := classify("search for the tallest building")
	if got.kind != intentWebSearch {
		t.Fatalf("expected web search intent, got %v", got.kind)
	}
	if got.payload != "the tallest building" {
		t.Errorf("expected query without prefix, got %q", got.payload)
	}
}

func TestClassifyAppLaunchWinsOverMusic(t *testing.T) {
	// "start" is both an app-launch prefix and a music trigger; launch wins.
	if got := classify("start spotify and play something"); got.kind != intentAppLaunch {
		t.Errorf("expected app launch precedence, got %v", got.kind)
	}
}

func TestClassifyFallsThroughToRouting(t *testing.T) {
	for _, utterance := range []string{"what's the weather like", "set a timer for 10 minutes", ""} {
		if got := classify(utterance); got.kind != intentNone {
			t.Errorf("classify(%q).kind = %v, expected none", utterance, got.kind)
		}
	}
}
