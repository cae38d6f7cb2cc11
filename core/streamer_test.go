package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type synthesizerStub struct {
	mu     sync.Mutex
	spoken []string
	err    error
}

func (s *synthesizerStub) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *synthesizerStub) utterances() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

func TestSanitizeSpeech(t *testing.T) {
	got := sanitizeSpeech("**Bold** and _quiet_\n\nwith `code` # heading")
	if strings.ContainsAny(got, "*_`#\n") {
		t.Errorf("expected markdown stripped, got %q", got)
	}
	if got != "Bold and quiet with code heading" {
		t.Errorf("unexpected sanitized text %q", got)
	}
}

func TestChunkerFlushesAtSentenceBoundary(t *testing.T) {
	chunker := &speechChunker{}

	if _, ready := chunker.add("Hello there"); ready {
		t.Fatal("expected no flush mid-sentence")
	}
	chunk, ready := chunker.add(", master.")
	if !ready {
		t.Fatal("expected flush at sentence end")
	}
	if chunk != "Hello there, master." {
		t.Errorf("unexpected chunk %q", chunk)
	}
}

func TestChunkerFlushesPastLengthThreshold(t *testing.T) {
	chunker := &speechChunker{}
	long := strings.Repeat("a", flushThreshold+1)

	chunk, ready := chunker.add(long)
	if !ready {
		t.Fatal("expected flush past the length threshold")
	}
	if chunk != long {
		t.Errorf("unexpected chunk %q", chunk)
	}
}

func TestDirectModeSpeaksOnce(t *testing.T) {
	synthesizer := &synthesizerStub{}
	streamer := newResponseStreamer(synthesizer, false)

	stream := streamer.OpenTurn(context.Background())
	stream.Write("First sentence. ")
	stream.Write("Second sentence.")
	if err := stream.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spoken := synthesizer.utterances()
	if len(spoken) != 1 {
		t.Fatalf("expected one utterance in direct mode, got %d", len(spoken))
	}
	if spoken[0] != "First sentence. Second sentence." {
		t.Errorf("unexpected utterance %q", spoken[0])
	}
}

func TestStreamingModeSpeaksChunksInOrder(t *testing.T) {
	synthesizer := &synthesizerStub{}
	streamer := newResponseStreamer(synthesizer, true)

	stream := streamer.OpenTurn(context.Background())
	stream.Write("One.")
	stream.Write(" Two.")
	stream.Write(" trailing remainder")
	if err := stream.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spoken := synthesizer.utterances()
	if len(spoken) != 3 {
		t.Fatalf("expected 3 utterances, got %d: %v", len(spoken), spoken)
	}
	if spoken[0] != "One." || spoken[1] != "Two." || spoken[2] != "trailing remainder" {
		t.Errorf("unexpected order or content: %v", spoken)
	}
}

func TestStreamingModeSkipsEmptyRemainder(t *testing.T) {
	synthesizer := &synthesizerStub{}
	streamer := newResponseStreamer(synthesizer, true)

	stream := streamer.OpenTurn(context.Background())
	stream.Write("Done.")
	stream.Write("   ")
	if err := stream.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if spoken := synthesizer.utterances(); len(spoken) != 1 {
		t.Errorf("expected whitespace remainder dropped, got %v", spoken)
	}
}

func TestStreamingModeDrainsProducerAfterSpeakError(t *testing.T) {
	synthesizer := &synthesizerStub{err: errors.New("device gone")}
	streamer := newResponseStreamer(synthesizer, true)

	stream := streamer.OpenTurn(context.Background())

	// The producer must never block on a dead synthesizer, even when it
	// writes far more fragments than the channel holds.
	closed := make(chan error, 1)
	go func() {
		for i := 0; i < 4*fragmentBuffer; i++ {
			stream.Write(fmt.Sprintf("Sentence %d. ", i))
		}
		closed <- stream.Close(context.Background())
	}()

	select {
	case err := <-closed:
		if err == nil {
			t.Error("expected the synthesis error surfaced on close")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("producer blocked: fragments were not drained after the speak error")
	}
}

func TestDiscardDropsCollectedResponse(t *testing.T) {
	synthesizer := &synthesizerStub{}
	streamer := newResponseStreamer(synthesizer, false)

	stream := streamer.OpenTurn(context.Background())
	stream.Write("Half an answer that should never be spo")
	stream.Discard()

	if spoken := synthesizer.utterances(); len(spoken) != 0 {
		t.Errorf("expected nothing spoken after discard, got %v", spoken)
	}
}

func TestDiscardSkipsStreamingRemainder(t *testing.T) {
	synthesizer := &synthesizerStub{}
	streamer := newResponseStreamer(synthesizer, true)

	stream := streamer.OpenTurn(context.Background())
	stream.Write("One.")
	stream.Write(" half a sente")
	stream.Discard()

	spoken := synthesizer.utterances()
	if len(spoken) != 1 || spoken[0] != "One." {
		t.Errorf("expected only the completed chunk spoken, got %v", spoken)
	}
}

func TestDirectModeSkipsEmptyResponse(t *testing.T) {
	synthesizer := &synthesizerStub{}
	streamer := newResponseStreamer(synthesizer, false)

	stream := streamer.OpenTurn(context.Background())
	stream.Write("\n\n")
	if err := stream.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(synthesizer.utterances()) != 0 {
		t.Error("expected nothing spoken for an empty response")
	}
}
