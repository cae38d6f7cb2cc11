package orchestration

import (
	"context"
	"regexp"
	"strings"
)

const flushThreshold = 100

var (
	emphasisChars  = regexp.MustCompile("[*_`#]")
	newlineRuns    = regexp.MustCompile(`\n+`)
	spaceRuns      = regexp.MustCompile(`[ \t]+`)
	terminalMarks  = []string{".", "!", "?"}
	fragmentBuffer = 16
)

// sanitizeSpeech strips markdown emphasis and collapses newlines so the
// synthesizer never reads formatting aloud.
func sanitizeSpeech(text string) string {
	text = emphasisChars.ReplaceAllString(text, "")
	text = newlineRuns.ReplaceAllString(text, " ")
	return spaceRuns.ReplaceAllString(text, " ")
}

// speechChunker accumulates generation fragments and decides when enough has
// arrived to hand to the synthesizer: past the length threshold or at a
// sentence boundary.
type speechChunker struct {
	buffer strings.Builder
}

func (c *speechChunker) add(fragment string) (string, bool) {
	c.buffer.WriteString(fragment)
	text := c.buffer.String()

	ready := len(text) > flushThreshold
	if !ready {
		for _, mark := range terminalMarks {
			if strings.HasSuffix(text, mark) {
				ready = true
				break
			}
		}
	}
	if !ready {
		return "", false
	}

	c.buffer.Reset()
	return text, true
}

func (c *speechChunker) flush() string {
	text := c.buffer.String()
	c.buffer.Reset()
	return text
}

// SpeechSynthesizer is the synthesis sink the orchestrator speaks through.
type SpeechSynthesizer interface {
	Speak(ctx context.Context, text string) error
}

// responseStreamer turns generated text into speech either all at once or
// incrementally as fragments stream in.
type responseStreamer struct {
	synthesizer SpeechSynthesizer
	streaming   bool
}

func newResponseStreamer(synthesizer SpeechSynthesizer, streaming bool) *responseStreamer {
	return &responseStreamer{synthesizer: synthesizer, streaming: streaming}
}

// Speak synthesizes a complete response in one call.
func (r *responseStreamer) Speak(ctx context.Context, text string) error {
	sanitized := strings.TrimSpace(sanitizeSpeech(text))
	if sanitized == "" {
		return nil
	}
	return r.synthesizer.Speak(ctx, sanitized)
}

// speechStream is a per-turn pipeline from generation fragments to speech.
// Fragments are spoken strictly in order and never dropped; Close joins the
// worker so the next input cycle starts with synthesis settled.
type speechStream struct {
	streamer *responseStreamer

	fragments chan string
	done      chan struct{}

	// direct-mode accumulation when streaming is off.
	collected strings.Builder
	err       error

	// abandoned suppresses the remainder flush when the turn is discarded.
	// Written before the fragment channel closes, read after it drains.
	abandoned bool
}

// OpenTurn starts a speech pipeline for one dialogue turn.
func (r *responseStreamer) OpenTurn(ctx context.Context) *speechStream {
	stream := &speechStream{
		streamer:  r,
		fragments: make(chan string, fragmentBuffer),
		done:      make(chan struct{}),
	}

	if !r.streaming {
		close(stream.done)
		return stream
	}

	go func() {
		defer close(stream.done)
		stream.err = panicSafeNamedWorker("speech stream", func(ctx context.Context) error {
			chunker := &speechChunker{}
			var speakErr error
			for fragment := range stream.fragments {
				// A failed synthesizer must not stall the producer: keep
				// draining until the channel closes, discarding fragments.
				if speakErr != nil {
					continue
				}
				chunk, ready := chunker.add(sanitizeSpeech(fragment))
				if !ready {
					continue
				}
				if err := stream.speak(ctx, chunk); err != nil {
					speakErr = err
				}
			}
			if speakErr != nil {
				return speakErr
			}
			if stream.abandoned {
				return nil
			}
			if remainder := chunker.flush(); strings.TrimSpace(remainder) != "" {
				return stream.speak(ctx, remainder)
			}
			return nil
		})(ctx)
	}()

	return stream
}

func (s *speechStream) speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.streamer.synthesizer.Speak(ctx, text)
}

// Write feeds one generation fragment into the pipeline. Blocks when the
// synthesizer falls behind rather than dropping speech.
func (s *speechStream) Write(fragment string) {
	if s.streamer.streaming {
		s.fragments <- fragment
		return
	}
	s.collected.WriteString(fragment)
}

// Close ends the turn: the streaming worker drains and flushes its
// remainder, or the collected response is spoken whole. Returns the first
// synthesis error encountered.
func (s *speechStream) Close(ctx context.Context) error {
	if s.streamer.streaming {
		close(s.fragments)
		<-s.done
		return s.err
	}

	return s.streamer.Speak(ctx, s.collected.String())
}

// Discard abandons the turn's output. The streaming worker is drained and
// joined without flushing its remainder; anything collected in direct mode is
// dropped unspoken.
func (s *speechStream) Discard() {
	if s.streamer.streaming {
		s.abandoned = true
		close(s.fragments)
		<-s.done
		return
	}

	s.collected.Reset()
}
