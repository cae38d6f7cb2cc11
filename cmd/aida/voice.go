package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aida-voice/aida-core/core/audio/miniaudio"
	"github.com/aida-voice/aida-core/core/speechtotext"
	"github.com/aida-voice/aida-core/core/speechtotext/deepgram"
	"github.com/aida-voice/aida-core/core/texttospeech"
	"github.com/aida-voice/aida-core/core/texttospeech/wsspeech"
)

// voiceRecognizer captures microphone audio and turns it into utterances.
// The transcription session stays open across turns; the microphone is only
// captured while waiting for input, so playback does not feed back into it.
type voiceRecognizer struct {
	audio       *miniaudio.Client
	stt         *deepgram.TranscriptionClient
	transcripts chan string
}

func newVoiceRecognizer(ctx context.Context, audioClient *miniaudio.Client) (*voiceRecognizer, error) {
	r := &voiceRecognizer{
		audio:       audioClient,
		stt:         deepgram.NewTranscriptionClient(),
		transcripts: make(chan string, 1),
	}

	err := r.stt.Transcribe(ctx,
		speechtotext.WithEncodingInfo(audioClient.EncodingInfo()),
		speechtotext.WithTranscriptionCallback(func(transcript string) {
			select {
			case r.transcripts <- transcript:
			default:
			}
		}),
		speechtotext.WithInterimTranscriptionCallback(func(transcript string) {
			printStatus("… " + transcript)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcription session: %w", err)
	}
	return r, nil
}

func (r *voiceRecognizer) Listen(ctx context.Context) (string, error) {
	err := r.audio.StartCapture(func(audio []byte) {
		if err := r.stt.SendAudio(audio); err != nil {
			logger.WarnContext(ctx, "Failed to send audio for transcription", "error", err)
		}
	})
	if err != nil {
		return "", fmt.Errorf("failed to start audio capture: %w", err)
	}
	defer func() {
		if err := r.audio.StopCapture(); err != nil {
			logger.WarnContext(ctx, "Failed to stop audio capture", "error", err)
		}
	}()

	printStatus("Listening…")
	select {
	case transcript := <-r.transcripts:
		printUser(transcript)
		return transcript, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *voiceRecognizer) Close() {
	if err := r.stt.StopStream(); err != nil {
		logger.Warn("Failed to close transcription session", "error", err)
	}
}

// voiceSynthesizer sends text to the speech server and plays the synthesized
// audio through the default output device.
type voiceSynthesizer struct {
	tts   *wsspeech.Client
	audio *miniaudio.Client
}

func newVoiceSynthesizer(serverURL string, audioClient *miniaudio.Client) *voiceSynthesizer {
	return &voiceSynthesizer{
		tts:   wsspeech.NewClient(wsspeech.WithServerURL(serverURL)),
		audio: audioClient,
	}
}

func (s *voiceSynthesizer) Speak(ctx context.Context, text string) error {
	printAssistant(text)

	var (
		mu       sync.Mutex
		pcm      []byte
		speakErr error
	)
	flushed := make(chan struct{})

	stream, err := s.tts.OpenStream(ctx,
		texttospeech.WithEncodingInfo(s.audio.EncodingInfo()),
		texttospeech.WithAudioCallback(func(audio []byte) {
			mu.Lock()
			pcm = append(pcm, audio...)
			mu.Unlock()
		}),
		texttospeech.WithFlushedCallback(func() {
			select {
			case <-flushed:
			default:
				close(flushed)
			}
		}),
		texttospeech.WithErrorCallback(func(err error) {
			mu.Lock()
			speakErr = err
			mu.Unlock()
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to open speech stream: %w", err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			logger.WarnContext(ctx, "Failed to close speech stream", "error", err)
		}
	}()

	if err := stream.SendText(text); err != nil {
		return fmt.Errorf("failed to send text for synthesis: %w", err)
	}
	if err := stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush speech stream: %w", err)
	}

	select {
	case <-flushed:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timed out waiting for synthesized speech")
	}

	mu.Lock()
	audio, err := pcm, speakErr
	mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
	if len(audio) == 0 {
		return nil
	}
	if err := s.audio.Play(audio); err != nil {
		return fmt.Errorf("failed to play synthesized speech: %w", err)
	}
	return nil
}
