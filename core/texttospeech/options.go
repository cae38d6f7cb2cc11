// Package texttospeech defines the synthesis options shared by synthesis
// backends.
package texttospeech

import "github.com/aida-voice/aida-core/core/audio"

type TextToSpeechOptions struct {
	// AudioCallback receives synthesized PCM chunks as they arrive.
	AudioCallback func(audio []byte)

	// FlushedCallback fires when everything sent before a flush has been
	// synthesized and delivered.
	FlushedCallback func()

	ErrorCallback func(err error)

	EncodingInfo audio.EncodingInfo
}

type TextToSpeechOption func(*TextToSpeechOptions)

func WithAudioCallback(callback func(audio []byte)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		o.AudioCallback = callback
	}
}

func WithFlushedCallback(callback func()) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		o.FlushedCallback = callback
	}
}

func WithErrorCallback(callback func(err error)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		o.ErrorCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		o.EncodingInfo = encodingInfo
	}
}
