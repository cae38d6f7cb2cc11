// Package miniaudio captures and plays PCM through the system's default
// devices via malgo.
package miniaudio

import (
	"fmt"

	"github.com/aida-voice/aida-core/core/audio"
	"github.com/gen2brain/malgo"
)

type Client struct {
	// audioContext is only kept for uninitialization.
	audioContext *malgo.AllocatedContext

	capture  captureClient
	playback playbackClient
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := &Client{audioContext: audioCtx}

	if err := client.capture.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}
	if err := client.playback.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	return client, nil
}

// StartCapture begins feeding microphone frames to onAudio.
func (c *Client) StartCapture(onAudio func(audio []byte)) error {
	return c.capture.Start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.capture.Stop()
}

// Play enqueues a PCM clip and blocks until the device has drained it.
func (c *Client) Play(pcm []byte) error {
	return c.playback.Play(pcm)
}

func (c *Client) ClearPlayback() {
	c.playback.Clear()
}

func (c *Client) Close() {
	_ = c.capture.Uninit()
	_ = c.playback.Uninit()
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
