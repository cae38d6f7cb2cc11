package miniaudio

import (
	"fmt"
	"sync"
	"time"

	"github.com/aida-voice/aida-core/core/audio"
	"github.com/gen2brain/malgo"
)

type playbackClient struct {
	device *malgo.Device
	config malgo.DeviceConfig

	pending []byte
	mu      sync.Mutex
	drained *sync.Cond
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext) error {
	c.drained = sync.NewCond(&c.mu)

	format := malgo.FormatS16
	channels := 1
	sampleRate := uint32(audio.DefaultSampleRate)
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 10
	c.config.Periods = 4

	var err error
	c.device, err = malgo.InitDevice(audioContext.Context, c.config, malgo.DeviceCallbacks{
		Data: c.fillOutput(bytesPerFrame),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

// fillOutput feeds the device from the pending buffer, padding with silence
// when it runs dry, and wakes Play once everything queued has been consumed.
func (c *playbackClient) fillOutput(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.mu.Lock()
		defer c.mu.Unlock()

		n := copy(pOutput, c.pending)
		c.pending = c.pending[n:]
		for i := n; i < need && i < len(pOutput); i++ {
			pOutput[i] = 0
		}

		if len(c.pending) == 0 {
			c.drained.Broadcast()
		}
	}
}

// Play enqueues a clip and blocks until the device drains it. The trailing
// sleep covers the device-internal period buffers the drain signal cannot
// see.
func (c *playbackClient) Play(pcm []byte) error {
	c.mu.Lock()
	if c.device == nil {
		c.mu.Unlock()
		return fmt.Errorf("playback device not initialized")
	}

	c.pending = append(c.pending, pcm...)
	for len(c.pending) > 0 {
		c.drained.Wait()
	}
	c.mu.Unlock()

	periods := time.Duration(c.config.Periods) * time.Duration(c.config.PeriodSizeInFrames)
	time.Sleep(periods * time.Second / time.Duration(c.config.SampleRate))
	return nil
}

func (c *playbackClient) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	c.drained.Broadcast()
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	c.pending = nil
	if c.drained != nil {
		c.drained.Broadcast()
	}
	return nil
}
