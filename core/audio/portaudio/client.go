// Package portaudio is a blocking-IO alternative to the miniaudio backend
// for platforms where PortAudio is the better-supported option.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/aida-voice/aida-core/core/audio"
	"github.com/gordonklaus/portaudio"
)

type Client struct {
	bufferSize int
	stream     *portaudio.Stream

	in  []int16
	out []int16

	leftover []byte
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	return &Client{bufferSize: bufferSize, stream: stream, in: in, out: out}, nil
}

// Record captures for the given number of seconds and returns the PCM.
func (c *Client) Record(ctx context.Context, seconds int) ([]byte, error) {
	target := seconds * c.EncodingInfo().BytesPerSecond()
	recorded := bytes.Buffer{}

	for recorded.Len() < target {
		if err := ctx.Err(); err != nil {
			return recorded.Bytes(), err
		}
		if err := c.stream.Read(); err != nil {
			return nil, fmt.Errorf("failed to read from portaudio stream: %w", err)
		}
		if err := binary.Write(&recorded, binary.LittleEndian, c.in); err != nil {
			return nil, fmt.Errorf("failed to buffer captured audio: %w", err)
		}
	}

	return recorded.Bytes(), nil
}

// Play writes a PCM clip to the output device, blocking until written.
func (c *Client) Play(pcm []byte) error {
	chunkSize := c.bufferSize * 2

	pcm = append(c.leftover, pcm...)
	var offset int
	for offset = 0; offset+chunkSize <= len(pcm); offset += chunkSize {
		if err := binary.Read(bytes.NewReader(pcm[offset:offset+chunkSize]), binary.LittleEndian, c.out); err != nil {
			return fmt.Errorf("failed to frame playback audio: %w", err)
		}
		if err := c.stream.Write(); err != nil {
			return fmt.Errorf("failed to write to portaudio stream: %w", err)
		}
	}

	c.leftover = append(c.leftover[:0], pcm[offset:]...)
	return nil
}

// Flush pads the remaining partial frame with silence and plays it out.
func (c *Client) Flush() error {
	if len(c.leftover) == 0 {
		return nil
	}

	chunk := make([]byte, c.bufferSize*2)
	copy(chunk, c.leftover)
	c.leftover = nil

	if err := binary.Read(bytes.NewReader(chunk), binary.LittleEndian, c.out); err != nil {
		return fmt.Errorf("failed to frame playback audio: %w", err)
	}
	if err := c.stream.Write(); err != nil {
		return fmt.Errorf("failed to write to portaudio stream: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	c.stream.Close()
	portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
