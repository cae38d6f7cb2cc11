// Package wsspeech streams text to a local speech-synthesis server over a
// websocket and receives PCM back. The server side speaks a deepgram-like
// protocol: JSON control messages in, binary audio plus JSON events out.
package wsspeech

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/aida-voice/aida-core/core/audio"
	"github.com/aida-voice/aida-core/core/texttospeech"
)

const defaultServerURL = "ws://localhost:8765/speak"

type Client struct {
	serverURL string
}

type ClientOption func(*Client)

func WithServerURL(serverURL string) ClientOption {
	return func(c *Client) {
		c.serverURL = serverURL
	}
}

func NewClient(opts ...ClientOption) *Client {
	client := &Client{serverURL: defaultServerURL}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// SpeechStream is one open synthesis session.
type SpeechStream struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	options   texttospeech.TextToSpeechOptions
	closed    bool
	closeOnce sync.Once
	readDone  chan struct{}
}

// OpenStream connects to the speech server. Audio and events arrive through
// the callbacks until Close.
func (c *Client) OpenStream(ctx context.Context, opts ...texttospeech.TextToSpeechOption) (*SpeechStream, error) {
	options := texttospeech.TextToSpeechOptions{
		AudioCallback:   func([]byte) {},
		FlushedCallback: func() {},
		ErrorCallback:   func(error) {},
		EncodingInfo:    audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	serverURL, err := url.Parse(c.serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speech server url: %w", err)
	}
	queryParams := serverURL.Query()
	queryParams.Set("encoding", options.EncodingInfo.Encoding.Name())
	queryParams.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	serverURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, serverURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to speech server: %w", err)
	}

	stream := &SpeechStream{
		conn:     conn,
		options:  options,
		readDone: make(chan struct{}),
	}
	go stream.processIncomingMessages(ctx)

	return stream, nil
}

// SendText queues text for synthesis.
func (s *SpeechStream) SendText(text string) error {
	return s.writeJSON(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "Speak", Text: text})
}

// Flush asks the server to synthesize everything queued so far; the flushed
// callback fires when the resulting audio has been fully delivered.
func (s *SpeechStream) Flush() error {
	return s.writeJSON(struct {
		Type string `json:"type"`
	}{Type: "Flush"})
}

// Close ends the session and waits for the reader to finish.
func (s *SpeechStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.writeJSON(struct {
			Type string `json:"type"`
		}{Type: "Close"})
		s.connMu.Lock()
		s.closed = true
		s.conn.Close()
		s.connMu.Unlock()
		<-s.readDone
	})
	return err
}

func (s *SpeechStream) writeJSON(message any) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if err := s.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to send message to speech server: %w", err)
	}
	return nil
}

func (s *SpeechStream) processIncomingMessages(ctx context.Context) {
	defer close(s.readDone)

	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.connMu.Lock()
			closed := s.closed
			s.connMu.Unlock()
			if !closed && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.options.ErrorCallback(fmt.Errorf("speech server read failed: %w", err))
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			s.options.AudioCallback(msg)
		case websocket.TextMessage:
			s.processEvent(ctx, msg)
		}
	}
}

func (s *SpeechStream) processEvent(ctx context.Context, msg []byte) {
	var event struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(msg, &event); err != nil {
		logger.WarnContext(ctx, "Failed to unmarshal speech server event", "error", err)
		return
	}

	switch event.Type {
	case "Flushed":
		s.options.FlushedCallback()
	case "Error":
		s.options.ErrorCallback(fmt.Errorf("speech server error: %s", event.Message))
	}
}
