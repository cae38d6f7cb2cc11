package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aida-voice/aida-core/core/llms"
	"github.com/aida-voice/aida-core/internal/utils"
	"github.com/jinzhu/copier"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultBaseURL = "http://localhost:11434"

	completionsPath = "/v1/chat/completions"
	endMessage      = "[DONE]"
	chunkPrefix     = "data:"
)

// Client talks to a local Ollama server through its OpenAI-compatible
// chat-completions endpoint.
type Client struct {
	baseURL string
	model   string

	httpClient *http.Client
}

type ClientOption func(*Client)

// WithBaseURL overrides the default server address.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

func NewClient(model string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		model:      model,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) Model() string { return c.model }

// Prompt sends the prompt (appended after any configured turns) to the model
// and returns the full response. If a stream callback is configured through
// [llms.WithStream] the request streams and the callback receives every
// content chunk as it arrives.
func (c *Client) Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error) {
	ctx, span := tracer.Start(ctx, "prompt ollama")
	defer span.End()

	options := llms.PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	messages := toMessages(options.Instructions, options.Turns)
	if prompt != "" {
		messages = append(messages, message{Role: messageRoleUser, Content: prompt})
	}

	var toolChoice *string
	var tools []tool
	if len(options.Tools) > 0 {
		toolChoice = utils.Ptr("auto")

		var functions []toolFunction
		if err := copier.Copy(&functions, options.Tools); err != nil {
			return nil, fmt.Errorf("failed to copy tool definitions: %w", err)
		}
		for _, function := range functions {
			tools = append(tools, tool{Type: "function", Function: function})
		}
	}

	reqBody := requestBody{
		Model:      c.model,
		Messages:   messages,
		Stream:     options.Stream != nil,
		Tools:      tools,
		ToolChoice: toolChoice,
	}
	span.SetAttributes(
		attribute.String("request.model", c.model),
		attribute.Bool("request.stream", reqBody.Stream),
	)

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, strings.TrimSpace(string(body)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if reqBody.Stream {
		return c.readStreamedResponse(resp.Body, options.Stream)
	}

	var response responseBody
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &llms.Response{Content: response.Choices[0].Message.Content}, nil
}

func (c *Client) readStreamedResponse(body io.Reader, onChunk func(string)) (*llms.Response, error) {
	var response strings.Builder

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))

		if len(chunk) == 0 {
			continue
		}
		if chunk == endMessage {
			break
		}

		var chunkBody streamingResponseBody
		if err := json.Unmarshal([]byte(chunk), &chunkBody); err != nil {
			logger.Warn("failed to unmarshal streamed chunk", "error", err)
			continue
		}
		if len(chunkBody.Choices) == 0 {
			continue
		}

		content := chunkBody.Choices[0].Delta.Content
		if content == "" {
			continue
		}

		response.WriteString(content)
		if onChunk != nil {
			onChunk(content)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading streamed response: %w", err)
	}

	return &llms.Response{Content: response.String()}, nil
}
