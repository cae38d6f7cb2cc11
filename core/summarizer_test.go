package orchestration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aida-voice/aida-core/core/llms"
)

type summaryClientStub struct {
	mu       sync.Mutex
	prompts  []string
	response string
	err      error

	// block holds the worker mid-summary until released.
	block chan struct{}
}

func (s *summaryClientStub) Prompt(_ context.Context, prompt string, _ ...llms.PromptOption) (*llms.Response, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llms.Response{Content: s.response}, nil
}

func (s *summaryClientStub) promptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func TestSummarizerAppliesSummary(t *testing.T) {
	stub := &summaryClientStub{response: " compressed history "}
	worker := newSummarizer(stub)

	applied := make(chan string, 1)
	go worker.Run(context.Background(), func(summary string) { applied <- summary })

	ok := worker.Offer(summaryJob{
		previous: "earlier context",
		turns: []llms.Turn{
			{Role: llms.RoleUser, Content: "hello"},
			{Role: llms.RoleAssistant, Content: "hi"},
		},
	})
	if !ok {
		// The worker may not be at the receive yet; retry briefly.
		deadline := time.After(time.Second)
		for !ok {
			select {
			case <-deadline:
				t.Fatal("worker never accepted the job")
			case <-time.After(time.Millisecond):
				ok = worker.Offer(summaryJob{previous: "earlier context", turns: []llms.Turn{{Role: llms.RoleUser, Content: "hello"}}})
			}
		}
	}

	select {
	case summary := <-applied:
		if summary != "compressed history" {
			t.Errorf("expected trimmed summary, got %q", summary)
		}
	case <-time.After(time.Second):
		t.Fatal("summary was never applied")
	}

	stub.mu.Lock()
	prompt := stub.prompts[0]
	stub.mu.Unlock()
	if !strings.Contains(prompt, "User: hello") {
		t.Errorf("expected role-labeled turns in prompt, got %q", prompt)
	}
	if !strings.Contains(prompt, "earlier context") {
		t.Errorf("expected previous summary in prompt, got %q", prompt)
	}

	worker.Close()
}

func TestSummarizerOfferDropsWhenBusy(t *testing.T) {
	stub := &summaryClientStub{response: "s", block: make(chan struct{})}
	worker := newSummarizer(stub)

	done := make(chan struct{})
	go func() {
		worker.Run(context.Background(), func(string) {})
		close(done)
	}()

	// Land the first job, then wait until the worker is inside Prompt.
	for !worker.Offer(summaryJob{turns: []llms.Turn{{Role: llms.RoleUser, Content: "a"}}}) {
		time.Sleep(time.Millisecond)
	}
	for stub.promptCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	if worker.Offer(summaryJob{turns: []llms.Turn{{Role: llms.RoleUser, Content: "b"}}}) {
		t.Error("expected offer to be dropped while the worker is busy")
	}

	close(stub.block)
	worker.Close()
	<-done

	if stub.promptCount() != 1 {
		t.Errorf("expected exactly one summary call, got %d", stub.promptCount())
	}
}

func TestSummarizerKeepsPreviousSummaryOnFailure(t *testing.T) {
	stub := &summaryClientStub{err: errors.New("model offline")}
	worker := newSummarizer(stub)

	applied := false
	done := make(chan struct{})
	go func() {
		worker.Run(context.Background(), func(string) { applied = true })
		close(done)
	}()

	for !worker.Offer(summaryJob{turns: []llms.Turn{{Role: llms.RoleUser, Content: "a"}}}) {
		time.Sleep(time.Millisecond)
	}

	worker.Close()
	<-done

	if applied {
		t.Error("expected no summary application after a failed generation")
	}
}

func TestSummarizerCloseIsIdempotent(t *testing.T) {
	worker := newSummarizer(&summaryClientStub{})
	worker.Close()
	worker.Close()
}
