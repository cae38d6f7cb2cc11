package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aida-voice/aida-core/core/llms"
	"go.opentelemetry.io/otel/codes"
)

const summaryPromptTemplate = `Summarize this conversation concisely, preserving key facts, decisions, and context needed for continuity.

Previous summary: %s

New conversation to incorporate:
%s

Provide a brief, factual summary (3-4 sentences max):`

// summaryJob carries one evicted batch of turns plus the summary it folds
// into.
type summaryJob struct {
	previous string
	turns    []llms.Turn
}

// summarizer compresses evicted conversation batches in the background. The
// jobs channel is unbuffered on purpose: an offer only lands when the worker
// is blocked waiting, so a busy worker sheds load instead of queueing it.
type summarizer struct {
	client promptClient

	jobs      chan summaryJob
	closeOnce sync.Once
}

// promptClient is the non-streaming generation capability both the
// summarizer and the router-side dialogue path use.
type promptClient interface {
	Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error)
}

func newSummarizer(client promptClient) *summarizer {
	return &summarizer{
		client: client,
		jobs:   make(chan summaryJob),
	}
}

// Offer hands a job to the worker without blocking. Returns false when the
// worker is mid-summary, in which case the batch is dropped; the summary is
// lossy by design.
func (s *summarizer) Offer(job summaryJob) bool {
	select {
	case s.jobs <- job:
		return true
	default:
		return false
	}
}

// Close signals the worker to drain and exit. Safe to call more than once.
func (s *summarizer) Close() {
	s.closeOnce.Do(func() { close(s.jobs) })
}

// Run processes jobs until Close. Each finished summary is handed to apply,
// which replaces the summary cell wholesale.
func (s *summarizer) Run(ctx context.Context, apply func(summary string)) error {
	for job := range s.jobs {
		summary, err := s.summarize(ctx, job)
		if err != nil {
			logger.WarnContext(ctx, "Failed to summarize conversation batch", "error", err)
			continue
		}
		apply(summary)
	}
	return nil
}

func (s *summarizer) summarize(ctx context.Context, job summaryJob) (string, error) {
	ctx, span := tracer.Start(ctx, "summarize")
	defer span.End()

	previous := job.previous
	if previous == "" {
		previous = "None"
	}

	prompt := fmt.Sprintf(summaryPromptTemplate, previous, renderTurns(job.turns))
	response, err := s.client.Prompt(ctx, prompt)
	if err != nil {
		err = fmt.Errorf("failed to generate summary: %w", err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(response.Content), nil
}

// renderTurns flattens a batch into role-labeled lines for the summary
// prompt.
func renderTurns(turns []llms.Turn) string {
	var builder strings.Builder
	for _, turn := range turns {
		label := "Assistant"
		if turn.Role == llms.RoleUser {
			label = "User"
		}
		builder.WriteString(label)
		builder.WriteString(": ")
		builder.WriteString(turn.Content)
		builder.WriteString("\n")
	}
	return builder.String()
}
