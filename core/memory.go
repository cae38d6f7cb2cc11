package orchestration

import (
	"sync/atomic"

	"github.com/aida-voice/aida-core/core/llms"
)

// conversationMemory keeps the recent conversation turns plus a rolling
// summary of everything older. Turns are only touched from the main loop; the
// summary cell is written by the summarization worker and read here, with
// whole-value replacement on both sides.
type conversationMemory struct {
	recentTurns int
	turns       []llms.Turn
	summary     atomic.Pointer[string]
}

func newConversationMemory(recentTurns int) *conversationMemory {
	memory := &conversationMemory{recentTurns: recentTurns}
	memory.summary.Store(new(string))
	return memory
}

// AppendUser records the user's utterance, then evicts overflow before the
// generation context is built. When the history exceeds twice the retention
// window, only the excess oldest turns are sliced off as a single batch and
// returned for summarization; the live window stays at the bound.
func (m *conversationMemory) AppendUser(content string) []llms.Turn {
	m.turns = append(m.turns, llms.Turn{Role: llms.RoleUser, Content: content})

	excess := len(m.turns) - 2*m.recentTurns
	if excess <= 0 {
		return nil
	}

	batch := make([]llms.Turn, excess)
	copy(batch, m.turns[:excess])
	m.turns = append(m.turns[:0:0], m.turns[excess:]...)
	return batch
}

// AppendAssistant records the assistant's reply. Overflow is handled on the
// next user append, so a failed generation can roll the user turn back
// without the window having moved.
func (m *conversationMemory) AppendAssistant(content string) {
	m.turns = append(m.turns, llms.Turn{Role: llms.RoleAssistant, Content: content})
}

// RollbackUser removes the most recent turn if it is a user turn. Called when
// generation fails so the history never holds a question with no answer.
func (m *conversationMemory) RollbackUser() {
	if len(m.turns) == 0 {
		return
	}
	if m.turns[len(m.turns)-1].Role != llms.RoleUser {
		return
	}
	m.turns = m.turns[:len(m.turns)-1]
}

func (m *conversationMemory) Turns() []llms.Turn {
	turns := make([]llms.Turn, len(m.turns))
	copy(turns, m.turns)
	return turns
}

func (m *conversationMemory) Summary() string {
	return *m.summary.Load()
}

func (m *conversationMemory) SetSummary(summary string) {
	m.summary.Store(&summary)
}
