package chat

import "github.com/sihabsafin/pagewise/llm"

// MaxMemoryTurns bounds the conversation log at 20 turns (10 exchanges).
const MaxMemoryTurns = 20

// Memory is the ordered log of prior question/answer turns that feeds the
// prompt composer. The newest pair is appended after generation completes;
// the oldest turns are silently dropped, never archived. It is owned by one
// session and mutated only between queries, so it needs no locking.
type Memory struct {
	turns []llm.Message
}

func NewMemory() *Memory { return &Memory{} }

// Append records one completed exchange and trims to the window.
func (m *Memory) Append(question, answer string) {
	m.turns = append(m.turns,
		llm.Message{Role: llm.RoleHuman, Content: question},
		llm.Message{Role: llm.RoleAI, Content: answer},
	)
	if len(m.turns) > MaxMemoryTurns {
		m.turns = m.turns[len(m.turns)-MaxMemoryTurns:]
	}
}

// Turns returns the retained turns, oldest first.
func (m *Memory) Turns() []llm.Message {
	out := make([]llm.Message, len(m.turns))
	copy(out, m.turns)
	return out
}

func (m *Memory) Len() int { return len(m.turns) }

func (m *Memory) Reset() { m.turns = nil }
