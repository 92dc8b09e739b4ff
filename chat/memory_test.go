package chat

import (
	"fmt"
	"testing"

	"github.com/sihabsafin/pagewise/llm"
)

func TestMemoryAppendRecordsPairs(t *testing.T) {
	m := NewMemory()
	m.Append("what is this?", "a document")

	turns := m.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != llm.RoleHuman || turns[0].Content != "what is this?" {
		t.Fatalf("unexpected first turn: %+v", turns[0])
	}
	if turns[1].Role != llm.RoleAI || turns[1].Content != "a document" {
		t.Fatalf("unexpected second turn: %+v", turns[1])
	}
}

func TestMemoryDropsOldestBeyondLimit(t *testing.T) {
	m := NewMemory()
	for i := 0; i < 12; i++ {
		m.Append(fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i))
	}

	if m.Len() != MaxMemoryTurns {
		t.Fatalf("expected %d retained turns, got %d", MaxMemoryTurns, m.Len())
	}

	turns := m.Turns()
	if turns[0].Content != "question 2" {
		t.Fatalf("expected oldest retained turn to be question 2, got %q", turns[0].Content)
	}
	if turns[len(turns)-1].Content != "answer 11" {
		t.Fatalf("expected newest turn to be answer 11, got %q", turns[len(turns)-1].Content)
	}
}

func TestMemoryTurnsReturnsCopy(t *testing.T) {
	m := NewMemory()
	m.Append("q", "a")

	turns := m.Turns()
	turns[0].Content = "mutated"

	if m.Turns()[0].Content != "q" {
		t.Fatal("mutating the returned slice leaked into memory")
	}
}

func TestMemoryReset(t *testing.T) {
	m := NewMemory()
	m.Append("q", "a")
	m.Reset()

	if m.Len() != 0 {
		t.Fatalf("expected empty memory after reset, got %d turns", m.Len())
	}
}
