package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sihabsafin/pagewise/index"
	"github.com/sihabsafin/pagewise/llm"
)

func TestTemperatureStrictOverridesEveryMode(t *testing.T) {
	for _, m := range Modes() {
		if got := Temperature(m, true); got != StrictTemperature {
			t.Fatalf("mode %s: strict temperature = %v, want %v", m, got, StrictTemperature)
		}
	}
}

func TestTemperatureDefaultsPerMode(t *testing.T) {
	want := map[Mode]float32{
		ModeFactual:   0.1,
		ModeDetailed:  0.2,
		ModeBullets:   0.15,
		ModeCompare:   0.15,
		ModeExecutive: 0.2,
	}
	for m, temp := range want {
		if got := Temperature(m, false); got != temp {
			t.Fatalf("mode %s: temperature = %v, want %v", m, got, temp)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		parsed, err := ParseMode(m.String())
		if err != nil {
			t.Fatalf("parse %q: %v", m.String(), err)
		}
		if parsed != m {
			t.Fatalf("parse %q: got %v, want %v", m.String(), parsed, m)
		}
	}

	if _, err := ParseMode("poetic"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestComposeOrderAndSourceTags(t *testing.T) {
	passages := []index.Match{
		{Filename: "report.pdf", Page: 3, Text: "Revenue grew 12 percent."},
		{Filename: "notes.pdf", Page: 1, Text: "Costs were flat."},
	}
	history := []llm.Message{
		{Role: llm.RoleHuman, Content: "What is this about?"},
		{Role: llm.RoleAI, Content: "A financial report."},
	}

	out := Compose(ModeFactual, false, history, passages, "How did revenue change?")

	markers := []string{
		ModeFactual.Instruction(),
		"CONVERSATION HISTORY:",
		"Human: What is this about?",
		"Assistant: A financial report.",
		"RETRIEVED CONTEXT:",
		"[Source: report.pdf, Page 3]",
		"[Source: notes.pdf, Page 1]",
		"QUESTION: How did revenue change?",
		FallbackAnswer,
		"Answer:",
	}
	last := -1
	for _, marker := range markers {
		pos := strings.Index(out, marker)
		if pos < 0 {
			t.Fatalf("prompt missing %q", marker)
		}
		if pos < last {
			t.Fatalf("marker %q out of order", marker)
		}
		last = pos
	}

	if strings.Contains(out, strictClause) {
		t.Fatal("strict clause present without strict mode")
	}
}

func TestComposeStrictAddsClause(t *testing.T) {
	out := Compose(ModeFactual, true, nil, nil, "q")
	if !strings.Contains(out, "Answer ONLY from the provided context") {
		t.Fatal("strict clause missing")
	}
}

func TestComposeEmptyRetrievalStated(t *testing.T) {
	out := Compose(ModeFactual, false, nil, nil, "q")
	if !strings.Contains(out, noContextText) {
		t.Fatal("empty retrieval not stated in prompt")
	}
	if !strings.Contains(out, noHistoryText) {
		t.Fatal("empty history not stated in prompt")
	}
}

func TestComposeHistoryWindowKeepsLastFourExchanges(t *testing.T) {
	var history []llm.Message
	for i := 0; i < 6; i++ {
		history = append(history,
			llm.Message{Role: llm.RoleHuman, Content: fmt.Sprintf("question %d", i)},
			llm.Message{Role: llm.RoleAI, Content: fmt.Sprintf("answer %d", i)},
		)
	}

	out := Compose(ModeFactual, false, history, nil, "q")

	for i := 0; i < 2; i++ {
		if strings.Contains(out, fmt.Sprintf("question %d", i)) {
			t.Fatalf("exchange %d should be outside the history window", i)
		}
	}
	for i := 2; i < 6; i++ {
		if !strings.Contains(out, fmt.Sprintf("question %d", i)) {
			t.Fatalf("exchange %d missing from history window", i)
		}
	}
}
