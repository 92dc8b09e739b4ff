package prompt

import (
	"fmt"
	"strings"

	"github.com/sihabsafin/pagewise/index"
	"github.com/sihabsafin/pagewise/llm"
)

const (
	// HistoryWindow is the number of most recent exchanges included in the
	// prompt.
	HistoryWindow = 4

	contextSeparator = "\n\n---\n\n"
	strictClause     = "\nIMPORTANT: Answer ONLY from the provided context. Do not use external knowledge."
	noHistoryText    = "No previous conversation."
	noContextText    = "No relevant context found in the documents."

	// FallbackAnswer is the sentence the model is directed to emit when the
	// context does not cover the question.
	FallbackAnswer = "I couldn't find relevant information in your documents for this question."
)

// Compose builds the full generation prompt in fixed order: mode instruction
// (plus the strict clause), windowed conversation history, retrieved context
// tagged with source filename and page, the question, and a fallback
// instruction telling the model to say so rather than fabricate when the
// context has no answer. An empty retrieval is stated explicitly so the
// model receives an unambiguous signal.
func Compose(mode Mode, strict bool, history []llm.Message, passages []index.Match, question string) string {
	var sb strings.Builder

	sb.WriteString(mode.Instruction())
	if strict {
		sb.WriteString(strictClause)
	}

	sb.WriteString("\n\nCONVERSATION HISTORY:\n")
	sb.WriteString(formatHistory(history))

	sb.WriteString("\n\nRETRIEVED CONTEXT:\n")
	sb.WriteString(formatContext(passages))

	sb.WriteString("\n\nQUESTION: ")
	sb.WriteString(question)

	sb.WriteString("\n\nIf the context doesn't contain relevant information, respond: \"")
	sb.WriteString(FallbackAnswer)
	sb.WriteString("\"\n\nAnswer:")

	return sb.String()
}

// formatHistory renders the most recent exchanges as alternating
// Human/Assistant lines, newest last.
func formatHistory(history []llm.Message) string {
	var pairs []string
	for i := 0; i+1 < len(history); i += 2 {
		if history[i].Role != llm.RoleHuman || history[i+1].Role != llm.RoleAI {
			continue
		}
		pairs = append(pairs, fmt.Sprintf("Human: %s\nAssistant: %s", history[i].Content, history[i+1].Content))
	}
	if len(pairs) == 0 {
		return noHistoryText
	}
	if len(pairs) > HistoryWindow {
		pairs = pairs[len(pairs)-HistoryWindow:]
	}
	return strings.Join(pairs, "\n\n")
}

func formatContext(passages []index.Match) string {
	if len(passages) == 0 {
		return noContextText
	}
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, fmt.Sprintf("[Source: %s, Page %d]\n%s", p.Filename, p.Page, p.Text))
	}
	return strings.Join(parts, contextSeparator)
}
