package splitter

import (
	"strings"
	"testing"
)

func TestSplitTextShortTextSingleChunk(t *testing.T) {
	s := New(1000, 150)

	chunks := s.SplitText("  a short paragraph  ")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "a short paragraph" {
		t.Fatalf("expected trimmed text, got %q", chunks[0])
	}
}

func TestSplitTextWhitespaceOnlyDiscarded(t *testing.T) {
	s := New(1000, 150)

	if chunks := s.SplitText("   \n\n  \t  "); chunks != nil {
		t.Fatalf("expected no chunks for whitespace input, got %v", chunks)
	}
}

func TestSplitTextRespectsMaxLength(t *testing.T) {
	s := New(1000, 150)

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString(strings.Repeat("sentence with several plain words. ", 4))
		sb.WriteString("\n\n")
	}

	chunks := s.SplitText(sb.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 1000 {
			t.Fatalf("chunk %d exceeds max length: %d chars", i, len(chunk))
		}
		if strings.TrimSpace(chunk) == "" {
			t.Fatalf("chunk %d is whitespace only", i)
		}
	}
}

func TestSplitTextOverlapSharedBetweenChunks(t *testing.T) {
	s := New(10, 4)

	chunks := s.SplitText("aa bb cc dd ee")
	want := []string{"aa bb cc", "cc dd ee"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d: expected %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestSplitTextHardCutWithoutSeparators(t *testing.T) {
	s := New(10, 4)

	chunks := s.SplitText(strings.Repeat("x", 25))
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d: %v", len(chunks), chunks)
	}
	for i, chunk := range chunks {
		if len(chunk) > 10 {
			t.Fatalf("chunk %d exceeds max length: %d chars", i, len(chunk))
		}
	}
	if chunks[0] != strings.Repeat("x", 10) {
		t.Fatalf("unexpected first chunk: %q", chunks[0])
	}
}

func TestSplitChunksDoNotCrossPages(t *testing.T) {
	s := New(50, 10)

	pages := []Page{
		{Number: 1, Text: strings.Repeat("first page words here. ", 6)},
		{Number: 2, Text: strings.Repeat("second page words here. ", 6)},
		{Number: 3, Text: "   "},
	}

	passages := s.Split("doc1", "report.pdf", pages)
	if len(passages) == 0 {
		t.Fatal("expected passages")
	}
	for _, p := range passages {
		if p.DocumentID != "doc1" || p.Filename != "report.pdf" {
			t.Fatalf("passage missing document identity: %+v", p)
		}
		switch p.Page {
		case 1:
			if strings.Contains(p.Text, "second") {
				t.Fatalf("page 1 passage contains page 2 text: %q", p.Text)
			}
		case 2:
			if strings.Contains(p.Text, "first") {
				t.Fatalf("page 2 passage contains page 1 text: %q", p.Text)
			}
		default:
			t.Fatalf("unexpected page %d, blank pages should yield no passages", p.Page)
		}
	}
}

func TestSplitThreePageDocument(t *testing.T) {
	s := New(DefaultMaxLen, DefaultOverlap)

	// 2400 characters split evenly across three pages.
	pageText := strings.Repeat("eight ch", 100)
	pages := []Page{
		{Number: 1, Text: pageText},
		{Number: 2, Text: pageText},
		{Number: 3, Text: pageText},
	}

	passages := s.Split("doc1", "tri.pdf", pages)
	if len(passages) < 3 {
		t.Fatalf("expected at least one chunk per page, got %d", len(passages))
	}
	seen := map[int]bool{}
	for _, p := range passages {
		if len(p.Text) > DefaultMaxLen {
			t.Fatalf("chunk exceeds max length: %d chars", len(p.Text))
		}
		if p.Page < 1 || p.Page > 3 {
			t.Fatalf("invalid page number %d", p.Page)
		}
		if p.DocumentID != "doc1" {
			t.Fatalf("wrong document id %q", p.DocumentID)
		}
		seen[p.Page] = true
	}
	for page := 1; page <= 3; page++ {
		if !seen[page] {
			t.Fatalf("no chunk attributed to page %d", page)
		}
	}
}

func TestNewClampsBadArguments(t *testing.T) {
	s := New(0, -5)
	if s.maxLen != DefaultMaxLen || s.overlap != 0 {
		t.Fatalf("expected defaults, got maxLen=%d overlap=%d", s.maxLen, s.overlap)
	}

	s = New(10, 12)
	if s.overlap != 5 {
		t.Fatalf("expected overlap clamped to half of max, got %d", s.overlap)
	}
}
