// Package splitter breaks extracted document text into overlapping passages
// sized for embedding and retrieval.
package splitter

import "strings"

// Page is one page of extracted text, numbered from 1.
type Page struct {
	Number int
	Text   string
}

// Passage is a retrievable chunk of a document. Its Page is the page the
// chunk started on.
type Passage struct {
	DocumentID string
	Filename   string
	Page       int
	Text       string
}

// Splitter splits text recursively on a ladder of separators, preferring
// semantic boundaries (paragraphs, lines, sentences, words) and falling back
// to a hard character cut for unbreakable runs. Adjacent chunks overlap to
// preserve meaning across boundaries.
type Splitter struct {
	maxLen     int
	overlap    int
	separators []string
}

const (
	DefaultMaxLen  = 1000
	DefaultOverlap = 150
)

func New(maxLen, overlap int) *Splitter {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxLen {
		overlap = maxLen / 2
	}
	return &Splitter{
		maxLen:     maxLen,
		overlap:    overlap,
		separators: []string{"\n\n", "\n", ". ", " ", ""},
	}
}

// Split chunks every page of a document. Chunks never cross page boundaries,
// so each passage's page attribution is exact. Whitespace-only fragments are
// discarded.
func (s *Splitter) Split(docID, filename string, pages []Page) []Passage {
	var passages []Passage
	for _, page := range pages {
		for _, text := range s.SplitText(page.Text) {
			passages = append(passages, Passage{
				DocumentID: docID,
				Filename:   filename,
				Page:       page.Number,
				Text:       text,
			})
		}
	}
	return passages
}

// SplitText splits a single run of text into chunks of at most the
// configured maximum length, overlapping by the configured amount.
func (s *Splitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= s.maxLen {
		return []string{strings.TrimSpace(text)}
	}

	sep, rest := pickSeparator(text, separators)
	if sep == "" {
		return s.hardCut(text)
	}

	pieces := splitKeep(text, sep)

	var chunks []string
	var window []string
	total := 0

	emit := func() {
		joined := strings.TrimSpace(strings.Join(window, ""))
		if joined != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, piece := range pieces {
		if len(piece) > s.maxLen {
			// A single unit over the limit: emit what we have, then recurse
			// with the finer separators.
			emit()
			window = nil
			total = 0
			chunks = append(chunks, s.split(piece, rest)...)
			continue
		}
		if total+len(piece) > s.maxLen && len(window) > 0 {
			emit()
			// Keep a trailing window as overlap, shrinking it until the
			// incoming piece also fits under the limit.
			for total > s.overlap || (total+len(piece) > s.maxLen && total > 0) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += len(piece)
	}
	if len(window) > 0 {
		emit()
	}
	return chunks
}

// hardCut slices an unbreakable run at the character limit, stepping by
// maxLen minus overlap so consecutive cuts still share context.
func (s *Splitter) hardCut(text string) []string {
	step := s.maxLen - s.overlap
	if step <= 0 {
		step = s.maxLen
	}
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.maxLen
		if end > len(text) {
			end = len(text)
		}
		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(text) {
			break
		}
	}
	return chunks
}

func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// splitKeep splits text on sep, keeping the separator attached to the
// preceding piece so rejoining loses nothing.
func splitKeep(text, sep string) []string {
	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if part == "" {
			continue
		}
		pieces = append(pieces, part)
	}
	return pieces
}
