package chat

import (
	"math"
	"strings"

	"github.com/sihabsafin/pagewise/index"
)

const (
	snippetLength = 400

	scoreFloor = 0.35
	scoreCeil  = 0.95
	rankDecay  = 0.08
)

// ScoreSources derives a display citation for each retrieved passage,
// independently of the generation model. The score is an explicitly
// heuristic lexical-overlap measure for user-facing relevance display; it
// must never re-rank or filter retrieval, which is decided solely by the
// vector index's similarity order.
func ScoreSources(matches []index.Match, question string) []Citation {
	queryWords := wordSet(question)

	citations := make([]Citation, 0, len(matches))
	for rank, m := range matches {
		overlap := 0
		for w := range wordSet(m.Text) {
			if _, ok := queryWords[w]; ok {
				overlap++
			}
		}

		denom := len(queryWords)
		if denom < 1 {
			denom = 1
		}
		base := math.Min(scoreCeil, 0.5+float64(overlap)/float64(denom)*0.45)

		score := base * (1 - float64(rank)*rankDecay)
		score = math.Max(scoreFloor, score)
		score = math.Round(score*1000) / 1000

		citations = append(citations, Citation{
			Filename: m.Filename,
			Page:     m.Page,
			Score:    score,
			Snippet:  snippet(m.Text),
		})
	}
	return citations
}

func snippet(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= snippetLength {
		return trimmed
	}
	return trimmed[:snippetLength] + "..."
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
