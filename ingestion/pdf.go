package ingestion

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sihabsafin/pagewise/splitter"
)

// Extractor turns a raw document payload into pages of plain text.
type Extractor interface {
	Extract(data []byte) ([]splitter.Page, error)
}

// PDFExtractor reads text page by page so every passage keeps its 1-indexed
// source page.
type PDFExtractor struct{}

func (PDFExtractor) Extract(data []byte) ([]splitter.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]splitter.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, splitter.Page{Number: i, Text: text})
	}
	return pages, nil
}
