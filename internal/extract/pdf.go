package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"legal_chunker/internal/chunker"
)

// PDFExtractor pulls the text layer out of PDFs page by page. Pages are
// separated with chunker.PageMarker, the same marker OCR output uses.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (p *PDFExtractor) Name() string {
	return "pdf"
}

func (p *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d of %s: %w", i, path, err)
		}
		pages = append(pages, strings.TrimRight(text, "\n"))
	}
	return joinPages(pages), nil
}

// joinPages puts every page on its own lines with a marker between pages.
func joinPages(pages []string) string {
	return strings.Join(pages, "\n"+chunker.PageMarker+"\n")
}
