// Package extract turns source files into the plain text the chunker reads.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files no extractor handles.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Extractor reads a document and returns its text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)

	// Name is used in logs and stored with the indexed chunks.
	Name() string
}

// Factory picks an extractor by method name or file extension.
type Factory struct {
	pdf      *PDFExtractor
	markdown *MarkdownExtractor
	text     *TextExtractor
}

// NewFactory creates a factory with the default extractors.
func NewFactory() *Factory {
	return &Factory{
		pdf:      NewPDFExtractor(),
		markdown: NewMarkdownExtractor(),
		text:     NewTextExtractor(),
	}
}

// GetExtractor returns the extractor for the file. An explicit method wins
// over the extension.
func (f *Factory) GetExtractor(filePath, method string) (Extractor, error) {
	if method != "" {
		return f.GetExtractorByMethod(method)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return f.pdf, nil
	case ".md", ".markdown":
		return f.markdown, nil
	case ".txt", ".text":
		return f.text, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// GetExtractorByMethod returns the extractor with the given name.
func (f *Factory) GetExtractorByMethod(method string) (Extractor, error) {
	switch strings.ToLower(method) {
	case "pdf":
		return f.pdf, nil
	case "markdown", "md":
		return f.markdown, nil
	case "text", "txt", "plain":
		return f.text, nil
	default:
		return nil, fmt.Errorf("%w: unknown extraction method %q", ErrUnsupportedFormat, method)
	}
}

// Supports reports whether some extractor handles the file's extension.
func (f *Factory) Supports(filePath string) bool {
	_, err := f.GetExtractor(filePath, "")
	return err == nil
}

// TextExtractor reads plain text files as they are. OCR output with
// page markers arrives this way.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (t *TextExtractor) Name() string {
	return "text"
}

func (t *TextExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
