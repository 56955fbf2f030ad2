package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal_chunker/internal/chunker"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFactory_GetExtractor(t *testing.T) {
	f := NewFactory()

	tests := []struct {
		path, method string
		want         string
	}{
		{"brief.pdf", "", "pdf"},
		{"BRIEF.PDF", "", "pdf"},
		{"notes.md", "", "markdown"},
		{"notes.markdown", "", "markdown"},
		{"ocr.txt", "", "text"},
		{"ocr.pdf", "text", "text"},
		{"scan.bin", "plain", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.method, func(t *testing.T) {
			ex, err := f.GetExtractor(tt.path, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ex.Name())
		})
	}
}

func TestFactory_Unsupported(t *testing.T) {
	f := NewFactory()

	_, err := f.GetExtractor("image.png", "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = f.GetExtractorByMethod("ocr")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.True(t, f.Supports("a.txt"))
	assert.False(t, f.Supports("a.docx"))
}

func TestTextExtractor(t *testing.T) {
	content := "I. INTRODUCTION\nText.\n<END_OF_PAGE>\nII. FACTS\n"
	path := writeFile(t, "ocr.txt", content)

	got, err := NewTextExtractor().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = NewTextExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestTextExtractor_Cancelled(t *testing.T) {
	path := writeFile(t, "ocr.txt", "text")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTextExtractor().Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMarkdownExtractor_Render(t *testing.T) {
	source := "# MOTION TO DISMISS\n\nSome *text* here\nand there.\n\n1. First\n2. Second\n\n- alpha\n- beta\n"

	got := NewMarkdownExtractor().Render([]byte(source))
	assert.Equal(t, "MOTION TO DISMISS\n\nSome text here\nand there.\n\n1. First\n2. Second\n\n- alpha\n- beta", got)
}

func TestMarkdownExtractor_Extract(t *testing.T) {
	path := writeFile(t, "brief.md", "## I. INTRODUCTION\n\nPlaintiff moves.\n\n```\nverbatim\n```\n")

	got, err := NewMarkdownExtractor().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "I. INTRODUCTION\n\nPlaintiff moves.\n\nverbatim", got)

	chunks := chunker.ChunkPlainTextSemantically(got, chunker.Options{MaxChunkSize: 1000})
	require.NotEmpty(t, chunks)
	assert.Equal(t, chunker.ChunkRomanSection, chunks[0].Metadata.ChunkType)
}

func TestPDFExtractor_Errors(t *testing.T) {
	_, err := NewPDFExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)

	bogus := writeFile(t, "bogus.pdf", "not a pdf at all")
	_, err = NewPDFExtractor().Extract(context.Background(), bogus)
	assert.Error(t, err)
}

func TestJoinPages(t *testing.T) {
	assert.Equal(t, "", joinPages(nil))
	assert.Equal(t, "one", joinPages([]string{"one"}))
	assert.Equal(t, "one\n<END_OF_PAGE>\ntwo", joinPages([]string{"one", "two"}))
}
