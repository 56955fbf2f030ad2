// Package chunker splits OCR'd legal documents into semantically bounded
// chunks.
//
// The pipeline is a single forward pass over the lines of the text:
// every line is classified (headings, page breaks, contract sections,
// sub-items, paragraph breaks, signature lines), the assembler cuts chunks
// at major boundaries or when the size ceiling is hit while protecting
// citations and numbered lists, a merge pass folds undersized chunks into
// their neighbour, and an optional enhancer adds legal metadata.
//
// Everything here is pure and holds no shared state; ChunkPlainTextSemantically
// is safe for concurrent use.
package chunker

import (
	"strings"

	"github.com/google/uuid"
)

// PageMarker is the end-of-page marker OCR output carries between pages.
const PageMarker = "<END_OF_PAGE>"

// PageBreak replaces PageMarker in the chunked text.
const PageBreak = "[PAGE BREAK]"

// ChunkPlainTextSemantically chunks text. Offsets in the result refer to the
// text after PageMarker substitution. Empty input yields no chunks.
func ChunkPlainTextSemantically(text string, opts Options) []Chunk {
	opts = normalize(opts)
	text = strings.ReplaceAll(text, PageMarker, "\n"+PageBreak+"\n")
	if strings.TrimSpace(text) == "" {
		return []Chunk{}
	}

	chunks := newAssembler(classifyLines(text), opts).run()
	chunks = mergeSmallChunks(chunks, opts)

	for i := range chunks {
		chunks[i].ChunkIndex = i
		chunks[i].ChunkUUID = uuid.NewString()
	}
	if opts.EnhanceMetadata {
		enhanceMetadata(chunks, opts.DocumentUUID)
	}
	return chunks
}

func normalize(opts Options) Options {
	opts.MinChunkSize = max(0, opts.MinChunkSize)
	opts.MaxChunkSize = max(0, opts.MaxChunkSize)
	opts.OverlapSize = max(0, opts.OverlapSize)
	return opts
}

// SemanticChunker adapts ChunkPlainTextSemantically to the Chunker interface.
type SemanticChunker struct {
	opts Options
}

// NewSemanticChunker creates a chunker with fixed options.
func NewSemanticChunker(opts Options) *SemanticChunker {
	return &SemanticChunker{opts: opts}
}

func (s *SemanticChunker) Name() string {
	return "semantic"
}

// Options returns the options the chunker was created with.
func (s *SemanticChunker) Options() Options {
	return s.opts
}

func (s *SemanticChunker) Chunk(content, documentUUID string) ([]Chunk, error) {
	opts := s.opts
	opts.DocumentUUID = documentUUID
	return ChunkPlainTextSemantically(content, opts), nil
}
