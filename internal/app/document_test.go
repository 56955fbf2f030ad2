package app

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal_chunker/internal/chunker"
	"legal_chunker/internal/extract"
)

func TestDocumentUUID(t *testing.T) {
	a := DocumentUUID("/cases/motion.txt")
	assert.Equal(t, a, DocumentUUID("/cases/motion.txt"))
	assert.NotEqual(t, a, DocumentUUID("/cases/reply.txt"))
	assert.Len(t, a, 36)
}

func TestIngestDocument(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	path := writeFile(t, t.TempDir(), "motion.txt", motionText(t))

	res, err := a.IngestDocument(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, res.Path)
	assert.Equal(t, DocumentUUID(path), res.DocumentUUID)
	assert.Equal(t, "text", res.Extractor)
	assert.Equal(t, 7, res.ChunkCount)
	assert.Equal(t, 7, res.Indexed)
	assert.Equal(t, map[chunker.ChunkType]int{
		chunker.ChunkCapsHeading:    2,
		chunker.ChunkRomanSection:   3,
		chunker.ChunkPageBreak:      1,
		chunker.ChunkSignatureBlock: 1,
	}, res.TypeCounts)
	assert.Equal(t, 1, res.SignatureBlocks)
	assert.Contains(t, res.Citations, "123 F.3d 456")
	assert.Equal(t, 7, chunkCount(t, a))

	entry, ok := a.manifestEntry(path)
	require.True(t, ok)
	assert.Equal(t, 7, entry.Chunks)
	assert.Len(t, entry.ChunkIDs, 7)
	assert.Equal(t, res.DocumentUUID, entry.DocumentUUID)

	// A second ingest replaces the chunks instead of adding to them.
	_, err = a.IngestDocument(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 7, chunkCount(t, a))
}

func TestIngestDocument_FailedReindexKeepsChunks(t *testing.T) {
	var failing atomic.Bool
	hash := NewHashEmbeddingFunc(hashDimensions)
	embed := func(ctx context.Context, text string) ([]float32, error) {
		if failing.Load() {
			return nil, errors.New("embedding backend down")
		}
		return hash(ctx, text)
	}

	cfg := testConfig(t)
	a := newTestApp(t, cfg, WithEmbeddingFunc(embed))
	docs := t.TempDir()
	writeFile(t, docs, "motion.txt", motionText(t))

	report, err := a.IngestPaths(context.Background(), []string{docs})
	require.NoError(t, err)
	require.Equal(t, 1, report.Indexed())
	require.Equal(t, 7, chunkCount(t, a))

	failing.Store(true)
	cfg.ForceReindex = true
	report, err = a.IngestPaths(context.Background(), []string{docs})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 7, chunkCount(t, a), "previous chunks survive a failed re-index")

	failing.Store(false)
	cfg.ForceReindex = false
	report, err = a.IngestPaths(context.Background(), []string{docs})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed(), "a failed re-index is retried")
	assert.Zero(t, report.Skipped())
	assert.Equal(t, 7, chunkCount(t, a))
}

func TestIngestDocument_Markdown(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	path := writeFile(t, t.TempDir(), "memo.md", "# MEMORANDUM OF LAW\n\nThe court should grant the motion under Fed. R. Civ. P. 12(b)(6).\n")

	res, err := a.IngestDocument(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "markdown", res.Extractor)
	assert.Equal(t, 1, res.ChunkCount)
	assert.Equal(t, 1, res.TypeCounts[chunker.ChunkCapsHeading])
}

func TestIngestDocument_Errors(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	dir := t.TempDir()

	res, err := a.IngestDocument(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Error)

	_, err = a.IngestDocument(context.Background(), writeFile(t, dir, "scan.png", "png"))
	assert.ErrorIs(t, err, extract.ErrUnsupportedFormat)

	_, err = a.IngestDocument(context.Background(), dir)
	assert.Error(t, err)
}

func TestIngestDocument_EmptyFile(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	path := writeFile(t, t.TempDir(), "blank.txt", "  \n\n")

	res, err := a.IngestDocument(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, res.ChunkCount)
	assert.Zero(t, chunkCount(t, a))
}

func TestToDocuments(t *testing.T) {
	chunks := chunker.ChunkPlainTextSemantically(motionText(t), chunker.Options{
		MinChunkSize: 100, MaxChunkSize: 500, EnhanceMetadata: true, DocumentUUID: "doc",
	})
	chunks = append(chunks, chunker.Chunk{Text: "  \n", ChunkUUID: "blank"})
	res := &DocumentResult{Path: "/cases/motion.txt", DocumentUUID: "doc", Extractor: "text"}

	docs := toDocuments(chunks, res, "motion.txt")
	require.Len(t, docs, len(chunks)-1)

	first := docs[0]
	assert.Equal(t, chunks[0].ChunkUUID, first.ID)
	assert.Equal(t, chunks[0].Text, first.Content)
	assert.Equal(t, "doc", first.Metadata["document_uuid"])
	assert.Equal(t, "doc_chunk_0000", first.Metadata["chunk_id"])
	assert.Equal(t, "caps_heading", first.Metadata["chunk_type"])
	assert.Equal(t, "0", first.Metadata["char_start_index"])
	assert.Equal(t, "beginning", first.Metadata["position_context"])
}
