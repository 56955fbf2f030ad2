package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence builds contiguous chunks with the given text lengths.
func sequence(lengths ...int) []Chunk {
	chunks := make([]Chunk, 0, len(lengths))
	offset := 0
	for _, n := range lengths {
		text := strings.Repeat("x", n)
		chunks = append(chunks, Chunk{
			Text:           text,
			CharStartIndex: offset,
			CharEndIndex:   offset + n,
			Metadata:       Metadata{ChunkType: ChunkContent, LineCount: 1},
		})
		offset += n + 1
	}
	return chunks
}

func TestMergeSmallChunks_MergesForward(t *testing.T) {
	chunks := sequence(10, 20, 200)
	chunks[1].Metadata.ChunkType = ChunkSignatureBlock
	chunks[1].Metadata.IsSignatureBlock = true
	chunks[1].OverlapText = "xxx"

	merged := mergeSmallChunks(chunks, Options{MinChunkSize: 50, MaxChunkSize: 100})

	require.Len(t, merged, 2)
	first := merged[0]
	assert.Equal(t, ChunkMerged, first.Metadata.ChunkType)
	assert.Equal(t, []ChunkType{ChunkContent, ChunkSignatureBlock}, first.Metadata.OriginalTypes)
	assert.Equal(t, 2, first.Metadata.LineCount)
	assert.True(t, first.Metadata.IsSignatureBlock)
	assert.Equal(t, 0, first.CharStartIndex)
	assert.Equal(t, 31, first.CharEndIndex)
	assert.Equal(t, 31, textLen(first.Text))
	assert.Equal(t, "xxx", first.OverlapText)
	assert.Equal(t, chunks[2], merged[1])
}

func TestMergeSmallChunks_RespectsCeiling(t *testing.T) {
	// 40+120 > 100*1.5, so the small chunk stays.
	merged := mergeSmallChunks(sequence(40, 120), Options{MinChunkSize: 50, MaxChunkSize: 100})
	require.Len(t, merged, 2)
	assert.Equal(t, ChunkContent, merged[0].Metadata.ChunkType)

	// 40+110 == 150 is still allowed.
	merged = mergeSmallChunks(sequence(40, 110), Options{MinChunkSize: 50, MaxChunkSize: 100})
	require.Len(t, merged, 1)
}

func TestMergeSmallChunks_LastChunkKept(t *testing.T) {
	merged := mergeSmallChunks(sequence(80, 5), Options{MinChunkSize: 50, MaxChunkSize: 100})
	require.Len(t, merged, 2)
	assert.Equal(t, ChunkContent, merged[1].Metadata.ChunkType)
}

// A merged chunk is not reconsidered, so tiny runs can leave small chunks.
func TestMergeSmallChunks_SinglePass(t *testing.T) {
	merged := mergeSmallChunks(sequence(5, 5, 5, 5, 5), Options{MinChunkSize: 50, MaxChunkSize: 100})

	require.Len(t, merged, 3)
	assert.Equal(t, ChunkMerged, merged[0].Metadata.ChunkType)
	assert.Equal(t, ChunkMerged, merged[1].Metadata.ChunkType)
	assert.Equal(t, ChunkContent, merged[2].Metadata.ChunkType)
	for _, c := range merged {
		assert.Less(t, textLen(c.Text), 50)
	}
}

func TestMergeSmallChunks_NoMergeablePairLeft(t *testing.T) {
	opts := Options{MinChunkSize: 100, MaxChunkSize: 100}
	limit := float64(opts.MaxChunkSize) * 1.5
	merged := mergeSmallChunks(sequence(90, 70, 30, 140, 20, 20, 100, 60), opts)

	for i := 0; i+1 < len(merged); i++ {
		cur, next := merged[i], merged[i+1]
		if cur.Metadata.ChunkType == ChunkMerged || textLen(cur.Text) >= opts.MinChunkSize {
			continue
		}
		assert.Greater(t, float64(textLen(cur.Text)+textLen(next.Text)), limit,
			"chunk %d could have been merged with its neighbour", i)
	}
}
