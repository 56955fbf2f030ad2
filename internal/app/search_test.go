package app

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	path := writeFile(t, t.TempDir(), "motion.txt", motionText(t))
	_, err := a.IngestDocument(context.Background(), path)
	require.NoError(t, err)

	results, err := a.Search(context.Background(), "Smith v. Jones 123 F.3d 456", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	top := results[0]
	assert.Contains(t, top.Content, "Smith v. Jones")
	assert.Equal(t, path, top.Source)
	assert.Equal(t, DocumentUUID(path), top.DocumentUUID)
	assert.Contains(t, top.Citations, "123 F.3d 456")
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}

	// More results than chunks are clamped to the collection size.
	results, err = a.Search(context.Background(), "motion", 50)
	require.NoError(t, err)
	assert.Len(t, results, 7)
}

func TestSearch_MinSimilarity(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinSimilarity = 0.99
	a := newTestApp(t, cfg)
	path := writeFile(t, t.TempDir(), "motion.txt", motionText(t))
	_, err := a.IngestDocument(context.Background(), path)
	require.NoError(t, err)

	results, err := a.Search(context.Background(), "unrelated zebra", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_EmptyCollectionAndQuery(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	results, err := a.Search(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	_, err = a.Search(context.Background(), "  ", 3)
	assert.ErrorIs(t, err, errEmptyQuery)
}

func TestGroupBySource(t *testing.T) {
	order, grouped := groupBySource([]SearchResult{
		{Source: "b.txt", ChunkIndex: 1},
		{Source: "a.txt", ChunkIndex: 0},
		{Source: "b.txt", ChunkIndex: 2},
		{ChunkIndex: 3},
	})
	assert.Equal(t, []string{"b.txt", "a.txt", "unknown"}, order)
	assert.Len(t, grouped["b.txt"], 2)
}

func TestHashEmbeddingFunc(t *testing.T) {
	embed := NewHashEmbeddingFunc(32)
	ctx := context.Background()

	v1, err := embed(ctx, "Motion to Dismiss")
	require.NoError(t, err)
	v2, err := embed(ctx, "motion TO dismiss!")
	require.NoError(t, err)
	assert.Equal(t, v1, v2, "tokens are case-folded and punctuation is ignored")

	var norm float64
	for _, v := range v1 {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	empty, err := embed(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, float32(1), empty[0])

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = embed(cancelled, "text")
	assert.ErrorIs(t, err, context.Canceled)
}
