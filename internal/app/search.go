package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// SearchResult is one chunk returned by a similarity search.
type SearchResult struct {
	ChunkID      string   `json:"chunk_id,omitempty" yaml:"chunk_id,omitempty"`
	DocumentUUID string   `json:"document_uuid" yaml:"document_uuid"`
	Source       string   `json:"source" yaml:"source"`
	ChunkIndex   int      `json:"chunk_index" yaml:"chunk_index"`
	ChunkType    string   `json:"chunk_type" yaml:"chunk_type"`
	Content      string   `json:"content" yaml:"content"`
	Citations    []string `json:"citations,omitempty" yaml:"citations,omitempty"`
	Similarity   float32  `json:"similarity" yaml:"similarity"`
}

var errEmptyQuery = errors.New("search query is empty")

// Search returns up to topK indexed chunks most similar to query, dropping
// those below MinSimilarity. topK <= 0 uses the configured default.
func (a *App) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errEmptyQuery
	}
	if topK <= 0 {
		topK = a.cfg.TopK
	}

	coll, err := a.collection()
	if err != nil {
		return nil, err
	}
	a.metrics.ObserveSearch()

	// chromem rejects nResults above the collection size.
	n := min(topK, coll.Count())
	if n == 0 {
		return []SearchResult{}, nil
	}

	results, err := coll.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	searchResults := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if r.Similarity < a.cfg.MinSimilarity {
			continue
		}
		idx, _ := strconv.Atoi(r.Metadata["chunk_index"])
		var cites []string
		if c := r.Metadata["citations"]; c != "" {
			cites = strings.Split(c, citationSeparator)
		}
		searchResults = append(searchResults, SearchResult{
			ChunkID:      r.Metadata["chunk_id"],
			DocumentUUID: r.Metadata["document_uuid"],
			Source:       r.Metadata["source"],
			ChunkIndex:   idx,
			ChunkType:    r.Metadata["chunk_type"],
			Content:      r.Content,
			Citations:    cites,
			Similarity:   r.Similarity,
		})
	}
	a.logger.Debug("Search finished", zap.String("query", query), zap.Int("results", len(searchResults)))
	return searchResults, nil
}

// groupBySource groups results by source file, keeping the order in which
// sources first appear.
func groupBySource(results []SearchResult) ([]string, map[string][]SearchResult) {
	var order []string
	grouped := make(map[string][]SearchResult)
	for _, r := range results {
		source := r.Source
		if source == "" {
			source = "unknown"
		}
		if _, ok := grouped[source]; !ok {
			order = append(order, source)
		}
		grouped[source] = append(grouped[source], r)
	}
	return order, grouped
}
