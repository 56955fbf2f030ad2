package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"legal_chunker/internal/chunker"
	"legal_chunker/internal/metrics"
)

// DocumentResult describes one document run through the pipeline.
type DocumentResult struct {
	Path            string                    `json:"path" yaml:"path"`
	DocumentUUID    string                    `json:"document_uuid" yaml:"document_uuid"`
	Extractor       string                    `json:"extractor,omitempty" yaml:"extractor,omitempty"`
	ChunkCount      int                       `json:"chunk_count" yaml:"chunk_count"`
	Indexed         int                       `json:"indexed" yaml:"indexed"`
	TypeCounts      map[chunker.ChunkType]int `json:"type_counts,omitempty" yaml:"type_counts,omitempty"`
	SignatureBlocks int                       `json:"signature_blocks" yaml:"signature_blocks"`
	Citations       []string                  `json:"citations,omitempty" yaml:"citations,omitempty"`
	Skipped         bool                      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Duration        time.Duration             `json:"duration" yaml:"duration"`
	Error           string                    `json:"error,omitempty" yaml:"error,omitempty"`

	Chunks []chunker.Chunk `json:"-" yaml:"-"`
	Err    error           `json:"-" yaml:"-"`
}

// DocumentUUID derives a stable document id from the absolute path.
func DocumentUUID(absPath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(absPath))).String()
}

// Chunk runs the semantic chunker with explicit options and records metrics.
func (a *App) Chunk(text string, opts chunker.Options) []chunker.Chunk {
	start := time.Now()
	chunks := chunker.ChunkPlainTextSemantically(text, opts)
	a.metrics.ObserveChunks(chunks, time.Since(start))
	return chunks
}

// IngestDocument extracts, chunks and indexes one file. Chunks from an
// earlier ingest of the same path are replaced.
func (a *App) IngestDocument(ctx context.Context, path string) (*DocumentResult, error) {
	start := time.Now()
	res, err := a.ingestDocument(ctx, path)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		a.metrics.ObserveDocument(metrics.OutcomeFailed, res.Duration)
		a.logger.Warn("Document ingest failed", zap.String("path", path), zap.Error(err))
		return res, err
	}
	a.metrics.ObserveDocument(metrics.OutcomeIndexed, res.Duration)
	a.logger.Info("Document indexed",
		zap.String("path", res.Path),
		zap.Int("chunks", res.ChunkCount),
		zap.Duration("took", res.Duration))
	return res, nil
}

func (a *App) ingestDocument(ctx context.Context, path string) (*DocumentResult, error) {
	res := &DocumentResult{Path: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		return res, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	res.Path = abs
	res.DocumentUUID = DocumentUUID(abs)

	info, err := os.Stat(abs)
	if err != nil {
		return res, err
	}
	if info.IsDir() {
		return res, fmt.Errorf("%s is a directory", abs)
	}

	ex, err := a.extractors.GetExtractor(abs, "")
	if err != nil {
		return res, err
	}
	res.Extractor = ex.Name()

	text, err := ex.Extract(ctx, abs)
	if err != nil {
		return res, fmt.Errorf("failed to extract text: %w", err)
	}

	chunkStart := time.Now()
	chunks, err := a.chunker.Chunk(text, res.DocumentUUID)
	if err != nil {
		return res, fmt.Errorf("failed to chunk: %w", err)
	}
	a.metrics.ObserveChunks(chunks, time.Since(chunkStart))
	summarize(res, chunks)

	coll, err := a.collection()
	if err != nil {
		return res, err
	}

	unlock := a.lockDocument(abs)
	defer unlock()

	// Old chunks are dropped only after the new ones are in, by the ids the
	// manifest recorded. Without recorded ids they can only be found by
	// document id and have to go first.
	prev, hadPrev := a.manifestEntry(abs)
	if !hadPrev || len(prev.ChunkIDs) == 0 {
		if err := coll.Delete(ctx, map[string]string{"document_uuid": res.DocumentUUID}, nil); err != nil {
			a.forgetFile(abs)
			return res, fmt.Errorf("failed to drop previous chunks: %w", err)
		}
		prev.ChunkIDs = nil
	}

	docs := toDocuments(chunks, res, filepath.Base(abs))
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	if len(docs) > 0 {
		if err := coll.AddDocuments(ctx, docs, a.cfg.MaxConcurrency); err != nil {
			if delErr := coll.Delete(context.WithoutCancel(ctx), nil, nil, ids...); delErr != nil {
				a.logger.Warn("Cannot drop partially indexed chunks", zap.String("path", abs), zap.Error(delErr))
			}
			a.forgetFile(abs)
			return res, fmt.Errorf("failed to index chunks: %w", err)
		}
	}
	res.Indexed = len(docs)

	if len(prev.ChunkIDs) > 0 {
		if err := coll.Delete(ctx, nil, nil, prev.ChunkIDs...); err != nil {
			// Keep the stale ids so the next ingest drops them.
			a.logger.Warn("Cannot drop previous chunks", zap.String("path", abs), zap.Error(err))
			ids = append(ids, prev.ChunkIDs...)
		}
	}

	a.recordFile(FileInfo{
		Path:         abs,
		DocumentUUID: res.DocumentUUID,
		LastModified: info.ModTime(),
		Size:         info.Size(),
		Chunks:       len(chunks),
		ChunkIDs:     ids,
		IndexedAt:    time.Now(),
	})
	return res, nil
}

func summarize(res *DocumentResult, chunks []chunker.Chunk) {
	res.Chunks = chunks
	res.ChunkCount = len(chunks)
	res.TypeCounts = make(map[chunker.ChunkType]int)
	seen := make(map[string]bool)
	for _, c := range chunks {
		res.TypeCounts[c.Metadata.ChunkType]++
		if c.Metadata.IsSignatureBlock {
			res.SignatureBlocks++
		}
		var cites []string
		if c.Metadata.Enriched != nil {
			cites = c.Metadata.Enriched.LegalElements.Citations
		} else if c.Metadata.HasCitations {
			cites = chunker.ExtractLegalElements(c.Text).Citations
		}
		for _, cite := range cites {
			if !seen[cite] {
				seen[cite] = true
				res.Citations = append(res.Citations, cite)
			}
		}
	}
}

// toDocuments flattens chunks into chromem documents. Whitespace-only
// chunks carry nothing to embed and are left out.
func toDocuments(chunks []chunker.Chunk, res *DocumentResult, fileName string) []chromem.Document {
	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		md := map[string]string{
			"document_uuid":      res.DocumentUUID,
			"source":             res.Path,
			"file_name":          fileName,
			"extractor":          res.Extractor,
			"chunk_index":        strconv.Itoa(c.ChunkIndex),
			"chunk_type":         string(c.Metadata.ChunkType),
			"char_start_index":   strconv.Itoa(c.CharStartIndex),
			"char_end_index":     strconv.Itoa(c.CharEndIndex),
			"has_citations":      strconv.FormatBool(c.Metadata.HasCitations),
			"has_numbered_list":  strconv.FormatBool(c.Metadata.HasNumberedList),
			"is_signature_block": strconv.FormatBool(c.Metadata.IsSignatureBlock),
		}
		if e := c.Metadata.Enriched; e != nil {
			md["chunk_id"] = e.ChunkID
			md["position_context"] = string(e.PositionContext)
			md["density_score"] = strconv.FormatFloat(e.DensityScore, 'f', 4, 64)
			md["citations"] = strings.Join(e.LegalElements.Citations, citationSeparator)
		}
		docs = append(docs, chromem.Document{
			ID:       c.ChunkUUID,
			Metadata: md,
			Content:  c.Text,
		})
	}
	return docs
}

const citationSeparator = "; "
