package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"legal_chunker/internal/chunker"
	"legal_chunker/internal/metrics"
)

// Report summarizes one IngestPaths run.
type Report struct {
	StartedAt time.Time         `json:"started_at" yaml:"started_at"`
	Duration  time.Duration     `json:"duration" yaml:"duration"`
	Documents []*DocumentResult `json:"documents" yaml:"documents"`
}

func (r *Report) count(pred func(*DocumentResult) bool) int {
	n := 0
	for _, d := range r.Documents {
		if pred(d) {
			n++
		}
	}
	return n
}

func (r *Report) Indexed() int {
	return r.count(func(d *DocumentResult) bool { return !d.Skipped && d.Err == nil })
}

func (r *Report) Skipped() int {
	return r.count(func(d *DocumentResult) bool { return d.Skipped })
}

func (r *Report) Failed() int {
	return r.count(func(d *DocumentResult) bool { return d.Err != nil })
}

// IngestPaths ingests files and directory trees with at most MaxConcurrency
// documents in flight. Files whose size and modification time match the
// manifest are skipped unless ForceReindex is set. A failing document does
// not stop the batch; its error is kept in the report. The manifest and the
// vector store are saved afterwards.
func (a *App) IngestPaths(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{StartedAt: time.Now()}

	files, err := a.collectFiles(paths)
	if err != nil {
		return report, err
	}
	a.logger.Info("Ingesting documents", zap.Int("files", len(files)))

	results := make([]*DocumentResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.MaxConcurrency)

	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if skipped := a.unchanged(path); skipped != nil {
				results[i] = skipped
				a.metrics.ObserveDocument(metrics.OutcomeSkipped, 0)
				a.logger.Debug("Skipping unchanged file", zap.String("path", path))
				return nil
			}
			res, err := a.IngestDocument(gctx, path)
			results[i] = res
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	waitErr := g.Wait()

	for _, r := range results {
		if r != nil {
			report.Documents = append(report.Documents, r)
		}
	}
	report.Duration = time.Since(report.StartedAt)

	if err := a.Save(); err != nil {
		return report, err
	}
	if waitErr != nil {
		return report, waitErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	a.logger.Info("Ingest finished",
		zap.Int("indexed", report.Indexed()),
		zap.Int("skipped", report.Skipped()),
		zap.Int("failed", report.Failed()),
		zap.Duration("took", report.Duration))
	return report, nil
}

// collectFiles expands directories into the supported files below them.
// Explicitly named files are kept even when unsupported so the report
// says why they were not indexed.
func (a *App) collectFiles(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			add(p)
			continue
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !a.extractors.Supports(path) {
				a.logger.Debug("Skipping unsupported file", zap.String("path", path))
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}
	return files, nil
}

// unchanged returns a skipped result when the file matches its manifest
// entry.
func (a *App) unchanged(path string) *DocumentResult {
	if a.cfg.ForceReindex {
		return nil
	}
	entry, ok := a.manifestEntry(path)
	if !ok {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() != entry.Size || !info.ModTime().Equal(entry.LastModified) {
		return nil
	}
	return &DocumentResult{
		Path:         path,
		DocumentUUID: entry.DocumentUUID,
		ChunkCount:   entry.Chunks,
		Skipped:      true,
	}
}

// WriteReport saves the report as Markdown.
func WriteReport(report *Report, outputPath string) error {
	var buf strings.Builder

	fmt.Fprintf(&buf, "# Ingest report\n\n")
	fmt.Fprintf(&buf, "**Started:** %s\n\n", report.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&buf, "**Duration:** %s\n\n", report.Duration.Round(time.Millisecond))

	buf.WriteString("## Summary\n\n")
	fmt.Fprintf(&buf, "- Indexed: %d\n", report.Indexed())
	fmt.Fprintf(&buf, "- Skipped: %d\n", report.Skipped())
	fmt.Fprintf(&buf, "- Failed: %d\n\n", report.Failed())

	buf.WriteString("## Documents\n\n")
	for _, d := range report.Documents {
		fmt.Fprintf(&buf, "### %s\n\n", filepath.Base(d.Path))
		switch {
		case d.Err != nil:
			fmt.Fprintf(&buf, "**Error:** %s\n\n", d.Err)
		case d.Skipped:
			fmt.Fprintf(&buf, "Unchanged since last ingest (%d chunks).\n\n", d.ChunkCount)
		default:
			fmt.Fprintf(&buf, "- Chunks: %d\n", d.ChunkCount)
			fmt.Fprintf(&buf, "- Signature blocks: %d\n", d.SignatureBlocks)
			fmt.Fprintf(&buf, "- Chunk types: %s\n", formatTypeCounts(d.TypeCounts))
			if len(d.Citations) > 0 {
				fmt.Fprintf(&buf, "- Citations: %s\n", strings.Join(d.Citations, citationSeparator))
			}
			buf.WriteString("\n")
		}
		buf.WriteString("---\n\n")
	}

	return os.WriteFile(outputPath, []byte(buf.String()), 0o644)
}

func formatTypeCounts(counts map[chunker.ChunkType]int) string {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	slices.Sort(types)
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = fmt.Sprintf("%s=%d", t, counts[chunker.ChunkType(t)])
	}
	return strings.Join(parts, ", ")
}
