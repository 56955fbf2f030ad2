package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Run reads one line at a time. A line naming an existing file or directory
// is ingested; any other line is run as a search query.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Interactive mode started")
	fmt.Fprintln(a.out, "Enter a file or directory to ingest, or text to search. Ctrl+C to exit.")

	scanner := bufio.NewScanner(a.in)
	const maxLineSize = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Shutting down interactive mode")
			return nil
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("stdin error: %w", err)
			}
			a.logger.Debug("stdin closed")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		a.handleLine(ctx, line)
	}
}

func (a *App) handleLine(ctx context.Context, line string) {
	if _, err := os.Stat(line); err == nil {
		report, err := a.IngestPaths(ctx, []string{line})
		if err != nil {
			a.logger.Error("Ingest failed", zap.String("path", line), zap.Error(err))
			fmt.Fprintf(a.out, "ingest failed: %v\n", err)
			return
		}
		for _, d := range report.Documents {
			switch {
			case d.Err != nil:
				fmt.Fprintf(a.out, "failed   %s: %v\n", d.Path, d.Err)
			case d.Skipped:
				fmt.Fprintf(a.out, "skipped  %s (unchanged)\n", d.Path)
			default:
				fmt.Fprintf(a.out, "indexed  %s (%d chunks)\n", d.Path, d.ChunkCount)
			}
		}
		return
	}

	results, err := a.Search(ctx, line, 0)
	if err != nil {
		a.logger.Error("Search failed", zap.Error(err))
		fmt.Fprintf(a.out, "search failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Found %d relevant chunks\n", len(results))

	order, grouped := groupBySource(results)
	for _, source := range order {
		fmt.Fprintf(a.out, "\n%s\n", filepath.Base(source))
		for _, r := range grouped[source] {
			fmt.Fprintf(a.out, "  #%d %s (similarity: %.2f)\n", r.ChunkIndex, r.ChunkType, r.Similarity)
			fmt.Fprintf(a.out, "    %s\n", preview(r.Content, 120))
		}
	}
}

func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
