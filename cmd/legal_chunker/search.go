package main

import (
	"strings"

	"github.com/spf13/cobra"

	clierrors "legal_chunker/internal/errors"
	"legal_chunker/internal/output"
)

func newSearchCmd(root *rootOptions) *cobra.Command {
	var (
		topK   int
		format string
	)

	cmd := &cobra.Command{
		Use:     "search QUERY...",
		Short:   "Search indexed chunks by similarity",
		Example: `  legal_chunker search --k 3 "failure to state a claim"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return clierrors.NewInputError("Invalid output format", err.Error(), "Use --format json, jsonl or yaml", nil)
			}
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return clierrors.NewInputError("Empty query", "the search text is blank", "Pass the text to search for", nil)
			}

			a, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			results, err := a.Search(cmd.Context(), query, topK)
			if err != nil {
				return clierrors.NewStorageError("Search failed", err.Error(), "Ingest documents first with: legal_chunker ingest PATH", err)
			}
			return output.Write(root.stdout, f, results)
		},
	}

	fs := cmd.Flags()
	fs.IntVarP(&topK, "k", "k", 0, "Number of results (env TOP_K)")
	fs.StringVarP(&format, "format", "f", "json", "Output format: json, jsonl or yaml")
	return cmd
}
