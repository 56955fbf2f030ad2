package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"legal_chunker/internal/app"
	clierrors "legal_chunker/internal/errors"
	"legal_chunker/internal/output"
)

func newIngestCmd(root *rootOptions) *cobra.Command {
	var (
		force      bool
		watch      bool
		reportPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "ingest PATH...",
		Short: "Chunk documents and add them to the vector index",
		Long: `Ingest files and directories into the local vector index. Directories are
walked recursively; unsupported and hidden files are skipped, and so are
files that have not changed since the last ingest unless --force is given.
With --watch the directories stay watched and changed files are re-ingested
until interrupted.`,
		Example: `  legal_chunker ingest ./filings
  legal_chunker ingest --force --report ingest.md motion.pdf reply.pdf
  legal_chunker ingest --watch ./filings`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return clierrors.NewInputError("Invalid output format", err.Error(), "Use --format json, jsonl or yaml", nil)
			}
			if force {
				root.cfg.ForceReindex = true
			}

			a, err := root.openApp(cmd)
			if err != nil {
				return err
			}

			report, err := a.IngestPaths(cmd.Context(), args)
			if err != nil {
				return clierrors.NewStorageError("Ingest failed", err.Error(), "Check the data directory and try again", err)
			}
			if reportPath != "" {
				if err := app.WriteReport(report, reportPath); err != nil {
					return clierrors.NewInputError("Cannot write report", err.Error(), "Check the --report path", err)
				}
			}
			if err := output.Write(root.stdout, f, report.Documents); err != nil {
				return err
			}

			if watch {
				dirs := watchDirs(args)
				if len(dirs) == 0 {
					return clierrors.NewInputError("Nothing to watch", "--watch needs at least one directory", "Pass a directory instead of single files", nil)
				}
				if err := a.Watch(cmd.Context(), dirs); err != nil {
					return clierrors.NewStorageError("Watch failed", err.Error(), "Check that the directories exist and are readable", err)
				}
				return nil
			}

			if n := report.Failed(); n > 0 {
				return clierrors.NewInputError(
					fmt.Sprintf("%d of %d documents failed", n, len(report.Documents)),
					"see the error field of each failed document",
					"Fix or remove the failing documents and ingest again", nil)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.BoolVar(&force, "force", false, "Re-index files even when unchanged (env FORCE_REINDEX)")
	fs.BoolVarP(&watch, "watch", "w", false, "Keep watching directories and re-ingest changed files")
	fs.StringVar(&reportPath, "report", "", "Write a Markdown ingest report to this file")
	fs.StringVarP(&format, "format", "f", "json", "Output format: json, jsonl or yaml")
	return cmd
}

func watchDirs(paths []string) []string {
	var dirs []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append(dirs, p)
		}
	}
	return dirs
}
