package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"legal_chunker/internal/chunker"
	clierrors "legal_chunker/internal/errors"
	"legal_chunker/internal/extract"
	"legal_chunker/internal/output"
)

// chunkFlags are the chunker knobs shared by chunk and serve.
type chunkFlags struct {
	min, max, overlap int
	noEnhance         bool
}

func bindChunkFlags(fs *pflag.FlagSet, f *chunkFlags) {
	fs.IntVar(&f.min, "min-chunk-size", 0, "Minimum chunk size in characters (env MIN_CHUNK_SIZE)")
	fs.IntVar(&f.max, "max-chunk-size", 0, "Maximum chunk size in characters (env MAX_CHUNK_SIZE)")
	fs.IntVar(&f.overlap, "overlap", 0, "Overlap carried to the previous chunk (env CHUNK_OVERLAP)")
	fs.BoolVar(&f.noEnhance, "no-enhance", false, "Skip legal metadata enrichment")
}

// resolve applies the flags the user set on top of base.
func (f *chunkFlags) resolve(fs *pflag.FlagSet, base chunker.Options) (chunker.Options, error) {
	opts := base
	if fs.Changed("min-chunk-size") {
		opts.MinChunkSize = f.min
	}
	if fs.Changed("max-chunk-size") {
		opts.MaxChunkSize = f.max
	}
	if fs.Changed("overlap") {
		opts.OverlapSize = f.overlap
	}
	if f.noEnhance {
		opts.EnhanceMetadata = false
	}
	if opts.MinChunkSize < 0 || opts.MaxChunkSize < 0 || opts.OverlapSize < 0 {
		return opts, clierrors.NewInputError("Invalid chunk sizes", "sizes must not be negative", "Pass zero or a positive number", nil)
	}
	if opts.MaxChunkSize < opts.MinChunkSize {
		return opts, clierrors.NewInputError("Invalid chunk sizes",
			fmt.Sprintf("max chunk size %d is smaller than min chunk size %d", opts.MaxChunkSize, opts.MinChunkSize),
			"Raise --max-chunk-size or lower --min-chunk-size", nil)
	}
	return opts, nil
}

func newChunkCmd(root *rootOptions) *cobra.Command {
	var (
		flags        chunkFlags
		method       string
		format       string
		outPath      string
		documentUUID string
	)

	cmd := &cobra.Command{
		Use:   "chunk [file|-]",
		Short: "Chunk a document and print the chunks",
		Long: `Chunk a PDF, Markdown or text document and print the chunks with their
metadata. Use - or no argument to read plain text from stdin.`,
		Example: `  legal_chunker chunk motion.pdf
  legal_chunker chunk --format yaml --max-chunk-size 800 brief.md
  cat ocr.txt | legal_chunker chunk - --format jsonl`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.resolve(cmd.Flags(), root.cfg.ChunkOptions())
			if err != nil {
				return err
			}
			opts.DocumentUUID = documentUUID

			f, err := output.ParseFormat(format)
			if err != nil {
				return clierrors.NewInputError("Invalid output format", err.Error(), "Use --format json, jsonl or yaml", nil)
			}

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			text, err := readDocument(cmd, root, path, method)
			if err != nil {
				return err
			}

			chunks := chunker.ChunkPlainTextSemantically(text, opts)
			root.logger.Debug("Chunked document", zap.String("path", path), zap.Int("chunks", len(chunks)))

			var w io.Writer = root.stdout
			if outPath != "" {
				file, err := os.Create(outPath)
				if err != nil {
					return clierrors.NewInputError("Cannot write output", err.Error(), "Check the --output path", err)
				}
				defer file.Close()
				w = file
			}
			return output.Write(w, f, chunks)
		},
	}

	fs := cmd.Flags()
	bindChunkFlags(fs, &flags)
	fs.StringVar(&method, "method", "", "Extraction method: pdf, markdown or text (default: by extension)")
	fs.StringVarP(&format, "format", "f", "json", "Output format: json, jsonl or yaml")
	fs.StringVarP(&outPath, "output", "o", "", "Write chunks to a file instead of stdout")
	fs.StringVar(&documentUUID, "document-uuid", "", "Document id used to build chunk ids")
	return cmd
}

func readDocument(cmd *cobra.Command, root *rootOptions, path, method string) (string, error) {
	if path == "-" {
		return readStdin(root.stdin)
	}
	ex, err := extract.NewFactory().GetExtractor(path, method)
	if err != nil {
		return "", documentError(path, err)
	}
	text, err := ex.Extract(cmd.Context(), path)
	if err != nil {
		return "", documentError(path, err)
	}
	return text, nil
}
