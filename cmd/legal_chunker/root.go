package main

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"legal_chunker/internal/app"
	"legal_chunker/internal/config"
	clierrors "legal_chunker/internal/errors"
	"legal_chunker/internal/extract"
	"legal_chunker/internal/logging"
	"legal_chunker/internal/metrics"
)

// rootOptions is the state shared by all subcommands.
type rootOptions struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	dataDir    string
	embedder   string
	logLevel   string
	logFormat  string
	jsonErrors bool

	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) (*cobra.Command, *rootOptions) {
	opts := &rootOptions{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "legal_chunker",
		Short: "Semantic chunking and indexing for OCR'd legal documents",
		Long: `legal_chunker splits legal documents (motions, briefs, contracts) into
chunks that follow their structure: section headings, page breaks, contract
sections and signature blocks. Chunks can be printed, indexed into a local
vector store and searched, or served over HTTP.

Configuration comes from the environment (and an optional .env file);
flags override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.dataDir, "data-dir", "", "Data directory for the index (env DATA_DIR)")
	pf.StringVar(&opts.embedder, "embedder", "", "Embedding backend: ollama or none (env EMBEDDER)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json (env LOG_FORMAT)")
	pf.BoolVar(&opts.jsonErrors, "json-errors", false, "Report errors as JSON on stderr")

	root.AddCommand(
		newChunkCmd(opts),
		newIngestCmd(opts),
		newSearchCmd(opts),
		newServeCmd(opts),
		newInteractiveCmd(opts),
	)
	return root, opts
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg := &config.Config{}
	if err := config.Init(cfg); err != nil {
		return clierrors.NewConfigError("Invalid configuration", err.Error(), "Check the environment variables and .env file", err)
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = o.dataDir
		cfg.DeriveFiles()
	}
	if flags.Changed("embedder") {
		cfg.Embedder = o.embedder
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return clierrors.NewConfigError("Invalid configuration", err.Error(), "Fix the flag or environment value named above", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return clierrors.NewConfigError("Cannot initialize logging", err.Error(), "Use LOG_LEVEL=debug|info|warn|error and LOG_FORMAT=console|json", err)
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	o.cfg = cfg
	o.logger = logger
	o.metrics = metrics.New()
	return nil
}

// openApp creates and initializes the ingest pipeline.
func (o *rootOptions) openApp(cmd *cobra.Command, extra ...app.Option) (*app.App, error) {
	appOpts := append([]app.Option{
		app.WithLogger(o.logger),
		app.WithMetrics(o.metrics),
		app.WithIO(o.stdin, o.stdout),
	}, extra...)

	a, err := app.New(o.cfg, appOpts...)
	if err != nil {
		return nil, clierrors.NewConfigError("Cannot create the ingest pipeline", err.Error(), "Set EMBEDDER to ollama or none", err)
	}
	if err := a.Init(cmd.Context()); err != nil {
		if o.cfg.Embedder == "ollama" {
			return nil, clierrors.NewNetworkError("Cannot reach the embedding backend", err.Error(),
				"Start Ollama (ollama serve) or run with EMBEDDER=none", err)
		}
		return nil, clierrors.NewStorageError("Cannot open the index", err.Error(),
			"Check permissions on "+o.cfg.DataDir+" or remove its contents to start fresh", err)
	}
	return a, nil
}

// documentError turns a failure to read a document into a UserError.
func documentError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return clierrors.NewNotFoundError("Document not found", path+" does not exist", "Check the path and try again")
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return clierrors.NewInputError("Unsupported document", err.Error(),
			"Use a .pdf, .md or .txt file, or pass --method text", err)
	case errors.Is(err, fs.ErrPermission):
		return clierrors.NewInputError("Cannot read document", err.Error(), "Check the file permissions", err)
	default:
		return clierrors.NewInputError("Cannot read document", err.Error(), "", err)
	}
}

func readStdin(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", clierrors.NewInputError("No input", "stdin is a terminal", "Pipe text in or pass a file path", nil)
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", clierrors.NewInputError("Cannot read stdin", err.Error(), "", err)
	}
	return string(data), nil
}
