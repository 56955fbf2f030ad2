package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"legal_chunker/internal/chunker"
	"legal_chunker/internal/config"
	"legal_chunker/internal/extract"
	"legal_chunker/internal/metrics"
)

const collectionName = "chunks"

// ErrCollectionMissing is returned when the chunk collection has not been
// created, usually because Init was not called.
var ErrCollectionMissing = errors.New("chunk collection not found")

type App struct {
	cfg           *config.Config
	db            *chromem.DB
	embeddingFunc chromem.EmbeddingFunc
	extractors    *extract.Factory
	chunker       *chunker.SemanticChunker
	logger        *zap.Logger
	metrics       *metrics.Metrics
	httpClient    *http.Client

	in  io.Reader
	out io.Writer

	mu       sync.Mutex // guards manifest
	manifest *Manifest

	saveMu   sync.Mutex // serializes Save
	docLocks sync.Map   // absolute path -> *sync.Mutex
}

// Manifest records which files are indexed so unchanged files can be
// skipped on the next run.
type Manifest struct {
	Files    map[string]FileInfo `json:"files"`
	DataPath string              `json:"data_path"`
}

type FileInfo struct {
	Path         string    `json:"path"`
	DocumentUUID string    `json:"document_uuid"`
	LastModified time.Time `json:"last_modified"`
	Size         int64     `json:"size"`
	Chunks       int       `json:"chunks"`
	ChunkIDs     []string  `json:"chunk_ids,omitempty"`
	IndexedAt    time.Time `json:"indexed_at"`
}

type Option func(*App)

// WithEmbeddingFunc replaces the embedding function chosen by the config.
func WithEmbeddingFunc(f chromem.EmbeddingFunc) Option {
	return func(a *App) { a.embeddingFunc = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *App) { a.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithHTTPClient sets the client used to talk to Ollama.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) { a.httpClient = c }
}

// WithIO sets where the interactive loop reads paths and writes results.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.in = in
		a.out = out
	}
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg.MetadataFile == "" || cfg.DBFile == "" {
		cfg.DeriveFiles()
	}

	app := &App{
		cfg:        cfg,
		db:         chromem.NewDB(),
		extractors: extract.NewFactory(),
		chunker:    chunker.NewSemanticChunker(cfg.ChunkOptions()),
		logger:     zap.NewNop(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		in:         os.Stdin,
		out:        os.Stdout,
		manifest:   &Manifest{Files: make(map[string]FileInfo)},
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.embeddingFunc == nil {
		switch cfg.Embedder {
		case "ollama":
			app.embeddingFunc = chromem.NewEmbeddingFuncOllama(cfg.OllamaEmbedModel, cfg.OllamaURL+"/api")
		case "none":
			app.embeddingFunc = NewHashEmbeddingFunc(hashDimensions)
		default:
			return nil, fmt.Errorf("unknown embedder %q", cfg.Embedder)
		}
	}

	return app, nil
}

func (a *App) Config() *config.Config {
	return a.cfg
}

// Init checks the embedding backend, loads the manifest and restores the
// vector store from disk.
func (a *App) Init(ctx context.Context) error {
	if a.cfg.Embedder == "ollama" {
		if err := a.ensureOllamaModel(ctx); err != nil {
			return fmt.Errorf("ollama model check failed: %w", err)
		}
	}

	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := a.loadManifest(); err != nil {
		a.logger.Warn("Ignoring unreadable manifest", zap.String("path", a.cfg.MetadataFile), zap.Error(err))
		a.manifest = &Manifest{Files: make(map[string]FileInfo)}
	}

	absDataDir, err := filepath.Abs(a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute data dir: %w", err)
	}
	if a.manifest.DataPath != "" && a.manifest.DataPath != absDataDir {
		a.logger.Info("Data directory changed, invalidating manifest and index",
			zap.String("old", a.manifest.DataPath), zap.String("new", absDataDir))
		a.manifest.Files = make(map[string]FileInfo)
		_ = os.Remove(a.cfg.DBFile)
	}
	a.manifest.DataPath = absDataDir

	if _, err := os.Stat(a.cfg.DBFile); err == nil {
		if err := a.loadDB(); err != nil {
			return fmt.Errorf("failed to load vector database: %w", err)
		}
	} else {
		a.logger.Debug("No existing DB file found, starting fresh", zap.String("path", a.cfg.DBFile))
	}

	coll, err := a.db.GetOrCreateCollection(collectionName, map[string]string{}, a.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	a.logger.Info("Vector store ready",
		zap.Int("chunks", coll.Count()),
		zap.Int("documents", len(a.manifest.Files)))
	return nil
}

func (a *App) collection() (*chromem.Collection, error) {
	coll := a.db.GetCollection(collectionName, a.embeddingFunc)
	if coll == nil {
		return nil, ErrCollectionMissing
	}
	return coll, nil
}

// Save writes the manifest and the vector store to the data directory.
// Each file is written to a temporary file and renamed into place, so a
// reader never sees a partial file.
func (a *App) Save() error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	if err := a.saveManifest(); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	if err := a.saveDB(); err != nil {
		return fmt.Errorf("failed to save vector database: %w", err)
	}
	return nil
}

func (a *App) loadManifest() error {
	f, err := os.Open(a.cfg.MetadataFile)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()

	m := &Manifest{}
	if err := json.NewDecoder(f).Decode(m); err != nil {
		return err
	}
	if m.Files == nil {
		m.Files = make(map[string]FileInfo)
	}

	a.mu.Lock()
	a.manifest = m
	a.mu.Unlock()
	return nil
}

func (a *App) saveManifest() error {
	a.mu.Lock()
	data, err := json.MarshalIndent(a.manifest, "", "  ")
	a.mu.Unlock()
	if err != nil {
		return err
	}
	return replaceFile(a.cfg.MetadataFile, func(tmp string) error {
		return os.WriteFile(tmp, data, 0o644)
	})
}

func (a *App) loadDB() error {
	a.logger.Debug("Loading vector database", zap.String("path", a.cfg.DBFile))
	if err := a.db.ImportFromFile(a.cfg.DBFile, "", collectionName); err != nil {
		return fmt.Errorf("failed to import DB: %w", err)
	}
	if a.db.GetCollection(collectionName, a.embeddingFunc) == nil {
		a.logger.Warn("Collection not found after DB load", zap.String("collection", collectionName))
	}
	return nil
}

func (a *App) saveDB() error {
	if _, err := a.collection(); err != nil {
		return err
	}
	return replaceFile(a.cfg.DBFile, func(tmp string) error {
		return a.db.ExportToFile(tmp, true, "", collectionName)
	})
}

// replaceFile lets write fill a temporary file next to path and renames it
// over path once write succeeded.
func replaceFile(path string, write func(tmp string) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp"+filepath.Ext(path))
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// manifestEntry returns the recorded state of an indexed file.
func (a *App) manifestEntry(path string) (FileInfo, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	info, ok := a.manifest.Files[path]
	return info, ok
}

func (a *App) recordFile(info FileInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.manifest.Files[info.Path] = info
}

// forgetFile drops a manifest entry so the next ingest does not skip the file.
func (a *App) forgetFile(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.manifest.Files, path)
}

// lockDocument serializes ingests and removals of one file.
func (a *App) lockDocument(path string) func() {
	l, _ := a.docLocks.LoadOrStore(path, &sync.Mutex{})
	mu := l.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ensureOllamaModel checks that Ollama answers and pulls the embedding model
// when it is missing.
func (a *App) ensureOllamaModel(ctx context.Context) error {
	model := a.cfg.OllamaEmbedModel

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.OllamaURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama is not reachable at %s: %w", a.cfg.OllamaURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama at %s answered with status %d", a.cfg.OllamaURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read ollama model list: %w", err)
	}
	if bytes.Contains(body, []byte(model)) {
		a.logger.Debug("Embedding model is available", zap.String("model", model))
		return nil
	}

	a.logger.Info("Embedding model not found, pulling", zap.String("model", model))
	payload, err := json.Marshal(struct {
		Name   string `json:"name"`
		Stream bool   `json:"stream"`
	}{Name: model})
	if err != nil {
		return err
	}
	pullReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.OllamaURL+"/api/pull", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	pullReq.Header.Set("Content-Type", "application/json")
	// Pulling a model takes minutes; only ctx bounds it.
	pullClient := &http.Client{Transport: a.httpClient.Transport}
	pullResp, err := pullClient.Do(pullReq)
	if err != nil {
		return fmt.Errorf("failed to pull model %s: %w", model, err)
	}
	defer pullResp.Body.Close()
	if pullResp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to pull model %s: status %d", model, pullResp.StatusCode)
	}
	a.logger.Info("Embedding model pulled", zap.String("model", model))
	return nil
}
