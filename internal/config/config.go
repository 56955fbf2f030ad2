package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v10"

	"legal_chunker/internal/chunker"
)

const (
	metadataFileName = "metadata.json"
	dbFileName       = "chunks.gob.gz"
)

type Config struct {
	DataDir          string `env:"DATA_DIR" envDefault:"./data"`
	OllamaURL        string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaEmbedModel string `env:"OLLAMA_EMBED_MODEL" envDefault:"nomic-embed-text"`
	Embedder         string `env:"EMBEDDER" envDefault:"ollama"`

	MinChunkSize    int  `env:"MIN_CHUNK_SIZE" envDefault:"300"`
	MaxChunkSize    int  `env:"MAX_CHUNK_SIZE" envDefault:"1500"`
	ChunkOverlap    int  `env:"CHUNK_OVERLAP" envDefault:"200"`
	EnhanceMetadata bool `env:"ENHANCE_METADATA" envDefault:"true"`

	MaxConcurrency int     `env:"MAX_CONCURRENCY" envDefault:"4"`
	TopK           int     `env:"TOP_K" envDefault:"5"`
	MinSimilarity  float32 `env:"MIN_SIMILARITY" envDefault:"0.3"`
	ForceReindex   bool    `env:"FORCE_REINDEX" envDefault:"false"`

	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	MetadataFile string
	DBFile       string
}

// Init parses the environment into cfg, fills the derived paths and
// validates the result.
func Init(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse env: %w", err)
	}
	cfg.DeriveFiles()
	return cfg.Validate()
}

// DeriveFiles computes the data file locations from DataDir.
func (c *Config) DeriveFiles() {
	c.MetadataFile = filepath.Join(c.DataDir, metadataFileName)
	c.DBFile = filepath.Join(c.DataDir, dbFileName)
}

func (c *Config) Validate() error {
	var errs []error
	if c.MinChunkSize < 0 {
		errs = append(errs, fmt.Errorf("MIN_CHUNK_SIZE must not be negative, got %d", c.MinChunkSize))
	}
	if c.MaxChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("MAX_CHUNK_SIZE must be positive, got %d", c.MaxChunkSize))
	}
	if c.MaxChunkSize > 0 && c.MinChunkSize > c.MaxChunkSize {
		errs = append(errs, fmt.Errorf("MIN_CHUNK_SIZE (%d) exceeds MAX_CHUNK_SIZE (%d)", c.MinChunkSize, c.MaxChunkSize))
	}
	if c.ChunkOverlap < 0 {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must not be negative, got %d", c.ChunkOverlap))
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("MAX_CONCURRENCY must be at least 1, got %d", c.MaxConcurrency))
	}
	if c.TopK < 1 {
		errs = append(errs, fmt.Errorf("TOP_K must be at least 1, got %d", c.TopK))
	}
	switch c.Embedder {
	case "ollama", "none":
	default:
		errs = append(errs, fmt.Errorf("EMBEDDER must be ollama or none, got %q", c.Embedder))
	}
	return errors.Join(errs...)
}

// ChunkOptions returns the chunker options the config describes.
func (c *Config) ChunkOptions() chunker.Options {
	return chunker.Options{
		MinChunkSize:    c.MinChunkSize,
		MaxChunkSize:    c.MaxChunkSize,
		OverlapSize:     c.ChunkOverlap,
		EnhanceMetadata: c.EnhanceMetadata,
	}
}
