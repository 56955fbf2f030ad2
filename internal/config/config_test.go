package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Defaults(t *testing.T) {
	var cfg Config
	require.NoError(t, Init(&cfg))

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 300, cfg.MinChunkSize)
	assert.Equal(t, 1500, cfg.MaxChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.True(t, cfg.EnhanceMetadata)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, "ollama", cfg.Embedder)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, filepath.Join("data", "metadata.json"), cfg.MetadataFile)
	assert.Equal(t, filepath.Join("data", "chunks.gob.gz"), cfg.DBFile)
}

func TestInit_FromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("MIN_CHUNK_SIZE", "100")
	t.Setenv("MAX_CHUNK_SIZE", "500")
	t.Setenv("ENHANCE_METADATA", "false")
	t.Setenv("EMBEDDER", "none")

	var cfg Config
	require.NoError(t, Init(&cfg))

	assert.Equal(t, filepath.Join(dir, "chunks.gob.gz"), cfg.DBFile)
	opts := cfg.ChunkOptions()
	assert.Equal(t, 100, opts.MinChunkSize)
	assert.Equal(t, 500, opts.MaxChunkSize)
	assert.Equal(t, 200, opts.OverlapSize)
	assert.False(t, opts.EnhanceMetadata)
}

func TestInit_BadValue(t *testing.T) {
	t.Setenv("MAX_CHUNK_SIZE", "lots")
	var cfg Config
	assert.Error(t, Init(&cfg))
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{MinChunkSize: 300, MaxChunkSize: 1500, ChunkOverlap: 200, MaxConcurrency: 1, TopK: 5, Embedder: "none"}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"min above max", func(c *Config) { c.MinChunkSize = 2000 }, "exceeds MAX_CHUNK_SIZE"},
		{"negative min", func(c *Config) { c.MinChunkSize = -1 }, "MIN_CHUNK_SIZE must not be negative"},
		{"zero max", func(c *Config) { c.MaxChunkSize = 0 }, "MAX_CHUNK_SIZE must be positive"},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -5 }, "CHUNK_OVERLAP"},
		{"no workers", func(c *Config) { c.MaxConcurrency = 0 }, "MAX_CONCURRENCY"},
		{"zero top k", func(c *Config) { c.TopK = 0 }, "TOP_K"},
		{"unknown embedder", func(c *Config) { c.Embedder = "openai" }, "EMBEDDER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
