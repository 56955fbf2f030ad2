package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"legal_chunker/internal/app"
	"legal_chunker/internal/chunker"
	"legal_chunker/internal/extract"
)

// ChunkRequest is the body of POST /api/v1/chunk and of every websocket
// message on /ws/chunk. Unset sizes fall back to the server defaults.
type ChunkRequest struct {
	RequestID       string `json:"request_id,omitempty"`
	Text            string `json:"text"`
	MinChunkSize    *int   `json:"min_chunk_size,omitempty"`
	MaxChunkSize    *int   `json:"max_chunk_size,omitempty"`
	OverlapSize     *int   `json:"overlap_size,omitempty"`
	EnhanceMetadata *bool  `json:"enhance_metadata,omitempty"`
	DocumentUUID    string `json:"document_uuid,omitempty"`
}

// options resolves the request against defaults and validates it.
func (r *ChunkRequest) options(defaults chunker.Options) (chunker.Options, error) {
	opts := defaults
	opts.DocumentUUID = r.DocumentUUID

	for _, f := range []struct {
		name string
		val  *int
		dst  *int
	}{
		{"min_chunk_size", r.MinChunkSize, &opts.MinChunkSize},
		{"max_chunk_size", r.MaxChunkSize, &opts.MaxChunkSize},
		{"overlap_size", r.OverlapSize, &opts.OverlapSize},
	} {
		if f.val == nil {
			continue
		}
		if *f.val < 0 {
			return opts, fmt.Errorf("%s must not be negative", f.name)
		}
		*f.dst = *f.val
	}
	if r.MinChunkSize != nil && r.MaxChunkSize != nil && *r.MaxChunkSize < *r.MinChunkSize {
		return opts, fmt.Errorf("max_chunk_size (%d) is smaller than min_chunk_size (%d)", *r.MaxChunkSize, *r.MinChunkSize)
	}
	if r.EnhanceMetadata != nil {
		opts.EnhanceMetadata = *r.EnhanceMetadata
	}
	return opts, nil
}

type ChunkResponse struct {
	TotalChunks int             `json:"total_chunks"`
	Chunks      []chunker.Chunk `json:"chunks"`
}

func (s *Server) handleChunk(c *gin.Context) {
	var req ChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	opts, err := req.options(s.opts.Defaults)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	chunks := s.svc.Chunk(req.Text, opts)
	respond(c, http.StatusOK, ChunkResponse{TotalChunks: len(chunks), Chunks: chunks})
}

func (s *Server) handleUpload(c *gin.Context) {
	if s.opts.UploadDir == "" {
		respondError(c, http.StatusServiceUnavailable, "UPLOADS_DISABLED", "document uploads are not configured")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "missing multipart field \"file\"")
		return
	}
	if header.Size > s.opts.MaxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "TOO_LARGE", "document exceeds the upload limit")
		return
	}

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		badRequest(c, "invalid file name")
		return
	}
	dst, existed, err := s.storeUpload(header, name)
	if err != nil {
		s.logger.Error("Failed to store upload", zap.String("file", name), zap.Error(err))
		internalError(c, "failed to store upload")
		return
	}

	res, err := s.svc.IngestDocument(c.Request.Context(), dst)
	if err != nil {
		if !existed {
			_ = os.Remove(dst)
			_ = os.Remove(filepath.Dir(dst)) // only if empty
		}
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			respondError(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", err.Error())
			return
		}
		s.logger.Error("Upload ingest failed", zap.String("file", name), zap.Error(err))
		internalError(c, "failed to ingest document")
		return
	}
	if err := s.svc.Save(); err != nil {
		s.logger.Error("Failed to persist index", zap.Error(err))
		internalError(c, "document indexed but the index could not be saved")
		return
	}
	respond(c, http.StatusCreated, res)
}

// storeUpload saves an upload as UploadDir/<content hash>/<name>. Uploads
// with the same name but different content get separate paths, and so
// separate document ids. existed reports whether the same content had
// been stored under that name before.
func (s *Server) storeUpload(header *multipart.FileHeader, name string) (dst string, existed bool, err error) {
	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return "", false, err
	}
	src, err := header.Open()
	if err != nil {
		return "", false, err
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.opts.UploadDir, ".upload-*")
	if err != nil {
		return "", false, err
	}
	defer os.Remove(tmp.Name())

	h := xxhash.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), src); err != nil {
		tmp.Close()
		return "", false, err
	}
	if err := tmp.Close(); err != nil {
		return "", false, err
	}

	dir := filepath.Join(s.opts.UploadDir, fmt.Sprintf("%016x", h.Sum64()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, err
	}
	dst = filepath.Join(dir, name)
	if _, err := os.Stat(dst); err == nil {
		existed = true
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", false, err
	}
	return dst, existed, nil
}

type SearchResponse struct {
	Query   string             `json:"query"`
	Results []app.SearchResult `json:"results"`
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		badRequest(c, "query parameter q is required")
		return
	}
	topK := 0
	if k := c.Query("k"); k != "" {
		n, err := strconv.Atoi(k)
		if err != nil || n < 1 {
			badRequest(c, "k must be a positive integer")
			return
		}
		topK = n
	}

	results, err := s.svc.Search(c.Request.Context(), query, topK)
	if err != nil {
		if errors.Is(err, app.ErrCollectionMissing) {
			respondError(c, http.StatusServiceUnavailable, "INDEX_UNAVAILABLE", err.Error())
			return
		}
		s.logger.Error("Search failed", zap.Error(err))
		internalError(c, "search failed")
		return
	}
	respond(c, http.StatusOK, SearchResponse{Query: query, Results: results})
}
