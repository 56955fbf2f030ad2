package server

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"legal_chunker/internal/chunker"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// Stream message types.
const (
	MessageChunk = "chunk"
	MessageDone  = "done"
	MessageError = "error"
)

// StreamMessage is sent by the server on /ws/chunk: one "chunk" message per
// chunk, then "done". A bad request yields one "error" message and the
// connection stays open for the next request.
type StreamMessage struct {
	Type        string         `json:"type"`
	RequestID   string         `json:"request_id,omitempty"`
	Chunk       *chunker.Chunk `json:"chunk,omitempty"`
	TotalChunks int            `json:"total_chunks,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func (s *Server) handleChunkStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket read failed", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		if err := s.streamChunks(conn, data); err != nil {
			s.logger.Warn("WebSocket write failed", zap.Error(err))
			return
		}
	}
}

// streamChunks answers one request. Only write errors are returned.
func (s *Server) streamChunks(conn *websocket.Conn, data []byte) error {
	var req ChunkRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return writeMessage(conn, StreamMessage{Type: MessageError, Error: "invalid request: " + err.Error()})
	}
	opts, err := req.options(s.opts.Defaults)
	if err != nil {
		return writeMessage(conn, StreamMessage{Type: MessageError, RequestID: req.RequestID, Error: err.Error()})
	}

	chunks := s.svc.Chunk(req.Text, opts)
	for i := range chunks {
		if err := writeMessage(conn, StreamMessage{Type: MessageChunk, RequestID: req.RequestID, Chunk: &chunks[i]}); err != nil {
			return err
		}
	}
	return writeMessage(conn, StreamMessage{Type: MessageDone, RequestID: req.RequestID, TotalChunks: len(chunks)})
}

func writeMessage(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}
