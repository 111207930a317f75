package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"token-transfer-indexer/internal/domain/entity"
	"token-transfer-indexer/internal/domain/service"
	"token-transfer-indexer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

const defaultMaxBodyBytes = 32 << 20

// Server exposes health, stream ingestion, wallet queries and metrics over HTTP
type Server struct {
	indexing     service.IndexingService
	metrics      http.Handler
	maxBodyBytes int64
	logger       *logger.Logger
	server       *http.Server
}

// NewServer creates the HTTP surface. metricsHandler may be nil.
func NewServer(port int, maxBodyBytes int64, indexing service.IndexingService, metricsHandler http.Handler, logger *logger.Logger) *Server {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		indexing:     indexing,
		metrics:      metricsHandler,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.WithComponent("http-server"),
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed mux
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /streams", s.handleStream)
	mux.HandleFunc("GET /wallets/{address}/transfers", s.handleWalletTransfers)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// Start listens in the background
func (s *Server) Start() {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStream decodes a posted stream payload. All three outcomes answer 200;
// a Fault is reported in the body.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
		return
	}

	msg := &entity.StreamMessage{
		Payload:    body,
		Source:     "http:" + r.RemoteAddr,
		ReceivedAt: time.Now().UTC(),
	}

	result, err := s.indexing.ProcessMessage(r.Context(), msg)
	if err != nil {
		s.logger.Warn("Stream payload decoded but not fully indexed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWalletTransfers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	transfers, err := s.indexing.GetTransfersForWallet(r.Context(), r.PathValue("address"), limit)
	if err != nil {
		s.logger.Error("Failed to query wallet transfers", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if transfers == nil {
		transfers = []*entity.TransferRelationship{}
	}
	writeJSON(w, http.StatusOK, transfers)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
