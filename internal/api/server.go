package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/config"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/ingest"
	"pdf-rag/internal/rag"
	"pdf-rag/internal/session"
	"pdf-rag/internal/vectorstore"
)

// Server is the interaction layer over the core pipeline. The core performs
// read-modify-write-persist without its own lock, so every handler that
// touches it goes through mu.
type Server struct {
	cfg      *config.Config
	sess     *session.Session
	ingestor *ingest.Ingestor
	answerer *rag.Answerer
	store    *vectorstore.Store

	mu sync.Mutex
}

func NewServer(cfg *config.Config, sess *session.Session, ingestor *ingest.Ingestor, answerer *rag.Answerer, store *vectorstore.Store) *Server {
	return &Server{
		cfg:      cfg,
		sess:     sess,
		ingestor: ingestor,
		answerer: answerer,
		store:    store,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", s.handleUpload)
		r.Post("/documents/scan", s.handleScan)
		r.Get("/documents", s.handleListDocuments)
		r.Post("/ask", s.handleAsk)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleClearHistory)
		r.Delete("/data", s.handleClearData)
	})
	return r
}

func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.cfg.HTTPAddr).Msg("HTTP server listening")
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, _ := helper.GenerateUUID()
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
