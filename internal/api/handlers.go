package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer  string          `json:"answer"`
	Sources []models.Source `json:"sources"`
}

type documentsResponse struct {
	Documents []string `json:"documents"`
	Chunks    int      `json:"chunks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload stages uploaded PDFs into the storage directory and ingests
// the ones not seen before. Per-file failures do not abort the batch.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.MaxFileSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var report models.IngestReport
	for _, header := range files {
		name := filepath.Base(header.Filename)
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			report.Failed = append(report.Failed, name)
			continue
		}
		if header.Size > s.cfg.MaxFileSize {
			report.Failed = append(report.Failed, name)
			continue
		}
		if s.sess.IsProcessed(name) {
			report.Skipped++
			continue
		}

		stagedPath, err := s.stageFile(header.Filename, func(dst io.Writer) error {
			f, err := header.Open()
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(dst, f)
			return err
		})
		if err != nil {
			log.Error().Err(err).Str("source", name).Msg("Error staging upload")
			report.Failed = append(report.Failed, name)
			continue
		}

		count, err := s.ingestor.File(r.Context(), stagedPath)
		if err != nil {
			log.Error().Err(err).Str("source", name).Msg("Error processing document")
			report.Failed = append(report.Failed, name)
			continue
		}
		s.sess.MarkProcessed(name)
		report.Processed++
		report.Chunks += count
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) stageFile(filename string, copyTo func(io.Writer) error) (string, error) {
	if err := helper.CreateFolder(s.cfg.PDFStorageDir); err != nil {
		return "", err
	}
	path := filepath.Join(s.cfg.PDFStorageDir, filepath.Base(filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if err := copyTo(dst); err != nil {
		return "", err
	}
	return path, nil
}

// handleScan ingests every not-yet-processed PDF under the storage directory,
// nested folders included.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.ingestor.Dir(r.Context(), s.sess, s.cfg.PDFStorageDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, documentsResponse{
		Documents: s.sess.Processed(),
		Chunks:    s.store.Count(),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	answer, err := s.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrLLMRequest) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}

	s.sess.AppendTurn(models.Turn{
		Question: req.Question,
		Answer:   answer.Text,
		Sources:  answer.Sources,
	})

	display := make([]models.Source, len(answer.Sources))
	for i, src := range answer.Sources {
		display[i] = models.Source{
			Filename: src.Filename,
			Page:     src.Page,
			Content:  helper.Truncate(src.Content, models.ExcerptLimit),
		}
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer.Text, Sources: display})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.sess.History())
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

// handleClearData resets the vector index and the session. Documents staged
// on disk stay where they are.
func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.sess.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
