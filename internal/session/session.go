package session

import (
	"slices"

	"pdf-rag/internal/models"
)

// Session carries the per-process interaction state: which documents have
// been ingested and the conversation so far. It is not persisted; a restart
// or Clear starts over. Callers serialize access, the session itself holds no
// lock.
type Session struct {
	processed []string
	history   []models.Turn
}

func New() *Session {
	return &Session{}
}

// IsProcessed reports whether a document filename was already ingested in
// this session. The dedup check lives here, at the caller level; the ingestor
// itself rechunks blindly.
func (s *Session) IsProcessed(filename string) bool {
	return slices.Contains(s.processed, filename)
}

// MarkProcessed records a successfully ingested document.
func (s *Session) MarkProcessed(filename string) {
	if !s.IsProcessed(filename) {
		s.processed = append(s.processed, filename)
	}
}

// Processed lists ingested document filenames in ingestion order.
func (s *Session) Processed() []string {
	return slices.Clone(s.processed)
}

// AppendTurn adds one question/answer exchange to the history.
func (s *Session) AppendTurn(turn models.Turn) {
	s.history = append(s.history, turn)
}

// History returns the conversation so far, oldest first.
func (s *Session) History() []models.Turn {
	return slices.Clone(s.history)
}

// ClearHistory drops the conversation but keeps the processed registry.
func (s *Session) ClearHistory() {
	s.history = nil
}

// Clear resets the whole session.
func (s *Session) Clear() {
	s.processed = nil
	s.history = nil
}
