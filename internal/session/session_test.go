package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pdf-rag/internal/models"
)

func TestProcessedRegistry(t *testing.T) {
	s := New()
	assert.False(t, s.IsProcessed("a.pdf"))

	s.MarkProcessed("a.pdf")
	s.MarkProcessed("b.pdf")
	s.MarkProcessed("a.pdf") // idempotent

	assert.True(t, s.IsProcessed("a.pdf"))
	assert.True(t, s.IsProcessed("b.pdf"))
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, s.Processed())
}

func TestHistory(t *testing.T) {
	s := New()
	assert.Empty(t, s.History())

	s.AppendTurn(models.Turn{Question: "q1", Answer: "a1"})
	s.AppendTurn(models.Turn{Question: "q2", Answer: "a2"})

	history := s.History()
	assert.Len(t, history, 2)
	assert.Equal(t, "q1", history[0].Question)
	assert.Equal(t, "a2", history[1].Answer)
}

func TestClearHistoryKeepsRegistry(t *testing.T) {
	s := New()
	s.MarkProcessed("a.pdf")
	s.AppendTurn(models.Turn{Question: "q", Answer: "a"})

	s.ClearHistory()
	assert.Empty(t, s.History())
	assert.True(t, s.IsProcessed("a.pdf"))
}

func TestClear(t *testing.T) {
	s := New()
	s.MarkProcessed("a.pdf")
	s.AppendTurn(models.Turn{Question: "q", Answer: "a"})

	s.Clear()
	assert.Empty(t, s.History())
	assert.False(t, s.IsProcessed("a.pdf"))
	assert.Empty(t, s.Processed())
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := New()
	s.AppendTurn(models.Turn{Question: "q", Answer: "a"})

	history := s.History()
	history[0].Answer = "mutated"
	assert.Equal(t, "a", s.History()[0].Answer)
}
