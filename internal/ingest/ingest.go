package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"pdf-rag/internal/chunker"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/models"
	"pdf-rag/internal/parser"
	"pdf-rag/internal/session"
)

// Inserter is the write side of the vector index.
type Inserter interface {
	Insert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
}

// Ingestor turns documents into embedded chunks in the vector index. It does
// no duplicate detection of its own: feeding it the same file twice stores
// duplicate chunks. Dedup belongs to the session registry.
type Ingestor struct {
	embedder     embedding.Embedder
	store        Inserter
	chunkSize    int
	chunkOverlap int
}

func New(embedder embedding.Embedder, store Inserter, chunkSize, chunkOverlap int) *Ingestor {
	return &Ingestor{
		embedder:     embedder,
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// File ingests one document: extract per-page text, chunk it, stamp
// provenance metadata, embed and insert. The insert is durable when File
// returns. Returns the number of chunks stored.
func (g *Ingestor) File(ctx context.Context, path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	pages, err := parser.Extract(path)
	if err != nil {
		return 0, err
	}

	source := filepath.Base(path)
	var chunks []models.Chunk
	for _, page := range pages {
		pageLabel := models.PageUnknown
		if page.Number > 0 {
			pageLabel = strconv.Itoa(page.Number)
		}
		for _, span := range chunker.Split(page.Text, g.chunkSize, g.chunkOverlap) {
			chunks = append(chunks, models.Chunk{
				Content:    span.Text,
				Source:     source,
				FullPath:   absPath,
				ChunkIndex: len(chunks), // zero-based, global across pages
				Page:       pageLabel,
			})
		}
	}

	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: %s: no chunks produced", models.ErrUnreadablePDF, source)
	}

	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vector, err := g.embedder.EmbedQuery(ctx, chunk.Content)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d of %s: %w", chunk.ChunkIndex, source, err)
		}
		vectors[i] = vector
	}

	if err := g.store.Insert(ctx, chunks, vectors); err != nil {
		return 0, err
	}

	log.Info().Str("source", source).Int("chunks", len(chunks)).Msg("Ingested document")
	return len(chunks), nil
}

// Dir walks dir recursively and ingests every PDF not yet in the session
// registry. A failing file is reported and the batch continues; the report
// tallies successes, skips and failures.
func (g *Ingestor) Dir(ctx context.Context, sess *session.Session, dir string) (models.IngestReport, error) {
	var report models.IngestReport

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".pdf" && ext != ".txt" {
			return nil
		}

		name := filepath.Base(path)
		if sess.IsProcessed(name) {
			report.Skipped++
			return nil
		}

		count, err := g.File(ctx, path)
		if err != nil {
			log.Error().Err(err).Str("source", name).Msg("Error processing document")
			report.Failed = append(report.Failed, name)
			return nil
		}

		sess.MarkProcessed(name)
		report.Processed++
		report.Chunks += count
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return report, nil
}
