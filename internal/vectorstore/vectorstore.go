package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
)

const (
	collectionName = "documents"
	manifestFile   = "manifest.json"
	compress       = false
)

// manifest records which embedding provider built the index. Vectors from two
// different providers are not comparable, so a mismatch refuses to open.
type manifest struct {
	Provider  string `json:"provider"`
	CreatedAt string `json:"created_at"`
}

// Store wraps a chromem-go persistent database holding one collection of
// (vector, text, metadata) triples. chromem writes through to disk on every
// insert, so a successful Insert is immediately durable.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	path       string
	provider   string
}

// Options controls how a persisted index is opened.
type Options struct {
	// Strict makes a corrupt on-disk index a fatal open error. The default
	// moves the broken directory aside and starts empty, favoring
	// availability.
	Strict bool
}

// Open loads the index persisted at path, or creates an empty one. provider
// identifies the embedding provider and model; an existing index built by a
// different provider is rejected with ErrEmbedderMismatch.
func Open(path, provider string, opts Options) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIndexLoad, err)
	}

	var db *chromem.DB
	if err := checkManifest(path, provider); err != nil {
		// a mismatched provider is a policy refusal, never recovered from
		if errors.Is(err, models.ErrEmbedderMismatch) || opts.Strict {
			return nil, err
		}
		log.Warn().Err(err).Str("path", path).Msg("Index manifest unreadable, starting with an empty index")
		recovered, rerr := recoverEmpty(path)
		if rerr != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrIndexLoad, rerr)
		}
		db = recovered
	}

	if db == nil {
		var err error
		db, err = chromem.NewPersistentDB(path, compress)
		if err != nil {
			if opts.Strict {
				return nil, fmt.Errorf("%w: %v", models.ErrIndexLoad, err)
			}
			log.Warn().Err(err).Str("path", path).Msg("Index load failed, starting with an empty index")
			db, err = recoverEmpty(path)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", models.ErrIndexLoad, err)
			}
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create collection: %v", models.ErrIndexLoad, err)
	}

	s := &Store{db: db, collection: collection, path: path, provider: provider}
	if err := s.writeManifest(); err != nil {
		return nil, err
	}
	return s, nil
}

// recoverEmpty moves the unreadable index directory aside and creates a fresh
// one in its place. Nothing is deleted.
func recoverEmpty(path string) (*chromem.DB, error) {
	aside := path + ".broken-" + time.Now().Format("20060102_150405")
	if err := os.Rename(path, aside); err != nil {
		return nil, err
	}
	log.Info().Str("moved_to", aside).Msg("Unreadable index moved aside")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	return chromem.NewPersistentDB(path, compress)
}

func checkManifest(path, provider string) error {
	data, err := os.ReadFile(filepath.Join(path, manifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %v", models.ErrIndexLoad, err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: bad manifest: %v", models.ErrIndexLoad, err)
	}
	if m.Provider != provider {
		return fmt.Errorf("%w: index was built with %q, configured provider is %q; reset the index to switch",
			models.ErrEmbedderMismatch, m.Provider, provider)
	}
	return nil
}

func (s *Store) writeManifest() error {
	m := manifest{Provider: s.provider, CreatedAt: time.Now().Format(time.RFC3339)}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrIndexWrite, err)
	}
	if err := os.WriteFile(filepath.Join(s.path, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIndexWrite, err)
	}
	return nil
}

// Insert appends chunk embeddings to the index. chunks and vectors correspond
// by position. The write is durable on return. Each document gets a fresh
// random ID, so inserting the same chunks again appends instead of
// overwriting.
func (s *Store) Insert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", models.ErrIndexWrite, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		id, err := helper.GenerateUUID()
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrIndexWrite, err)
		}
		docs[i] = chromem.Document{
			ID:        id,
			Content:   chunk.Content,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"source":      chunk.Source,
				"chunk_index": strconv.Itoa(chunk.ChunkIndex),
				"page":        chunk.Page,
				"full_path":   chunk.FullPath,
			},
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: failed to add documents: %v", models.ErrIndexWrite, err)
	}
	return nil
}

// Search returns up to k nearest chunks by cosine similarity. An empty index
// returns no results and no error.
func (s *Store) Search(ctx context.Context, queryVector []float32, k int) ([]models.SearchResult, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryVector,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	out := make([]models.SearchResult, 0, len(results))
	for _, res := range results {
		idx, _ := strconv.Atoi(res.Metadata["chunk_index"])
		out = append(out, models.SearchResult{
			Chunk: models.Chunk{
				Content:    res.Content,
				Source:     res.Metadata["source"],
				FullPath:   res.Metadata["full_path"],
				ChunkIndex: idx,
				Page:       res.Metadata["page"],
			},
			Similarity: res.Similarity,
		})
	}
	return out, nil
}

// Count reports the number of stored chunks.
func (s *Store) Count() int {
	return s.collection.Count()
}

// Reset drops every stored chunk and starts the collection over. The manifest
// is rewritten for the currently configured provider, so Reset is also the
// way to switch embedding providers.
func (s *Store) Reset() error {
	if err := s.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("%w: failed to drop collection: %v", models.ErrIndexWrite, err)
	}
	collection, err := s.db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to recreate collection: %v", models.ErrIndexWrite, err)
	}
	s.collection = collection
	return s.writeManifest()
}

// Export writes an encrypted single-file snapshot of the collection, suitable
// for shipping to object storage.
func (s *Store) Export(filePath, encryptionKey string) error {
	if err := s.db.ExportToFile(filePath, compress, encryptionKey, collectionName); err != nil {
		return fmt.Errorf("%w: failed to export: %v", models.ErrIndexWrite, err)
	}
	return nil
}

// Import restores a snapshot written by Export into this store.
func (s *Store) Import(filePath, encryptionKey string) error {
	if err := s.db.ImportFromFile(filePath, encryptionKey, collectionName); err != nil {
		return fmt.Errorf("%w: failed to import: %v", models.ErrIndexLoad, err)
	}
	collection := s.db.GetCollection(collectionName, nil)
	if collection != nil {
		s.collection = collection
	}
	return nil
}
