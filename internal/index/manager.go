package index

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
)

// Build statuses surfaced through the readiness endpoint.
const (
	StatusInitializing = "initializing"
	StatusLoaded       = "loaded"
	StatusBuilt        = "built"
	StatusEmpty        = "empty"
	StatusError        = "index_error"
	StatusDisabled     = "disabled"
)

// Status reports the outcome of the last build-or-load pass.
type Status struct {
	Status         string `json:"status"`
	Source         string `json:"source,omitempty"` // "disk" or "rebuild"
	Fingerprint    string `json:"kb_fingerprint,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	ChunkSize      int    `json:"chunk_size,omitempty"`
	ChunkOverlap   int    `json:"chunk_overlap,omitempty"`
	BuiltAt        int64  `json:"built_at,omitempty"`
	KBDocs         int    `json:"kb_docs,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Manager decides between the fast path (load a fresh persisted index) and
// the slow path (re-chunk, re-embed, persist). It assumes a single writer
// per index directory; concurrent processes sharing a directory must be
// prevented by deployment convention.
type Manager struct {
	embedder Embedder
	glob     string
	dir      string
	model    string
	chunkCfg ChunkConfig
	topK     int
}

// NewManager wires a manager for one (glob, indexDir, model) triple.
func NewManager(embedder Embedder, glob, dir, model string, chunkCfg ChunkConfig, topK int) *Manager {
	return &Manager{
		embedder: embedder,
		glob:     glob,
		dir:      dir,
		model:    model,
		chunkCfg: chunkCfg,
		topK:     topK,
	}
}

// BuildOrLoad returns a usable store and retriever, loading the persisted
// index when fresh and rebuilding otherwise. Load failures are swallowed
// and treated as "not fresh"; only a failed rebuild is an error, and it is
// reported as a status, never raised to the caller.
//
// For a fixed (glob, model) pair, repeated calls with an unchanged corpus
// hit the fast path after the first successful build.
func (m *Manager) BuildOrLoad(ctx context.Context, docs []domain.Document) (*Store, *Retriever, *Status) {
	fingerprint, err := Fingerprint(m.glob)
	if err != nil {
		return nil, nil, &Status{Status: StatusError, Error: err.Error()}
	}

	if store := m.loadIfFresh(fingerprint); store != nil {
		return store, NewRetriever(store, m.embedder, m.topK), &Status{
			Status:         StatusLoaded,
			Source:         "disk",
			Fingerprint:    fingerprint,
			EmbeddingModel: m.model,
			KBDocs:         len(docs),
		}
	}

	if len(docs) == 0 {
		// An assistant with no KB is valid; serving continues degraded.
		return nil, nil, &Status{Status: StatusEmpty, Fingerprint: fingerprint}
	}

	store, err := m.build(ctx, docs)
	if err != nil {
		return nil, nil, &Status{
			Status:      StatusError,
			Fingerprint: fingerprint,
			Error:       err.Error(),
		}
	}

	builtAt := time.Now().Unix()
	if err := m.persist(store, fingerprint, builtAt); err != nil {
		// The in-memory index is still usable; persistence failure only
		// costs the fast path on the next start.
		log.Printf("index: failed to persist: %v", err)
	}

	return store, NewRetriever(store, m.embedder, m.topK), &Status{
		Status:         StatusBuilt,
		Source:         "rebuild",
		Fingerprint:    fingerprint,
		EmbeddingModel: m.model,
		ChunkSize:      m.chunkCfg.Size,
		ChunkOverlap:   m.chunkCfg.Overlap,
		BuiltAt:        builtAt,
		KBDocs:         len(docs),
	}
}

// loadIfFresh returns the persisted store when its metadata matches the
// current fingerprint and requested model. Any read, parse, or load failure
// returns nil.
func (m *Manager) loadIfFresh(fingerprint string) *Store {
	meta, err := ReadMetadata(m.dir)
	if err != nil {
		return nil
	}
	if !meta.Fresh(fingerprint, m.model) {
		return nil
	}

	store, err := LoadStore(m.dir)
	if err != nil {
		log.Printf("index: persisted body unreadable, rebuilding: %v", err)
		return nil
	}
	return store
}

func (m *Manager) build(ctx context.Context, docs []domain.Document) (*Store, error) {
	chunks := splitDocuments(docs, m.chunkCfg)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("corpus produced no chunks")
	}

	for i := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embedding, err := m.embedder.Embed(ctx, chunks[i].Content)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		chunks[i].Embedding = embedding
	}

	return NewStore(m.model, chunks), nil
}

// persist writes the index body before metadata so a reader never observes
// metadata without a matching body.
func (m *Manager) persist(store *Store, fingerprint string, builtAt int64) error {
	if err := store.Save(m.dir); err != nil {
		return err
	}
	return WriteMetadata(m.dir, &Metadata{
		Fingerprint:    fingerprint,
		EmbeddingModel: m.model,
		ChunkSize:      m.chunkCfg.Size,
		ChunkOverlap:   m.chunkCfg.Overlap,
		BuiltAt:        builtAt,
	})
}
