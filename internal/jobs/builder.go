package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/index"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/service"
)

// DocumentLoader loads KB documents matching a glob pattern.
type DocumentLoader interface {
	LoadDocuments(pattern string) ([]domain.Document, error)
}

// LoaderFunc adapts a plain loader function to DocumentLoader.
type LoaderFunc func(pattern string) ([]domain.Document, error)

func (f LoaderFunc) LoadDocuments(pattern string) ([]domain.Document, error) {
	return f(pattern)
}

// IndexManager builds or loads the knowledge index from documents.
type IndexManager interface {
	BuildOrLoad(ctx context.Context, docs []domain.Document) (*index.Store, *index.Retriever, *index.Status)
}

// StatePublisher receives finished index snapshots.
type StatePublisher interface {
	Publish(snap *service.Snapshot)
}

// IndexBuilder rebuilds the knowledge index and publishes the result. It
// also implements JobProcessor: each poll tick re-fingerprints the KB and
// rebuilds when the corpus changed on disk.
type IndexBuilder struct {
	loader  DocumentLoader
	manager IndexManager
	state   StatePublisher
	glob    string

	mu              sync.Mutex // serializes rebuilds
	lastFingerprint string
}

// NewIndexBuilder creates a new IndexBuilder instance
func NewIndexBuilder(loader DocumentLoader, manager IndexManager, state StatePublisher, glob string) *IndexBuilder {
	return &IndexBuilder{
		loader:  loader,
		manager: manager,
		state:   state,
		glob:    glob,
	}
}

// Build loads the KB and builds or loads the index, then publishes the
// snapshot. The service stays available on failure: an error snapshot is
// published and endpoints run without KB grounding.
func (b *IndexBuilder) Build(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	docs, err := b.loader.LoadDocuments(b.glob)
	if err != nil {
		b.state.Publish(&service.Snapshot{
			Status: index.Status{Status: index.StatusError, Error: err.Error()},
			Ready:  true,
		})
		return fmt.Errorf("failed to load KB documents: %w", err)
	}

	store, retriever, status := b.manager.BuildOrLoad(ctx, docs)
	b.lastFingerprint = status.Fingerprint

	b.state.Publish(&service.Snapshot{
		Store:     store,
		Retriever: retriever,
		Status:    *status,
		Ready:     true,
	})

	log.Printf("index builder: published snapshot (status=%s, kb_docs=%d)", status.Status, status.KBDocs)
	if status.Status == index.StatusError {
		return fmt.Errorf("index build failed: %s", status.Error)
	}
	return nil
}

// ProcessJobs implements the JobProcessor interface. It is a cheap
// freshness probe: only a changed fingerprint triggers a full rebuild.
func (b *IndexBuilder) ProcessJobs(ctx context.Context) error {
	fingerprint, err := index.Fingerprint(b.glob)
	if err != nil {
		return fmt.Errorf("failed to fingerprint KB: %w", err)
	}

	b.mu.Lock()
	fresh := fingerprint == b.lastFingerprint
	b.mu.Unlock()
	if fresh {
		return nil
	}

	log.Printf("index builder: KB fingerprint changed, rebuilding")
	return b.Build(ctx)
}
