package index

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Embedder generates a vector embedding for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Chunk is a text span with provenance and its embedding. Chunks are owned
// by the store and never mutated after creation.
type Chunk struct {
	Source    string    `json:"source"`
	Page      int       `json:"page,omitempty"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

// Store is an in-process similarity index over embedded chunks.
type Store struct {
	model     string
	dimension int
	chunks    []Chunk
}

// storeFile is the persisted index body.
type storeFile struct {
	EmbeddingModel string  `json:"embedding_model"`
	Dimension      int     `json:"dimension"`
	Chunks         []Chunk `json:"chunks"`
}

// NewStore builds a store over already-embedded chunks.
func NewStore(model string, chunks []Chunk) *Store {
	dimension := 0
	if len(chunks) > 0 {
		dimension = len(chunks[0].Embedding)
	}
	return &Store{model: model, dimension: dimension, chunks: chunks}
}

// Len returns the number of indexed chunks.
func (s *Store) Len() int {
	return len(s.chunks)
}

// Search returns the k chunks most similar to the query embedding,
// most-relevant first. Results are deterministic for an unchanged index:
// ties break on insertion order.
func (s *Store) Search(query []float32, k int) []Chunk {
	if k <= 0 || len(s.chunks) == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score float64
	}
	results := make([]scored, 0, len(s.chunks))
	for i := range s.chunks {
		results = append(results, scored{idx: i, score: cosineSimilarity(query, s.chunks[i].Embedding)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if len(results) > k {
		results = results[:k]
	}

	out := make([]Chunk, len(results))
	for i, r := range results {
		out[i] = s.chunks[r.idx]
	}
	return out
}

// Save persists the index body to dir. The body is written before metadata
// by the manager, so a crash can leave a body without metadata but never
// the reverse.
func (s *Store) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}

	data, err := json.Marshal(storeFile{
		EmbeddingModel: s.model,
		Dimension:      s.dimension,
		Chunks:         s.chunks,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal index body: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, chunksFileName), data)
}

// LoadStore reads a persisted index body from dir.
func LoadStore(dir string) (*Store, error) {
	data, err := os.ReadFile(filepath.Join(dir, chunksFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read index body: %w", err)
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse index body: %w", err)
	}
	return &Store{
		model:     file.EmbeddingModel,
		dimension: file.Dimension,
		chunks:    file.Chunks,
	}, nil
}

// Retriever embeds a query and searches the store.
type Retriever struct {
	store    *Store
	embedder Embedder
	k        int
}

// NewRetriever bounds retrieval to k nearest chunks.
func NewRetriever(store *Store, embedder Embedder, k int) *Retriever {
	return &Retriever{store: store, embedder: embedder, k: k}
}

// Retrieve returns the most relevant chunks for a text query.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Chunk, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return r.store.Search(embedding, r.k), nil
}

// FormatChunks renders retrieved chunks as provenance-tagged blocks for
// prompt assembly.
func FormatChunks(chunks []Chunk) string {
	if len(chunks) == 0 {
		return "[KB:empty]\n(No relevant knowledge found.)"
	}

	blocks := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		tag := fmt.Sprintf("[KB:%s]", chunk.Source)
		if chunk.Page > 0 {
			tag = fmt.Sprintf("[KB:%s:p%d]", chunk.Source, chunk.Page)
		}
		blocks = append(blocks, tag+"\n"+chunk.Content)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
