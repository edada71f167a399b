package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	metaFileName  = "meta.json"
	chunksFileName = "chunks.json"
)

// Metadata describes a persisted index. It lives in meta.json next to the
// index body and decides whether the body can be reused.
type Metadata struct {
	Fingerprint    string `json:"kb_fingerprint"`
	EmbeddingModel string `json:"embedding_model"`
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	BuiltAt        int64  `json:"built_at"`
}

// Fresh reports whether a persisted index described by m can serve the given
// fingerprint and embedding model. Both must match; a stale or
// model-mismatched index is never reused.
func (m *Metadata) Fresh(fingerprint, embeddingModel string) bool {
	return m.Fingerprint == fingerprint && m.EmbeddingModel == embeddingModel
}

// ReadMetadata loads meta.json from an index directory.
func ReadMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read index metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse index metadata: %w", err)
	}
	return &meta, nil
}

// WriteMetadata persists meta.json atomically via a temp file and rename.
// Callers must write the index body first: a reader must never observe
// metadata without a matching body.
func WriteMetadata(dir string, meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index metadata: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, metaFileName), data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}
