package index

import (
	"strings"
	"unicode"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
)

// ChunkConfig controls document splitting for the index.
type ChunkConfig struct {
	Size    int // max chunk length in runes
	Overlap int // trailing context carried into the next chunk
}

// DefaultChunkConfig matches the serving defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{Size: 800, Overlap: 120}
}

// splitText cuts text into overlapping rune windows of cfg.Size, preferring
// to break on whitespace in the back half of a window.
func splitText(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.Size <= 0 {
		cfg = DefaultChunkConfig()
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.Size {
		cfg.Overlap = cfg.Size / 2
	}

	runes := []rune(clean)
	if len(runes) <= cfg.Size {
		return []string{clean}
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		end := start + cfg.Size
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			cut := end
			minCut := start + cfg.Size/2
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 && end-start > cfg.Overlap {
			nextStart = end - cfg.Overlap
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}

// splitDocuments chunks every document, carrying provenance onto each chunk.
func splitDocuments(docs []domain.Document, cfg ChunkConfig) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		for _, piece := range splitText(doc.Content, cfg) {
			chunks = append(chunks, Chunk{
				Source:  doc.Source,
				Page:    doc.Page,
				Content: piece,
			})
		}
	}
	return chunks
}
