package index

import (
	"strings"
	"testing"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	chunks := splitText("short note", ChunkConfig{Size: 100, Overlap: 20})
	assert.Equal(t, []string{"short note"}, chunks)
}

func TestSplitText_EmptyText(t *testing.T) {
	assert.Nil(t, splitText("   \n\t  ", ChunkConfig{Size: 100, Overlap: 20}))
}

func TestSplitText_RespectsSizeAndOverlap(t *testing.T) {
	words := make([]string, 200)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	chunks := splitText(text, ChunkConfig{Size: 100, Overlap: 20})
	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 100)
		assert.NotEqual(t, "", strings.TrimSpace(chunk))
	}

	// Consecutive chunks share trailing context.
	first := []rune(chunks[0])
	tail := strings.TrimSpace(string(first[len(first)-10:]))
	assert.Contains(t, chunks[1], tail)
}

func TestSplitText_DegenerateOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 30)
	// Overlap >= size must not loop forever.
	chunks := splitText(text, ChunkConfig{Size: 50, Overlap: 50})
	assert.Greater(t, len(chunks), 1)
}

func TestSplitDocuments_KeepsProvenance(t *testing.T) {
	docs := []domain.Document{
		{Source: "labs.csv", Content: "hemoglobin: 13.5"},
		{Source: "guide.pdf", Page: 3, Content: "reference ranges"},
	}

	chunks := splitDocuments(docs, ChunkConfig{Size: 100, Overlap: 10})
	assert.Len(t, chunks, 2)
	assert.Equal(t, "labs.csv", chunks[0].Source)
	assert.Equal(t, 0, chunks[0].Page)
	assert.Equal(t, "guide.pdf", chunks[1].Source)
	assert.Equal(t, 3, chunks[1].Page)
}
