//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/api/handlers"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/index"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/jobs"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/kb"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/llm"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/server"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/service"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/validator"
)

const testAPIKey = "e2e-secret"

// wordVecEmbedder hashes words into a fixed-size bag vector so that texts
// sharing vocabulary score high on cosine similarity. Deterministic, no
// network, good enough to drive real retrieval through the full stack.
type wordVecEmbedder struct{}

func (wordVecEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	const dims = 64
	vec := make([]float32, dims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		io.WriteString(h, strings.Trim(w, ".,;:!?()"))
		vec[h.Sum32()%dims]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	KBDir      string
	KBGlob     string
	State      *service.State
	Builder    *jobs.IndexBuilder
	Server     *httptest.Server
	ServerURL  string
	HTTPClient *http.Client
}

// SetupE2EEnv builds a KB on disk, indexes it with a deterministic embedder,
// and serves the full router over a test HTTP server.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	kbDir := t.TempDir()
	writeKBDoc(t, kbDir, "anemia.md",
		"# Anemia\nIron deficiency anemia presents with low hemoglobin and low ferritin. "+
			"Oral iron supplementation is first line therapy.")
	writeKBDoc(t, kbDir, "thyroid.md",
		"# Thyroid\nElevated TSH with low free T4 suggests primary hypothyroidism. "+
			"Levothyroxine dosing is weight based.")
	glob := filepath.Join(kbDir, "*.md")

	manager := index.NewManager(wordVecEmbedder{}, glob, t.TempDir(), "word-vec",
		index.ChunkConfig{Size: 800, Overlap: 100}, 3)

	state := service.NewState()
	builder := jobs.NewIndexBuilder(jobs.LoaderFunc(kb.LoadDocuments), manager, state, glob)
	if err := builder.Build(ctx); err != nil {
		t.Fatalf("failed to build index: %v", err)
	}

	valCfg := service.ValidationConfig{
		Mode:                 domain.ValidatorOffline,
		ConfidenceThreshold:  0.7,
		MaxRetries:           2,
		AllowOfflineFallback: true,
	}
	val := validator.New(nil)
	generator := llm.MockGenerator{}

	router := server.NewRouter(server.RouterConfig{
		APIKey:        testAPIKey,
		HealthHandler: handlers.NewHealthHandler(state),
		ReportHandler: handlers.NewReportHandler(
			service.NewSummarizeService(state, generator, val, valCfg, true),
			service.NewChatService(state, generator, val, valCfg, true),
		),
		ValidateHandler: handlers.NewValidateHandler(service.NewValidateService(val, valCfg)),
		ArchiveHandler:  handlers.NewArchiveHandler(service.NewArchiveService(nil)),
	})

	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		KBDir:      kbDir,
		KBGlob:     glob,
		State:      state,
		Builder:    builder,
		Server:     srv,
		ServerURL:  srv.URL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
}

func writeKBDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write KB doc %s: %v", name, err)
	}
}

// APIResponse is a decoded API envelope, success or error.
type APIResponse struct {
	StatusCode int
	Data       json.RawMessage
	Error      string
}

// Post sends a JSON POST request with optional bearer token
func (e *E2ETestEnv) Post(path string, body interface{}, token string) (*APIResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.ServerURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return e.do(req)
}

// Get sends a GET request with optional bearer token
func (e *E2ETestEnv) Get(path, token string) (*APIResponse, error) {
	req, err := http.NewRequest(http.MethodGet, e.ServerURL+path, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return e.do(req)
}

func (e *E2ETestEnv) do(req *http.Request) (*APIResponse, error) {
	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	out := &APIResponse{StatusCode: resp.StatusCode}
	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode response %q: %w", raw, err)
		}
		out.Data = envelope.Data
		out.Error = envelope.Error
	}
	return out, nil
}
