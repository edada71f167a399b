package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/api/handlers"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/index"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/service"
)

type MockSummarizeService struct {
	mock.Mock
}

func (m *MockSummarizeService) Summarize(ctx context.Context, input service.SummarizeInput) (*service.SummarizeOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SummarizeOutput), args.Error(1)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Chat(ctx context.Context, input service.ChatInput) (*service.ChatOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChatOutput), args.Error(1)
}

type MockValidateService struct {
	mock.Mock
}

func (m *MockValidateService) Validate(ctx context.Context, input service.ValidateInput) (*domain.ValidationResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationResult), args.Error(1)
}

type MockArchiveService struct {
	mock.Mock
}

func (m *MockArchiveService) Archive(ctx context.Context, reportText string) (*service.ArchiveOutput, error) {
	args := m.Called(ctx, reportText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ArchiveOutput), args.Error(1)
}

type routerMocks struct {
	summarize *MockSummarizeService
	chat      *MockChatService
	validate  *MockValidateService
	archive   *MockArchiveService
}

func newTestRouter(apiKey string) (http.Handler, *routerMocks) {
	mocks := &routerMocks{
		summarize: new(MockSummarizeService),
		chat:      new(MockChatService),
		validate:  new(MockValidateService),
		archive:   new(MockArchiveService),
	}

	state := service.NewState()
	state.Publish(&service.Snapshot{
		Status: index.Status{Status: index.StatusLoaded},
		Ready:  true,
	})

	router := NewRouter(RouterConfig{
		APIKey:          apiKey,
		HealthHandler:   handlers.NewHealthHandler(state),
		ReportHandler:   handlers.NewReportHandler(mocks.summarize, mocks.chat),
		ValidateHandler: handlers.NewValidateHandler(mocks.validate),
		ArchiveHandler:  handlers.NewArchiveHandler(mocks.archive),
	})
	return router, mocks
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter("")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Ready)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_Summarize(t *testing.T) {
	router, mocks := newTestRouter("")
	mocks.summarize.On("Summarize", mock.Anything, mock.Anything).
		Return(&service.SummarizeOutput{Text: "summary", Ready: true}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"report": "Hb 9.1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mocks.summarize.AssertExpectations(t)
}

func TestRouter_Chat(t *testing.T) {
	router, mocks := newTestRouter("")
	mocks.chat.On("Chat", mock.Anything, mock.Anything).
		Return(&service.ChatOutput{Text: "answer", Ready: true}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"question": "q"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mocks.chat.AssertExpectations(t)
}

func TestRouter_Validate(t *testing.T) {
	router, mocks := newTestRouter("")
	mocks.validate.On("Validate", mock.Anything, mock.Anything).
		Return(&domain.ValidationResult{IsValid: true, Confidence: 0.8}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(`{"answer": "a", "report": "r"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mocks.validate.AssertExpectations(t)
}

func TestRouter_Archive(t *testing.T) {
	router, mocks := newTestRouter("")
	mocks.archive.On("Archive", mock.Anything, "report text").
		Return(&service.ArchiveOutput{Key: "reports/x.txt"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/reports/archive", strings.NewReader(`{"report": "report text"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mocks.archive.AssertExpectations(t)
}

func TestRouter_APIKeyProtectsEndpoints(t *testing.T) {
	router, mocks := newTestRouter("secret")

	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"report": "r"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	mocks.summarize.AssertNotCalled(t, "Summarize")

	// Health stays public.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The right key opens the door.
	mocks.summarize.On("Summarize", mock.Anything, mock.Anything).
		Return(&service.SummarizeOutput{Text: "summary", Ready: true}, nil).Once()

	req = httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"report": "r"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_BodyTooLarge(t *testing.T) {
	router, _ := newTestRouter("")

	big := strings.NewReader(`{"report": "` + strings.Repeat("x", 6*1024*1024) + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/summarize", big)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
