package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/service"
)

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

func TestArchiveHandler_Success(t *testing.T) {
	svc := new(MockArchiveService)
	svc.On("Archive", mock.Anything, "Hb 9.1").
		Return(&service.ArchiveOutput{
			Key:         "reports/2026-03-14/abc.txt",
			DownloadURL: "https://example.com/presigned",
		}, nil).Once()

	handler := NewArchiveHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/reports/archive", strings.NewReader(`{"report": "Hb 9.1"}`))
	rec := httptest.NewRecorder()
	handler.Archive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reports/2026-03-14/abc.txt")
	assert.Contains(t, rec.Body.String(), "https://example.com/presigned")
	svc.AssertExpectations(t)
}

func TestArchiveHandler_StorageUnconfigured(t *testing.T) {
	svc := new(MockArchiveService)
	svc.On("Archive", mock.Anything, mock.Anything).Return(nil, domain.ErrStorageUnconfigured).Once()

	handler := NewArchiveHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/reports/archive", strings.NewReader(`{"report": "r"}`))
	rec := httptest.NewRecorder()
	handler.Archive(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not configured")
}

func TestArchiveHandler_InvalidBody(t *testing.T) {
	handler := NewArchiveHandler(new(MockArchiveService))

	req := httptest.NewRequest(http.MethodPost, "/reports/archive", strings.NewReader("broken"))
	rec := httptest.NewRecorder()
	handler.Archive(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
