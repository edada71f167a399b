package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
)

type MockArchiveStorage struct {
	mock.Mock
}

func (m *MockArchiveStorage) PutText(ctx context.Context, key string, body string) error {
	args := m.Called(ctx, key, body)
	return args.Error(0)
}

func (m *MockArchiveStorage) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

type fixedUUIDGenerator struct {
	value string
}

func (g *fixedUUIDGenerator) NewString() string {
	return g.value
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
}

func TestArchive_StoresNormalizedReport(t *testing.T) {
	storage := new(MockArchiveStorage)
	expectedKey := "reports/2026-03-14/11111111-2222-3333-4444-555555555555.txt"
	storage.On("PutText", mock.Anything, expectedKey, "Hb 9.1 g/dL").Return(nil).Once()
	storage.On("GenerateDownloadURL", mock.Anything, expectedKey).Return("https://example.com/presigned", nil).Once()

	svc := NewArchiveServiceWithDeps(storage, &fixedUUIDGenerator{value: "11111111-2222-3333-4444-555555555555"}, fixedNow)

	out, err := svc.Archive(context.Background(), "Hb9.1g/dL")

	require.NoError(t, err)
	assert.Equal(t, expectedKey, out.Key)
	assert.Equal(t, "https://example.com/presigned", out.DownloadURL)
	storage.AssertExpectations(t)
}

func TestArchive_StorageUnconfigured(t *testing.T) {
	svc := NewArchiveService(nil)

	_, err := svc.Archive(context.Background(), "report")

	assert.ErrorIs(t, err, domain.ErrStorageUnconfigured)
}

func TestArchive_EmptyReport(t *testing.T) {
	svc := NewArchiveServiceWithDeps(new(MockArchiveStorage), &fixedUUIDGenerator{value: "id"}, fixedNow)

	_, err := svc.Archive(context.Background(), "   ")

	assert.ErrorIs(t, err, domain.ErrEmptyReport)
}

func TestArchive_UploadFailure(t *testing.T) {
	storage := new(MockArchiveStorage)
	storage.On("PutText", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket gone")).Once()

	svc := NewArchiveServiceWithDeps(storage, &fixedUUIDGenerator{value: "id"}, fixedNow)

	_, err := svc.Archive(context.Background(), "report")

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeInternalError, domainErr.Code)
}

func TestArchive_PresignFailureStillReturnsKey(t *testing.T) {
	storage := new(MockArchiveStorage)
	storage.On("PutText", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	storage.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("", errors.New("presign broken")).Once()

	svc := NewArchiveServiceWithDeps(storage, &fixedUUIDGenerator{value: "id"}, fixedNow)

	out, err := svc.Archive(context.Background(), "report")

	require.NoError(t, err)
	assert.Contains(t, out.Key, "reports/2026-03-14/id.txt")
	assert.Empty(t, out.DownloadURL)
}
