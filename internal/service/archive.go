package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/telemetry"
)

// ArchiveStorageInterface defines the storage backend for report archival.
type ArchiveStorageInterface interface {
	PutText(ctx context.Context, key string, body string) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// ArchiveService stores report texts in object storage for later review.
type ArchiveService struct {
	storage ArchiveStorageInterface
	uuidGen UUIDGenerator
	now     func() time.Time
}

// NewArchiveService creates a new ArchiveService instance. storage may be
// nil when object storage is not configured; Archive then fails with a
// domain error instead of at startup.
func NewArchiveService(storage ArchiveStorageInterface) *ArchiveService {
	return &ArchiveService{
		storage: storage,
		uuidGen: &DefaultUUIDGenerator{},
		now:     time.Now,
	}
}

// NewArchiveServiceWithDeps creates an ArchiveService with custom
// collaborators (for testing)
func NewArchiveServiceWithDeps(storage ArchiveStorageInterface, uuidGen UUIDGenerator, now func() time.Time) *ArchiveService {
	return &ArchiveService{storage: storage, uuidGen: uuidGen, now: now}
}

// ArchiveOutput represents the stored location of an archived report
type ArchiveOutput struct {
	Key         string
	DownloadURL string
}

// Archive normalizes and uploads one report text, returning the object key
// and a presigned download URL.
func (s *ArchiveService) Archive(ctx context.Context, reportText string) (*ArchiveOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "ArchiveService.Archive", telemetry.SpanAttributes{
		Operation: "archive",
	})
	defer span.End()

	if s.storage == nil {
		return nil, domain.ErrStorageUnconfigured
	}

	report := NormalizeReportText(reportText)
	if report == "" {
		return nil, domain.ErrEmptyReport
	}

	key := fmt.Sprintf("reports/%s/%s.txt", s.now().UTC().Format("2006-01-02"), s.uuidGen.NewString())
	if err := s.storage.PutText(ctx, key, report); err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to archive report", err)
	}

	url, err := s.storage.GenerateDownloadURL(ctx, key)
	if err != nil {
		// The object is stored; a presign failure should not hide that.
		telemetry.CaptureMessage(ctx, fmt.Sprintf("archive: presign failed for %s: %v", key, err))
		return &ArchiveOutput{Key: key}, nil
	}

	return &ArchiveOutput{Key: key, DownloadURL: url}, nil
}
