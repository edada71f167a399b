package service

import (
	"context"
	"strings"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/telemetry"
)

// ValidateService exposes the validator directly, for clients that bring
// their own answers (transcripts, offline batch checks).
type ValidateService struct {
	validator     ValidatorInterface
	validationCfg ValidationConfig
}

// NewValidateService creates a new ValidateService instance
func NewValidateService(validator ValidatorInterface, validationCfg ValidationConfig) *ValidateService {
	return &ValidateService{validator: validator, validationCfg: validationCfg}
}

// ValidateInput represents the input for a direct validation request
type ValidateInput struct {
	Answer    string
	Report    string
	History   []domain.ChatTurn
	KBContext string
	Mode      string // optional override of the configured mode
}

// Validate checks one answer against its report. Mode falls back to the
// configured default when the request leaves it empty.
func (s *ValidateService) Validate(ctx context.Context, input ValidateInput) (*domain.ValidationResult, error) {
	mode := s.validationCfg.Mode
	if strings.TrimSpace(input.Mode) != "" {
		parsed, err := domain.ParseValidatorMode(input.Mode)
		if err != nil {
			return nil, err
		}
		mode = parsed
	}

	ctx, span := telemetry.StartSpan(ctx, "ValidateService.Validate", telemetry.SpanAttributes{
		Operation:     "validate",
		ValidatorMode: string(mode),
	})
	defer span.End()

	if strings.TrimSpace(input.Answer) == "" {
		return nil, domain.ErrEmptyAnswer
	}

	result := s.validator.Validate(ctx, domain.ValidationRequest{
		Answer:               input.Answer,
		History:              input.History,
		Report:               input.Report,
		KBContext:            input.KBContext,
		Mode:                 mode,
		ConfidenceThreshold:  s.validationCfg.ConfidenceThreshold,
		MaxRetries:           s.validationCfg.MaxRetries,
		AllowOfflineFallback: s.validationCfg.AllowOfflineFallback,
	})
	return &result, nil
}
