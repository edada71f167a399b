package service

import (
	"context"
	"log"
	"strings"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/index"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/llm"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/telemetry"
)

// noReportNotice is returned on chat calls when neither the request nor a
// previous summarize call supplied report text.
const noReportNotice = "No patient report is available. Paste a report and summarize first, " +
	"or include report text directly in this request."

// ChatService handles business logic for report-grounded Q&A
type ChatService struct {
	state         *State
	generator     GeneratorInterface
	fallback      GeneratorInterface
	validator     ValidatorInterface
	validationCfg ValidationConfig
	allowMock     bool
}

// NewChatService creates a new ChatService instance
func NewChatService(
	state *State,
	generator GeneratorInterface,
	validator ValidatorInterface,
	validationCfg ValidationConfig,
	allowMock bool,
) *ChatService {
	return &ChatService{
		state:         state,
		generator:     generator,
		fallback:      llm.MockGenerator{},
		validator:     validator,
		validationCfg: validationCfg,
		allowMock:     allowMock,
	}
}

// ChatInput represents the input for a chat request
type ChatInput struct {
	Question string
	Report   string
	UseKB    bool
	History  []domain.ChatTurn
}

// ChatOutput represents the result of a chat request
type ChatOutput struct {
	Text       string
	Validation *domain.ValidationResult
	Ready      bool
	Meta       index.Status
}

// Chat answers a question about a report. When the request carries no
// report text, the last report seen by a summarize call is used.
func (s *ChatService) Chat(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	snap := s.state.Snapshot()
	ctx, span := telemetry.StartSpan(ctx, "ChatService.Chat", telemetry.SpanAttributes{
		Operation:   "chat",
		IndexStatus: snap.Status.Status,
	})
	defer span.End()

	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	report := NormalizeReportText(input.Report)
	if report == "" {
		report = s.state.LastReport()
	}
	if report == "" {
		return &ChatOutput{Text: noReportNotice, Ready: false}, nil
	}

	kbContext := retrieveContext(ctx, snap, input.UseKB, question)

	answer, err := s.answer(ctx, question, report, kbContext)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	verdict := s.validator.Validate(ctx, domain.ValidationRequest{
		Answer:               answer,
		History:              input.History,
		Report:               report,
		KBContext:            kbContext,
		Mode:                 s.validationCfg.Mode,
		ConfidenceThreshold:  s.validationCfg.ConfidenceThreshold,
		MaxRetries:           s.validationCfg.MaxRetries,
		AllowOfflineFallback: s.validationCfg.AllowOfflineFallback,
	})

	return &ChatOutput{
		Text:       answer,
		Validation: &verdict,
		Ready:      true,
		Meta:       snap.Status,
	}, nil
}

func (s *ChatService) answer(ctx context.Context, question, report, kbContext string) (string, error) {
	answer, err := s.generator.Answer(ctx, question, report, kbContext)
	if err == nil {
		return answer, nil
	}
	if !s.allowMock || s.fallback == nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "chat generation failed", err)
	}
	log.Printf("chat: generation failed, using mock fallback: %v", err)
	return s.fallback.Answer(ctx, question, report, kbContext)
}
