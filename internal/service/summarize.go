package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/extract"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/index"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/llm"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/telemetry"
)

// indexBuildingNotice is returned on summarize calls that want KB grounding
// before the index snapshot is ready.
const indexBuildingNotice = "KB index is still building. Retry shortly or disable KB for now."

// GeneratorInterface defines the text generation backend for services.
type GeneratorInterface interface {
	Summarize(ctx context.Context, report, kbContext string) (string, error)
	Answer(ctx context.Context, question, report, kbContext string) (string, error)
}

// ValidatorInterface defines the answer validation backend for services.
type ValidatorInterface interface {
	Validate(ctx context.Context, req domain.ValidationRequest) domain.ValidationResult
}

// ValidationConfig carries the validation knobs services pass through on
// every request.
type ValidationConfig struct {
	Mode                 domain.ValidatorMode
	ConfidenceThreshold  float64
	MaxRetries           int
	AllowOfflineFallback bool
}

// SummarizeService handles business logic for report summarization
type SummarizeService struct {
	state         *State
	generator     GeneratorInterface
	fallback      GeneratorInterface
	validator     ValidatorInterface
	validationCfg ValidationConfig
	allowMock     bool
}

// NewSummarizeService creates a new SummarizeService instance. fallback may
// be nil to disable mock responses regardless of allowMock.
func NewSummarizeService(
	state *State,
	generator GeneratorInterface,
	validator ValidatorInterface,
	validationCfg ValidationConfig,
	allowMock bool,
) *SummarizeService {
	return &SummarizeService{
		state:         state,
		generator:     generator,
		fallback:      llm.MockGenerator{},
		validator:     validator,
		validationCfg: validationCfg,
		allowMock:     allowMock,
	}
}

// SummarizeInput represents the input for a summarize request
type SummarizeInput struct {
	Report string
	UseKB  bool
}

// SummarizeOutput represents the result of a summarize request
type SummarizeOutput struct {
	Text       string
	Risks      *domain.RiskReport
	RiskNotes  string
	Validation *domain.ValidationResult
	Ready      bool
	Meta       index.Status
}

// Summarize normalizes the report, retrieves KB context, generates the
// summary, splits off the structured risk block, and validates the result.
func (s *SummarizeService) Summarize(ctx context.Context, input SummarizeInput) (*SummarizeOutput, error) {
	snap := s.state.Snapshot()
	ctx, span := telemetry.StartSpan(ctx, "SummarizeService.Summarize", telemetry.SpanAttributes{
		Operation:   "summarize",
		IndexStatus: snap.Status.Status,
	})
	defer span.End()

	report := NormalizeReportText(input.Report)
	if report == "" {
		return nil, domain.ErrEmptyReport
	}
	s.state.SetLastReport(report)

	if input.UseKB && !snap.Ready {
		return &SummarizeOutput{
			Text:  indexBuildingNotice,
			Ready: false,
			Meta:  snap.Status,
		}, nil
	}

	kbContext := retrieveContext(ctx, snap, input.UseKB, report)

	text, err := s.generate(ctx, report, kbContext)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	out := &SummarizeOutput{
		Ready: true,
		Meta:  snap.Status,
	}
	out.Text, out.Risks, out.RiskNotes = splitRiskBlock(ctx, text)

	verdict := s.validator.Validate(ctx, domain.ValidationRequest{
		Answer:               out.Text,
		Report:               report,
		KBContext:            kbContext,
		Mode:                 s.validationCfg.Mode,
		ConfidenceThreshold:  s.validationCfg.ConfidenceThreshold,
		MaxRetries:           s.validationCfg.MaxRetries,
		AllowOfflineFallback: s.validationCfg.AllowOfflineFallback,
	})
	out.Validation = &verdict

	return out, nil
}

// generate runs the primary backend and, when allowed, covers its failure
// with the mock generator so the endpoint stays usable without API access.
func (s *SummarizeService) generate(ctx context.Context, report, kbContext string) (string, error) {
	text, err := s.generator.Summarize(ctx, report, kbContext)
	if err == nil {
		return text, nil
	}
	if !s.allowMock || s.fallback == nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "summary generation failed", err)
	}
	log.Printf("summarize: generation failed, using mock fallback: %v", err)
	return s.fallback.Summarize(ctx, report, kbContext)
}

// retrieveContext fetches and formats KB chunks for the query. Retrieval
// problems degrade to an empty context rather than failing the request.
func retrieveContext(ctx context.Context, snap *Snapshot, useKB bool, query string) string {
	if !useKB || snap.Retriever == nil {
		return ""
	}
	chunks, err := snap.Retriever.Retrieve(ctx, query)
	if err != nil {
		log.Printf("retrieval failed, continuing without KB context: %v", err)
		telemetry.CaptureError(ctx, err)
		return ""
	}
	return index.FormatChunks(chunks)
}

// splitRiskBlock separates the structured risk section from the prose. A
// missing block means the generator mentioned no risks; an unparseable one
// is logged and dropped so a malformed block never reaches the user.
func splitRiskBlock(ctx context.Context, text string) (string, *domain.RiskReport, string) {
	risks, err := extract.RiskReport(llm.RisksHeading, text)
	if err != nil {
		if !errors.Is(err, extract.ErrBlockNotFound) {
			log.Printf("summarize: malformed risk block: %v", err)
			telemetry.CaptureMessage(ctx, fmt.Sprintf("malformed risk block: %v", err))
			text = extract.StripTail(llm.RisksHeading, text)
		}
		return strings.TrimSpace(text), nil, humanizeRisks(nil)
	}
	return extract.StripTail(llm.RisksHeading, text), risks, humanizeRisks(risks)
}

// humanizeRisks renders the risk report as markdown bullet notes for
// display. The structured report stays untouched for clients that want it.
func humanizeRisks(report *domain.RiskReport) string {
	if report == nil || len(report.RiskFlags) == 0 {
		return "No specific risks were identified."
	}

	var b strings.Builder
	for _, flag := range report.RiskFlags {
		name := flag.Name
		if name == "" {
			name = "(unnamed)"
		}
		severity := flag.Severity
		if severity == "" {
			severity = "unknown"
		}
		fmt.Fprintf(&b, "- **%s** (_%s, severity: %s_)\n", name, flag.Category, severity)
		if flag.Rationale != "" {
			fmt.Fprintf(&b, "  - Rationale: %s\n", flag.Rationale)
		}
		if len(flag.Evidence) > 0 {
			b.WriteString("  - Evidence (from report):\n")
			for _, ev := range flag.Evidence {
				if quote := strings.TrimSpace(ev.Quote); quote != "" {
					fmt.Fprintf(&b, "    - %q\n", quote)
				}
			}
		}
		if flag.SuggestedAction != "" {
			fmt.Fprintf(&b, "  - Suggested action: %s\n", flag.SuggestedAction)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
