package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/extract"
)

// historyWindow bounds how many trailing conversation turns ride along with
// a remote validation. Older context goes stale in exchange for a bounded
// prompt size.
const historyWindow = 5

// RemoteClient runs one validation prompt against a remote model.
type RemoteClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatAPI is the slice of the OpenAI client the remote validator needs.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIRemote implements RemoteClient over chat completions.
type OpenAIRemote struct {
	api   ChatAPI
	model string
}

func NewOpenAIRemote(apiKey, model string) *OpenAIRemote {
	return &OpenAIRemote{api: openai.NewClient(apiKey), model: model}
}

func NewOpenAIRemoteWithAPI(api ChatAPI, model string) *OpenAIRemote {
	return &OpenAIRemote{api: api, model: model}
}

func (r *OpenAIRemote) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := r.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.model,
		MaxTokens: 1000,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("validator completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("validator completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildPrompt assembles the grounding prompt for one validation attempt.
func buildPrompt(req domain.ValidationRequest) string {
	turns := domain.LastTurns(req.History, historyWindow)
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, strings.ToUpper(turn.Role)+": "+turn.Content)
	}
	conversation := strings.Join(lines, "\n")

	var b strings.Builder
	b.WriteString(`You are a medical safety validator. Validate this LLM response for:
1. Hallucinations (claims without support in the provided context)
2. Medical accuracy issues
3. Safety concerns (inappropriate medical advice, dangerous recommendations)
4. Over-confident claims (presenting uncertainty as fact)

MEDICAL REPORT:
`)
	b.WriteString(req.Report)
	b.WriteString("\n\nCONVERSATION CONTEXT:\n")
	b.WriteString(conversation)
	if req.KBContext != "" {
		b.WriteString("\n\nRAG CONTEXT (Medical Knowledge Base):\n")
		b.WriteString(req.KBContext)
	}
	b.WriteString("\n\nLLM RESPONSE TO VALIDATE:\n")
	b.WriteString(req.Answer)
	b.WriteString(`

Respond ONLY with valid JSON in this exact format:
{
    "is_valid": true/false,
    "confidence": 0.0-1.0,
    "issues": ["issue1", "issue2"],
    "corrections": "corrected version or null if none needed",
    "safety_flags": ["flag1", "flag2"],
    "reasoning": "brief explanation of validation"
}

Be strict about hallucinations. If claims aren't grounded in the provided context, flag them.`)
	return b.String()
}

// remoteResultWire matches the JSON contract the prompt demands.
type remoteResultWire struct {
	IsValid     bool     `json:"is_valid"`
	Confidence  float64  `json:"confidence"`
	Issues      []string `json:"issues"`
	Corrections *string  `json:"corrections"`
	SafetyFlags []string `json:"safety_flags"`
	Reasoning   string   `json:"reasoning"`
}

// parseRemoteResponse converts raw model output into a result. On parse
// failure it returns the conservative verdict: invalid, mid-range
// confidence, dedicated flag. Ambiguity never approves an answer.
func parseRemoteResponse(raw string) domain.ValidationResult {
	candidate := extract.StripCodeFences(raw)
	candidate = sliceBalancedObject(candidate)

	var wire remoteResultWire
	if err := json.Unmarshal([]byte(candidate), &wire); err != nil {
		return domain.ValidationResult{
			IsValid:     false,
			Confidence:  0.5,
			Issues:      []string{"Validation parsing error"},
			SafetyFlags: []string{domain.FlagValidationError},
			Reasoning:   "Could not parse validator response",
		}
	}

	result := domain.ValidationResult{
		IsValid:     wire.IsValid,
		Confidence:  wire.Confidence,
		Issues:      wire.Issues,
		SafetyFlags: wire.SafetyFlags,
		Reasoning:   wire.Reasoning,
	}
	if wire.Corrections != nil {
		result.Corrections = *wire.Corrections
	}
	if result.Issues == nil {
		result.Issues = []string{}
	}
	if result.SafetyFlags == nil {
		result.SafetyFlags = []string{}
	}
	return result
}

// sliceBalancedObject trims trailing prose after the first balanced JSON
// object. Returns the input unchanged when it does not start with '{'.
func sliceBalancedObject(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return text
	}
	depth := 0
	for i, ch := range text {
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return text
}
