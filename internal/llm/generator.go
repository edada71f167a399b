// Package llm wraps the generation backend behind a narrow interface. The
// rest of the system treats generation as an opaque report×context×question
// function.
package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Generator produces free-form text from a report plus retrieved context.
type Generator interface {
	Summarize(ctx context.Context, report, kbContext string) (string, error)
	Answer(ctx context.Context, question, report, kbContext string) (string, error)
}

// ChatAPI is the slice of the OpenAI client the generator needs.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIGenerator drives chat completions for summaries and answers.
type OpenAIGenerator struct {
	api   ChatAPI
	model string
}

// NewOpenAIGenerator builds a generator over the given API key and model.
func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	return &OpenAIGenerator{
		api:   openai.NewClient(apiKey),
		model: model,
	}
}

// NewOpenAIGeneratorWithAPI is the injection point for tests.
func NewOpenAIGeneratorWithAPI(api ChatAPI, model string) *OpenAIGenerator {
	return &OpenAIGenerator{api: api, model: model}
}

// Summarize asks for the sectioned summary including the trailing risk block.
func (g *OpenAIGenerator) Summarize(ctx context.Context, report, kbContext string) (string, error) {
	user := fmt.Sprintf(summarizeUserPrompt, report, kbContext)
	return g.complete(ctx, summarizeSystemPrompt, user)
}

// Answer asks a follow-up question grounded in the report and KB context.
func (g *OpenAIGenerator) Answer(ctx context.Context, question, report, kbContext string) (string, error) {
	user := fmt.Sprintf(chatUserPrompt, report, kbContext, question)
	return g.complete(ctx, chatSystemPrompt, user)
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
