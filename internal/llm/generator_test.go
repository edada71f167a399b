package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestOpenAIGenerator_Summarize(t *testing.T) {
	api := new(MockChatAPI)
	gen := NewOpenAIGeneratorWithAPI(api, "test-model")

	api.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "test-model" &&
			len(req.Messages) == 2 &&
			strings.Contains(req.Messages[1].Content, "Hb 9.1 low") &&
			strings.Contains(req.Messages[1].Content, "[KB:labs.csv]") &&
			strings.Contains(req.Messages[1].Content, "risk_flags")
	})).Return(chatResponse("### SUMMARY\nok"), nil)

	out, err := gen.Summarize(context.Background(), "Hb 9.1 low", "[KB:labs.csv]\ncontext")
	require.NoError(t, err)
	assert.Equal(t, "### SUMMARY\nok", out)
	api.AssertExpectations(t)
}

func TestOpenAIGenerator_Answer(t *testing.T) {
	api := new(MockChatAPI)
	gen := NewOpenAIGeneratorWithAPI(api, "test-model")

	api.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return strings.Contains(req.Messages[1].Content, "QUESTION:\nwhat about anemia?")
	})).Return(chatResponse("Answer [REPORT]"), nil)

	out, err := gen.Answer(context.Background(), "what about anemia?", "report text", "[KB:empty]")
	require.NoError(t, err)
	assert.Equal(t, "Answer [REPORT]", out)
}

func TestOpenAIGenerator_APIError(t *testing.T) {
	api := new(MockChatAPI)
	gen := NewOpenAIGeneratorWithAPI(api, "test-model")

	api.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("boom"))

	_, err := gen.Summarize(context.Background(), "report", "kb")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")
}

func TestOpenAIGenerator_NoChoices(t *testing.T) {
	api := new(MockChatAPI)
	gen := NewOpenAIGeneratorWithAPI(api, "test-model")

	api.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, nil)

	_, err := gen.Answer(context.Background(), "q", "r", "kb")
	assert.Error(t, err)
}

func TestMockGenerator_SummarizeKeywords(t *testing.T) {
	out, err := MockGenerator{}.Summarize(context.Background(), "Patient reports chest pain. Blood pressure elevated.", "")
	require.NoError(t, err)
	assert.Contains(t, out, "### SUMMARY")
	assert.Contains(t, out, "- Mentions pain [REPORT]")
	assert.Contains(t, out, "- Mentions chest [REPORT]")
	assert.Contains(t, out, "### RISKS")
}

func TestMockGenerator_SummarizeEmptyReport(t *testing.T) {
	out, err := MockGenerator{}.Summarize(context.Background(), "  ", "")
	require.NoError(t, err)
	assert.Contains(t, out, "No report content provided")
}

func TestMockGenerator_AnswerRouting(t *testing.T) {
	gen := MockGenerator{}
	ctx := context.Background()

	out, _ := gen.Answer(ctx, "", "report", "")
	assert.Contains(t, out, "specific question")

	out, _ = gen.Answer(ctx, "what are the risks?", "report", "")
	assert.Contains(t, out, "clinician")

	out, _ = gen.Answer(ctx, "which medication?", "report", "")
	assert.Contains(t, out, "medication mentions")

	out, _ = gen.Answer(ctx, "anything else?", "some report text", "")
	assert.Contains(t, out, "Report excerpt: some report text")
}
