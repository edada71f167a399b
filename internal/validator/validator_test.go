package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
)

type MockRemoteClient struct {
	mock.Mock
}

func (m *MockRemoteClient) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func enabledRequest(answer string) domain.ValidationRequest {
	return domain.ValidationRequest{
		Answer:               answer,
		Report:               "Patient presents with mild anemia. Hb 9.1.",
		Mode:                 domain.ValidatorEnabled,
		ConfidenceThreshold:  0.7,
		MaxRetries:           2,
		AllowOfflineFallback: true,
	}
}

func TestValidate_DisabledAlwaysApproves(t *testing.T) {
	v := New(nil)
	req := enabledRequest("you definitely has cancer, stop taking everything")
	req.Mode = domain.ValidatorDisabled

	result := v.Validate(context.Background(), req)

	assert.True(t, result.IsValid)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Empty(t, result.Issues)
	assert.Empty(t, result.SafetyFlags)
}

func TestValidate_OfflineFlagsDangerousAdvice(t *testing.T) {
	v := New(nil)
	req := enabledRequest("You should stop taking your medication.")
	req.Mode = domain.ValidatorOffline

	result := v.Validate(context.Background(), req)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.SafetyFlags, domain.FlagDangerousAdvice)
	assert.Equal(t, 0.3, result.Confidence)
}

func TestValidate_OfflineCleanAnswer(t *testing.T) {
	v := New(nil)
	req := enabledRequest("Your report notes mild anemia; discuss next steps with your clinician.")
	req.Mode = domain.ValidatorOffline

	result := v.Validate(context.Background(), req)

	assert.True(t, result.IsValid)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Empty(t, result.Issues)
}

func TestValidate_OfflineHallucinatedCondition(t *testing.T) {
	v := New(nil)
	req := enabledRequest("This is consistent with diabetes.")
	req.Mode = domain.ValidatorOffline

	result := v.Validate(context.Background(), req)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.SafetyFlags, domain.FlagPossibleHallucination)
}

func TestValidate_OfflineConditionPresentInReport(t *testing.T) {
	v := New(nil)
	req := enabledRequest("The anemia mentioned in your report is mild.")
	req.Mode = domain.ValidatorOffline
	req.Report = "History of anemia."

	result := v.Validate(context.Background(), req)
	assert.True(t, result.IsValid)
}

func TestValidate_LowResourceSubset(t *testing.T) {
	v := New(nil)

	// Acute phrase is caught.
	req := enabledRequest("stop taking your pills")
	req.Mode = domain.ValidatorLowResource
	result := v.Validate(context.Background(), req)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.SafetyFlags, domain.FlagDangerousAdvice)

	// Cure claims and hallucinated conditions are outside the subset.
	req = enabledRequest("this will cure your diabetes")
	req.Mode = domain.ValidatorLowResource
	result = v.Validate(context.Background(), req)
	assert.True(t, result.IsValid)
}

func TestValidate_EnabledRemoteSuccess(t *testing.T) {
	remote := new(MockRemoteClient)
	remote.On("Complete", mock.Anything, mock.Anything).
		Return(`{"is_valid": true, "confidence": 0.92, "issues": [], "corrections": null, "safety_flags": [], "reasoning": "grounded"}`, nil).Once()

	v := New(remote)
	result := v.Validate(context.Background(), enabledRequest("answer"))

	assert.True(t, result.IsValid)
	assert.Equal(t, 0.92, result.Confidence)
	assert.Equal(t, 0, result.RetryCount)
	assert.False(t, result.RequiresHumanReview)
	remote.AssertExpectations(t)
}

func TestValidate_EnabledFallsBackToOffline(t *testing.T) {
	remote := new(MockRemoteClient)
	remote.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("network down"))

	v := New(remote)
	req := enabledRequest("You should stop taking your medication.")
	result := v.Validate(context.Background(), req)

	// Must equal the verdict Offline mode gives for the same input.
	offline := validateOffline(req)
	assert.Equal(t, offline.IsValid, result.IsValid)
	assert.Equal(t, offline.Confidence, result.Confidence)
	assert.Equal(t, offline.SafetyFlags, result.SafetyFlags)
}

func TestValidate_EnabledNoFallbackHardFails(t *testing.T) {
	remote := new(MockRemoteClient)
	remote.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("auth failure"))

	v := New(remote)
	req := enabledRequest("anything")
	req.AllowOfflineFallback = false

	result := v.Validate(context.Background(), req)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.SafetyFlags, domain.FlagAPIError)
}

func TestValidate_NilRemoteFallsBack(t *testing.T) {
	v := New(nil)
	req := enabledRequest("clean answer about anemia from the report")

	result := v.Validate(context.Background(), req)
	assert.Equal(t, 0.5, result.Confidence) // offline clean verdict
}

func TestValidate_RetryChainTerminates(t *testing.T) {
	remote := new(MockRemoteClient)
	remote.On("Complete", mock.Anything, mock.Anything).
		Return(`{"is_valid": true, "confidence": 0.2, "issues": [], "safety_flags": [], "reasoning": "unsure"}`, nil).Times(3)

	v := New(remote)
	result := v.Validate(context.Background(), enabledRequest("answer"))

	// maxRetries=2: attempts 0, 1, 2 and no further recursion.
	assert.Equal(t, 2, result.RetryCount)
	assert.True(t, result.RequiresHumanReview)
	remote.AssertExpectations(t)
}

func TestValidate_RetrySucceedsAfterRelaxedThreshold(t *testing.T) {
	remote := new(MockRemoteClient)
	remote.On("Complete", mock.Anything, mock.Anything).
		Return(`{"is_valid": true, "confidence": 0.6, "issues": [], "safety_flags": [], "reasoning": "ok"}`, nil).Times(2)

	v := New(remote)
	result := v.Validate(context.Background(), enabledRequest("answer"))

	// 0.6 < 0.7 on attempt 0; relaxed threshold 0.56 accepts attempt 1.
	assert.Equal(t, 1, result.RetryCount)
	assert.True(t, result.IsValid)
	remote.AssertExpectations(t)
}

func TestValidate_RemoteParseErrorIsConservative(t *testing.T) {
	remote := new(MockRemoteClient)
	remote.On("Complete", mock.Anything, mock.Anything).Return("I think it looks fine!", nil).Times(3)

	v := New(remote)
	result := v.Validate(context.Background(), enabledRequest("answer"))

	assert.False(t, result.IsValid)
	assert.Equal(t, 0.5, result.Confidence)
	assert.Contains(t, result.SafetyFlags, domain.FlagValidationError)
}

func TestValidate_CancelledContextFallsBack(t *testing.T) {
	remote := new(MockRemoteClient)
	v := New(remote)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := enabledRequest("stop taking your meds")
	result := v.Validate(ctx, req)

	// No remote call issued; offline fallback still produces a verdict.
	remote.AssertNotCalled(t, "Complete")
	assert.False(t, result.IsValid)
}

func TestBuildPrompt_WindowsHistory(t *testing.T) {
	history := []domain.ChatTurn{
		{Role: "user", Content: "turn-1"},
		{Role: "assistant", Content: "turn-2"},
		{Role: "user", Content: "turn-3"},
		{Role: "assistant", Content: "turn-4"},
		{Role: "user", Content: "turn-5"},
		{Role: "assistant", Content: "turn-6"},
		{Role: "user", Content: "turn-7"},
	}

	req := enabledRequest("answer")
	req.History = history
	req.KBContext = "[KB:labs.csv]\nreference"

	prompt := buildPrompt(req)

	assert.NotContains(t, prompt, "turn-1")
	assert.NotContains(t, prompt, "turn-2")
	assert.Contains(t, prompt, "USER: turn-3")
	assert.Contains(t, prompt, "USER: turn-7")
	assert.Contains(t, prompt, "RAG CONTEXT")
	assert.Contains(t, prompt, req.Report)
	assert.Contains(t, prompt, "LLM RESPONSE TO VALIDATE")
}

func TestParseRemoteResponse_CodeFences(t *testing.T) {
	raw := "```json\n{\"is_valid\": false, \"confidence\": 0.8, \"issues\": [\"x\"], \"corrections\": \"better\", \"safety_flags\": [\"F\"], \"reasoning\": \"r\"}\n```"

	result := parseRemoteResponse(raw)

	assert.False(t, result.IsValid)
	assert.Equal(t, 0.8, result.Confidence)
	assert.Equal(t, []string{"x"}, result.Issues)
	assert.Equal(t, "better", result.Corrections)
}

func TestParseRemoteResponse_TrailingProse(t *testing.T) {
	raw := `{"is_valid": true, "confidence": 0.9, "issues": [], "safety_flags": [], "reasoning": "r"} Hope that helps!`

	result := parseRemoteResponse(raw)
	require.True(t, result.IsValid)
	assert.Equal(t, 0.9, result.Confidence)
}
