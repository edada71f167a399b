package domain

import "strings"

// ValidatorMode selects which validation strategy runs.
type ValidatorMode string

const (
	// ValidatorEnabled attempts the remote validator, falling back per config.
	ValidatorEnabled ValidatorMode = "enabled"
	// ValidatorDisabled approves everything. An explicit escape hatch, not a default.
	ValidatorDisabled ValidatorMode = "disabled"
	// ValidatorOffline runs the full keyword battery without network calls.
	ValidatorOffline ValidatorMode = "offline"
	// ValidatorLowResource runs only the acute-danger subset of the offline checks.
	ValidatorLowResource ValidatorMode = "low_resource"
)

// ParseValidatorMode normalizes a mode string from config or a request.
func ParseValidatorMode(s string) (ValidatorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ValidatorEnabled):
		return ValidatorEnabled, nil
	case string(ValidatorDisabled):
		return ValidatorDisabled, nil
	case string(ValidatorOffline):
		return ValidatorOffline, nil
	case string(ValidatorLowResource), "lowresource", "low-resource":
		return ValidatorLowResource, nil
	default:
		return "", ErrInvalidValidatorMode
	}
}

// Safety flag categories emitted by the validator.
const (
	FlagOverconfidentDiagnosis = "OVERCONFIDENT_DIAGNOSIS"
	FlagDangerousAdvice        = "DANGEROUS_MEDICAL_ADVICE"
	FlagCureClaim              = "CURE_CLAIM"
	FlagCriticalSafety         = "CRITICAL_SAFETY"
	FlagPossibleHallucination  = "POSSIBLE_HALLUCINATION"
	FlagValidationError        = "VALIDATION_ERROR"
	FlagAPIError               = "API_ERROR"
)

// ValidationRequest carries everything the validator needs for one verdict.
//
// Confidence values are 0.0-1.0 throughout; MaxRetries bounds the Enabled-mode
// retry loop and RetryCount is carried on the result, not mutated here.
type ValidationRequest struct {
	Answer               string
	History              []ChatTurn
	Report               string
	KBContext            string
	Mode                 ValidatorMode
	ConfidenceThreshold  float64
	MaxRetries           int
	AllowOfflineFallback bool
}

// ValidationResult is the verdict for a single validation attempt. A retry
// produces a fresh result derived from, never mutating, the prior one.
type ValidationResult struct {
	IsValid             bool     `json:"is_valid"`
	Confidence          float64  `json:"confidence"`
	Issues              []string `json:"issues"`
	Corrections         string   `json:"corrections,omitempty"`
	SafetyFlags         []string `json:"safety_flags"`
	Reasoning           string   `json:"reasoning"`
	RequiresHumanReview bool     `json:"requires_human_review"`
	RetryCount          int      `json:"retry_count"`
}
