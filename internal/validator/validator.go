// Package validator scores generated answers for hallucination and safety
// risk before they reach a user. It is a state machine over four modes with
// a layered fallback chain: remote validator, offline heuristics, minimal
// acute checks.
package validator

import (
	"context"
	"log"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
)

// relaxFactor multiplies the confidence threshold on each retry. Being
// below 1.0 and applied a bounded number of times, it makes the retry loop
// terminate by construction.
const relaxFactor = 0.8

// Validator dispatches validation requests by mode.
type Validator struct {
	remote RemoteClient // nil when no remote backend is configured
}

// New builds a validator. remote may be nil; the Enabled path then behaves
// as if remote initialization failed and follows the fallback rules.
func New(remote RemoteClient) *Validator {
	return &Validator{remote: remote}
}

// Validate produces a verdict for one answer. It never returns an error:
// every failure collapses into a conservative result, because a validator
// outage must not silently approve an answer.
func (v *Validator) Validate(ctx context.Context, req domain.ValidationRequest) domain.ValidationResult {
	switch req.Mode {
	case domain.ValidatorDisabled:
		return domain.ValidationResult{
			IsValid:     true,
			Confidence:  1.0,
			Issues:      []string{},
			SafetyFlags: []string{},
			Reasoning:   "Validation disabled",
		}
	case domain.ValidatorOffline:
		return validateOffline(req)
	case domain.ValidatorLowResource:
		return validateLowResource(req)
	default:
		return v.validateEnabled(ctx, req)
	}
}

// validateEnabled tries the ordered strategy chain: remote (with bounded
// threshold-relaxing retries), then offline heuristics when fallback is
// allowed, then a hard API-error verdict. First strategy to produce a
// result wins.
func (v *Validator) validateEnabled(ctx context.Context, req domain.ValidationRequest) domain.ValidationResult {
	if result, ok := v.remoteWithRetries(ctx, req); ok {
		return result
	}

	if req.AllowOfflineFallback {
		log.Printf("validator: remote unavailable, falling back to offline checks")
		return validateOffline(req)
	}

	return domain.ValidationResult{
		IsValid:     false,
		Confidence:  0,
		Issues:      []string{"Remote validation unavailable"},
		SafetyFlags: []string{domain.FlagAPIError},
		Reasoning:   "Remote validator failed and offline fallback is disabled",
	}
}

// remoteWithRetries is the Enabled-mode retry rule as an explicit bounded
// loop carrying (threshold, attempt) state. A result below the current
// threshold is flagged for human review and retried once more with the
// threshold relaxed, until MaxRetries attempts have been consumed. Retries
// are strictly sequential; cancellation is checked between iterations, not
// mid-call.
func (v *Validator) remoteWithRetries(ctx context.Context, req domain.ValidationRequest) (domain.ValidationResult, bool) {
	if v.remote == nil {
		return domain.ValidationResult{}, false
	}

	threshold := req.ConfidenceThreshold
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			log.Printf("validator: cancelled before attempt %d: %v", attempt, err)
			return domain.ValidationResult{}, false
		}

		raw, err := v.remote.Complete(ctx, buildPrompt(req))
		if err != nil {
			log.Printf("validator: remote call failed: %v", err)
			return domain.ValidationResult{}, false
		}

		result := parseRemoteResponse(raw)
		result.RetryCount = attempt

		if result.Confidence >= threshold {
			return result, true
		}

		result.RequiresHumanReview = true
		if attempt >= req.MaxRetries {
			return result, true
		}
		threshold *= relaxFactor
	}
}
