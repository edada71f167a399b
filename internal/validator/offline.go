package validator

import (
	"fmt"
	"strings"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
)

// Offline confidences are fixed and deliberately lower than remote
// validation: keyword matching cannot reason about paraphrase or context,
// so "checked, nothing found" (0.5) must stay distinguishable from a
// confident remote pass.
const (
	offlineCleanConfidence = 0.5
	offlineIssueConfidence = 0.3
)

type keywordCheck struct {
	phrase string
	flag   string
}

// dangerousPhrases is the full offline battery.
var dangerousPhrases = []keywordCheck{
	{"definitely has", domain.FlagOverconfidentDiagnosis},
	{"will definitely", domain.FlagOverconfidentDiagnosis},
	{"stop taking", domain.FlagDangerousAdvice},
	{"don't take", domain.FlagDangerousAdvice},
	{"cure", domain.FlagCureClaim},
	{"cured", domain.FlagCureClaim},
	{"ignore doctor", domain.FlagCriticalSafety},
	{"don't seek medical help", domain.FlagCriticalSafety},
}

// acutePhrases is the LowResource subset: only advice that could cause
// immediate harm, e.g. telling a patient to stop medication or ignore a
// clinician.
var acutePhrases = []keywordCheck{
	{"stop taking", domain.FlagDangerousAdvice},
	{"don't take", domain.FlagDangerousAdvice},
	{"ignore doctor", domain.FlagCriticalSafety},
	{"don't seek medical help", domain.FlagCriticalSafety},
}

// commonConditions are named conditions checked for simple hallucination:
// mentioned in the answer but absent from the ground-truth report.
var commonConditions = []string{"diabetes", "cancer", "heart attack", "stroke"}

// validateOffline runs the full keyword battery without network calls.
func validateOffline(req domain.ValidationRequest) domain.ValidationResult {
	return keywordScan(req, dangerousPhrases, true,
		"Offline validation using keyword matching (limited accuracy)")
}

// validateLowResource runs only the acute-danger phrases.
func validateLowResource(req domain.ValidationRequest) domain.ValidationResult {
	return keywordScan(req, acutePhrases, false,
		"Low-resource validation using acute-danger phrases only")
}

func keywordScan(req domain.ValidationRequest, checks []keywordCheck, conditions bool, reasoning string) domain.ValidationResult {
	var issues []string
	var flags []string

	answerLower := strings.ToLower(req.Answer)
	reportLower := strings.ToLower(req.Report)

	for _, check := range checks {
		if strings.Contains(answerLower, check.phrase) {
			issues = append(issues, fmt.Sprintf("Contains dangerous keyword: %q", check.phrase))
			flags = append(flags, check.flag)
		}
	}

	if conditions {
		for _, condition := range commonConditions {
			if strings.Contains(answerLower, condition) && !strings.Contains(reportLower, condition) {
				issues = append(issues, fmt.Sprintf("Mentions %q but not in medical report", condition))
				flags = append(flags, domain.FlagPossibleHallucination)
			}
		}
	}

	confidence := offlineCleanConfidence
	if len(issues) > 0 {
		confidence = offlineIssueConfidence
	}

	if issues == nil {
		issues = []string{}
	}
	if flags == nil {
		flags = []string{}
	}

	return domain.ValidationResult{
		IsValid:     len(issues) == 0,
		Confidence:  confidence,
		Issues:      issues,
		SafetyFlags: flags,
		Reasoning:   reasoning,
	}
}
