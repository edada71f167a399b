package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var sentenceSplit = regexp.MustCompile(`(?:[.!?])\s+`)

// MockGenerator produces deterministic, report-grounded text without a
// model backend. It serves as the availability fallback when the live
// generator is unreachable: degraded output beats a hard failure.
type MockGenerator struct{}

// Summarize builds a keyword-scan summary from the report text alone.
func (MockGenerator) Summarize(ctx context.Context, report, kbContext string) (string, error) {
	text := strings.TrimSpace(report)
	if text == "" {
		return "### SUMMARY\nNo report content provided.", nil
	}

	sentences := sentenceSplit.Split(text, -1)
	kept := make([]string, 0, 4)
	for _, s := range sentences {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
		if len(kept) == 4 {
			break
		}
	}
	overview := strings.Join(kept, ". ")
	if overview == "" {
		if len(text) > 400 {
			overview = text[:400]
		} else {
			overview = text
		}
	}

	var findings []string
	lower := strings.ToLower(text)
	for _, token := range []string{"pain", "blood", "pressure", "heart", "chest", "lab", "imaging", "follow-up"} {
		if strings.Contains(lower, token) {
			findings = append(findings, fmt.Sprintf("- Mentions %s [REPORT]", token))
		}
	}
	if len(findings) == 0 {
		findings = []string{
			"- The report text was captured and can be reviewed in chat [REPORT]",
			"- Add more specific details for a richer summary [REPORT]",
		}
	}
	if len(findings) > 6 {
		findings = findings[:6]
	}

	return "### SUMMARY\n" + overview + "\n\n### KEY FINDINGS\n" +
		strings.Join(findings, "\n") +
		"\n\n### FOLLOW-UP POINTS\n- Not explicitly stated in the report." +
		"\n\n### RISKS\n{\"risk_flags\": []}", nil
}

// Answer routes a question to a canned, still report-grounded reply.
func (MockGenerator) Answer(ctx context.Context, question, report, kbContext string) (string, error) {
	q := strings.TrimSpace(question)
	report = strings.TrimSpace(report)
	if q == "" {
		return "Please ask a specific question.", nil
	}
	if report == "" {
		return "No patient report is available. Paste a report first, then ask your question.", nil
	}

	lowQ := strings.ToLower(q)
	switch {
	case strings.Contains(lowQ, "summary"):
		return "I can summarize this report. Use the Summarize action, then ask follow-up questions. [REPORT]", nil
	case strings.Contains(lowQ, "risk") || strings.Contains(lowQ, "concern"):
		return "Potential concerns should be interpreted by a clinician. " +
			"I can point out mentions from the report, but not diagnose. [REPORT]", nil
	case strings.Contains(lowQ, "medication") || strings.Contains(lowQ, "drug"):
		return "I can list medication mentions found in the report text. [REPORT]", nil
	}

	snippet := report
	if len(snippet) > 350 {
		snippet = snippet[:350] + "..."
	}
	return "I do not have a live model response right now, but I can still ground to your report.\n\n" +
		"Report excerpt: " + snippet + "\n\n" +
		"Ask a narrower question (medications, labs, follow-up, imaging) for a more focused answer. [REPORT]", nil
}
