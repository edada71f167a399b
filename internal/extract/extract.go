// Package extract recovers structured JSON blocks from free-form generated
// text.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
)

// ErrBlockNotFound means the heading or a brace pair was absent. Callers
// treat this differently from a found-but-invalid block: "no risks
// mentioned" is not "the generator malfunctioned".
var ErrBlockNotFound = errors.New("structured block not found")

// TrailingJSON locates heading (case-insensitive) and slices the first '{'
// to the last '}' of the tail as a JSON candidate. This is a heuristic, not
// a parser: it tolerates prose before and after the object, but unbalanced
// braces in prose between the heading and the real object can mis-slice.
// That limitation is accepted.
func TrailingJSON(heading, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrBlockNotFound
	}

	pattern, err := regexp.Compile(`(?is)#+\s*` + regexp.QuoteMeta(heading) + `\s*(.+)$`)
	if err != nil {
		return "", fmt.Errorf("failed to compile heading pattern: %w", err)
	}

	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return "", ErrBlockNotFound
	}
	tail := strings.TrimSpace(match[1])

	start := strings.Index(tail, "{")
	end := strings.LastIndex(tail, "}")
	if start == -1 || end == -1 || end <= start {
		return "", ErrBlockNotFound
	}

	return tail[start : end+1], nil
}

// RiskReport extracts and parses the risk block following heading. The
// error distinguishes ErrBlockNotFound from parse failures so callers can
// silently omit a risk panel versus surface a diagnostic.
func RiskReport(heading, text string) (*domain.RiskReport, error) {
	block, err := TrailingJSON(heading, text)
	if err != nil {
		return nil, err
	}

	var report domain.RiskReport
	decoder := json.NewDecoder(strings.NewReader(block))
	if err := decoder.Decode(&report); err != nil {
		return nil, fmt.Errorf("risk block is not valid JSON: %w", err)
	}

	// Distinguish a missing key from an empty list: {"risk_flags": []} is a
	// valid "no risks" answer, an object without the key is malformed.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return nil, fmt.Errorf("risk block is not a JSON object: %w", err)
	}
	if _, ok := raw["risk_flags"]; !ok {
		return nil, fmt.Errorf("risk block parsed but missing %q key", "risk_flags")
	}

	if report.RiskFlags == nil {
		report.RiskFlags = []domain.RiskFlag{}
	}
	return &report, nil
}

// StripTail removes the heading and everything after it. Used to drop a
// machine-readable block from text shown to users. Returns the input
// trimmed when the heading is absent.
func StripTail(heading, text string) string {
	pattern, err := regexp.Compile(`(?is)#+\s*` + regexp.QuoteMeta(heading) + `[\s\S]*$`)
	if err != nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(pattern.ReplaceAllString(text, ""))
}

// StripCodeFences unwraps a ```json ... ``` (or bare ```) fenced payload.
// Returns the input unchanged when no fence is present.
func StripCodeFences(text string) string {
	if idx := strings.Index(text, "```json"); idx != -1 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(text, "```"); idx != -1 {
		rest := text[idx+3:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(text)
}
