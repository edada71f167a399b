package service

import (
	"regexp"
	"strings"
)

// Medical report text pasted from PDFs tends to arrive with glued tokens
// ("Hb9.1g/dL", "WBC<4.0") and odd unicode spaces. These rewrites restore
// token boundaries so chunking, retrieval, and keyword checks see the same
// text a human reads.
var (
	letterThenDigit   = regexp.MustCompile(`([A-Za-z])(\d)`)
	digitThenUnit     = regexp.MustCompile(`(\d)([A-Za-zµ%/])`)
	tokenThenOperator = regexp.MustCompile(`([A-Za-z0-9%/µ])([<>≤≥])`)
	operatorThenDigit = regexp.MustCompile(`([<>≤≥])([0-9])`)
	spacedOperator    = regexp.MustCompile(`\s*([<>≤≥])\s*`)
	horizontalSpaces  = regexp.MustCompile(`[ \t\f\v]+`)
)

// NormalizeReportText prepares raw report text for the pipeline. Newlines
// are preserved; only horizontal whitespace is collapsed.
func NormalizeReportText(text string) string {
	if text == "" {
		return text
	}
	normalized := strings.NewReplacer(" ", " ", " ", " ").Replace(text)
	normalized = letterThenDigit.ReplaceAllString(normalized, "$1 $2")
	normalized = digitThenUnit.ReplaceAllString(normalized, "$1 $2")
	normalized = tokenThenOperator.ReplaceAllString(normalized, "$1 $2")
	normalized = operatorThenDigit.ReplaceAllString(normalized, "$1 $2")
	normalized = spacedOperator.ReplaceAllString(normalized, " $1 ")
	normalized = horizontalSpaces.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}
