package domain

import "fmt"

// RiskSeverity levels used in the generated risk block.
const (
	SeverityLow      = "low"
	SeverityModerate = "moderate"
	SeverityHigh     = "high"
)

// RiskEvidence ties a risk flag back to a span of the source text.
type RiskEvidence struct {
	SourceID string `json:"source_id"`
	Quote    string `json:"quote"`
}

// RiskFlag is one entry of the risk block the generation chain is asked to emit.
type RiskFlag struct {
	Category        string         `json:"category"`
	Name            string         `json:"name"`
	Severity        string         `json:"severity"`
	Evidence        []RiskEvidence `json:"evidence"`
	Rationale       string         `json:"rationale"`
	SuggestedAction string         `json:"suggested_action"`
}

// RiskReport is the structured block recovered from generation output.
// An empty RiskFlags list is valid and means no risks supported by the source.
type RiskReport struct {
	RiskFlags []RiskFlag `json:"risk_flags"`
}

// ValidateRiskReport checks structural requirements of a parsed risk block.
func ValidateRiskReport(r *RiskReport) error {
	if r == nil {
		return fmt.Errorf("risk report cannot be nil")
	}
	for i, flag := range r.RiskFlags {
		if flag.Name == "" {
			return fmt.Errorf("risk flag %d: name is required", i)
		}
		switch flag.Severity {
		case SeverityLow, SeverityModerate, SeverityHigh:
		default:
			return fmt.Errorf("risk flag %d: invalid severity %q", i, flag.Severity)
		}
	}
	return nil
}
