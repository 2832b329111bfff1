package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

// ruleWidth is the width of the rule under the company header.
const ruleWidth = 60

// Format renders a result as one plain-text dossier.
//
// Sections follow the result's declaration order, never completion order,
// so identical outcomes always produce identical text. Every section has a
// body: payload JSON, a verbatim narrative, or a bracketed marker.
func Format(r *domain.PipelineResult) string {
	parts := []string{
		"COMPANY: " + r.Request.CompanyName,
		strings.Repeat("=", ruleWidth),
	}
	for _, k := range r.Keys {
		parts = append(parts, "\n"+SectionHeader(k), formatBody(r.Outcomes[k]))
	}
	return strings.Join(parts, "\n")
}

// SectionHeader returns the header line for a source section.
func SectionHeader(k domain.SourceKey) string {
	return fmt.Sprintf("=== %s ===", k.Title())
}

func formatBody(o domain.Outcome) string {
	switch o.State {
	case domain.OutcomeSuccess:
		if n, ok := o.Payload.(domain.Narrative); ok {
			return string(n)
		}
		body, err := MarshalPayload(o.Payload)
		if err != nil {
			return unavailable("payload could not be serialised: " + err.Error())
		}
		return body
	case domain.OutcomeSkipped:
		return fmt.Sprintf("[Skipped: %s]", o.Message)
	case domain.OutcomeError:
		return unavailable(o.Message)
	default:
		return unavailable("source did not complete")
	}
}

func unavailable(msg string) string {
	return fmt.Sprintf("[Data unavailable: %s]", msg)
}

// MarshalPayload serialises a payload as indented JSON.
// Map keys are sorted and HTML characters are left unescaped.
func MarshalPayload(payload any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
