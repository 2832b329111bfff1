package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptVettingSystem is the system prompt for vetting report generation.
	// This prompt has no format placeholders.
	PromptVettingSystem = "vetting_system"

	// PromptVettingReport asks for a vetting report.
	// The template expects two %s placeholders: supporting documents, then the dossier.
	PromptVettingReport = "vetting_report"

	// PromptRiskReportClean tidies text scraped from the credit risk portal.
	// The template expects one %s placeholder for the raw page text.
	PromptRiskReportClean = "risk_report_clean"
)
