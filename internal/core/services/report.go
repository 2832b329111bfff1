package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
	"github.com/custodia-labs/vetta/internal/core/ports/driving"
	"github.com/custodia-labs/vetta/internal/logger"
)

// Report generation tuning.
const (
	reportTemperature = 0.3
	reportMaxTokens   = 2000
	bannerWidth       = 80
)

// defaultVettingSystemPrompt is the fallback when no PromptStore is configured.
const defaultVettingSystemPrompt = `You are an expert business analyst specialising in client vetting and risk assessment for businesses in Australia.`

// defaultVettingReportPrompt is the fallback when no PromptStore is configured.
const defaultVettingReportPrompt = `Assess the trustworthiness of the company described below.

Supporting documents supplied by the client:
%s

Research gathered from public sources:
%s

Write a structured report with an overall risk rating, key findings, red flags and recommended next steps.
Where a source is marked unavailable or skipped, say so rather than guessing.`

// ReportGenerator writes a narrative vetting report from a dossier using an LLM.
type ReportGenerator struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewReportGenerator creates a report generator.
// A nil llm yields a generator that always returns domain.ErrReportUnavailable.
// A nil prompts store falls back to built-in prompts.
func NewReportGenerator(llm driven.LLMService, prompts driven.PromptStore) *ReportGenerator {
	return &ReportGenerator{llm: llm, prompts: prompts}
}

// Available reports whether an LLM is configured.
func (g *ReportGenerator) Available() bool {
	return g != nil && g.llm != nil
}

// Generate asks the LLM for a vetting report on dossier, with docs as
// supporting material.
func (g *ReportGenerator) Generate(ctx context.Context, dossier string, docs []driving.Document) (string, error) {
	if !g.Available() {
		return "", errors.WithHint(domain.ErrReportUnavailable, "set llm.provider and an API key with 'vetta config set'")
	}

	system := g.load(driven.PromptVettingSystem, defaultVettingSystemPrompt)
	tmpl := g.load(driven.PromptVettingReport, defaultVettingReportPrompt)

	documents := CombineDocuments(docs)
	if documents == "" {
		documents = "(none provided)"
	}

	logger.Debug("Generating report with %s (%d documents, %d chars of research)", g.llm.ModelName(), len(docs), len(dossier))
	report, err := g.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf(tmpl, documents, dossier)},
	}, driven.ChatOptions{MaxTokens: reportMaxTokens, Temperature: reportTemperature})
	if err != nil {
		return "", errors.Wrap(err, "generate report")
	}
	return strings.TrimSpace(report), nil
}

func (g *ReportGenerator) load(name, fallback string) string {
	if g.prompts == nil {
		return fallback
	}
	prompt, err := g.prompts.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		logger.Debug("Using built-in %s prompt: %v", name, err)
		return fallback
	}
	return prompt
}

// CombineDocuments joins supporting documents, each under a numbered banner.
func CombineDocuments(docs []driving.Document) string {
	var b strings.Builder
	rule := strings.Repeat("=", bannerWidth)
	for i, doc := range docs {
		fmt.Fprintf(&b, "\n\n%s\nDOCUMENT %d: %s\n%s\n\n", rule, i+1, doc.Name, rule)
		b.WriteString(doc.Content)
	}
	return b.String()
}
