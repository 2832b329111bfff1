package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driving"
)

// VetInput is the input schema for the vet_company tool.
type VetInput struct {
	CompanyName string `json:"company_name" jsonschema:"legal or trading name of the company to vet"`
	ProfileURL  string `json:"profile_url,omitempty" jsonschema:"company page URL on the professional network"`
	Domain      string `json:"domain,omitempty" jsonschema:"company website domain, e.g. example.com"`
	ABN         string `json:"abn,omitempty" jsonschema:"Australian Business Number (11 digits, spaces allowed)"`
	Report      bool   `json:"report,omitempty" jsonschema:"also write an LLM vetting report from the dossier"`
}

// VetOutput is the output schema for the vet_company tool.
type VetOutput struct {
	RunID   string         `json:"run_id"`
	Dossier string         `json:"dossier"`
	Summary domain.Summary `json:"summary"`
	Report  string         `json:"report,omitempty"`
	// ReportError explains why a requested report is missing.
	ReportError string `json:"report_error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "vet_company",
		Description: "Gather public and commercial information about a company from every configured " +
			"source and return a plain-text dossier with a per-source summary",
	}, s.handleVet)
}

// handleVet handles the vet_company tool invocation.
func (s *Server) handleVet(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input VetInput,
) (*mcp.CallToolResult, VetOutput, error) {
	req := domain.FetchRequest{
		CompanyName:    input.CompanyName,
		ProfileURL:     input.ProfileURL,
		Domain:         input.Domain,
		RegistryNumber: input.ABN,
	}

	res, err := s.ports.Vetting.Vet(ctx, req, driving.VetOptions{Report: input.Report})
	if err != nil {
		return nil, VetOutput{}, err
	}

	output := VetOutput{
		RunID:   res.Result.RunID,
		Dossier: res.Dossier,
		Summary: res.Summary,
		Report:  res.Report,
	}
	if res.ReportErr != nil {
		output.ReportError = res.ReportErr.Error()
	}
	return nil, output, nil
}
