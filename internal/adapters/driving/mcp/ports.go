package mcp

import (
	"github.com/custodia-labs/vetta/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Vetting runs the gathering pipeline.
	Vetting driving.VettingService

	// History reads past run summaries. Optional.
	History driving.HistoryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Vetting == nil {
		return ErrMissingVettingService
	}
	return nil
}
