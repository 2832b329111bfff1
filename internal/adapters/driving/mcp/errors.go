// Package mcp provides an MCP (Model Context Protocol) server adapter for vetta.
// It lets AI assistants run vetting requests and read past run summaries.
package mcp

import "errors"

// ErrMissingVettingService is returned when the vetting service is not provided.
var ErrMissingVettingService = errors.New("mcp: vetting service is required")
