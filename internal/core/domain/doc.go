// Package domain defines the core business entities for Vetta.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FetchRequest: The immutable input of one vetting run
//   - SourceKey: The fixed identifier of a configured data source
//   - Outcome: The settled state of one source (success, error, skipped)
//   - PipelineResult: Every configured source's outcome for one run
//   - Summary: Success/total counts derived from a PipelineResult
//   - RunRecord: The persisted summary of a completed run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
