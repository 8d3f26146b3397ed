// Package domain defines the core business entities for Examplan.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A span of textbook text with page/chapter provenance
//   - ExamCoverage: Learning objectives grouped by chapter for one exam
//   - EnrichedTopic: An objective grounded in retrieved textbook evidence
//   - StudyPlan: A day-by-day schedule of work items
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
