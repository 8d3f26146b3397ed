package domain

// ProgressEvent is a structured progress notification emitted by
// long-running core operations. The core never prints; callers decide
// how (or whether) to render events.
type ProgressEvent struct {
	// Stage names the pipeline stage, e.g. "embed", "enrich", "pack".
	Stage string

	// Message is a human-readable description of the step.
	Message string

	// Current and Total describe step progress when known; both zero
	// otherwise.
	Current int
	Total   int
}

// ProgressFunc consumes progress events. Implementations must be cheap;
// they are invoked inline from the pipeline.
type ProgressFunc func(ProgressEvent)

// NopProgress discards all events. Services use it when no callback is
// configured, so emit sites never need nil checks.
func NopProgress(ProgressEvent) {}
