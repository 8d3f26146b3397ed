package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInputMissing indicates a required artifact (chunks, index, or
	// mapping) is absent. Pipeline operations abort before doing any
	// work when they see this.
	ErrInputMissing = errors.New("required input artifact missing")

	// ErrIndexMismatch indicates the index and its row mapping disagree
	// on row count. The pair is unusable; rebuild the index.
	ErrIndexMismatch = errors.New("index and mapping row counts differ")

	// ErrRateLimited indicates a provider throttled the request.
	// Callers retry with bounded exponential backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderExhausted indicates a provider call kept failing after
	// all retries. Fatal for required calls; optional steps (question
	// generation) degrade instead.
	ErrProviderExhausted = errors.New("provider retries exhausted")

	// ErrEmbeddingUnavailable indicates no embedding service is
	// configured. Index building and enrichment are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
