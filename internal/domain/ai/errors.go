package ai

import "errors"

// Provider conditions raised by the chat-completion adapters.
var (
	// ErrRateLimited indicates the provider answered HTTP 429.
	ErrRateLimited = errors.New("ai rate limited")
	// ErrQuotaExhausted indicates the provider answered HTTP 402 (no credits left).
	ErrQuotaExhausted = errors.New("ai quota exhausted")
	// ErrUpstream covers every other failed call: non-2xx, transport error or timeout.
	ErrUpstream = errors.New("ai upstream failure")
	// ErrEmptyResponse indicates a 2xx answer without assistant content.
	ErrEmptyResponse = errors.New("ai empty response")
	// ErrSynthesisUnavailable means no entry of the fallback chain produced an image.
	ErrSynthesisUnavailable = errors.New("ai synthesis unavailable")
)
