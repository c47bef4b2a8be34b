package ai

import "context"

// VisionRequest is everything the analysis call needs.
type VisionRequest struct {
	SystemPrompt string
	UserPrompt   string
	ImageURL     string
	ReferenceURL string
}

// VisionAnalyzer returns the raw assistant text for a photo.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, req VisionRequest) (string, error)
}

// SynthesisRequest describes one "furnish this photo" edit.
type SynthesisRequest struct {
	Instruction  string
	ImageURL     string
	ReferenceURL string
}

// ImageSynthesizer returns an image reference (data-URL or http(s) URL).
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (string, error)
}
