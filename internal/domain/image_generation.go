package domain

import (
	"context"
)

// ImageGenerationRequest represents the parameters for a generate or edit call
type ImageGenerationRequest struct {
	Model  string
	Prompt string
	Size   Size
	// Image is the normalized source image; empty for plain generation
	Image []byte
}

// ImageGenerationResponse represents the first item returned by the images API
type ImageGenerationResponse struct {
	B64JSON string
	URL     string
}

// ImageGenerationClient defines the interface for the external images API
type ImageGenerationClient interface {
	// Generate creates an image from a prompt alone
	Generate(ctx context.Context, req ImageGenerationRequest) (*ImageGenerationResponse, error)

	// Edit modifies an existing image given a prompt
	Edit(ctx context.Context, req ImageGenerationRequest) (*ImageGenerationResponse, error)

	// Fetch downloads a result published by URL
	Fetch(ctx context.Context, url string) ([]byte, error)
}
