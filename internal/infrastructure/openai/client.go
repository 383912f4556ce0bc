package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/basel-ax/imgworkshop/internal/domain"
)

const (
	// DefaultBaseURL is the public OpenAI API
	DefaultBaseURL = "https://api.openai.com"

	generationsPath = "/v1/images/generations"
	editsPath       = "/v1/images/edits"
)

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("image API returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("image API returned status %d", e.StatusCode)
}

// Options configures a Client
type Options struct {
	BaseURL           string
	APIKey            string
	GenerationTimeout time.Duration
	FetchTimeout      time.Duration
	HTTPClient        *http.Client
}

// Client represents the OpenAI images API client
type Client struct {
	httpClient        *http.Client
	baseURL           string
	apiKey            string
	generationTimeout time.Duration
	fetchTimeout      time.Duration
}

// NewClient creates a new images API client
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 120 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 60 * time.Second
	}

	return &Client{
		httpClient:        httpClient,
		baseURL:           baseURL,
		apiKey:            opts.APIKey,
		generationTimeout: opts.GenerationTimeout,
		fetchTimeout:      opts.FetchTimeout,
	}
}

// Generate implements the generate-from-prompt request
func (c *Client) Generate(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageGenerationResponse, error) {
	body, err := json.Marshal(map[string]string{
		"model":  req.Model,
		"prompt": req.Prompt,
		"size":   string(req.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.generationTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generationsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.doImages(httpReq)
}

// Edit implements the edit-from-image request
func (c *Client) Edit(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageGenerationResponse, error) {
	// Create multipart form
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="image.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, fmt.Errorf("failed to write image part: %w", err)
	}

	fields := []struct{ name, value string }{
		{"model", req.Model},
		{"prompt", req.Prompt},
		{"size", string(req.Size)},
	}
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.generationTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+editsPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	return c.doImages(httpReq)
}

// Fetch downloads an image published by URL
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, apiError(resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

func (c *Client) doImages(httpReq *http.Request) (*domain.ImageGenerationResponse, error) {
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, body)
	}

	var result struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
			URL     string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Data) == 0 {
		return nil, domain.ErrNoImageData
	}

	return &domain.ImageGenerationResponse{
		B64JSON: result.Data[0].B64JSON,
		URL:     result.Data[0].URL,
	}, nil
}

// apiError pulls a message out of the usual error envelopes
func apiError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var envelope map[string]any
	if json.Unmarshal(body, &envelope) != nil {
		return apiErr
	}
	switch e := envelope["error"].(type) {
	case string:
		apiErr.Message = e
	case map[string]any:
		if msg, ok := e["message"].(string); ok {
			apiErr.Message = msg
		}
	}
	return apiErr
}
