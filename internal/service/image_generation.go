package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/basel-ax/imgworkshop/internal/config"
	"github.com/basel-ax/imgworkshop/internal/domain"
	"github.com/basel-ax/imgworkshop/internal/events"
	"github.com/basel-ax/imgworkshop/internal/normalizer"
	"github.com/basel-ax/imgworkshop/internal/repository"
)

const publishTimeout = 5 * time.Second

// Upload is a user-supplied source image
type Upload struct {
	Filename string
	Data     []byte
}

// GenerationInput carries the form values of one request
type GenerationInput struct {
	Prompt     string
	SizeChoice string
	// Upload takes precedence over UseLast
	Upload       *Upload
	UseLast      bool
	LastImageRef string
}

// GenerationResult is what a successful request produced
type GenerationResult struct {
	Data    []byte
	Size    domain.Size
	Branch  domain.Branch
	Ref     string
	Notices []string
}

// ImageGenerationService orchestrates one generate or edit call end to end
type ImageGenerationService struct {
	client    domain.ImageGenerationClient
	repo      repository.LastImageRepository
	publisher events.Publisher
	config    *config.Config
	logger    *zap.Logger
}

// NewImageGenerationService creates a new image generation service
func NewImageGenerationService(cfg *config.Config, client domain.ImageGenerationClient, repo repository.LastImageRepository, publisher events.Publisher, logger *zap.Logger) *ImageGenerationService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageGenerationService{
		client:    client,
		repo:      repo,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}
}

// Generate runs exactly one of the three branches: edit the upload, edit the
// last image, or generate from the prompt alone.
func (s *ImageGenerationService) Generate(ctx context.Context, in GenerationInput) (*GenerationResult, error) {
	result := &GenerationResult{}
	req := domain.ImageGenerationRequest{
		Model:  s.config.ImageModel,
		Prompt: in.Prompt,
	}

	var (
		resp *domain.ImageGenerationResponse
		err  error
	)

	switch {
	case in.Upload != nil:
		result.Branch = domain.BranchUploadEdit

		if notice := normalizer.LargeUploadNotice(int64(len(in.Upload.Data)), s.config.LargeUploadBytes); notice != "" {
			result.Notices = append(result.Notices, notice)
		}
		if err := normalizer.CheckFilename(in.Upload.Filename); err != nil {
			return nil, err
		}

		req.Image, req.Size = s.prepareSource(in.Upload.Data, in.SizeChoice, result)
		resp, err = s.client.Edit(ctx, req)

	case in.UseLast:
		result.Branch = domain.BranchLastEdit

		data, loadErr := s.repo.Load(ctx, in.LastImageRef)
		if loadErr != nil {
			return nil, loadErr
		}

		req.Image, req.Size = s.prepareSource(data, in.SizeChoice, result)
		resp, err = s.client.Edit(ctx, req)

	default:
		result.Branch = domain.BranchGenerate
		req.Size = domain.ResolveSize(in.SizeChoice, 0, false)
		resp, err = s.client.Generate(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s image: %w", verb(result.Branch), err)
	}

	s.logger.Info("image API call finished",
		zap.String("branch", string(result.Branch)),
		zap.String("size", string(req.Size)),
	)

	data, err := s.imageBytes(ctx, resp)
	if err != nil {
		return nil, err
	}

	ref, err := s.repo.Save(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	result.Data = data
	result.Size = req.Size
	result.Ref = ref

	s.publish(ctx, events.NewImageGenerated(result.Branch, result.Size, len(data), utf8.RuneCountInString(in.Prompt)))

	return result, nil
}

// Download reads the last image for the download action
func (s *ImageGenerationService) Download(ctx context.Context, ref string) ([]byte, error) {
	return s.repo.Load(ctx, ref)
}

// prepareSource normalizes a source image and resolves the output size from it
func (s *ImageGenerationService) prepareSource(data []byte, choice string, result *GenerationResult) ([]byte, domain.Size) {
	norm := normalizer.Normalize(data)
	if !norm.Normalized() {
		s.logger.Warn("source image not normalized, forwarding original bytes",
			zap.String("status", norm.Status.String()),
			zap.Error(norm.Err),
		)
		result.Notices = append(result.Notices, "Note: the source image could not be converted to PNG and was sent unchanged.")
	}
	return norm.Data, domain.ResolveSize(choice, norm.Ratio, true)
}

// imageBytes decodes inline data or fetches the published URL
func (s *ImageGenerationService) imageBytes(ctx context.Context, resp *domain.ImageGenerationResponse) ([]byte, error) {
	switch {
	case resp == nil:
		return nil, domain.ErrNoImageData
	case resp.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(resp.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data: %w", err)
		}
		return data, nil
	case resp.URL != "":
		data, err := s.client.Fetch(ctx, resp.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image: %w", err)
		}
		return data, nil
	default:
		return nil, domain.ErrNoImageData
	}
}

func (s *ImageGenerationService) publish(ctx context.Context, event events.ImageGenerated) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("event_id", event.ID), zap.Error(err))
	}
}

func verb(b domain.Branch) string {
	if b == domain.BranchGenerate {
		return "generate"
	}
	return "edit"
}
