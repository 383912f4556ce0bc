// Package events publishes notifications about finished generations.
// Delivery is fire-and-forget from the caller's point of view.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/basel-ax/imgworkshop/internal/domain"
)

// TypeImageGenerated is the event type for a finished generation
const TypeImageGenerated = "imgworkshop.image.generated"

// ImageGenerated describes a successful generation; the prompt itself is not included
type ImageGenerated struct {
	ID          string        `json:"id"`
	Branch      domain.Branch `json:"branch"`
	Size        domain.Size   `json:"size"`
	Bytes       int           `json:"bytes"`
	PromptChars int           `json:"prompt_chars"`
	At          time.Time     `json:"at"`
}

// NewImageGenerated fills in ID and timestamp
func NewImageGenerated(branch domain.Branch, size domain.Size, bytes, promptChars int) ImageGenerated {
	return ImageGenerated{
		ID:          uuid.NewString(),
		Branch:      branch,
		Size:        size,
		Bytes:       bytes,
		PromptChars: promptChars,
		At:          time.Now().UTC(),
	}
}

// Publisher delivers events to some sink
type Publisher interface {
	Publish(ctx context.Context, event ImageGenerated) error
	Close() error
}

// Noop discards events
type Noop struct{}

func (Noop) Publish(context.Context, ImageGenerated) error { return nil }
func (Noop) Close() error                                  { return nil }

// Multi fans out to every publisher and joins their errors
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event ImageGenerated) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
