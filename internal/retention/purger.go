package retention

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/basel-ax/imgworkshop/internal/domain"
	"github.com/basel-ax/imgworkshop/internal/repository"
)

// Purger empties the last image slot once it is older than MaxAge
type Purger struct {
	repo   repository.LastImageRepository
	maxAge time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewPurger creates a purger; a zero maxAge disables PurgeStale
func NewPurger(repo repository.LastImageRepository, maxAge time.Duration, logger *zap.Logger) *Purger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Purger{
		repo:   repo,
		maxAge: maxAge,
		logger: logger,
		now:    time.Now,
	}
}

// PurgeStale deletes the slot when it was written more than maxAge ago.
// It reports whether anything was deleted.
func (p *Purger) PurgeStale(ctx context.Context) (bool, error) {
	if p.maxAge <= 0 {
		return false, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	updatedAt, err := p.repo.UpdatedAt(ctx)
	if errors.Is(err, domain.ErrNoLastImage) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read last image age: %w", err)
	}

	if p.now().Sub(updatedAt) <= p.maxAge {
		return false, nil
	}

	if err := p.repo.Delete(ctx); err != nil {
		return false, fmt.Errorf("failed to delete last image: %w", err)
	}
	p.logger.Info("purged stale last image", zap.Time("updated_at", updatedAt))
	return true, nil
}

// Purge deletes the slot unconditionally
func (p *Purger) Purge(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.repo.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete last image: %w", err)
	}
	return nil
}

// Start runs PurgeStale on schedule until ctx is cancelled
func (p *Purger) Start(ctx context.Context, schedule string) error {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		if _, err := p.PurgeStale(ctx); err != nil {
			p.logger.Warn("scheduled purge failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}

	c.Start()
	p.logger.Info("purge scheduler started", zap.String("schedule", schedule), zap.Duration("max_age", p.maxAge))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		p.logger.Info("purge scheduler stopped")
	}()

	return nil
}
