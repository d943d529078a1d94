// Package retry wraps an embedding service with bounded retries and
// client-side rate limiting.
//
// Only failures wrapping domain.ErrEmbeddingUnavailable are retried.
// Malformed responses and caller cancellation are returned at once.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
	"github.com/custodia-labs/kbase/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default retry and pacing values.
const (
	DefaultBaseDelay         = 200 * time.Millisecond
	DefaultMaxDelay          = 5 * time.Second
	DefaultRequestsPerSecond = 20.0
	DefaultBurstSize         = 5
)

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the total number of tries, including the first (default: 3).
	MaxAttempts int

	// BaseDelay is the wait before the second attempt; it doubles each retry.
	BaseDelay time.Duration

	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration

	// RequestsPerSecond is the sustained request rate. Zero or negative disables pacing.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size.
	BurstSize int
}

// EmbeddingService decorates another EmbeddingService.
type EmbeddingService struct {
	next    driven.EmbeddingService
	cfg     Config
	limiter *rate.Limiter
	log     *logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// New wraps next. A nil log uses the default logger.
func New(next driven.EmbeddingService, cfg Config, log *logger.Logger) *EmbeddingService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = domain.DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultBurstSize
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &EmbeddingService{
		next:    next,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.BurstSize),
		log:     logger.OrDefault(log),
		sleep:   sleepContext,
	}
}

// Embed calls the wrapped service, retrying unavailable-service failures
// with exponential backoff. The last error is returned when attempts run out.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}

		vector, err := s.next.Embed(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err

		if !errors.Is(err, domain.ErrEmbeddingUnavailable) || ctx.Err() != nil {
			return nil, err
		}
		if attempt == s.cfg.MaxAttempts {
			break
		}

		delay := s.backoff(attempt)
		s.log.Debug("Embedding attempt %d/%d failed: %v (retrying in %s)", attempt, s.cfg.MaxAttempts, err, delay)
		if err := s.sleep(ctx, delay); err != nil {
			return nil, lastErr
		}
	}

	s.log.Warn("Embedding failed after %d attempts: %v", s.cfg.MaxAttempts, lastErr)
	return nil, lastErr
}

// backoff returns BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (s *EmbeddingService) backoff(attempt int) time.Duration {
	delay := s.cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= s.cfg.MaxDelay {
			return s.cfg.MaxDelay
		}
	}
	return delay
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

// Ping is not retried.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error {
	return s.next.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
