// Package retention purges chart payloads from trades older than the retention window.
package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/pkg/metrics"
)

const (
	JobName         = "chart-retention"
	defaultInterval = 24 * time.Hour
	defaultWindow   = 7 * 24 * time.Hour
)

// ErrLocked means another sweep is in progress.
var ErrLocked = errors.New("retention sweep already running")

// Sweeper is the store operation the job drives.
type Sweeper interface {
	ClearExpiredCharts(ctx context.Context, cutoff time.Time) (int64, error)
}

type ServiceParams struct {
	Logger   *logrus.Logger
	Store    Sweeper
	Lock     Lock
	Metrics  *metrics.JobMetrics
	Interval time.Duration
	Window   time.Duration
	Now      func() time.Time
}

// Service runs the sweep on a fixed cadence and on demand.
type Service struct {
	logger   *logrus.Logger
	store    Sweeper
	lock     Lock
	metrics  *metrics.JobMetrics
	interval time.Duration
	window   time.Duration
	now      func() time.Time
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Logger == nil {
		return nil, errors.New("logger required")
	}
	if p.Store == nil {
		return nil, errors.New("store required")
	}
	lock := p.Lock
	if lock == nil {
		lock = &LocalLock{}
	}
	interval := p.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	window := p.Window
	if window <= 0 {
		window = defaultWindow
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logger:   p.Logger,
		store:    p.Store,
		lock:     lock,
		metrics:  p.Metrics,
		interval: interval,
		window:   window,
		now:      now,
	}, nil
}

// Run sweeps once immediately and then every interval until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.runScheduled(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retention service stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runScheduled(ctx)
		}
	}
}

func (s *Service) runScheduled(ctx context.Context) {
	_, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrLocked):
		s.logger.Info("another retention sweep is running; skipping this cycle")
	case err != nil:
		// next cycle catches up
		s.logger.WithError(err).Error("scheduled retention sweep failed")
	}
}

// Cutoff is the created_at bound for the given instant.
func (s *Service) Cutoff(at time.Time) time.Time {
	return at.UTC().Add(-s.window)
}

// RunOnce performs a single bulk sweep. There is no retry within a run.
func (s *Service) RunOnce(ctx context.Context) (int64, error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		return 0, ErrLocked
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logger.WithError(relErr).Warn("failed to release retention lock")
		}
	}()

	cutoff := s.Cutoff(s.now())
	start := time.Now()
	n, err := s.store.ClearExpiredCharts(ctx, cutoff)
	duration := time.Since(start)
	s.metrics.ObserveDuration(JobName, duration)
	entry := s.logger.WithFields(logrus.Fields{
		"job":         JobName,
		"cutoff":      cutoff.Format(time.RFC3339),
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		s.metrics.IncFailure(JobName)
		entry.WithError(err).Error("chart retention sweep failed")
		return 0, err
	}
	s.metrics.IncSuccess(JobName)
	s.metrics.AddAffected(JobName, n)
	entry.WithField("trades_cleared", n).Info("chart retention sweep complete")
	return n, nil
}
