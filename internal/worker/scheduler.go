package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"vansales-service/internal/service"
	"vansales-service/internal/util"
)

const resyncTimeout = 5 * time.Minute

// Resyncer refreshes the pinned catalog
type Resyncer interface {
	Resync(ctx context.Context) (*service.ResyncResult, error)
}

// ResyncScheduler runs catalog resync on a cron schedule
type ResyncScheduler struct {
	resyncer Resyncer
	schedule string
	logger   *zap.Logger
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
}

// NewResyncScheduler creates a scheduler. An empty schedule disables it.
func NewResyncScheduler(resyncer Resyncer, schedule string) *ResyncScheduler {
	return &ResyncScheduler{
		resyncer: resyncer,
		schedule: strings.TrimSpace(schedule),
		logger:   util.Component("resync-scheduler"),
	}
}

// Start starts the scheduler
func (s *ResyncScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.schedule == "" {
		s.logger.Info("Scheduled catalog resync is disabled")
		return nil
	}

	s.cron = cron.New(cron.WithSeconds())

	schedule := s.schedule
	if len(strings.Fields(schedule)) == 5 {
		schedule = "0 " + schedule
	}

	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		s.logger.Error("Failed to schedule catalog resync", zap.String("schedule", s.schedule), zap.Error(err))
		return err
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("Catalog resync scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running job
func (s *ResyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.cron == nil {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info("Catalog resync scheduler stopped")
}

// RunOnce performs a single resync
func (s *ResyncScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.resyncer.Resync(ctx)
	switch {
	case errors.Is(err, service.ErrResyncInProgress):
		s.logger.Info("Skipping scheduled resync, another resync is running")
	case errors.Is(err, service.ErrGatewayNotConfigured):
		s.logger.Warn("Skipping scheduled resync, BigCommerce is not configured")
	case err != nil:
		s.logger.Error("Scheduled catalog resync failed", zap.Error(err))
	default:
		s.logger.Info("Scheduled catalog resync completed",
			zap.Int("updated", result.Updated),
			zap.Int("errors", result.Errors),
			zap.Duration("duration", time.Since(start)))
	}
}
