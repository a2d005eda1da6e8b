package services

import (
	"time"

	"vr-eyetracking/internal/config"

	"go.uber.org/zap"
)

const defaultIdleTimeout = time.Hour

type Scheduler struct {
	log      *zap.Logger
	registry *WorkspaceRegistry
	stop     chan struct{}
}

func NewScheduler(log *zap.Logger, registry *WorkspaceRegistry) *Scheduler {
	return &Scheduler{
		log:      log,
		registry: registry,
		stop:     make(chan struct{}),
	}
}

// Start runs the scheduler in a goroutine.
func (s *Scheduler) Start() {
	s.log.Info("Starting workspace reaper...")
	go func() {
		// Ticker will fire on every minute.
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runIdleCheck()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop ends the background loop.
func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) idleTimeout() time.Duration {
	if c := config.Get(); c != nil && c.Workspace.IdleTimeout() > 0 {
		return c.Workspace.IdleTimeout()
	}
	return defaultIdleTimeout
}

func (s *Scheduler) runIdleCheck() {
	timeout := s.idleTimeout()
	s.log.Debug("Running idle workspace check", zap.Duration("idle_timeout", timeout))

	if n := s.registry.EvictIdle(timeout); n > 0 {
		s.log.Info("Evicted idle workspaces", zap.Int("count", n), zap.Int("remaining", s.registry.Len()))
	}
}
