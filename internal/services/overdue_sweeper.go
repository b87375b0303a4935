package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/library/domain"
	"github.com/fastygo/library/pkg/logger"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// Sweeper moves past-due loans to overdue.
type Sweeper interface {
	SweepOverdue(ctx context.Context, actor domain.Actor) (int, error)
}

// SweeperConfig controls when the overdue sweep runs.
type SweeperConfig struct {
	// Schedule is a standard five-field cron spec or a descriptor such as
	// "@every 1h".
	Schedule string
	Timeout  time.Duration
}

// OverdueSweeper runs the ledger's overdue sweep on a cron schedule.
type OverdueSweeper struct {
	ledger  Sweeper
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     SweeperConfig
}

func NewOverdueSweeper(ledger Sweeper, monitor ConnectionHealth, logger *zap.Logger, cfg SweeperConfig) (*OverdueSweeper, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1h"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &OverdueSweeper{
		ledger:  ledger,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, s.tick); err != nil {
		return nil, fmt.Errorf("invalid overdue sweep schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

func (s *OverdueSweeper) tick() {
	ctx, cancel := context.WithTimeout(logger.ContextWithRequestID(context.Background(), "overdue-sweep"), s.cfg.Timeout)
	defer cancel()
	if _, err := s.Run(ctx); err != nil {
		s.logger.Error("overdue sweep failed", zap.Error(err))
	}
}

// Start launches the cron scheduler.
func (s *OverdueSweeper) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("overdue sweeper started", zap.String("schedule", s.cfg.Schedule))
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *OverdueSweeper) Stop(ctx context.Context) error {
	if s == nil || s.cron == nil {
		return nil
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	s.logger.Info("overdue sweeper stopped")
	return nil
}

// Run performs one sweep synchronously. It is skipped while the store is
// unreachable.
func (s *OverdueSweeper) Run(ctx context.Context) (int, error) {
	if s.monitor != nil && !s.monitor.IsOnline() {
		s.logger.Debug("skipping overdue sweep (offline)")
		return 0, nil
	}
	swept, err := s.ledger.SweepOverdue(ctx, domain.SystemActor)
	if err != nil {
		return swept, err
	}
	if swept > 0 {
		s.logger.Info("loans marked overdue", zap.Int("count", swept))
	}
	return swept, nil
}
