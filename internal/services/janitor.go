package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/queueflow/backend/internal/hub"
	"github.com/queueflow/backend/internal/infrastructure/journal"
)

// JanitorConfig controls the maintenance sweep.
type JanitorConfig struct {
	Interval         time.Duration
	JournalRetention time.Duration
}

// Janitor runs periodic housekeeping: it reaps silent hub subscribers and
// prunes the activity journal past its retention window. Neither sweep ever
// touches ticket state.
type Janitor struct {
	hub     *hub.Hub
	journal *journal.Store
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     JanitorConfig
}

func NewJanitor(h *hub.Hub, store *journal.Store, logger *zap.Logger, cfg JanitorConfig) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.JournalRetention <= 0 {
		cfg.JournalRetention = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &Janitor{
		hub:     h,
		journal: store,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = j.cron.AddFunc(schedule, j.sweep)

	return j
}

// Start launches the cron scheduler.
func (j *Janitor) Start() {
	if j == nil || j.cron == nil {
		return
	}
	j.cron.Start()
	j.logger.Info("janitor started")
}

// Stop gracefully stops the scheduler.
func (j *Janitor) Stop(ctx context.Context) {
	if j == nil || j.cron == nil {
		return
	}
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	j.logger.Info("janitor stopped")
}

func (j *Janitor) sweep() {
	if j.hub != nil {
		if reaped := j.hub.Reap(); reaped > 0 {
			j.logger.Info("reaped subscribers", zap.Int("count", reaped))
		}
	}
	if j.journal != nil {
		cutoff := time.Now().Add(-j.cfg.JournalRetention)
		if err := j.journal.Prune(cutoff); err != nil {
			j.logger.Warn("journal prune failed", zap.Error(err))
		}
	}
}
