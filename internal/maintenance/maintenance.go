// Package maintenance runs the periodic janitor jobs: sweeping expired
// cache entries (pending confirmations included) and pruning old turn
// history.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Malikxolo/Customer-Support-agent/internal/cache"
	"github.com/Malikxolo/Customer-Support-agent/internal/history"
)

// Scheduler owns the cron runner for the janitor jobs.
type Scheduler struct {
	cron          *cron.Cron
	store         *cache.Store
	historyStore  *history.Store
	retentionDays int
	logger        zerolog.Logger
}

// New builds a scheduler. historyStore may be nil when turn logging is
// disabled.
func New(store *cache.Store, historyStore *history.Store, retentionDays int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		store:         store,
		historyStore:  historyStore,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// Start registers the jobs and launches the runner. Sweeps run every ten
// minutes, history pruning hourly.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("*/10 * * * *", s.sweep); err != nil {
		return err
	}
	if s.historyStore != nil && s.retentionDays > 0 {
		if _, err := s.cron.AddFunc("0 * * * *", s.pruneHistory); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.logger.Info().Str("event", "maintenance_started").Int("retention_days", s.retentionDays).Msg("janitor jobs scheduled")
	return nil
}

// Stop halts the runner and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweep() {
	dropped := s.store.Sweep()
	s.logger.Debug().
		Str("event", "cache_swept").
		Int("entries_dropped", dropped).
		Msg("sweep complete")
}

func (s *Scheduler) pruneHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	pruned, err := s.historyStore.Prune(ctx, cutoff)
	if err != nil {
		s.logger.Warn().Str("event", "history_prune_failed").Err(err).Msg("history prune failed")
		return
	}
	s.logger.Info().Str("event", "history_pruned").Int64("turns_pruned", pruned).Msg("history prune complete")
}
