package service

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"blockeditor/internal/logger"
)

// HistoryPruner trims undo history down to its configured size.
type HistoryPruner interface {
	PruneAll() (int, error)
}

// Maintenance runs periodic housekeeping on a cron schedule.
type Maintenance struct {
	pruner HistoryPruner
	log    logger.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

func NewMaintenance(pruner HistoryPruner, log logger.Logger) *Maintenance {
	return &Maintenance{pruner: pruner, log: log}
}

// Start schedules history pruning with a cron expression such as "@hourly"
// or "*/15 * * * *". A running schedule is replaced.
func (m *Maintenance) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, m.PruneNow); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cron != nil {
		m.cron.Stop()
	}
	m.cron = c
	c.Start()
	m.log.Info("history pruning scheduled", logger.String("schedule", schedule))
	return nil
}

// PruneNow runs one pruning pass.
func (m *Maintenance) PruneNow() {
	n, err := m.pruner.PruneAll()
	if err != nil {
		m.log.Error("history prune failed", logger.Error(err))
		return
	}
	if n > 0 {
		m.log.Info("history pruned", logger.Int("removed", n))
	}
}

// Stop cancels the schedule and waits for a running pass to finish.
func (m *Maintenance) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
