// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/neoyipeng2018/central-bank-tracker/internal/config"
	"github.com/neoyipeng2018/central-bank-tracker/internal/reliability"
	"github.com/neoyipeng2018/central-bank-tracker/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the background jobs and registers them with the
// scheduler. The scheduler is not started here.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	container.Scheduler = scheduler.New(log)
	instances := &JobInstances{
		RescoreStances: scheduler.NewRescoreStancesJob(container.TrackerService, log),
		PruneSnippets: scheduler.NewPruneSnippetsJob(
			container.SnippetRepo,
			cfg.RetentionDays,
			container.Clock,
			container.Metrics,
			log,
			container.SnippetsDB,
			container.HistoryDB,
		),
		Backup: reliability.NewBackupJob(container.BackupService, cfg.BackupRetentionDays, log),
		Maintenance: reliability.NewMaintenanceJob(
			cfg.DataDir,
			log,
			container.SnippetsDB,
			container.HistoryDB,
		),
	}

	if err := container.Scheduler.AddJob(cfg.RescoreSchedule, instances.RescoreStances); err != nil {
		return nil, fmt.Errorf("failed to register rescore job: %w", err)
	}
	if err := container.Scheduler.AddJob(cfg.PruneSchedule, instances.PruneSnippets); err != nil {
		return nil, fmt.Errorf("failed to register prune job: %w", err)
	}
	if err := container.Scheduler.AddJob(cfg.BackupSchedule, instances.Backup); err != nil {
		return nil, fmt.Errorf("failed to register backup job: %w", err)
	}
	if err := container.Scheduler.AddJob(cfg.MaintenanceSchedule, instances.Maintenance); err != nil {
		return nil, fmt.Errorf("failed to register maintenance job: %w", err)
	}

	return instances, nil
}
