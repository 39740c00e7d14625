package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/neoyipeng2018/central-bank-tracker/internal/database"
	"github.com/neoyipeng2018/central-bank-tracker/internal/metrics"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/history"
	"github.com/rs/zerolog"
)

// StanceRunner runs a full committee scoring pass.
type StanceRunner interface {
	RunAll(ctx context.Context) (history.Run, error)
}

// RescoreStancesJob rescores every participant from stored snippets.
type RescoreStancesJob struct {
	runner StanceRunner
	log    zerolog.Logger
}

// NewRescoreStancesJob creates a new RescoreStancesJob
func NewRescoreStancesJob(runner StanceRunner, log zerolog.Logger) *RescoreStancesJob {
	return &RescoreStancesJob{
		runner: runner,
		log:    log.With().Str("job", "rescore_stances").Logger(),
	}
}

// Name returns the job name
func (j *RescoreStancesJob) Name() string {
	return "rescore_stances"
}

// Run executes the rescore job
func (j *RescoreStancesJob) Run() error {
	run, err := j.runner.RunAll(context.Background())
	if err != nil {
		return fmt.Errorf("rescore run %s: %w", run.ID, err)
	}
	j.log.Info().
		Str("run_id", run.ID).
		Int("participants", run.Participants).
		Int("failed", run.Failed).
		Msg("Stances rescored")
	return nil
}

// SnippetPruner deletes snippets older than a cutoff.
type SnippetPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneSnippetsJob enforces snippet retention and checkpoints the WAL of
// the affected databases.
type PruneSnippetsJob struct {
	pruner        SnippetPruner
	databases     []*database.DB
	retentionDays int
	clock         clockwork.Clock
	metrics       *metrics.Metrics
	log           zerolog.Logger
}

// NewPruneSnippetsJob creates a new PruneSnippetsJob. databases are
// checkpointed after pruning; nil entries are skipped.
func NewPruneSnippetsJob(
	pruner SnippetPruner,
	retentionDays int,
	clock clockwork.Clock,
	m *metrics.Metrics,
	log zerolog.Logger,
	databases ...*database.DB,
) *PruneSnippetsJob {
	return &PruneSnippetsJob{
		pruner:        pruner,
		databases:     databases,
		retentionDays: retentionDays,
		clock:         clock,
		metrics:       m,
		log:           log.With().Str("job", "prune_snippets").Logger(),
	}
}

// Name returns the job name
func (j *PruneSnippetsJob) Name() string {
	return "prune_snippets"
}

// Run executes the prune job
func (j *PruneSnippetsJob) Run() error {
	if j.retentionDays <= 0 {
		return nil
	}
	cutoff := j.clock.Now().AddDate(0, 0, -j.retentionDays)

	n, err := j.pruner.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		return err
	}
	j.metrics.ObservePrune(n)

	checkpointed := 0
	for _, db := range j.databases {
		if db == nil {
			continue
		}
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to checkpoint WAL")
			continue
		}
		checkpointed++
	}

	j.log.Info().
		Int64("deleted", n).
		Time("cutoff", cutoff).
		Int("checkpointed", checkpointed).
		Msg("Snippet retention applied")
	return nil
}
