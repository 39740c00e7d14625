/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived dependency of the tracker and is
 * handed to the server, which builds the HTTP handlers from it.
 */
package di

import (
	"github.com/jonboulle/clockwork"
	"github.com/neoyipeng2018/central-bank-tracker/internal/database"
	"github.com/neoyipeng2018/central-bank-tracker/internal/metrics"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/calendar"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/history"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/signal"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/snippets"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/stream"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/tracker"
	"github.com/neoyipeng2018/central-bank-tracker/internal/reliability"
	"github.com/neoyipeng2018/central-bank-tracker/internal/scheduler"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	SnippetsDB *database.DB // snippets.db - ingested text, refillable
	HistoryDB  *database.DB // history.db - dated stance history and run summaries

	// Repositories
	SnippetRepo *snippets.Repository
	HistoryRepo *history.Repository

	// Domain
	Roster   *participants.Roster
	Calendar *calendar.Calendar
	Scale    stance.Scale
	Pipeline *stance.Pipeline
	Scorer   *stance.ChainScorer // Pipeline scorer; backends toggled at runtime

	// Services
	SignalService  *signal.Service
	TrackerService *tracker.Service
	BackupService  *reliability.BackupService
	StreamHub      *stream.Hub

	// Infrastructure
	Clock           clockwork.Clock
	Registry        *prometheus.Registry
	Metrics         *metrics.Metrics
	ClassifyLimiter *rate.Limiter
	Scheduler       *scheduler.Scheduler
}

// JobInstances holds the registered background jobs for manual triggering
type JobInstances struct {
	RescoreStances *scheduler.RescoreStancesJob
	PruneSnippets  *scheduler.PruneSnippetsJob
	Backup         *reliability.BackupJob
	Maintenance    *reliability.MaintenanceJob
}

// Close stops the stream hub and closes every open database. Safe on a
// partially built container.
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.StreamHub != nil {
		c.StreamHub.Stop()
	}
	if c.SnippetsDB != nil {
		c.SnippetsDB.Close()
	}
	if c.HistoryDB != nil {
		c.HistoryDB.Close()
	}
}
