// Package di provides dependency injection for services.
package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/neoyipeng2018/central-bank-tracker/internal/clients/llm"
	"github.com/neoyipeng2018/central-bank-tracker/internal/config"
	"github.com/neoyipeng2018/central-bank-tracker/internal/metrics"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/calendar"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/history"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/signal"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/snippets"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/stream"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/tracker"
	"github.com/neoyipeng2018/central-bank-tracker/internal/reliability"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// InitializeRepositories creates the repositories on top of the open databases
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}
	if container.Clock == nil {
		return fmt.Errorf("container clock must be set before repositories")
	}

	container.SnippetRepo = snippets.NewRepository(container.SnippetsDB.Conn(), container.Clock, log)
	container.HistoryRepo = history.NewRepository(container.HistoryDB.Conn(), container.Clock, log)

	log.Info().Msg("Repositories initialized")
	return nil
}

// InitializeServices builds the scoring pipeline and the services that use it
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	roster, err := participants.NewRoster(participants.Committee(cfg.Committee))
	if err != nil {
		return fmt.Errorf("failed to build roster: %w", err)
	}
	container.Roster = roster

	cal, err := calendar.New(roster.Committee(), cfg.MeetingsFile)
	if err != nil {
		return fmt.Errorf("failed to build meeting calendar: %w", err)
	}
	container.Calendar = cal

	dicts, err := stance.LoadDictionaries(cfg.DictionaryFile)
	if err != nil {
		return err
	}

	pipelineCfg := cfg.PipelineConfig()
	container.Scale = pipelineCfg.Scale

	scorer, err := newScorerChain(cfg, pipelineCfg.Scale, log)
	if err != nil {
		return err
	}
	container.Scorer = scorer

	pipeline, err := stance.NewPipeline(pipelineCfg, dicts, scorer, log)
	if err != nil {
		return fmt.Errorf("failed to build stance pipeline: %w", err)
	}
	container.Pipeline = pipeline

	container.Registry = prometheus.NewRegistry()
	container.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	container.Metrics = metrics.New(container.Registry)

	container.SignalService = signal.NewService(
		roster,
		container.HistoryRepo,
		pipelineCfg.Weights,
		pipelineCfg.Scale,
		cal,
		container.Clock,
		log,
	)

	container.TrackerService = tracker.NewService(
		pipeline,
		roster,
		container.SnippetRepo,
		container.HistoryRepo,
		container.SignalService,
		container.Metrics,
		container.Clock,
		tracker.Config{
			LookbackDays: cfg.LookbackDays,
			Workers:      cfg.RunWorkers,
			RunTimeout:   cfg.RunTimeout,
		},
		log,
	)
	container.StreamHub = stream.NewHub(container.Clock, log)
	container.TrackerService.SetPublisher(container.StreamHub)

	container.ClassifyLimiter = rate.NewLimiter(rate.Limit(cfg.ClassifyRPS), cfg.ClassifyBurst)

	store, err := newBackupStore(cfg, log)
	if err != nil {
		return err
	}
	container.BackupService = reliability.NewBackupService(
		store,
		cfg.DataDir,
		cfg.Version,
		container.Clock,
		log,
		container.SnippetsDB,
		container.HistoryDB,
	)

	log.Info().
		Str("committee", string(roster.Committee())).
		Int("participants", len(roster.All())).
		Float64("scale", pipelineCfg.Scale.Bound()).
		Msg("Services initialized")
	return nil
}

// newScorerChain builds the scorer chain. The chat model backend is registered
// only when an API key is configured; keyword scoring is always the fallback.
func newScorerChain(cfg *config.Config, scale stance.Scale, log zerolog.Logger) (*stance.ChainScorer, error) {
	chain := stance.NewChainScorer(scale, log)
	if !cfg.LLMEnabled() {
		return chain, nil
	}

	gen, err := llm.NewChatModel(context.Background(), llm.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
	})
	if err != nil {
		return nil, err
	}
	chain.Register(llm.BackendName, llm.NewScorer(gen, llm.ScorerConfig{
		Scale:             scale,
		Timeout:           cfg.LLMTimeout,
		RequestsPerMinute: cfg.LLMRequestsPerMinute,
	}, log))
	log.Info().Str("model", cfg.LLMModel).Msg("LLM scorer backend registered")
	return chain, nil
}

// newBackupStore returns the R2 bucket when configured, otherwise a local
// backups directory
func newBackupStore(cfg *config.Config, log zerolog.Logger) (reliability.ObjectStore, error) {
	if !cfg.R2Enabled() {
		return reliability.NewLocalStore(filepath.Join(cfg.DataDir, "backups"))
	}

	client, err := reliability.NewR2Client(context.Background(), reliability.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		Bucket:          cfg.R2Bucket,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create r2 client: %w", err)
	}
	log.Info().Str("bucket", cfg.R2Bucket).Msg("Backups go to R2")
	return client, nil
}
