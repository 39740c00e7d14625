// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/robfig/cron/v3"
)

// Committee selects which roster the tracker scores.
type Committee string

const (
	CommitteeFOMC Committee = "fomc"
	CommitteeBoE  Committee = "boe"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the sqlite databases (always absolute)
	LogLevel string
	Port     int
	DevMode  bool
	Version  string

	Committee      Committee
	Scale          float64
	NewsWeight     float64
	PolicyWeight   float64
	DictionaryFile string // Optional YAML overrides merged into the built-in dictionaries

	MaxEvidenceItems  int
	QuoteContextChars int

	RescoreSchedule string        // Cron spec with seconds field; empty disables the job
	PruneSchedule   string        // Cron spec for snippet retention; empty disables the job
	LookbackDays    int           // Snippets older than this are not scored
	RetentionDays   int           // Snippets older than this are deleted
	RunWorkers      int           // Participants scored in parallel
	RunTimeout      time.Duration // Upper bound for a full run

	ClassifyRPS   float64 // Classify endpoint rate limit
	ClassifyBurst int

	BackupSchedule      string // Cron spec for database backups; empty disables the job
	BackupRetentionDays int    // Backups older than this are rotated out; 0 keeps all
	MaintenanceSchedule string // Cron spec for integrity check and VACUUM

	// OpenAI-compatible chat model, registered as a scorer backend when a key
	// is set. Keyword scoring stays the fallback.
	LLMAPIKey            string
	LLMBaseURL           string
	LLMModel             string
	LLMTimeout           time.Duration
	LLMRequestsPerMinute float64

	MeetingsFile string // Optional YAML of extra or corrected meetings

	// Cloudflare R2 backup target. Backups stay in DataDir/backups when unset.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TRACKER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Version:  getEnv("VERSION", "dev"),

		Committee:      Committee(strings.ToLower(getEnv("COMMITTEE", string(CommitteeFOMC)))),
		Scale:          getEnvAsFloat("STANCE_SCALE", float64(stance.DefaultScale)),
		NewsWeight:     getEnvAsFloat("NEWS_WEIGHT", 0.7),
		PolicyWeight:   getEnvAsFloat("POLICY_WEIGHT", 0.7),
		DictionaryFile: getEnv("DICTIONARY_FILE", ""),

		MaxEvidenceItems:  getEnvAsInt("MAX_EVIDENCE_ITEMS", 8),
		QuoteContextChars: getEnvAsInt("QUOTE_CONTEXT_CHARS", 120),

		RescoreSchedule: getEnv("RESCORE_SCHEDULE", "0 0 */6 * * *"),
		PruneSchedule:   getEnv("PRUNE_SCHEDULE", "0 30 3 * * *"),
		LookbackDays:    getEnvAsInt("LOOKBACK_DAYS", 30),
		RetentionDays:   getEnvAsInt("RETENTION_DAYS", 180),
		RunWorkers:      getEnvAsInt("RUN_WORKERS", 4),
		RunTimeout:      time.Duration(getEnvAsInt("RUN_TIMEOUT_SECONDS", 120)) * time.Second,

		ClassifyRPS:   getEnvAsFloat("CLASSIFY_RPS", 5),
		ClassifyBurst: getEnvAsInt("CLASSIFY_BURST", 10),

		BackupSchedule:      getEnv("BACKUP_SCHEDULE", "0 0 4 * * *"),
		BackupRetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 0 5 * * 0"),

		LLMAPIKey:            getEnv("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
		LLMBaseURL:           getEnv("LLM_BASE_URL", ""),
		LLMModel:             getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:           time.Duration(getEnvAsInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,
		LLMRequestsPerMinute: getEnvAsFloat("LLM_REQUESTS_PER_MINUTE", 60),

		MeetingsFile: getEnv("MEETINGS_FILE", ""),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:          getEnv("R2_BUCKET", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Committee != CommitteeFOMC && c.Committee != CommitteeBoE {
		return fmt.Errorf("unknown committee %q (want fomc or boe)", c.Committee)
	}
	if _, err := stance.ParseScale(c.Scale); err != nil {
		return fmt.Errorf("STANCE_SCALE: %w", err)
	}
	if err := c.Weights().Validate(); err != nil {
		return err
	}
	if c.MaxEvidenceItems < 0 || c.QuoteContextChars < 0 {
		return fmt.Errorf("evidence limits must not be negative")
	}
	if c.RunWorkers < 1 {
		return fmt.Errorf("RUN_WORKERS must be at least 1, got %d", c.RunWorkers)
	}
	if c.LookbackDays < 1 || c.RetentionDays < c.LookbackDays {
		return fmt.Errorf("retention (%d days) must cover lookback (%d days)", c.RetentionDays, c.LookbackDays)
	}
	if c.ClassifyRPS <= 0 || c.ClassifyBurst < 1 {
		return fmt.Errorf("classify rate limit must be positive")
	}

	if c.LLMEnabled() && (c.LLMTimeout <= 0 || c.LLMRequestsPerMinute < 0) {
		return fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive and LLM_REQUESTS_PER_MINUTE not negative")
	}

	if c.BackupRetentionDays < 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative")
	}
	if c.R2Enabled() && (c.R2AccessKeyID == "" || c.R2SecretAccessKey == "" || c.R2Bucket == "") {
		return fmt.Errorf("R2 backups need R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedules := map[string]string{
		"RESCORE_SCHEDULE":     c.RescoreSchedule,
		"PRUNE_SCHEDULE":       c.PruneSchedule,
		"BACKUP_SCHEDULE":      c.BackupSchedule,
		"MAINTENANCE_SCHEDULE": c.MaintenanceSchedule,
	}
	for name, spec := range schedules {
		if spec == "" {
			continue
		}
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

// R2Enabled reports whether backups go to Cloudflare R2.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != ""
}

// LLMEnabled reports whether the chat model scorer backend is configured.
func (c *Config) LLMEnabled() bool {
	return c.LLMAPIKey != ""
}

// Weights returns the configured mixing weights.
func (c *Config) Weights() stance.Weights {
	return stance.Weights{News: c.NewsWeight, Policy: c.PolicyWeight}
}

// PipelineConfig returns the stance pipeline parameters. Call after Validate.
func (c *Config) PipelineConfig() stance.Config {
	return stance.Config{
		Scale:             stance.Scale(c.Scale),
		Weights:           c.Weights(),
		MaxEvidence:       c.MaxEvidenceItems,
		QuoteContextChars: c.QuoteContextChars,
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
