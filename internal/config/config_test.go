package config

import (
	"testing"

	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRACKER_DATA_DIR", dir)
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, CommitteeFOMC, cfg.Committee)
	assert.Equal(t, 5.0, cfg.Scale)
	assert.Equal(t, stance.DefaultWeights(), cfg.Weights())
	assert.Equal(t, 8, cfg.MaxEvidenceItems)
	assert.Equal(t, 120, cfg.QuoteContextChars)

	assert.Equal(t, 30, cfg.BackupRetentionDays)
	assert.False(t, cfg.R2Enabled())
	assert.False(t, cfg.LLMEnabled())
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Empty(t, cfg.MeetingsFile)

	pc := cfg.PipelineConfig()
	assert.Equal(t, stance.DefaultScale, pc.Scale)
	assert.Equal(t, 8, pc.MaxEvidence)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("TRACKER_DATA_DIR", t.TempDir())
	t.Setenv("COMMITTEE", "BoE")
	t.Setenv("STANCE_SCALE", "1")
	t.Setenv("NEWS_WEIGHT", "0.6")
	t.Setenv("PORT", "9001")
	t.Setenv("RESCORE_SCHEDULE", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MEETINGS_FILE", "/etc/tracker/meetings.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, CommitteeBoE, cfg.Committee)
	assert.Equal(t, stance.UnitScale, cfg.PipelineConfig().Scale)
	assert.Equal(t, 0.6, cfg.NewsWeight)
	assert.Equal(t, 9001, cfg.Port)
	assert.Empty(t, cfg.RescoreSchedule)
	assert.True(t, cfg.LLMEnabled())
	assert.Equal(t, "sk-test", cfg.LLMAPIKey)
	assert.Equal(t, "/etc/tracker/meetings.yaml", cfg.MeetingsFile)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:              8080,
			Committee:         CommitteeFOMC,
			Scale:             5,
			NewsWeight:        0.7,
			PolicyWeight:      0.7,
			MaxEvidenceItems:  8,
			QuoteContextChars: 120,
			RescoreSchedule:   "0 0 */6 * * *",
			LookbackDays:      30,
			RetentionDays:     180,
			RunWorkers:        4,
			ClassifyRPS:       5,
			ClassifyBurst:     10,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port", func(c *Config) { c.Port = 0 }},
		{"committee", func(c *Config) { c.Committee = "ecb" }},
		{"scale", func(c *Config) { c.Scale = -5 }},
		{"news weight", func(c *Config) { c.NewsWeight = 1.5 }},
		{"policy weight", func(c *Config) { c.PolicyWeight = -0.1 }},
		{"workers", func(c *Config) { c.RunWorkers = 0 }},
		{"retention", func(c *Config) { c.RetentionDays = 7 }},
		{"schedule", func(c *Config) { c.RescoreSchedule = "every tuesday" }},
		{"rate", func(c *Config) { c.ClassifyRPS = 0 }},
		{"backup schedule", func(c *Config) { c.BackupSchedule = "0 0 4 * *" }},
		{"backup retention", func(c *Config) { c.BackupRetentionDays = -1 }},
		{"llm timeout", func(c *Config) { c.LLMAPIKey, c.LLMTimeout = "sk-test", 0 }},
		{"r2 without bucket", func(c *Config) { c.R2AccountID, c.R2AccessKeyID, c.R2SecretAccessKey = "acct", "key", "secret" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
