package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/apperr"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/config"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(env(nil))
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, 5, cfg.IngestRetries)
	assert.Equal(t, 5*time.Second, cfg.IngestDelay)
	assert.Equal(t, "QuestionsAnswered/", cfg.OutputPrefix)
	assert.Equal(t, config.BackendBedrock, cfg.GenerationBackend)
}

func TestLoadFrom_Env(t *testing.T) {
	cfg, err := config.LoadFrom(env(map[string]string{
		"KNOWLEDGE_BASE_ID":  " KB1 ",
		"MODEL_ARN":          "arn:aws:bedrock:us-east-1::foundation-model/anthropic.claude-v2",
		"DATA_SOURCE_ID":     "DS1",
		"REGION_NAME":        "eu-west-1",
		"MAX_RETRIES":        "3",
		"RETRY_DELAY":        "250ms",
		"INGEST_BASE_DELAY":  "2",
		"WORKERS":            "4",
		"RATE_LIMIT_RPS":     "1.5",
		"GENERATION_BACKEND": "Vertex",
	}))
	require.NoError(t, err)
	assert.Equal(t, "KB1", cfg.KnowledgeBaseID)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 2*time.Second, cfg.IngestDelay)
	assert.Equal(t, 4, cfg.Workers)
	assert.InDelta(t, 1.5, cfg.RateLimitRPS, 1e-9)
	assert.Equal(t, config.BackendVertex, cfg.GenerationBackend)
}

func TestLoadFrom_InvalidNumber(t *testing.T) {
	_, err := config.LoadFrom(env(map[string]string{"MAX_RETRIES": "five"}))
	var ce *apperr.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "MAX_RETRIES")
}

func TestLoadFrom_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
knowledge_base_id: KB-FILE
data_source_id: DS-FILE
retry_delay: 1s
ingest_max_retries: 7
output_prefix: Answers/
`), 0o600))

	cfg, err := config.LoadFrom(env(map[string]string{
		"CONFIG_FILE":       p,
		"KNOWLEDGE_BASE_ID": "KB-ENV",
	}))
	require.NoError(t, err)
	assert.Equal(t, "KB-ENV", cfg.KnowledgeBaseID, "environment wins over file")
	assert.Equal(t, "DS-FILE", cfg.DataSourceID)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 7, cfg.IngestRetries)
	assert.Equal(t, "Answers/", cfg.OutputPrefix)
	assert.Equal(t, 5, cfg.MaxRetries, "defaults survive a partial file")
}

func TestLoadFrom_BadFile(t *testing.T) {
	_, err := config.LoadFrom(env(map[string]string{"CONFIG_FILE": filepath.Join(t.TempDir(), "missing.yaml")}))
	assert.Equal(t, 400, apperr.StatusCode(err))
}

func TestValidateAnswer(t *testing.T) {
	base := config.Defaults()
	base.KnowledgeBaseID = "KB1"
	base.ModelARN = "arn:model"
	require.NoError(t, base.ValidateAnswer())

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "missing knowledge base", mutate: func(c *config.Config) { c.KnowledgeBaseID = "" }},
		{name: "missing model", mutate: func(c *config.Config) { c.ModelARN = "" }},
		{name: "unknown backend", mutate: func(c *config.Config) { c.GenerationBackend = "llama" }},
		{name: "vertex without project", mutate: func(c *config.Config) { c.GenerationBackend = config.BackendVertex }},
		{name: "empty output prefix", mutate: func(c *config.Config) { c.OutputPrefix = "" }},
		{name: "zero retries", mutate: func(c *config.Config) { c.MaxRetries = 0 }},
		{name: "zero workers", mutate: func(c *config.Config) { c.Workers = 0 }},
		{name: "negative delay", mutate: func(c *config.Config) { c.RetryDelay = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			var ce *apperr.ConfigurationError
			assert.ErrorAs(t, c.ValidateAnswer(), &ce)
		})
	}
}

func TestValidateIngest(t *testing.T) {
	c := config.Defaults()
	c.KnowledgeBaseID = "KB1"
	err := c.ValidateIngest()
	var ce *apperr.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "DATA_SOURCE_ID")

	c.DataSourceID = "DS1"
	assert.NoError(t, c.ValidateIngest())
	assert.Equal(t, "DS1", c.IngestConfig().DataSourceID)
	assert.Equal(t, 5*time.Second, c.IngestConfig().BaseDelay)
}
