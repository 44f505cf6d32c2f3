// Package ingest starts knowledge base re-indexing jobs.
//
// Unlike question resolution, a trigger whose attempts are all spent fails the
// invocation: a missed re-index leaves every later answer working from stale
// content.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/apperr"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/core"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/redact"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/retry"
)

const (
	DefaultMaxRetries = 5
	DefaultBaseDelay  = 5 * time.Second
)

type Config struct {
	KnowledgeBaseID string
	DataSourceID    string

	// MaxRetries is the total number of start attempts.
	MaxRetries int
	// BaseDelay is the wait after the first failure; it doubles after each later one.
	BaseDelay time.Duration
}

// Validate reports missing identifiers as *apperr.ConfigurationError.
func (c Config) Validate() error {
	if strings.TrimSpace(c.KnowledgeBaseID) == "" {
		return apperr.Configf("KNOWLEDGE_BASE_ID environment variable is not set")
	}
	if strings.TrimSpace(c.DataSourceID) == "" {
		return apperr.Configf("DATA_SOURCE_ID environment variable is not set")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BaseDelay < 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	return c
}

type Option func(*Trigger)

func WithLogger(l *slog.Logger) Option {
	return func(t *Trigger) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithSleep replaces the wait between attempts.
func WithSleep(s retry.Sleeper) Option {
	return func(t *Trigger) {
		if s != nil {
			t.sleep = s
		}
	}
}

// WithClientToken fixes the idempotency token instead of generating one per Start.
func WithClientToken(token string) Option {
	return func(t *Trigger) {
		t.newToken = func() string { return token }
	}
}

// Trigger starts ingestion jobs with exponential backoff.
type Trigger struct {
	indexer  core.Indexer
	cfg      Config
	sleep    retry.Sleeper
	newToken func() string
	logger   *slog.Logger
}

// New validates cfg before anything else, so a misconfigured trigger never
// reaches the indexer.
func New(indexer core.Indexer, cfg Config, opts ...Option) (*Trigger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if indexer == nil {
		return nil, errors.New("ingest: indexer is required")
	}
	t := &Trigger{
		indexer:  indexer,
		cfg:      cfg.withDefaults(),
		sleep:    retry.Sleep,
		newToken: uuid.NewString,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "ingestion-trigger")
	return t, nil
}

// Start starts one ingestion job. Every attempt reuses the same client token,
// so a retry after a lost response returns the job the first call started.
// Once all attempts fail the last error is returned.
func (t *Trigger) Start(ctx context.Context) (core.JobHandle, error) {
	token := t.newToken()
	policy := retry.Policy{
		MaxAttempts: t.cfg.MaxRetries,
		Backoff:     retry.Exponential(t.cfg.BaseDelay),
		Sleep:       t.sleep,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			t.logger.Warn("error starting ingestion job, retrying",
				"attempt", attempt+1,
				"maxAttempts", t.cfg.MaxRetries,
				"wait", wait,
				"error", redact.Secrets(err.Error()),
			)
		},
	}

	job, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (core.JobHandle, error) {
		t.logger.Info("starting ingestion job",
			"knowledgeBaseId", t.cfg.KnowledgeBaseID,
			"dataSourceId", t.cfg.DataSourceID,
			"attempt", attempt+1,
		)
		return t.indexer.StartIngestionJob(ctx, t.cfg.KnowledgeBaseID, t.cfg.DataSourceID, token)
	}, retry.FailClosed[core.JobHandle]())
	if err != nil {
		t.logger.Error("max retries reached, unable to start ingestion job", "error", redact.Secrets(err.Error()))
		return core.JobHandle{}, fmt.Errorf("start ingestion job: %w", err)
	}
	t.logger.Info("ingestion job started", "jobId", job.JobID, "status", job.Status)
	return job, nil
}
