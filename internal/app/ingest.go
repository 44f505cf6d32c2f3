package app

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/config"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/ingest"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/core"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/redact"
)

// IngestHandler starts a knowledge base re-indexing job. The triggering event
// only signals that the corpus changed; its content is ignored.
type IngestHandler struct {
	cfg     config.Config
	loadErr error
	build   IndexerFunc
	opts    options

	mu      sync.Mutex
	indexer core.Indexer
}

func NewIngestHandler(cfg config.Config, loadErr error, build IndexerFunc, opts ...Option) *IngestHandler {
	return &IngestHandler{cfg: cfg, loadErr: loadErr, build: build, opts: newOptions(opts)}
}

func (h *IngestHandler) Handle(ctx context.Context, _ json.RawMessage) (Response, error) {
	logger := h.opts.logger.With("handler", "sync-knowledge-base", "run", uuid.NewString())

	if err := h.validate(); err != nil {
		logger.Error("validation error", "error", err.Error())
		return failureFrom(err), nil
	}

	indexer, err := h.dependencies(ctx)
	if err != nil {
		logger.Error("error initializing clients", "error", redact.Secrets(err.Error()))
		return failureFrom(err), nil
	}

	topts := []ingest.Option{ingest.WithLogger(logger)}
	if h.opts.sleep != nil {
		topts = append(topts, ingest.WithSleep(h.opts.sleep))
	}
	trigger, err := ingest.New(indexer, h.cfg.IngestConfig(), topts...)
	if err != nil {
		logger.Error("validation error", "error", err.Error())
		return failureFrom(err), nil
	}

	job, err := trigger.Start(ctx)
	if err != nil {
		logger.Error("unexpected error", "error", redact.Secrets(err.Error()))
		return failureFrom(err), nil
	}
	return success("Ingestion job started successfully", map[string]string{"jobId": job.JobID}), nil
}

func (h *IngestHandler) validate() error {
	if h.loadErr != nil {
		return h.loadErr
	}
	return h.cfg.ValidateIngest()
}

func (h *IngestHandler) dependencies(ctx context.Context) (core.Indexer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.indexer != nil {
		return h.indexer, nil
	}
	indexer, err := h.build(ctx, h.cfg)
	if err != nil {
		return nil, err
	}
	h.indexer = indexer
	return indexer, nil
}
