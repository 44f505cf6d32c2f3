package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/answer"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/config"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/event"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/questions"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/results"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/redact"
)

// AnswerHandler answers the questionnaire named by an S3 ObjectCreated event
// and stores the CSV next to it.
type AnswerHandler struct {
	cfg     config.Config
	loadErr error
	build   AnswerDepsFunc
	opts    options

	mu   sync.Mutex
	deps *AnswerDeps
}

// NewAnswerHandler takes the result of config.Load as is. A load error is
// reported by every invocation instead of failing at start-up.
func NewAnswerHandler(cfg config.Config, loadErr error, build AnswerDepsFunc, opts ...Option) *AnswerHandler {
	return &AnswerHandler{cfg: cfg, loadErr: loadErr, build: build, opts: newOptions(opts)}
}

func (h *AnswerHandler) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	logger := h.opts.logger.With("handler", "answer-questions", "run", uuid.NewString())
	start := time.Now()

	if err := h.validate(); err != nil {
		logger.Error("configuration error", "error", err.Error())
		return failureFrom(err), nil
	}

	req, err := event.Parse(raw)
	if err != nil {
		logger.Error("error parsing S3 event", "error", err.Error())
		return failureFrom(err), nil
	}
	logger = logger.With("bucket", req.Bucket, "key", req.Key)
	logger.Info("triggered by new object")

	if results.IsOutputKey(h.cfg.OutputPrefix, req.Key) {
		logger.Warn("object is under the results prefix, skipping", "prefix", h.cfg.OutputPrefix)
		return success(fmt.Sprintf("Skipped %s: object is under the results prefix %s", req.Key, h.cfg.OutputPrefix), nil), nil
	}

	deps, err := h.dependencies(ctx)
	if err != nil {
		logger.Error("error initializing clients", "error", redact.Secrets(err.Error()))
		return failureFrom(err), nil
	}

	qs, err := questions.NewReader(deps.Store).Read(ctx, req.Bucket, req.Key)
	if err != nil {
		logger.Error("error reading input file", "error", redact.Secrets(err.Error()))
		return failureFrom(err), nil
	}
	logger.Info("found questions", "count", len(qs))

	resolver, err := answer.New(deps.Generator, h.cfg.AnswerConfig(), h.resolverOptions(logger)...)
	if err != nil {
		logger.Error("error creating resolver", "error", err.Error())
		return failureFrom(err), nil
	}

	done, review := 0, 0
	rows, err := resolver.ResolveAll(ctx, qs, h.cfg.Workers, func(r answer.Resolution) {
		done++
		if r.NeedsReview() {
			review++
		}
		logger.Info("question resolved", "done", done, "total", len(qs), "needsReview", r.NeedsReview())
	})
	if err != nil {
		logger.Error("resolution interrupted", "error", err.Error(), "done", done, "total", len(qs))
		return failureFrom(err), nil
	}

	var writerOpts []results.Option
	if h.opts.now != nil {
		writerOpts = append(writerOpts, results.WithClock(h.opts.now))
	}
	key, err := results.NewWriter(deps.Store, h.cfg.OutputPrefix, writerOpts...).Write(ctx, req.Bucket, req.Key, rows)
	if err != nil {
		logger.Error("error uploading results", "error", redact.Secrets(err.Error()))
		return failureFrom(err), nil
	}

	logger.Info("uploaded results",
		"output", fmt.Sprintf("s3://%s/%s", req.Bucket, key),
		"answered", len(rows)-review,
		"needsReview", review,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return success(fmt.Sprintf("Processed %d questions. Results saved to %s", len(qs), key), nil), nil
}

func (h *AnswerHandler) validate() error {
	if h.loadErr != nil {
		return h.loadErr
	}
	return h.cfg.ValidateAnswer()
}

func (h *AnswerHandler) resolverOptions(logger *slog.Logger) []answer.Option {
	opts := []answer.Option{answer.WithLogger(logger)}
	if h.opts.sleep != nil {
		opts = append(opts, answer.WithSleep(h.opts.sleep))
	}
	return opts
}

// dependencies builds the clients on first use and keeps them for warm
// invocations. A failed build is retried on the next invocation.
func (h *AnswerHandler) dependencies(ctx context.Context) (AnswerDeps, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.deps != nil {
		return *h.deps, nil
	}
	deps, err := h.build(ctx, h.cfg)
	if err != nil {
		return AnswerDeps{}, err
	}
	h.deps = &deps
	return deps, nil
}
