// Package answer resolves questions against a knowledge base.
//
// Resolution never fails: a question whose generation attempts are all spent is
// answered with ManualReview so the rest of the questionnaire still completes.
package answer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/core"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/redact"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/retry"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/worker"
)

// ManualReview is the answer recorded when no generated answer is available.
const ManualReview = "To be manually reviewed"

const (
	DefaultMaxRetries = 5
	DefaultRetryDelay = 5 * time.Second
)

// Resolution pairs a question with its answer.
type Resolution struct {
	Question string
	Answer   string
}

// NeedsReview reports whether the answer is the manual-review placeholder.
func (r Resolution) NeedsReview() bool {
	return r.Answer == ManualReview
}

type Config struct {
	KnowledgeBaseID string
	ModelID         string

	// MaxRetries is the total number of generation attempts per question.
	MaxRetries int
	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration

	// RequestTimeout bounds each attempt. Zero disables it.
	RequestTimeout time.Duration
	// RateLimitRPS caps attempts per second across all workers. Zero disables it.
	RateLimitRPS float64
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

type Option func(*Resolver)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSleep replaces the wait between attempts.
func WithSleep(s retry.Sleeper) Option {
	return func(r *Resolver) {
		if s != nil {
			r.sleep = s
		}
	}
}

// Resolver answers questions through a Generator with fixed-delay retries.
type Resolver struct {
	gen     core.Generator
	cfg     Config
	limiter *rate.Limiter
	sleep   retry.Sleeper
	logger  *slog.Logger
}

func New(gen core.Generator, cfg Config, opts ...Option) (*Resolver, error) {
	if gen == nil {
		return nil, errors.New("answer: generator is required")
	}
	if strings.TrimSpace(cfg.KnowledgeBaseID) == "" {
		return nil, errors.New("answer: knowledge base id is required")
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		return nil, errors.New("answer: model id is required")
	}
	r := &Resolver{
		gen:    gen,
		cfg:    cfg.withDefaults(),
		sleep:  retry.Sleep,
		logger: slog.Default(),
	}
	if r.cfg.RateLimitRPS > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(r.cfg.RateLimitRPS), 1)
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "resolver")
	return r, nil
}

// BuildPrompt wraps a question in the instruction sent to the generator.
func BuildPrompt(question string) string {
	return "You are an expert in security compliance. Answer the following question using the provided " +
		"knowledge base. If the information is unavailable, respond with '" + ManualReview + "'.\n\n" +
		"Question: " + question
}

// Resolve returns the trimmed generated answer, or ManualReview once every
// attempt has failed.
func (r *Resolver) Resolve(ctx context.Context, question string) string {
	prompt := BuildPrompt(question)
	policy := retry.Policy{
		MaxAttempts: r.cfg.MaxRetries,
		Backoff:     retry.Constant(r.cfg.RetryDelay),
		Sleep:       r.sleep,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			r.logger.Warn("generation failed, retrying",
				"question", question,
				"attempt", attempt+1,
				"maxAttempts", r.cfg.MaxRetries,
				"wait", wait,
				"error", redact.Secrets(err.Error()),
			)
		},
	}

	answer, _ := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (string, error) {
		r.logger.Debug("calling generator", "question", question, "attempt", attempt+1)
		return r.generate(ctx, prompt)
	}, func(lastErr error) (string, error) {
		r.logger.Error("max retries reached, marking for manual review",
			"question", question,
			"attempts", r.cfg.MaxRetries,
			"error", redact.Secrets(lastErr.Error()),
		)
		return retry.FailOpen(ManualReview)(lastErr)
	})
	return answer
}

func (r *Resolver) generate(ctx context.Context, prompt string) (string, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	reqCtx := ctx
	if r.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, r.cfg.RequestTimeout)
		defer cancel()
	}
	text, err := r.gen.RetrieveAndGenerate(reqCtx, prompt, r.cfg.KnowledgeBaseID, r.cfg.ModelID)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// ResolveAll answers every question and returns one Resolution per question in
// input order. onResolved, when set, sees each Resolution as it completes.
func (r *Resolver) ResolveAll(ctx context.Context, questions []string, workers int, onResolved func(Resolution)) ([]Resolution, error) {
	var onResult func(worker.Result[string, string]) error
	if onResolved != nil {
		onResult = func(res worker.Result[string, string]) error {
			onResolved(Resolution{Question: res.Input, Answer: res.Output})
			return nil
		}
	}

	out, err := worker.ProcessAllWithCallback(ctx, questions, func(ctx context.Context, q string) (string, error) {
		return r.Resolve(ctx, q), nil
	}, onResult, worker.Options{Workers: workers})
	if err != nil {
		return nil, err
	}

	resolutions := make([]Resolution, len(out))
	for i, res := range out {
		resolutions[i] = Resolution{Question: res.Input, Answer: res.Output}
	}
	return resolutions, nil
}
