// Package app wires configuration, storage and generation into the two
// invocation handlers: answer-questions and sync-knowledge-base.
package app

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/apperr"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/redact"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/retry"
)

type Option func(*options)

type options struct {
	logger *slog.Logger
	sleep  retry.Sleeper
	now    func() time.Time
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSleep replaces the wait between retry attempts.
func WithSleep(s retry.Sleeper) Option {
	return func(o *options) { o.sleep = s }
}

// WithClock replaces the clock used for output key timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// failureFrom maps err to a response. Storage and event errors get a fixed
// message so bucket internals stay out of the body.
func failureFrom(err error) Response {
	status := apperr.StatusCode(err)
	var (
		ce *apperr.ConfigurationError
		me *apperr.MalformedEventError
		se *apperr.SourceReadError
		we *apperr.SinkWriteError
	)
	switch {
	case errors.As(err, &ce):
		return failure(status, ce.Msg)
	case errors.As(err, &me):
		return failure(status, "Malformed S3 event.")
	case errors.As(err, &se):
		return failure(status, "Error reading input file from S3.")
	case errors.As(err, &we):
		return failure(status, "Error uploading CSV file to S3.")
	}
	if status == http.StatusOK {
		status = http.StatusInternalServerError
	}
	return failure(status, redact.Secrets(err.Error()))
}
