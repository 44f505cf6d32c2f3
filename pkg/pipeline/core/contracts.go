package core

import (
	"context"
	"strings"
)

// ObjectStore reads and writes whole objects addressed by bucket and key.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
}

// Generator answers a prompt grounded in a knowledge base.
type Generator interface {
	RetrieveAndGenerate(ctx context.Context, prompt, knowledgeBaseID, modelID string) (string, error)
}

// JobHandle identifies an ingestion job started on the knowledge base.
// The remote service owns the job lifecycle; Status is informational.
type JobHandle struct {
	JobID  string
	Status string
}

// Indexer starts re-indexing jobs for a knowledge base data source.
//
// clientToken makes the call idempotent: repeating it with the same token
// returns the already-started job instead of starting a new one.
type Indexer interface {
	StartIngestionJob(ctx context.Context, knowledgeBaseID, dataSourceID, clientToken string) (JobHandle, error)
}

// GenerateFunc adapts a function to the Generator interface.
type GenerateFunc func(ctx context.Context, prompt, knowledgeBaseID, modelID string) (string, error)

func (f GenerateFunc) RetrieveAndGenerate(ctx context.Context, prompt, knowledgeBaseID, modelID string) (string, error) {
	return f(ctx, prompt, knowledgeBaseID, modelID)
}

// TransientError marks a failed call to a remote service as retryable.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	if strings.TrimSpace(e.Op) == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
