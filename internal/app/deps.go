package app

import (
	"context"
	"fmt"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/awsclient"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/config"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/vertex"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/core"
)

// AnswerDeps are the collaborators of the answer-questions handler.
type AnswerDeps struct {
	Store     core.ObjectStore
	Generator core.Generator
}

// AnswerDepsFunc builds AnswerDeps once the configuration has validated.
type AnswerDepsFunc func(ctx context.Context, cfg config.Config) (AnswerDeps, error)

// IndexerFunc builds the indexer once the configuration has validated.
type IndexerFunc func(ctx context.Context, cfg config.Config) (core.Indexer, error)

// AWSAnswerDeps reads from S3 and generates with the configured backend.
func AWSAnswerDeps(ctx context.Context, cfg config.Config) (AnswerDeps, error) {
	awsCfg, err := awsclient.LoadConfig(ctx, cfg.Region)
	if err != nil {
		return AnswerDeps{}, err
	}
	gen, err := NewGenerator(ctx, cfg, func() core.Generator { return awsclient.NewGenerator(awsCfg) })
	if err != nil {
		return AnswerDeps{}, err
	}
	return AnswerDeps{Store: awsclient.NewS3Store(awsCfg), Generator: gen}, nil
}

// AWSIndexer starts Bedrock ingestion jobs.
func AWSIndexer(ctx context.Context, cfg config.Config) (core.Indexer, error) {
	awsCfg, err := awsclient.LoadConfig(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	return awsclient.NewIndexer(awsCfg), nil
}

// NewGenerator selects the generation backend. bedrock is called only when
// the bedrock backend is configured.
func NewGenerator(ctx context.Context, cfg config.Config, bedrock func() core.Generator) (core.Generator, error) {
	switch cfg.GenerationBackend {
	case config.BackendBedrock, "":
		return bedrock(), nil
	case config.BackendVertex:
		return vertex.New(ctx, vertex.Config{Project: cfg.VertexProject, Location: cfg.VertexLocation})
	default:
		return nil, fmt.Errorf("unknown generation backend %q", cfg.GenerationBackend)
	}
}
