// Package awsclient adapts AWS SDK clients to the pipeline contracts.
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// LoadConfig resolves credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// NewS3Store returns an object store backed by S3.
func NewS3Store(cfg aws.Config) *S3Store {
	return &S3Store{client: s3.NewFromConfig(cfg)}
}

// NewGenerator returns a generator backed by Bedrock knowledge base retrieve-and-generate.
func NewGenerator(cfg aws.Config) *Generator {
	return &Generator{client: bedrockagentruntime.NewFromConfig(cfg)}
}

// NewIndexer returns an indexer backed by Bedrock knowledge base ingestion jobs.
func NewIndexer(cfg aws.Config) *Indexer {
	return &Indexer{client: bedrockagent.NewFromConfig(cfg)}
}
