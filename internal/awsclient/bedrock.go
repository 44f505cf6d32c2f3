package awsclient

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/core"
)

var (
	errNoOutputText = errors.New("response has no output text")
	errNoJob        = errors.New("response has no ingestion job")
)

// RetrieveAndGenerateAPI is the subset of the agent runtime client the generator uses.
type RetrieveAndGenerateAPI interface {
	RetrieveAndGenerate(ctx context.Context, in *bedrockagentruntime.RetrieveAndGenerateInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error)
}

// Generator answers prompts with knowledge base retrieve-and-generate.
type Generator struct {
	client RetrieveAndGenerateAPI
}

func NewGeneratorFromAPI(client RetrieveAndGenerateAPI) *Generator {
	return &Generator{client: client}
}

// RetrieveAndGenerate returns the untrimmed output text. Every failure,
// including a response without text, is a *core.TransientError.
func (g *Generator) RetrieveAndGenerate(ctx context.Context, prompt, knowledgeBaseID, modelID string) (string, error) {
	const op = "bedrock retrieve_and_generate"
	out, err := g.client.RetrieveAndGenerate(ctx, &bedrockagentruntime.RetrieveAndGenerateInput{
		Input: &rttypes.RetrieveAndGenerateInput{Text: aws.String(prompt)},
		RetrieveAndGenerateConfiguration: &rttypes.RetrieveAndGenerateConfiguration{
			Type: rttypes.RetrieveAndGenerateTypeKnowledgeBase,
			KnowledgeBaseConfiguration: &rttypes.KnowledgeBaseRetrieveAndGenerateConfiguration{
				KnowledgeBaseId: aws.String(knowledgeBaseID),
				ModelArn:        aws.String(modelID),
			},
		},
	})
	if err != nil {
		return "", &core.TransientError{Op: op, Err: err}
	}
	if out == nil || out.Output == nil || out.Output.Text == nil {
		return "", &core.TransientError{Op: op, Err: errNoOutputText}
	}
	return aws.ToString(out.Output.Text), nil
}

// StartIngestionJobAPI is the subset of the agent client the indexer uses.
type StartIngestionJobAPI interface {
	StartIngestionJob(ctx context.Context, in *bedrockagent.StartIngestionJobInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.StartIngestionJobOutput, error)
}

// Indexer starts knowledge base ingestion jobs.
type Indexer struct {
	client StartIngestionJobAPI
}

func NewIndexerFromAPI(client StartIngestionJobAPI) *Indexer {
	return &Indexer{client: client}
}

func (x *Indexer) StartIngestionJob(ctx context.Context, knowledgeBaseID, dataSourceID, clientToken string) (core.JobHandle, error) {
	const op = "bedrock start_ingestion_job"
	in := &bedrockagent.StartIngestionJobInput{
		KnowledgeBaseId: aws.String(knowledgeBaseID),
		DataSourceId:    aws.String(dataSourceID),
	}
	if clientToken != "" {
		in.ClientToken = aws.String(clientToken)
	}
	out, err := x.client.StartIngestionJob(ctx, in)
	if err != nil {
		return core.JobHandle{}, &core.TransientError{Op: op, Err: err}
	}
	if out == nil || out.IngestionJob == nil {
		return core.JobHandle{}, &core.TransientError{Op: op, Err: errNoJob}
	}
	return core.JobHandle{
		JobID:  aws.ToString(out.IngestionJob.IngestionJobId),
		Status: string(out.IngestionJob.Status),
	}, nil
}
