// Package vertex answers prompts with Gemini on Vertex AI grounded in a RAG Engine corpus.
package vertex

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/core"
)

const op = "vertex generate_content"

type Config struct {
	Project  string
	Location string

	// BaseURL overrides the API endpoint. Useful for proxies/testing.
	BaseURL string
}

type modelClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator implements core.Generator. The knowledge base id is the RAG
// corpus resource name and the model id is the Gemini model name.
type Generator struct {
	models modelClient
}

func New(ctx context.Context, cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.Project) == "" {
		return nil, fmt.Errorf("VERTEX_PROJECT is required")
	}
	if strings.TrimSpace(cfg.Location) == "" {
		return nil, fmt.Errorf("VERTEX_LOCATION is required")
	}
	cc := &genai.ClientConfig{
		Project:  strings.TrimSpace(cfg.Project),
		Location: strings.TrimSpace(cfg.Location),
		Backend:  genai.BackendVertexAI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Generator{models: client.Models}, nil
}

func (g *Generator) RetrieveAndGenerate(ctx context.Context, prompt, knowledgeBaseID, modelID string) (string, error) {
	resp, err := g.models.GenerateContent(
		ctx,
		modelID,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{
				Retrieval: &genai.Retrieval{
					VertexRAGStore: &genai.VertexRAGStore{
						RAGResources: []*genai.VertexRAGStoreRAGResource{{RAGCorpus: knowledgeBaseID}},
					},
				},
			}},
			CandidateCount: 1,
		},
	)
	if err != nil {
		return "", classifyErr(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &core.TransientError{Op: op, Err: errors.New("no candidates")}
	}
	return resp.Text(), nil
}

func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return &core.TransientError{Op: op, Err: err}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &core.TransientError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
