package vertex

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/core"
)

type fakeModels struct {
	model  string
	config *genai.GenerateContentConfig
	resp   *genai.GenerateContentResponse
	err    error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	return f.resp, f.err
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return false }

func TestRetrieveAndGenerate(t *testing.T) {
	fm := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText("Yes, AES-256.", genai.RoleModel)}},
	}}
	g := &Generator{models: fm}

	got, err := g.RetrieveAndGenerate(context.Background(), "prompt", "projects/p/locations/l/ragCorpora/1", "gemini-2.5-flash")
	require.NoError(t, err)
	assert.Equal(t, "Yes, AES-256.", got)
	assert.Equal(t, "gemini-2.5-flash", fm.model)

	require.Len(t, fm.config.Tools, 1)
	store := fm.config.Tools[0].Retrieval.VertexRAGStore
	require.Len(t, store.RAGResources, 1)
	assert.Equal(t, "projects/p/locations/l/ragCorpora/1", store.RAGResources[0].RAGCorpus)
}

func TestRetrieveAndGenerate_NoCandidates(t *testing.T) {
	g := &Generator{models: &fakeModels{resp: &genai.GenerateContentResponse{}}}
	_, err := g.RetrieveAndGenerate(context.Background(), "p", "c", "m")
	var te *core.TransientError
	assert.ErrorAs(t, err, &te)
}

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name          string
		in            error
		wantTransient bool
	}{
		{name: "api_429", in: genai.APIError{Code: 429}, wantTransient: true},
		{name: "api_503", in: genai.APIError{Code: 503}, wantTransient: true},
		{name: "api_403", in: genai.APIError{Code: 403}, wantTransient: false},
		{name: "net_timeout", in: timeoutErr{}, wantTransient: true},
		{name: "plain", in: errors.New("boom"), wantTransient: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.in)
			require.Error(t, got)
			var te *core.TransientError
			assert.Equal(t, tt.wantTransient, errors.As(got, &te))
		})
	}
	assert.NoError(t, classifyErr(nil))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Config{Location: "us-central1"})
	assert.ErrorContains(t, err, "VERTEX_PROJECT")
	_, err = New(context.Background(), Config{Project: "p"})
	assert.ErrorContains(t, err, "VERTEX_LOCATION")
}
