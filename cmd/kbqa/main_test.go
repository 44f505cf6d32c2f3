package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/event"
)

func TestS3EventJSON_RoundTrip(t *testing.T) {
	raw, err := s3EventJSON("questionnaires", "incoming/Q3 audit.txt")
	require.NoError(t, err)

	req, err := event.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "questionnaires", req.Bucket)
	assert.Equal(t, "incoming/Q3 audit.txt", req.Key)
}

func TestAnswerCommand_RequiresFlags(t *testing.T) {
	a := newApp()
	a.Writer = &bytes.Buffer{}
	a.ErrWriter = &bytes.Buffer{}
	err := a.Run([]string{"kbqa", "answer", "--bucket", "b"})
	assert.ErrorContains(t, err, "key")
}

func TestAnswerCommand_MissingConfig(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("KNOWLEDGE_BASE_ID", "")
	t.Setenv("MODEL_ARN", "")

	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = &bytes.Buffer{}
	a.ExitErrHandler = func(*cli.Context, error) {}

	err := a.Run([]string{"kbqa", "answer", "--bucket", "b", "--key", "q.txt", "--root", t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KNOWLEDGE_BASE_ID")
	assert.Contains(t, out.String(), `"statusCode": 400`)
}

func TestEventCommand_UnknownHandler(t *testing.T) {
	a := newApp()
	a.Writer = &bytes.Buffer{}
	a.ErrWriter = &bytes.Buffer{}
	a.Reader = bytes.NewBufferString(`{"Records":[]}`)
	a.ExitErrHandler = func(*cli.Context, error) {}

	err := a.Run([]string{"kbqa", "event", "--file", "-", "--handler", "nope"})
	assert.ErrorContains(t, err, "unknown handler")
}
