package results_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/answer"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/apperr"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/results"
)

type putCall struct {
	bucket, key, contentType string
	data                     []byte
}

type fakeStore struct {
	puts []putCall
	err  error
}

func (f *fakeStore) Get(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("write-only")
}

func (f *fakeStore) Put(_ context.Context, bucket, key string, data []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.puts = append(f.puts, putCall{bucket: bucket, key: key, data: data, contentType: contentType})
	return nil
}

func TestOutputKey(t *testing.T) {
	at := time.Date(2024, 6, 1, 10, 15, 30, 0, time.UTC)
	tests := []struct {
		in   string
		want string
	}{
		{in: "incoming/Q3-audit.txt", want: "QuestionsAnswered/Q3-audit_answered_20240601-101530.csv"},
		{in: "Q3-audit.txt", want: "QuestionsAnswered/Q3-audit_answered_20240601-101530.csv"},
		{in: "a/b/c/vendor.review.txt", want: "QuestionsAnswered/vendor.review_answered_20240601-101530.csv"},
		{in: "incoming/noext", want: "QuestionsAnswered/noext_answered_20240601-101530.csv"},
		{in: "incoming/.hidden", want: "QuestionsAnswered/.hidden_answered_20240601-101530.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, results.OutputKey(results.DefaultPrefix, tt.in, at))
		})
	}
}

func TestIsOutputKey(t *testing.T) {
	assert.True(t, results.IsOutputKey("QuestionsAnswered/", "QuestionsAnswered/x_answered_1.csv"))
	assert.False(t, results.IsOutputKey("QuestionsAnswered/", "incoming/x.txt"))
	assert.False(t, results.IsOutputKey("", "anything"))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := results.WriteCSV(&buf, []answer.Resolution{
		{Question: "What is our password policy?", Answer: "Minimum 14 characters, rotated yearly."},
		{Question: `Do we use "MFA"?`, Answer: "Yes,\neverywhere"},
		{Question: "Do we encrypt data at rest?", Answer: answer.ManualReview},
	})
	require.NoError(t, err)

	want := "\"Question\",\"Answer\"\r\n" +
		"\"What is our password policy?\",\"Minimum 14 characters, rotated yearly.\"\r\n" +
		"\"Do we use \"\"MFA\"\"?\",\"Yes,\neverywhere\"\r\n" +
		"\"Do we encrypt data at rest?\",\"To be manually reviewed\"\r\n"
	assert.Equal(t, want, buf.String())

	// Standard readers round-trip the quoting.
	recs, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, []string{`Do we use "MFA"?`, "Yes,\neverywhere"}, recs[2])
}

func TestWriteCSV_HeaderOnlyWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, results.WriteCSV(&buf, nil))
	assert.Equal(t, "\"Question\",\"Answer\"\r\n", buf.String())
}

func TestWriter_Write(t *testing.T) {
	store := &fakeStore{}
	at := time.Date(2024, 6, 1, 10, 15, 30, 0, time.UTC)
	w := results.NewWriter(store, "", results.WithClock(func() time.Time { return at }))

	rows := []answer.Resolution{{Question: "q1", Answer: "a1"}, {Question: "q2", Answer: "a2"}}
	key, err := w.Write(context.Background(), "bucket", "incoming/Q3-audit.txt", rows)
	require.NoError(t, err)
	assert.Equal(t, "QuestionsAnswered/Q3-audit_answered_20240601-101530.csv", key)

	require.Len(t, store.puts, 1)
	put := store.puts[0]
	assert.Equal(t, "bucket", put.bucket)
	assert.Equal(t, key, put.key)
	assert.Equal(t, results.ContentType, put.contentType)

	recs, err := csv.NewReader(bytes.NewReader(put.data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, recs, len(rows)+1, "one row per resolution plus header")
	assert.Equal(t, []string{"q1", "a1"}, recs[1])
	assert.Equal(t, []string{"q2", "a2"}, recs[2])
}

func TestWriter_WriteFailure(t *testing.T) {
	w := results.NewWriter(&fakeStore{err: errors.New("AccessDenied")}, "out/")
	key, err := w.Write(context.Background(), "bucket", "in/q.txt", nil)
	var se *apperr.SinkWriteError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, key, se.Key)
	assert.Equal(t, "out/", w.Prefix())
	assert.Equal(t, 500, apperr.StatusCode(err))
}
