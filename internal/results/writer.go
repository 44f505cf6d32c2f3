// Package results writes answered questionnaires back to the object store.
package results

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/answer"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/apperr"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/core"
)

const (
	// DefaultPrefix holds every results object. Input notifications must not
	// cover it, or each write would trigger another run.
	DefaultPrefix = "QuestionsAnswered/"

	ContentType     = "text/csv; charset=utf-8"
	timestampLayout = "20060102-150405"
)

// Header returns the CSV header.
func Header() []string {
	return []string{"Question", "Answer"}
}

// WriteCSV writes rows with every field double-quoted, one row per resolution
// in the given order. Lines end in CRLF.
func WriteCSV(w io.Writer, rows []answer.Resolution) error {
	var buf bytes.Buffer
	writeRecord(&buf, Header())
	for _, r := range rows {
		writeRecord(&buf, []string{r.Question, r.Answer})
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeRecord(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}

// OutputKey derives the results key for an input key:
// {prefix}{basename without extension}_answered_{YYYYMMDD-HHMMSS}.csv.
func OutputKey(prefix, inputKey string, now time.Time) string {
	base := path.Base(inputKey)
	if stem := strings.TrimSuffix(base, path.Ext(base)); stem != "" {
		base = stem
	}
	return prefix + base + "_answered_" + now.Format(timestampLayout) + ".csv"
}

// IsOutputKey reports whether key lies under prefix.
func IsOutputKey(prefix, key string) bool {
	return prefix != "" && strings.HasPrefix(key, prefix)
}

// Writer stores results next to the input, under its own prefix.
type Writer struct {
	store  core.ObjectStore
	prefix string
	now    func() time.Time
}

type Option func(*Writer)

// WithClock replaces time.Now for output key timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		if now != nil {
			w.now = now
		}
	}
}

func NewWriter(store core.ObjectStore, prefix string, opts ...Option) *Writer {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	w := &Writer{
		store:  store,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Prefix returns the prefix results are written under.
func (w *Writer) Prefix() string {
	return w.prefix
}

// Write stores rows in bucket and returns the key it used. Store failures are
// *apperr.SinkWriteError.
func (w *Writer) Write(ctx context.Context, bucket, inputKey string, rows []answer.Resolution) (string, error) {
	key := OutputKey(w.prefix, inputKey, w.now())

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return key, &apperr.SinkWriteError{Bucket: bucket, Key: key, Err: fmt.Errorf("encode csv: %w", err)}
	}
	if err := w.store.Put(ctx, bucket, key, buf.Bytes(), ContentType); err != nil {
		return key, &apperr.SinkWriteError{Bucket: bucket, Key: key, Err: err}
	}
	return key, nil
}
