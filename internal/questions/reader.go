// Package questions loads question files from the object store.
package questions

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/apperr"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/core"
)

var errNotUTF8 = errors.New("content is not valid UTF-8")

// Reader fetches a question file and splits it into questions.
type Reader struct {
	store core.ObjectStore
}

func NewReader(store core.ObjectStore) *Reader {
	return &Reader{store: store}
}

// Read returns the non-blank, trimmed lines of the object in file order.
// Duplicates are kept. Fetch or decode failures are *apperr.SourceReadError.
func (r *Reader) Read(ctx context.Context, bucket, key string) ([]string, error) {
	b, err := r.store.Get(ctx, bucket, key)
	if err != nil {
		return nil, &apperr.SourceReadError{Bucket: bucket, Key: key, Err: err}
	}
	if !utf8.Valid(b) {
		return nil, &apperr.SourceReadError{Bucket: bucket, Key: key, Err: errNotUTF8}
	}
	return Split(strings.TrimPrefix(string(b), "\ufeff")), nil
}

// Split breaks content into lines, trims each one and drops the blank ones.
func Split(content string) []string {
	lines := strings.FieldsFunc(content, func(r rune) bool { return r == '\n' || r == '\r' })
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
