package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/core"
	localio "github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/io/local"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/redact"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/retry"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/worker"
)

func TestPublicPackagesCompile(t *testing.T) {
	t.Parallel()

	var store core.ObjectStore
	s, err := localio.NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore failed: %v", err)
	}
	store = s
	if err := store.Put(context.Background(), "b", "k.txt", []byte("x"), "text/plain"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var gen core.Generator = core.GenerateFunc(func(context.Context, string, string, string) (string, error) {
		return "", &core.TransientError{Op: "generate", Err: errors.New("unavailable")}
	})

	out, err := worker.ProcessAll(context.Background(), []string{"q"}, func(ctx context.Context, q string) (string, error) {
		return retry.Do(ctx, retry.Policy{
			MaxAttempts: 2,
			Backoff:     retry.Constant(time.Second),
			Sleep:       func(context.Context, time.Duration) error { return nil },
		}, func(ctx context.Context, _ int) (string, error) {
			return gen.RetrieveAndGenerate(ctx, q, "kb", "model")
		}, retry.FailOpen("fallback"))
	}, worker.Options{Workers: 1})
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}
	if len(out) != 1 || out[0].Output != "fallback" {
		t.Fatalf("unexpected output: %#v", out)
	}

	if got := redact.Secrets("Authorization: Bearer abc.def"); got == "Authorization: Bearer abc.def" {
		t.Fatalf("secret not redacted: %q", got)
	}
}
