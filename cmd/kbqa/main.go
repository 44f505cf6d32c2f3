// Command kbqa runs the questionnaire handlers outside Lambda.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	"github.com/urfave/cli/v2"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/app"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/awsclient"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/config"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/core"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/version"
	localio "github.com/adanalvarez/bedrock-secure-questionnaire-automation/pkg/pipeline/io/local"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	rootFlag := &cli.StringFlag{
		Name:  "root",
		Usage: "Serve buckets from subdirectories of this directory instead of S3",
	}
	return &cli.App{
		Name:    "kbqa",
		Usage:   "Answer security questionnaires from a knowledge base",
		Version: version.Current,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides LOG_LEVEL",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "answer",
				Usage:  "Answer the questionnaire at bucket/key",
				Action: answerCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "bucket", Aliases: []string{"b"}, Usage: "Bucket holding the questionnaire", Required: true},
					&cli.StringFlag{Name: "key", Aliases: []string{"k"}, Usage: "Object key of the questionnaire", Required: true},
					rootFlag,
				},
			},
			{
				Name:   "sync",
				Usage:  "Start a knowledge base ingestion job",
				Action: syncCommand,
			},
			{
				Name:   "event",
				Usage:  "Replay a saved S3 event through a handler",
				Action: eventCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Path to the event JSON, - for stdin", Required: true},
					&cli.StringFlag{Name: "handler", Usage: "Handler to run: answer or sync", Value: "answer"},
					rootFlag,
				},
			},
		},
	}
}

type handlerFunc func(context.Context, json.RawMessage) (app.Response, error)

func answerCommand(c *cli.Context) error {
	raw, err := s3EventJSON(c.String("bucket"), c.String("key"))
	if err != nil {
		return err
	}
	return run(c, answerHandler(c), raw)
}

func syncCommand(c *cli.Context) error {
	return run(c, syncHandler(c), nil)
}

func eventCommand(c *cli.Context) error {
	raw, err := readEvent(c.App.Reader, c.String("file"))
	if err != nil {
		return err
	}
	switch c.String("handler") {
	case "answer":
		return run(c, answerHandler(c), raw)
	case "sync":
		return run(c, syncHandler(c), raw)
	default:
		return cli.Exit(fmt.Sprintf("unknown handler %q", c.String("handler")), 2)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, err
}

func answerHandler(c *cli.Context) handlerFunc {
	cfg, err := loadConfig(c)
	logger := app.NewLogger(c.App.ErrWriter, cfg.LogLevel)
	var build app.AnswerDepsFunc = app.AWSAnswerDeps
	if root := c.String("root"); root != "" {
		build = localAnswerDeps(root)
	}
	return app.NewAnswerHandler(cfg, err, build, app.WithLogger(logger)).Handle
}

func syncHandler(c *cli.Context) handlerFunc {
	cfg, err := loadConfig(c)
	logger := app.NewLogger(c.App.ErrWriter, cfg.LogLevel)
	return app.NewIngestHandler(cfg, err, app.AWSIndexer, app.WithLogger(logger)).Handle
}

// localAnswerDeps keeps the generator remote but reads and writes objects
// under root/<bucket>/<key>.
func localAnswerDeps(root string) app.AnswerDepsFunc {
	return func(ctx context.Context, cfg config.Config) (app.AnswerDeps, error) {
		store, err := localio.NewDirStore(root)
		if err != nil {
			return app.AnswerDeps{}, err
		}
		gen, err := app.NewGenerator(ctx, cfg, func() core.Generator {
			return lazyBedrock(cfg.Region)
		})
		if err != nil {
			return app.AnswerDeps{}, err
		}
		return app.AnswerDeps{Store: store, Generator: gen}, nil
	}
}

// lazyBedrock loads AWS credentials on the first call.
func lazyBedrock(region string) core.GenerateFunc {
	var (
		mu  sync.Mutex
		gen *awsclient.Generator
	)
	return func(ctx context.Context, prompt, kbID, modelID string) (string, error) {
		mu.Lock()
		if gen == nil {
			awsCfg, err := awsclient.LoadConfig(ctx, region)
			if err != nil {
				mu.Unlock()
				return "", err
			}
			gen = awsclient.NewGenerator(awsCfg)
		}
		g := gen
		mu.Unlock()
		return g.RetrieveAndGenerate(ctx, prompt, kbID, modelID)
	}
}

func run(c *cli.Context, h handlerFunc, raw json.RawMessage) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := h(ctx, raw)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(c.App.Writer, string(out))
	if resp.StatusCode != 200 {
		return cli.Exit(resp.Message(), 1)
	}
	return nil
}

func s3EventJSON(bucket, key string) (json.RawMessage, error) {
	ev := events.S3Event{Records: []events.S3EventRecord{{
		EventSource: "aws:s3",
		EventName:   "ObjectCreated:Put",
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucket},
			Object: events.S3Object{Key: url.QueryEscape(key)},
		},
	}}}
	return json.Marshal(ev)
}

func readEvent(stdin io.Reader, path string) (json.RawMessage, error) {
	if strings.TrimSpace(path) == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
