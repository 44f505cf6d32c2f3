// Command sync-knowledge-base is the Lambda entry point that starts a
// knowledge base ingestion job when the document corpus changes.
package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/app"
	"github.com/adanalvarez/bedrock-secure-questionnaire-automation/internal/config"
)

func main() {
	cfg, err := config.Load()
	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	h := app.NewIngestHandler(cfg, err, app.AWSIndexer, app.WithLogger(logger))
	lambda.Start(h.Handle)
}
