// Command answer-questions is the Lambda entry point that answers an uploaded
// questionnaire from the knowledge base.
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
	h := app.NewAnswerHandler(cfg, err, app.AWSAnswerDeps, app.WithLogger(logger))
	lambda.Start(h.Handle)
}
