package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-frontend/internal/aws"
	"github.com/imrishuroy/go-pos-frontend/internal/backend"
	"github.com/imrishuroy/go-pos-frontend/internal/config"
	"github.com/imrishuroy/go-pos-frontend/internal/journal"
	"github.com/imrishuroy/go-pos-frontend/internal/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Debug)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JournalTable == "" {
		logger.Fatal("PURCHASE_JOURNAL_TABLE is required for the receipt worker")
	}

	clients, err := aws.NewAWSClients(ctx, aws.Settings{
		Region:           cfg.AWSRegion,
		EndpointOverride: cfg.AWSEndpointOverride,
	}, aws.ServiceJournal)
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}
	client, err := backend.NewClient(cfg.APIBaseURL, backend.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to init backend client", zap.Error(err))
	}

	p := NewProcessor(journal.NewStore(clients.DynamoDB, cfg.JournalTable), client, logger)

	// If RUN_LOCAL=true, process a single event from LOCAL_SQS_BODY and exit.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			logger.Fatal("LOCAL_SQS_BODY is required when RUN_LOCAL=true")
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local", Body: body}},
		}
		if err := p.Handle(ctx, event); err != nil {
			logger.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}
