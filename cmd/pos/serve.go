package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-frontend/internal/aws"
	"github.com/imrishuroy/go-pos-frontend/internal/backend"
	"github.com/imrishuroy/go-pos-frontend/internal/cart"
	"github.com/imrishuroy/go-pos-frontend/internal/config"
	"github.com/imrishuroy/go-pos-frontend/internal/handlers"
	"github.com/imrishuroy/go-pos-frontend/internal/journal"
	"github.com/imrishuroy/go-pos-frontend/internal/logging"
	"github.com/imrishuroy/go-pos-frontend/internal/purchase"
	"github.com/imrishuroy/go-pos-frontend/internal/session"
)

const sweepInterval = 5 * time.Minute

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the POS web front-end",
		Long: `Run the POS web front-end. With RUN_LOCAL=true it listens on
POS_LISTEN_ADDR and serves every screen. Otherwise it starts as a Lambda
behind API Gateway that serves the history pages only: cashier sessions
are held in process memory and cannot move between Lambda instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterPOSRoutes(r, cfg)

	return r
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, err := backend.NewClient(cfg.APIBaseURL, backend.WithLogger(logger))
	if err != nil {
		return err
	}

	opts := []purchase.Option{purchase.WithLogger(logger)}
	var metrics purchase.Metrics
	if cfg.UsesAWS() {
		var services aws.Service
		if cfg.JournalTable != "" {
			services |= aws.ServiceJournal
		}
		if cfg.EventsQueueURL != "" {
			services |= aws.ServiceEvents
		}
		if cfg.MetricsNamespace != "" {
			services |= aws.ServiceMetrics
		}
		clients, err := aws.NewAWSClients(ctx, aws.Settings{
			Region:           cfg.AWSRegion,
			EndpointOverride: cfg.AWSEndpointOverride,
		}, services)
		if err != nil {
			return fmt.Errorf("failed to init aws clients: %w", err)
		}
		if cfg.JournalTable != "" {
			opts = append(opts, purchase.WithJournal(journal.NewStore(clients.DynamoDB, cfg.JournalTable)))
		}
		if cfg.EventsQueueURL != "" {
			opts = append(opts, purchase.WithEvents(aws.NewPublisher(clients.SQS, cfg.EventsQueueURL)))
		}
		if cfg.MetricsNamespace != "" {
			m := aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace)
			metrics = m
			opts = append(opts, purchase.WithMetrics(m))
		}
	}

	hc := handlers.HandlerConfig{
		Backend:       client,
		Metrics:       metrics,
		Logger:        logger,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.SecureCookies,
		HistoryOnly:   !cfg.RunLocal,
	}
	if cfg.RunLocal {
		hc.Sessions = session.NewRegistry(func(c *cart.Cart) *purchase.Controller {
			return purchase.NewController(c, client, cfg.EmployeeCode, opts...)
		}, cfg.SessionTTL)
		go sweepSessions(ctx, hc.Sessions, logger)
	}
	r := setupRouter(hc)

	if cfg.RunLocal {
		logger.Info("running local server",
			zap.String("addr", cfg.ListenAddr),
			zap.String("api_url", cfg.APIBaseURL),
			zap.Bool("journal", cfg.JournalTable != ""),
			zap.Bool("events", cfg.EventsQueueURL != ""),
			zap.Bool("metrics", cfg.MetricsNamespace != ""))
		if err := r.Run(cfg.ListenAddr); err != nil {
			return fmt.Errorf("failed to run local server: %w", err)
		}
		return nil
	}

	// lambda adapter; instances share no memory, so only history is served
	logger.Info("starting lambda handler", zap.Bool("history_only", hc.HistoryOnly))
	adapter := ginadapter.New(r)

	lambda.StartWithOptions(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	}, lambda.WithContext(ctx))
	return nil
}

func sweepSessions(ctx context.Context, sessions *session.Registry, logger *zap.Logger) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := sessions.Sweep(); n > 0 {
				logger.Info("expired sessions dropped", zap.Int("count", n), zap.Int("live", sessions.Len()))
			}
		}
	}
}
