package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/cache"
	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/gateway"
	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/http/controller"
	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/http/middleware"
	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/http/router"
	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/messaging"
	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/policy"
	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/repository/postgres"
	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/security"
	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/validation"
	"github.com/api-sage/payment-reversal-engine/src/internal/config"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
	"github.com/api-sage/payment-reversal-engine/src/internal/usecase/services"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	var (
		skipMigrations  bool
		shutdownTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := logger.Init(cfg.Env); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !skipMigrations {
				if err := migrate(ctx, cfg); err != nil {
					return err
				}
			}
			return serve(ctx, cfg, shutdownTimeout)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on start")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 20*time.Second, "grace period for in-flight requests")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, shutdownTimeout time.Duration) error {
	db, err := postgres.Open(ctx, cfg.DatabaseDSN, cfg.DatabasePool)
	if err != nil {
		return err
	}
	defer db.Close()

	cipher, err := security.NewAccountCipher(cfg.AccountNumberKey)
	if err != nil {
		return err
	}

	redisClient := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()

	alerts := messaging.NewAlertPublisher(messaging.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.AlertTopic))
	defer alerts.Close()

	email, err := messaging.NewEmailPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
	if err != nil {
		return err
	}
	defer email.Close()

	transactions := postgres.NewTransactionRepository(db)
	auditLog := postgres.NewAuditLogRepository(db)
	entities := postgres.NewEntityRepository(db)
	transfers := postgres.NewClientTransferRepository(db)
	errorCodes := postgres.NewErrorCodeRepository(db)
	coreMessages := postgres.NewCoreMessageRepository(db, cipher)
	mappings := cache.NewCoreMappingCache(redisClient, postgres.NewCoreMappingRepository(db), cfg.Redis.CoreMappingTTL)

	gateways := gateway.NewRouter(
		gateway.NewProPayClient(cfg.Gateway.ProPayURL, cfg.Gateway.Timeout),
		gateway.NewPagoClient(cfg.Gateway.PagoURL, cfg.Gateway.Timeout),
	)

	reversalService := services.NewReversalService(
		transactions, auditLog, entities, transfers, alerts, coreMessages, mappings, cipher, errorCodes,
		cfg.EnableConsumerCreditCapture,
	)
	refundService := services.NewRefundService(
		transactions,
		auditLog,
		entities,
		postgres.NewProcessingDetailRepository(db),
		postgres.NewRefundRecordRepository(db),
		gateways,
		gateway.NewCardRefundClient(cfg.Gateway.CardRefundURL, cfg.Gateway.Timeout),
		transfers,
		alerts,
		coreMessages,
		mappings,
		policy.NewReversalWindow(cfg.RefundMaxAllowedDays),
		email,
		errorCodes,
		cipher,
	)
	finalizationService := services.NewFinalizationService(
		postgres.NewTransactionManager(db),
		transactions,
		auditLog,
		postgres.NewNotificationRepository(db),
		mappings,
		coreMessages,
	)
	settlementService := services.NewSettlementService(
		transfers, transfers, auditLog, entities, validation.NewRoutingNumberValidator(), errorCodes,
	)

	handler := router.New(
		middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKey),
		controller.NewReversalController(reversalService),
		controller.NewRefundController(refundService),
		controller.NewFinalizationController(finalizationService),
		controller.NewSettlementController(settlementService),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Gateway.Timeout + 30*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", logger.Fields{"addr": cfg.HTTPAddr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("http server shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}
