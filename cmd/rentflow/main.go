package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"rentflow/internal/app/clock"
	"rentflow/internal/app/commands"
	bookingapp "rentflow/internal/app/handlers/booking"
	refundapp "rentflow/internal/app/handlers/refund"
	walletapp "rentflow/internal/app/handlers/wallet"
	"rentflow/internal/app/middleware"
	appoutbox "rentflow/internal/app/outbox"
	"rentflow/internal/app/policies"
	"rentflow/internal/app/queries"
	"rentflow/internal/app/uow"
	"rentflow/internal/infra/broker/kafka"
	"rentflow/internal/infra/config"
	mongostore "rentflow/internal/infra/db/mongo"
	ginserver "rentflow/internal/infra/http/gin"
	"rentflow/internal/infra/notify"
	"rentflow/internal/infra/obs"
	infraoutbox "rentflow/internal/infra/outbox"
	"rentflow/internal/infra/security"
	"rentflow/internal/infra/storage/memory"
	redisstore "rentflow/internal/infra/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV")).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	if cfg.FixturesPath != "" {
		if err := loadFixtures(ctx, cfg.FixturesPath, app.fixtures, logger); err != nil {
			logger.Warn("fixtures load failed", "error", err, "path", cfg.FixturesPath)
		}
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.Store, "kafka", cfg.KafkaEnabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	health   obs.HealthHandlers
	fixtures fixtureSink
	worker   *infraoutbox.Worker
	closers  []func(context.Context) error
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{health: obs.HealthHandlers{Checks: map[string]func(context.Context) error{}}}

	var producer *kafka.Producer
	if cfg.KafkaEnabled() {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, "rentflow")
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		producer = p
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
	}
	var publisher *infraoutbox.Publisher
	if producer != nil {
		publisher = &infraoutbox.Publisher{Producer: producer, TopicPrefix: cfg.KafkaTopicPrefix}
	}

	var (
		factory     uow.UoWFactory
		eventBox    appoutbox.Outbox
		idempotency middleware.IdempotencyStore
	)
	switch cfg.Store {
	case config.StoreMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		if err := client.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		store, err := infraoutbox.NewStore(ctx, client.DB)
		if err != nil {
			return nil, fmt.Errorf("outbox store: %w", err)
		}
		mf := mongostore.NewFactory(client.DB, store)
		factory, eventBox = mf, store
		app.fixtures = mongoFixtures{f: mf}
		app.health.Checks["mongo"] = client.Ping
		if publisher != nil {
			app.worker = &infraoutbox.Worker{
				Store:     store,
				Publisher: publisher,
				Interval:  cfg.OutboxPollInterval,
				Backoff:   cfg.RetryBackoff,
				Logger:    logger.With("component", "outbox"),
			}
		}
		if cfg.IdempotencyBackend == config.IdempotencyMongo {
			idempotency, err = mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
			if err != nil {
				return nil, fmt.Errorf("idempotency store: %w", err)
			}
		}
	default:
		store := memory.NewStore()
		if publisher != nil {
			store.Outbox().SetPublisher(publisher)
		}
		factory, eventBox = memory.Factory{Store: store}, store.Outbox()
		app.fixtures = memoryFixtures{s: store}
	}

	switch cfg.IdempotencyBackend {
	case config.IdempotencyRedis:
		client := redisstore.NewClient(cfg.RedisAddr)
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		store := redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
		app.health.Checks["redis"] = store.Ping
		idempotency = store
	case config.IdempotencyMemory:
		idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}

	var notifier policies.Notifier = notify.LogNotifier{Logger: logger.With("component", "notifications")}
	if producer != nil {
		notifier = notify.BrokerNotifier{Producer: producer, Topic: cfg.KafkaTopicPrefix + cfg.NotificationsTopic}
	}

	clk := clock.NewSystem()
	pins := security.BcryptPinIssuer{Cost: cfg.PinHashCost}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		Clock: clk, NewID: uuid.NewString, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.UpdateBookingStatusCommand{}.Key(), &bookingapp.UpdateBookingStatusHandler{
		Clock: clk, Pins: pins, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.SubmitHandoverPinCommand{}.Key(), &bookingapp.SubmitHandoverPinHandler{
		Clock: clk, Pins: pins, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(commandBus, refundapp.CreateRefundRequestCommand{}.Key(), &refundapp.CreateRefundRequestHandler{
		Clock: clk, NewID: uuid.NewString, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(commandBus, refundapp.UpdateRefundStatusCommand{}.Key(), &refundapp.UpdateRefundStatusHandler{
		Clock: clk, AdminID: cfg.AdminUserID, NewID: uuid.NewString, Encoder: encoder, Logger: logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{
		UoWFactory: factory, AdminID: cfg.AdminUserID,
	})
	queries.RegisterHandler(queryBus, refundapp.GetRefundRequestQuery{}.Key(), &refundapp.GetRefundRequestHandler{
		UoWFactory: factory, AdminID: cfg.AdminUserID,
	})
	queries.RegisterHandler(queryBus, walletapp.ListTransactionsQuery{}.Key(), &walletapp.ListTransactionsHandler{
		UoWFactory: factory, AdminID: cfg.AdminUserID,
	})

	logger.Debug("buses assembled", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	validator := middleware.NewStructValidator()
	commandsWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.Idempotency(idempotency, nil),
		middleware.Notifications(notifier, logger),
		middleware.OutboxFlush(eventBox, logger),
		middleware.Transaction(factory, nil),
	)
	queriesWithMiddleware := middleware.ChainQueries(queryBus, middleware.QueryValidation(validator))

	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{Commands: commandsWithMiddleware, Queries: queriesWithMiddleware, Logger: logger},
		Refund:  ginserver.RefundHandler{Commands: commandsWithMiddleware, Queries: queriesWithMiddleware, Logger: logger},
		Wallet:  ginserver.WalletHandler{Queries: queriesWithMiddleware, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{
			Verifier: security.NewTokenVerifier(cfg.JWTSecret),
			Logger:   logger,
		}.Handle,
	}
	return app, nil
}
