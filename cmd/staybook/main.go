package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"staybook/internal/app/commands"
	"staybook/internal/app/handlers/bookinghandlers"
	"staybook/internal/app/handlers/calendarhandlers"
	"staybook/internal/app/handlers/pricinghandlers"
	"staybook/internal/app/handlers/rentalhandlers"
	appmw "staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	"staybook/internal/domain/shared/money"
	"staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/config"
	"staybook/internal/infra/db/mongodb"
	"staybook/internal/infra/httpapi"
	"staybook/internal/infra/obs"
	"staybook/internal/infra/relay"
	"staybook/internal/infra/storage/memory"
	"staybook/internal/infra/storage/redisstore"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := obs.NewLogger(cfg.Env, cfg.LogLevel)
	log.Info("starting", "env", cfg.Env, "storage", cfg.Storage, "addr", cfg.HTTPAddr)

	var (
		factory     uow.Factory
		outboxStore outbox.Store
	)
	switch cfg.Storage {
	case "mongo":
		db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return err
		}
		defer func() {
			_ = db.Client().Disconnect(context.Background())
		}()
		factory = mongodb.NewFactory(db)
		outboxStore = mongodb.NewOutboxStore(db)
	default:
		store := memory.NewStore()
		factory = memory.NewFactory(store)
		outboxStore = memory.NewOutbox()
	}

	var idemStore appmw.IdempotencyStore
	if cfg.Idempotency == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		defer client.Close()
		idemStore = redisstore.NewIdempotency(client, cfg.TopicPrefix)
	} else {
		idemStore = memory.NewIdempotency()
	}

	notifier := logNotifier{log: log}

	var publisher relay.Publisher
	if cfg.KafkaEnabled {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer producer.Close()
		publisher = producer

		// Booking events come back around to drive guest/owner notification
		// delivery out of band.
		consumer, err := kafka.NewConsumerGroup(cfg.KafkaBrokers, cfg.TopicPrefix+"-notifications",
			[]string{cfg.TopicPrefix + ".booking"}, notifyOnEvent(notifier), log)
		if err != nil {
			return err
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("consumer stopped", "err", err)
			}
		}()
	} else {
		publisher = logPublisher{log: log}
	}
	worker := relay.NewWorker(outboxStore, publisher, log, relay.Config{
		TopicPrefix: cfg.TopicPrefix,
		Interval:    cfg.RelayInterval,
	})
	go worker.Run(ctx)

	deps := bookinghandlers.Deps{
		Outbox:   outboxStore,
		Payments: noopPayments{},
		Notifier: notifier,
		Log:      log,
	}
	calDeps := calendarhandlers.Deps{Outbox: outboxStore, Log: log}
	rentalDeps := rentalhandlers.Deps{Log: log}

	cmdBus := commands.NewInMemoryBus()
	commands.RegisterHandler(cmdBus, bookinghandlers.RequestBookingKey, bookinghandlers.NewRequestBookingHandler(deps))
	commands.RegisterHandler(cmdBus, bookinghandlers.ConfirmBookingKey, bookinghandlers.NewConfirmBookingHandler(deps))
	commands.RegisterHandler(cmdBus, bookinghandlers.CancelBookingKey, bookinghandlers.NewCancelBookingHandler(deps))
	commands.RegisterHandler(cmdBus, bookinghandlers.CheckInBookingKey, bookinghandlers.NewCheckInBookingHandler(deps))
	commands.RegisterHandler(cmdBus, bookinghandlers.CheckOutBookingKey, bookinghandlers.NewCheckOutBookingHandler(deps))
	commands.RegisterHandler(cmdBus, bookinghandlers.CompleteBookingKey, bookinghandlers.NewCompleteBookingHandler(deps))
	commands.RegisterHandler(cmdBus, bookinghandlers.DisputeBookingKey, bookinghandlers.NewDisputeBookingHandler(deps))
	commands.RegisterHandler(cmdBus, calendarhandlers.BlockDaysKey, calendarhandlers.NewBlockDaysHandler(calDeps))
	commands.RegisterHandler(cmdBus, calendarhandlers.UnblockDaysKey, calendarhandlers.NewUnblockDaysHandler(calDeps))
	commands.RegisterHandler(cmdBus, calendarhandlers.SetDayPricingKey, calendarhandlers.NewSetDayPricingHandler(calDeps))
	commands.RegisterHandler(cmdBus, rentalhandlers.CreateRentalKey, rentalhandlers.NewCreateRentalHandler(rentalDeps))
	commands.RegisterHandler(cmdBus, rentalhandlers.UpdateRatesKey, rentalhandlers.NewUpdateRatesHandler(rentalDeps))

	pipeline := appmw.ChainCommands(cmdBus,
		appmw.Idempotency(idemStore),
		appmw.Transaction(factory),
		appmw.OutboxFlush(worker),
	)

	queryBus := queries.NewInMemoryBus()
	reads := bookinghandlers.NewReadHandler(factory)
	queries.RegisterHandler(queryBus, bookinghandlers.GetBookingKey, bookinghandlers.GetBookingHandler{ReadHandler: reads})
	queries.RegisterHandler(queryBus, bookinghandlers.ListGuestBookingsKey, bookinghandlers.ListGuestBookingsHandler{ReadHandler: reads})
	queries.RegisterHandler(queryBus, bookinghandlers.RefundPreviewKey, bookinghandlers.RefundPreviewHandler{ReadHandler: reads})
	queries.RegisterHandler(queryBus, calendarhandlers.GetCalendarKey, calendarhandlers.NewGetCalendarHandler(factory))
	queries.RegisterHandler(queryBus, pricinghandlers.GetQuoteKey, pricinghandlers.NewGetQuoteHandler(factory))

	server := httpapi.NewServer(pipeline, queryBus, log, httpapi.Options{
		Env:         cfg.Env,
		CORSOrigins: cfg.CORSOrigins,
	})

	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Handler()}
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// noopPayments stands in for a PSP integration: holds and refunds succeed
// immediately. Swap for a real adapter at the integration boundary.
type noopPayments struct{}

func (noopPayments) PlaceHold(_ context.Context, guestID string, _ money.Money) (string, error) {
	return "hold-" + guestID, nil
}
func (noopPayments) Capture(context.Context, string, money.Money) error { return nil }
func (noopPayments) Refund(context.Context, string, money.Money) error  { return nil }

type logNotifier struct{ log *slog.Logger }

func (n logNotifier) Send(_ context.Context, recipientID, subject, _ string) error {
	n.log.Info("notification", "recipient", recipientID, "subject", subject)
	return nil
}

// notifyOnEvent adapts consumed booking events into notifier sends. The
// envelope's aggregate ID names the booking; recipients are resolved by the
// notifier implementation.
func notifyOnEvent(n policies.Notifier) kafka.Handler {
	return func(ctx context.Context, _ string, _, payload []byte) error {
		var env struct {
			Type        string `json:"type"`
			AggregateID string `json:"aggregate_id"`
		}
		if err := json.Unmarshal(payload, &env); err != nil {
			return err
		}
		return n.Send(ctx, env.AggregateID, env.Type, "")
	}
}

type logPublisher struct{ log *slog.Logger }

func (p logPublisher) Publish(_ context.Context, topic, key string, payload []byte) error {
	p.log.Info("event published", "topic", topic, "key", key, "bytes", len(payload))
	return nil
}
