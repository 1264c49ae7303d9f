package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	appaddress "github.com/Zhima-Mochi/minishop-checkout/internal/application/address"
	appcart "github.com/Zhima-Mochi/minishop-checkout/internal/application/cart"
	appinventory "github.com/Zhima-Mochi/minishop-checkout/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-checkout/internal/application/order"
	"github.com/Zhima-Mochi/minishop-checkout/internal/config"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/notify"
	obsinfra "github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-checkout/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-checkout/internal/presentation/worker"
)

const instrumentationScope = "github.com/Zhima-Mochi/minishop-checkout"

type notifier interface {
	apporder.Notifier
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, telErr := telemetry.Setup(ctx, telemetry.Settings{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: config.ServiceVersion,
		Endpoint:       cfg.OtelEndpoint,
		AuthHeader:     cfg.OtelAuthHeader,
		Insecure:       cfg.OtelInsecure,
	})

	logOpts := logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		LogFile: cfg.LogFile,
		Debug:   cfg.Debug,
	}
	if cfg.OtelEndpoint != "" {
		logOpts.OTelScope = instrumentationScope
	}
	zapLogger := logging.MustNewLogger(logOpts)
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	logger := zaplogger.New(zapLogger)
	if telErr != nil {
		// Export is best effort; the service still runs without a collector.
		logger.Warn("telemetry_setup_degraded", observability.F("error", telErr))
	}

	counters, histograms := prometrics.Instruments(prometrics.New("", "", nil))
	tel := obsinfra.New(oteltrace.New(instrumentationScope), logger, counters, histograms)

	uow, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("store_open_failed", observability.F("store", cfg.Store), observability.F("error", err))
		os.Exit(1)
	}
	defer closeStore()

	bus := outbox.NewBus(tel, outbox.WithDecorator(workerpresentation.EventContext(logger)))

	sink, err := openNotifier(cfg, logger)
	if err != nil {
		logger.Error("notifier_open_failed", observability.F("transport", cfg.NotifyTransport), observability.F("error", err))
		os.Exit(1)
	}
	apporder.NewWorker(bus, sink, cfg.NotifyTransport, tel).Start()
	bus.Start(ctx)

	handler := httppresentation.NewHandler(httppresentation.Services{
		Ledger:    appinventory.NewLedger(uow, tel),
		Cart:      appcart.NewStore(uow, tel),
		Addresses: appaddress.NewBook(uow, tel),
		Convert:   apporder.NewConvertCartUseCase(uow, bus, tel),
		History:   apporder.NewHistory(uow, tel),
	}, logger, tel)

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.PathPrefix("/").Handler(handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", observability.F("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", observability.F("error", err))
	} else {
		logger.Info("http_server_stopped")
	}
	bus.Stop(shutdownCtx)
	if err := sink.Close(); err != nil {
		logger.Warn("notifier_close_error", observability.F("error", err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn("telemetry_shutdown_error", observability.F("error", err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (application.UnitOfWork, func(), error) {
	if cfg.Store != config.StorePostgres {
		return memory.NewStore(), func() {}, nil
	}
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return postgres.NewStore(pool), pool.Close, nil
}

func openNotifier(cfg *config.Config, logger observability.Logger) (notifier, error) {
	switch cfg.NotifyTransport {
	case config.TransportStan:
		return notify.DialStan(notify.StanConfig{
			ClusterID: cfg.StanClusterID,
			ClientID:  cfg.StanClientID,
			URL:       cfg.NatsURL,
			Subject:   cfg.NotifySubject,
		})
	case config.TransportKafka:
		return notify.NewKafka(notify.KafkaConfig{
			Broker:   cfg.KafkaBroker,
			Topic:    cfg.NotifyTopic,
			ClientID: cfg.ServiceName,
		}, otel.GetTracerProvider())
	default:
		return notify.NewLogNotifier(logger), nil
	}
}
