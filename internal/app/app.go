package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nabilaes48/knockbites-kitchen-board/internal/dal/orderstore"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/dal/orderstore/seed"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/otel"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/rabbitmq"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/models/order"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/services/alertsvc"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/services/boardsvc"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/transport/alerts"
	httptransport "github.com/nabilaes48/knockbites-kitchen-board/internal/transport/http"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/transport/subscriber"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// App represents the application.
type App struct {
	boardSvc       *boardsvc.BoardService
	httpTransport  *httptransport.HTTPTransport
	rabbitMqClient *rabbitmq.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	rabbitMqClient := rabbitmq.MustNewClient()
	storeClient := orderstore.MustNewClient()

	alertPublisher := alerts.MustNewPublisher(rabbitMqClient)
	dispatcher := alertsvc.MustNewDispatcher(
		alertsvc.WithNotifier(alertPublisher),
		alertsvc.WithUrgentThreshold(time.Duration(viper.GetInt("alerts.urgent_threshold_minutes"))*time.Minute),
	)

	boardSvc := newBoardService(storeClient, rabbitMqClient, dispatcher)

	httpTransport := httptransport.NewHTTPTransport(boardSvc)
	httpTransport.RegisterRoutes()

	return &App{
		boardSvc:       boardSvc,
		httpTransport:  httpTransport,
		rabbitMqClient: rabbitMqClient,
		otelController: otelController,
	}
}

func newBoardService(storeClient *orderstore.Client, rabbitMqClient *rabbitmq.Client, dispatcher *alertsvc.Dispatcher) *boardsvc.BoardService {
	storeID := viper.GetString("store.id")
	if storeID == "" {
		panic("store.id is not set in config")
	}

	var fallback func(now time.Time) []order.Order
	if viper.GetBool("store.first_load_fallback") {
		fallback = seed.Orders
	}

	return boardsvc.MustNewBoardService(
		boardsvc.WithOrderStore(storeClient),
		boardsvc.WithSubscriber(subscriber.NewSubscriber(rabbitMqClient)),
		boardsvc.WithAlertDispatcher(dispatcher),
		boardsvc.WithStoreID(storeID),
		boardsvc.WithFallback(fallback),
	)
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.boardSvc.Start(ctx)

	if _, _, err := a.boardSvc.Load(ctx); err != nil {
		slog.Error("Initial load failed, board starts from the last known state", "error", err)
	}

	if err := a.boardSvc.StartRealtime(ctx); err != nil {
		slog.Error("Realtime updates unavailable, relying on auto-refresh", "error", err)
	}

	interval := time.Duration(viper.GetInt("refresh.interval_seconds")) * time.Second
	a.boardSvc.StartAutoRefresh(ctx, interval)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting HTTP transport")
		if err := a.httpTransport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})
	go func() {
		if err := g.Wait(); err != nil {
			slog.Error("HTTP transport error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown performs graceful shutdown of all application components.
// It shuts down components sequentially: board service, HTTP transport,
// RabbitMQ, and OpenTelemetry.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.boardSvc.Stop()
	slog.Info("Board service stopped gracefully")

	if err := a.httpTransport.Shutdown(ctx); err != nil {
		slog.Error("HTTP transport shutdown error", "error", err)
	} else {
		slog.Info("HTTP transport stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
