package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/grpc"

	"github.com/phamquangkhanh2999/order-api/internal/config"
	"github.com/phamquangkhanh2999/order-api/internal/dal/postgres"
	"github.com/phamquangkhanh2999/order-api/internal/dal/rabbitmq"
	"github.com/phamquangkhanh2999/order-api/internal/dal/repositories/audit"
	postgresrepo "github.com/phamquangkhanh2999/order-api/internal/dal/repositories/order/postgres"
	"github.com/phamquangkhanh2999/order-api/internal/otel"
	"github.com/phamquangkhanh2999/order-api/internal/service/services/ordersvc"
	grpctransport "github.com/phamquangkhanh2999/order-api/internal/transport/grpc"
	httptransport "github.com/phamquangkhanh2999/order-api/internal/transport/http"
)

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	httpTransport  *httptransport.HTTPTransport
	grpcTransport  *grpctransport.GRPCTransport
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	otel           *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()

	loc, err := config.Location()
	if err != nil {
		panic(err)
	}

	app := &App{
		postgresClient: postgresClient,
		otel:           otelController,
	}

	svcOpts := []ordersvc.Option{
		ordersvc.WithOrderRepository(postgresrepo.NewPostgresOrderRepository(postgresClient.Pool())),
		ordersvc.WithLocation(loc),
		ordersvc.WithPageSizes(viper.GetInt("orders.default_page_size"), viper.GetInt("orders.max_page_size")),
	}

	if viper.GetBool("rabbitmq.enabled") {
		app.rabbitClient = rabbitmq.MustNewClient(viper.GetString("rabbitmq.url"))
		svcOpts = append(svcOpts, ordersvc.WithAuditRepository(
			audit.NewAuditRabbitMQRepository(app.rabbitClient, viper.GetString("rabbitmq.queue")),
		))
	}

	app.orderSvc = ordersvc.MustNewOrderService(svcOpts...)

	app.httpTransport = httptransport.NewHTTPTransport(app.orderSvc, postgresClient)
	app.httpTransport.RegisterRoutes()

	if viper.GetBool("server.grpc.enabled") {
		app.grpcTransport = grpctransport.NewGRPCTransport(app.orderSvc)
	}

	return app
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := a.httpTransport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	if a.grpcTransport != nil {
		go func() {
			if err := a.grpcTransport.Run(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				slog.Error("gRPC server error", "error", err)
			}
		}()
	}

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.shutdown(ctx)

	slog.Info("Application shutdown complete")
}

func (a *App) shutdown(ctx context.Context) {
	if err := a.httpTransport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if a.grpcTransport != nil {
		if err := a.grpcTransport.Shutdown(ctx); err != nil {
			slog.Error("gRPC server shutdown error", "error", err)
		} else {
			slog.Info("gRPC server stopped gracefully")
		}
	}

	if a.rabbitClient != nil {
		if err := a.rabbitClient.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		} else {
			slog.Info("RabbitMQ connection closed gracefully")
		}
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otel.Shutdown(ctx); err != nil {
		slog.Error("Tracer provider shutdown error", "error", err)
	}
}
