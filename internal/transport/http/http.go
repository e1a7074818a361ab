package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/phamquangkhanh2999/order-api/docs"
	"github.com/phamquangkhanh2999/order-api/internal/service/models/order"
	createorder "github.com/phamquangkhanh2999/order-api/internal/transport/http/create_order"
	deleteorder "github.com/phamquangkhanh2999/order-api/internal/transport/http/delete_order"
	listorders "github.com/phamquangkhanh2999/order-api/internal/transport/http/list_orders"
	"github.com/phamquangkhanh2999/order-api/internal/transport/http/render"
	updateorder "github.com/phamquangkhanh2999/order-api/internal/transport/http/update_order"
	"github.com/phamquangkhanh2999/order-api/pkg/envelope"
	"github.com/phamquangkhanh2999/order-api/pkg/http/middleware/trace"
	"github.com/phamquangkhanh2999/order-api/pkg/logger"
	"github.com/phamquangkhanh2999/order-api/pkg/metrics"
)

type service interface {
	CreateOrder(ctx context.Context, o order.Order) (order.Order, error)
	ListOrders(ctx context.Context, f order.Filter) (order.ListResult, error)
	UpdateOrder(ctx context.Context, id string, patch order.Patch) (order.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// pinger reports whether the data store is reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	service service
	pinger  pinger
	metrics *metrics.ServerMetrics
}

func NewHTTPTransport(service service, pinger pinger) *HTTPTransport {
	serverMetrics := metrics.NewServerMetrics("http")
	router := newRouter(serverMetrics)
	server := newServer(router)

	return &HTTPTransport{
		server:  server,
		router:  router,
		service: service,
		pinger:  pinger,
		metrics: serverMetrics,
	}
}

// Run serves until Shutdown is called.
func (h *HTTPTransport) Run() error {
	slog.Info("Starting HTTP server", "address", h.server.Addr)

	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler returns the routed handler.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Post("/update/{id}", h.updateOrder)
		r.Delete("/{id}", h.deleteOrder)
	})

	h.router.Get("/health", h.health)
	h.router.Handle("/metrics", h.metrics.Handler())

	h.router.Get("/api-docs/openapi.json", serveOpenAPI)
	h.router.Get("/api-docs", http.RedirectHandler("/api-docs/index.html", http.StatusMovedPermanently).ServeHTTP)
	h.router.Get("/api-docs/*", httpSwagger.Handler(httpSwagger.URL("/api-docs/openapi.json")))
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.service)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.service)
}

func (h *HTTPTransport) updateOrder(w http.ResponseWriter, r *http.Request) {
	updateorder.UpdateOrder(w, r, h.service)
}

func (h *HTTPTransport) deleteOrder(w http.ResponseWriter, r *http.Request) {
	deleteorder.DeleteOrder(w, r, h.service)
}

func (h *HTTPTransport) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.pinger != nil {
		if err := h.pinger.Ping(ctx); err != nil {
			slog.Error("Health check failed", "error", err)
			render.JSON(w, http.StatusServiceUnavailable, envelope.Error[any](
				"Service unavailable", "Database is unreachable", http.StatusServiceUnavailable, 1, nil,
			))

			return
		}
	}

	render.JSON(w, http.StatusOK, envelope.Success(map[string]string{"status": "ok"}, "OK", "Service is healthy", http.StatusOK))
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if _, err := w.Write(docs.OpenAPI); err != nil {
		slog.Error("Error sending OpenAPI document", "error", err)
	}
}

func newRouter(serverMetrics *metrics.ServerMetrics) *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)
	router.Use(serverMetrics.Middleware)
	router.Use(recoverer)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		render.JSON(w, http.StatusNotFound, envelope.Error[any]("Not found", "Route not found", http.StatusNotFound, 1, nil))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		render.JSON(w, http.StatusMethodNotAllowed, envelope.Error[any](
			"Method not allowed", "Method not allowed", http.StatusMethodNotAllowed, 1, nil,
		))
	})

	return router
}

// recoverer turns a panic into the generic internal error envelope.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			slog.Error("Panic while handling request",
				"panic", rec,
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)
			render.JSON(w, http.StatusInternalServerError, envelope.Error[any](
				"An error occurred", "Internal server error", http.StatusInternalServerError, 1, nil,
			))
		}()

		next.ServeHTTP(w, r)
	})
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadTimeout:       viper.GetDuration("server.http.read_timeout"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      viper.GetDuration("server.http.write_timeout"),
	}
}
