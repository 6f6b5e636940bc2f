package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	advancestatus "github.com/nabilaes48/knockbites-kitchen-board/internal/transport/http/v1/advance_status"
	listorders "github.com/nabilaes48/knockbites-kitchen-board/internal/transport/http/v1/list_orders"
	overridestatus "github.com/nabilaes48/knockbites-kitchen-board/internal/transport/http/v1/override_status"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/models/order"
	"github.com/nabilaes48/knockbites-kitchen-board/pkg/http/middleware/trace"
	"github.com/nabilaes48/knockbites-kitchen-board/pkg/logger"
	"github.com/spf13/viper"
)

// service is the board surface the screen frontend talks to.
type service interface {
	Filtered(status order.Status, orderType order.OrderType) []order.Order
	AdvanceStatus(ctx context.Context, orderID string) (order.Status, error)
	OverrideStatus(ctx context.Context, orderID string, status order.Status) error
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	service service
}

func NewHTTPTransport(service service) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:  server,
		router:  router,
		service: service,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown stops the server, letting in-flight requests finish.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/orders", h.listOrders)
		r.Post("/orders/{orderID}/advance", h.advanceStatus)
		r.Post("/orders/{orderID}/status", h.overrideStatus)
	})
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.service)
}

func (h *HTTPTransport) advanceStatus(w http.ResponseWriter, r *http.Request) {
	advancestatus.AdvanceStatus(w, r, h.service)
}

func (h *HTTPTransport) overrideStatus(w http.ResponseWriter, r *http.Request) {
	overridestatus.OverrideStatus(w, r, h.service)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)

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

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
