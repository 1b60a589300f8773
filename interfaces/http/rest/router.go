// Package rest exposes the mind map session over HTTP
package rest

import (
	"context"
	"net/http"
	"time"

	"mindcanvas/application/commands/bus"
	querybus "mindcanvas/application/queries/bus"
	"mindcanvas/interfaces/http/rest/handlers"
	"mindcanvas/interfaces/http/rest/middleware"
	"mindcanvas/pkg/common"
	pkgerrors "mindcanvas/pkg/errors"
	"mindcanvas/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadyCheck reports whether the backing store is reachable
type ReadyCheck func(ctx context.Context) error

// Router creates and configures the HTTP router
type Router struct {
	commandBus     *bus.CommandBus
	queryBus       *querybus.QueryBus
	metrics        *observability.Collector
	errors         *pkgerrors.ErrorHandler
	logger         *zap.Logger
	allowedOrigins []string
	ready          ReadyCheck
	limiter        *middleware.RateLimiter
}

// NewRouter creates a new router instance. metrics and ready may be nil.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	metrics *observability.Collector,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
	allowedOrigins []string,
	ready ReadyCheck,
) *Router {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	return &Router{
		commandBus:     commandBus,
		queryBus:       queryBus,
		metrics:        metrics,
		errors:         errs,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		ready:          ready,
	}
}

// WithRateLimit limits each client to perMinute API requests. Health and
// metrics endpoints are not limited.
func (rt *Router) WithRateLimit(perMinute, burst int) *Router {
	if perMinute > 0 {
		rt.limiter = middleware.NewRateLimiter(perMinute, burst, rt.errors)
	}
	return rt
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(rt.metrics.HTTPMiddleware)
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	nodes := handlers.NewNodeHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
	edges := handlers.NewEdgeHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
	docs := handlers.NewDocumentHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)
	canvas := handlers.NewCanvasHandler(rt.commandBus, rt.queryBus, rt.errors, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		if rt.limiter != nil {
			r.Use(rt.limiter.Middleware)
		}
		r.Route("/nodes", nodes.Routes)
		edges.Routes(r)
		docs.Routes(r)
		canvas.Routes(r)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			rt.errors.Handle(w, r, pkgerrors.NewUnavailableError("storage").WithCause(err))
			return
		}
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
