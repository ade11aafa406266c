// Package rest exposes the board and the running layout over HTTP.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/samejima-ai/minute-board-app/interfaces/http/rest/handlers"
	"github.com/samejima-ai/minute-board-app/interfaces/http/rest/middleware"
	"github.com/samejima-ai/minute-board-app/pkg/api"
)

// Metrics is what the router needs from the metrics collector
type Metrics interface {
	ObserveHTTP(method, route, status string, duration time.Duration)
	Handler() http.Handler
}

// Options configures the optional parts of the router
type Options struct {
	// MetricsPath serves Metrics.Handler when Metrics is set
	MetricsPath string
	Metrics     Metrics
	// CircuitBreaker guards the mutation endpoints when set
	CircuitBreaker *middleware.CircuitBreakerConfig
	CORS           cors.Options
}

// Router creates and configures the HTTP router
type Router struct {
	board   handlers.Board
	layout  handlers.Layout
	logger  *zap.Logger
	options Options
}

// NewRouter creates a new router instance
func NewRouter(board handlers.Board, layout handlers.Layout, logger *zap.Logger, options Options) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		board:   board,
		layout:  layout,
		logger:  logger,
		options: options,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.options.Metrics != nil {
		router.Use(middleware.Metrics(rt.options.Metrics))
	}
	router.Use(cors.Handler(rt.options.CORS))

	router.Get("/health", rt.healthCheck)
	if rt.options.Metrics != nil && rt.options.MetricsPath != "" {
		router.Method(http.MethodGet, rt.options.MetricsPath, rt.options.Metrics.Handler())
	}

	noteHandler := handlers.NewNoteHandler(rt.board, rt.logger)
	layoutHandler := handlers.NewLayoutHandler(rt.layout, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		// Reads and the long-lived stream stay outside the breaker
		r.Get("/notes", noteHandler.ListNotes)
		r.Get("/notes/{noteID}", noteHandler.GetNote)
		r.Get("/board/capacity", noteHandler.GetCapacity)
		r.Get("/layout", layoutHandler.GetFrame)
		r.Get("/layout/stats", layoutHandler.GetStats)
		r.Get("/layout/stream", layoutHandler.Stream)
		r.Get("/layout/parameters", layoutHandler.GetParameters)

		r.Group(func(r chi.Router) {
			if rt.options.CircuitBreaker != nil {
				r.Use(middleware.CircuitBreaker(*rt.options.CircuitBreaker, rt.logger))
			}
			r.Use(chimiddleware.AllowContentType("application/json"))

			r.Post("/notes", noteHandler.AddNote)
			r.Put("/notes", noteHandler.ReplaceNotes)
			r.Delete("/notes/{noteID}", noteHandler.DeleteNote)
			r.Put("/board/capacity", noteHandler.SetCapacity)
			r.Put("/layout/viewport", layoutHandler.SetViewport)
			r.Put("/layout/parameters", layoutHandler.SetParameters)

			r.Route("/layout/nodes/{nodeID}/drag", func(r chi.Router) {
				r.Post("/start", layoutHandler.DragStart)
				r.Post("/move", layoutHandler.DragMove)
				r.Post("/end", layoutHandler.DragEnd)
			})
		})
	})

	return router
}

// healthCheck reports the layout phase; it fails once the layout is gone
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	stats, err := rt.layout.Stats(ctx)
	if err != nil {
		rt.logger.Warn("health check failed", zap.Error(err))
		api.Success(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	api.Success(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"layout": stats,
	})
}
