package di

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/samejima-ai/minute-board-app/application/ports"
	"github.com/samejima-ai/minute-board-app/application/services"
	"github.com/samejima-ai/minute-board-app/domain/layout"
	"github.com/samejima-ai/minute-board-app/infrastructure/config"
	"github.com/samejima-ai/minute-board-app/infrastructure/frameloop"
	"github.com/samejima-ai/minute-board-app/infrastructure/observability"
	"github.com/samejima-ai/minute-board-app/interfaces/http/rest"
	"github.com/samejima-ai/minute-board-app/interfaces/http/rest/middleware"
)

// Version is reported by tracing resources and the version command
var Version = "dev"

// subscriberBuffer is the per-client frame backlog of the stream
const subscriberBuffer = 4

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(string(cfg.Environment), cfg.Logging.Level)
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// ProvideTracerProvider installs the global tracer provider. The cleanup
// flushes pending spans.
func ProvideTracerProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     Version,
		Environment: string(cfg.Environment),
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideFrameLoop starts the layout engine on its own goroutine. The
// cleanup disposes the engine and ends every frame stream.
func ProvideFrameLoop(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) (*frameloop.Loop, func(), error) {
	engineOpts := []layout.Option{layout.WithRecorder(metrics)}
	if cfg.Layout.Seed != 0 {
		engineOpts = append(engineOpts, layout.WithSeed(cfg.Layout.Seed))
	}

	loop, err := frameloop.New(cfg.Layout.Parameters(),
		frameloop.WithFrameRate(cfg.Layout.FrameRate),
		frameloop.WithLogger(logger.Named("layout")),
		frameloop.WithBroadcaster(frameloop.NewBroadcaster(subscriberBuffer, metrics)),
		frameloop.WithEngineOptions(engineOpts...),
	)
	if err != nil {
		return nil, nil, err
	}
	return loop, loop.Close, nil
}

// ProvideLayoutRuntime exposes the frame loop as the board's layout port
func ProvideLayoutRuntime(loop *frameloop.Loop) ports.LayoutRuntime {
	return loop
}

// ProvideBoardService creates the board fed by the upstream pipeline
func ProvideBoardService(runtime ports.LayoutRuntime, cfg *config.Config, logger *zap.Logger) *services.BoardService {
	return services.NewBoardService(runtime, services.BoardConfig{
		MaxNotes:            cfg.Board.MaxNotes,
		EnableDeduplication: cfg.Board.EnableDeduplication,
	}, logger.Named("board"))
}

// ProvideHTTPHandler builds the chi router with its middleware chain
func ProvideHTTPHandler(
	cfg *config.Config,
	board *services.BoardService,
	loop *frameloop.Loop,
	metrics *observability.Collector,
	logger *zap.Logger,
) http.Handler {
	opts := rest.Options{
		CORS: cors.Options{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: cfg.CORS.AllowedMethods,
			AllowedHeaders: cfg.CORS.AllowedHeaders,
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         cfg.CORS.MaxAge,
		},
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = metrics
		opts.MetricsPath = cfg.Metrics.Path
	}
	if cfg.CircuitBreaker.Enabled {
		opts.CircuitBreaker = &middleware.CircuitBreakerConfig{
			Name:             "noteboard-api",
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			Interval:         cfg.CircuitBreaker.Interval,
			Timeout:          cfg.CircuitBreaker.Timeout,
			FailureThreshold: cfg.CircuitBreaker.FailureRatio,
			MinRequests:      cfg.CircuitBreaker.MinRequests,
		}
	}
	return rest.NewRouter(board, loop, logger.Named("http"), opts).Setup()
}

// ProvideHTTPServer creates the HTTP server; it is started by the caller
func ProvideHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}
