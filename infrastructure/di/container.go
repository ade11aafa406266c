// Package di wires the noteboard components together with google/wire.
// Run `go generate ./infrastructure/di` after changing a provider.
package di

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/samejima-ai/minute-board-app/application/services"
	"github.com/samejima-ai/minute-board-app/domain/layout"
	"github.com/samejima-ai/minute-board-app/infrastructure/config"
	"github.com/samejima-ai/minute-board-app/infrastructure/frameloop"
	"github.com/samejima-ai/minute-board-app/infrastructure/observability"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *observability.Collector
	Tracer    *observability.TracerProvider
	FrameLoop *frameloop.Loop
	Board     *services.BoardService
	Handler   http.Handler
	Server    *http.Server
}

// ApplyConfig pushes a reloaded layout section and board capacity into the
// running components. Changes to frameRate or seed need a restart and are
// only logged. Not safe for concurrent use; the config watcher calls it from
// one goroutine.
func (c *Container) ApplyConfig(ctx context.Context, next *config.Config) {
	if next.Layout.FrameRate != c.Config.Layout.FrameRate || next.Layout.Seed != c.Config.Layout.Seed {
		c.Logger.Warn("frameRate and seed changes take effect after a restart")
	}
	reloaded := next.Layout.Parameters()
	_, err := c.FrameLoop.UpdateParameters(ctx, func(p *layout.Parameters) error {
		params := reloaded
		if params.ViewportWidth == 0 && params.ViewportHeight == 0 {
			// the file does not pin a viewport; keep the one the client reported
			params = params.WithViewport(p.ViewportWidth, p.ViewportHeight)
		}
		*p = params
		return nil
	})
	if err != nil {
		c.Logger.Error("failed to apply reloaded layout parameters", zap.Error(err))
		return
	}
	if next.Board.MaxNotes != c.Board.Capacity() {
		if err := c.Board.SetCapacity(ctx, next.Board.MaxNotes); err != nil {
			c.Logger.Error("failed to apply reloaded board capacity", zap.Error(err))
			return
		}
	}
	c.Config = next
	c.Logger.Info("applied reloaded configuration")
}
