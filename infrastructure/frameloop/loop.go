// Package frameloop runs a layout engine on a single goroutine. Ticks,
// reconciliations, parameter changes and drag gestures are serialized
// through one command channel, so they never interleave mid-step.
package frameloop

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/samejima-ai/minute-board-app/domain/core/entities"
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	"github.com/samejima-ai/minute-board-app/domain/layout"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

// DefaultFrameRate is the tick frequency when none is configured
const DefaultFrameRate = 60

// ErrClosed is returned for commands issued after Close
var ErrClosed = pkgerrors.NewInternal("frame loop closed", nil)

type command struct {
	fn     func(*layout.Engine) error
	result chan error
}

// Option configures a Loop
type Option func(*Loop)

// WithFrameRate sets ticks per second
func WithFrameRate(fps int) Option {
	return func(l *Loop) {
		if fps > 0 {
			l.interval = time.Second / time.Duration(fps)
		}
	}
}

// WithTickSource replaces the wall-clock ticker, typically with a channel a
// test drives by hand.
func WithTickSource(ticks <-chan time.Time) Option {
	return func(l *Loop) {
		l.ticks = ticks
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithBroadcaster replaces the default frame broadcaster
func WithBroadcaster(b *Broadcaster) Option {
	return func(l *Loop) {
		if b != nil {
			l.broadcaster = b
		}
	}
}

// WithEngineOptions passes options through to the engine
func WithEngineOptions(opts ...layout.Option) Option {
	return func(l *Loop) {
		l.engineOpts = append(l.engineOpts, opts...)
	}
}

// Loop owns one engine and drives it from one goroutine
type Loop struct {
	engine      *layout.Engine
	engineOpts  []layout.Option
	broadcaster *Broadcaster
	logger      *zap.Logger

	interval time.Duration
	ticks    <-chan time.Time

	commands  chan command
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates the engine and starts the loop goroutine
func New(params layout.Parameters, opts ...Option) (*Loop, error) {
	l := &Loop{
		logger:   zap.NewNop(),
		interval: time.Second / DefaultFrameRate,
		commands: make(chan command),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.broadcaster == nil {
		l.broadcaster = NewBroadcaster(4, nil)
	}

	engineOpts := append([]layout.Option{layout.WithLogger(l.logger)}, l.engineOpts...)
	engineOpts = append(engineOpts, layout.WithFrameFunc(l.broadcaster.Publish))
	engine, err := layout.NewEngine(params, engineOpts...)
	if err != nil {
		return nil, err
	}
	l.engine = engine
	l.broadcaster.Publish(engine.Snapshot())

	var ticker *time.Ticker
	if l.ticks == nil {
		ticker = time.NewTicker(l.interval)
		l.ticks = ticker.C
	}
	go l.run(ticker)

	l.logger.Info("frame loop started", zap.Duration("interval", l.interval))
	return l, nil
}

func (l *Loop) run(ticker *time.Ticker) {
	defer close(l.done)
	if ticker != nil {
		defer ticker.Stop()
	}

	for {
		select {
		case <-l.stop:
			l.engine.Dispose()
			l.broadcaster.Close()
			return

		case cmd := <-l.commands:
			err := cmd.fn(l.engine)
			l.broadcaster.Publish(l.engine.Snapshot())
			cmd.result <- err

		case <-l.ticks:
			l.engine.Tick()
		}
	}
}

// Do runs fn on the loop goroutine and waits for it. fn must not retain
// the engine. ctx only bounds the wait for the loop to accept fn: once
// accepted, fn runs to completion and its result is returned, so a caller
// never sees an error for a mutation that was applied.
func (l *Loop) Do(ctx context.Context, fn func(*layout.Engine) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := command{fn: fn, result: make(chan error, 1)}

	select {
	case l.commands <- cmd:
	case <-l.stop:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-cmd.result
}

// Reconcile replaces the laid-out note set
func (l *Loop) Reconcile(ctx context.Context, notes []entities.Note) error {
	return l.Do(ctx, func(e *layout.Engine) error {
		return e.Reconcile(notes)
	})
}

// SetParameters replaces the live parameters
func (l *Loop) SetParameters(ctx context.Context, params layout.Parameters) error {
	return l.Do(ctx, func(e *layout.Engine) error {
		return e.SetParameters(params)
	})
}

// UpdateParameters applies patch to the current parameters and installs the
// result in a single loop step. Nothing changes when patch or validation
// fails.
func (l *Loop) UpdateParameters(ctx context.Context, patch func(*layout.Parameters) error) (layout.Parameters, error) {
	var params layout.Parameters
	err := l.Do(ctx, func(e *layout.Engine) error {
		next := e.Parameters()
		if err := patch(&next); err != nil {
			return err
		}
		if err := e.SetParameters(next); err != nil {
			return err
		}
		params = next
		return nil
	})
	return params, err
}

// SetViewport updates the viewport dimensions only
func (l *Loop) SetViewport(ctx context.Context, width, height float64) error {
	return l.Do(ctx, func(e *layout.Engine) error {
		return e.SetViewport(width, height)
	})
}

// Parameters returns the engine's active parameters
func (l *Loop) Parameters(ctx context.Context) (layout.Parameters, error) {
	var params layout.Parameters
	err := l.Do(ctx, func(e *layout.Engine) error {
		params = e.Parameters()
		return nil
	})
	return params, err
}

// Stats returns the engine counters
func (l *Loop) Stats(ctx context.Context) (layout.Stats, error) {
	var stats layout.Stats
	err := l.Do(ctx, func(e *layout.Engine) error {
		stats = e.Stats()
		return nil
	})
	return stats, err
}

// DragStart begins a gesture on id
func (l *Loop) DragStart(ctx context.Context, id valueobjects.NoteID, point valueobjects.Vector) error {
	return l.Do(ctx, func(e *layout.Engine) error {
		return e.Interaction().DragStart(id, point)
	})
}

// DragMove moves a dragged node by delta
func (l *Loop) DragMove(ctx context.Context, id valueobjects.NoteID, delta valueobjects.Vector) error {
	return l.Do(ctx, func(e *layout.Engine) error {
		return e.Interaction().DragMove(id, delta)
	})
}

// DragEnd releases id
func (l *Loop) DragEnd(ctx context.Context, id valueobjects.NoteID) error {
	return l.Do(ctx, func(e *layout.Engine) error {
		return e.Interaction().DragEnd(id)
	})
}

// Latest returns the most recently published frame
func (l *Loop) Latest() (layout.Frame, bool) {
	return l.broadcaster.Latest()
}

// Subscribe streams frames until the subscription or the loop is closed
func (l *Loop) Subscribe() *Subscription {
	return l.broadcaster.Subscribe()
}

// Close stops the loop and disposes the engine. It waits for the loop
// goroutine to exit.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.stop)
		<-l.done
		l.logger.Info("frame loop stopped")
	})
}
